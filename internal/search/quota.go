package search

import (
	"errors"
	"fmt"
)

// Default limits. Both guard against a database whose reactions define
// components in terms of each other without end.
const (
	// DefaultMaxSubstitutions bounds the substitutions applied to one record
	// during the stoichiometry rewrite.
	DefaultMaxSubstitutions = 1000
)

// QuotaEnforcer counts steps of a bounded loop and fails once a limit is
// passed. The closure engine uses one for passes and the rewriter one per
// record.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a quota enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the step counter and validates it against the limit.
// Returns *StepsExceededError once the limit is exceeded.
func (q *QuotaEnforcer) Check(scope string) error {
	q.current++
	if q.current > q.maxSteps {
		return &StepsExceededError{Scope: scope, Steps: q.current, Limit: q.maxSteps}
	}
	return nil
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when a bounded loop exceeds its quota.
type StepsExceededError struct {
	Scope string
	Steps int
	Limit int
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("%s exceeded quota: %d steps > %d limit", e.Scope, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if err is a *StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
