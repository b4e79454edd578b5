package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes (E200-E299).
const (
	ErrCodeRead      = "E201" // file cannot be read
	ErrCodeParse     = "E202" // YAML syntax error or unknown field
	ErrCodeSchema    = "E203" // schema violation
	ErrCodeCatalogue = "E204" // catalogue cannot be loaded
	ErrCodeOptions   = "E205" // values the search rejects
)

// ValidationError is one problem found in a configuration or catalogue.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// LoadError reports every problem found in one file.
type LoadError struct {
	Path   string
	Errors []ValidationError
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("%s: %s", e.Path, strings.Join(msgs, "; "))
}

// Code returns the code of the first problem.
func (e *LoadError) Code() string {
	if len(e.Errors) == 0 {
		return ""
	}
	return e.Errors[0].Code
}

// IsLoadError returns true if err is a *LoadError.
// Uses errors.As to handle wrapped errors.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

func loadError(path, code, format string, args ...any) *LoadError {
	return &LoadError{Path: path, Errors: []ValidationError{{Code: code, Message: fmt.Sprintf(format, args...)}}}
}
