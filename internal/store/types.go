package store

import (
	"errors"
	"fmt"

	"github.com/roach88/dbsearch/internal/ir"
	"github.com/roach88/dbsearch/internal/search"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// ErrDuplicateRun is returned when a run ID is saved twice.
var ErrDuplicateRun = errors.New("run already stored")

// Run is a stored search run.
type Run struct {
	ID string `json:"id"`
	// Seq is assigned by SaveRun: 1 for the first run of a store.
	Seq        int64            `json:"seq"`
	Components []string         `json:"components"`
	Databases  []string         `json:"databases"`
	Solids     string           `json:"solids"`
	Passes     int              `json:"passes"`
	NX         int              `json:"nx"`
	NF         int              `json:"nf"`
	Records    []ir.Record      `json:"records"`
	Discovered []ir.Record      `json:"discovered"`
	Warnings   []search.Warning `json:"warnings,omitempty"`
	// ResultHash is assigned by SaveRun from the record hashes.
	ResultHash    string `json:"result_hash"`
	EngineVersion string `json:"engine_version"`
	IRVersion     string `json:"ir_version"`
}

// RunSummary is a run without its records, as listed by ListRuns.
type RunSummary struct {
	ID         string   `json:"id"`
	Seq        int64    `json:"seq"`
	Components []string `json:"components"`
	Passes     int      `json:"passes"`
	NX         int      `json:"nx"`
	NF         int      `json:"nf"`
	ResultHash string   `json:"result_hash"`
}

// FromResult builds a Run from a search result and the options it ran
// with.
func FromResult(res *search.Result, opts search.Options) Run {
	return Run{
		ID:            res.RunID,
		Components:    res.Components(),
		Databases:     append([]string(nil), opts.Databases...),
		Solids:        opts.Solids.String(),
		Passes:        res.Passes,
		NX:            res.NX,
		NF:            res.NF,
		Records:       append([]ir.Record(nil), res.Records...),
		Discovered:    append([]ir.Record(nil), res.Discovered...),
		Warnings:      append([]search.Warning(nil), res.Warnings...),
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
}

// Soluble returns the soluble records of the run.
func (r Run) Soluble() []ir.Record {
	return r.Records[:r.NX]
}

// Solids returns the solid records of the run.
func (r Run) Solids() []ir.Record {
	return r.Records[r.NX:]
}

// IntegrityError reports a stored record or run whose content no longer
// matches its hash.
type IntegrityError struct {
	RunID string
	// Position is the result position of the bad record, or -1 for the
	// run's result hash.
	Position int
	Want     string
	Got      string
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("run %s: result hash mismatch: stored %s, computed %s", e.RunID, e.Want, e.Got)
	}
	return fmt.Sprintf("run %s: record %d hash mismatch: stored %s, computed %s", e.RunID, e.Position, e.Want, e.Got)
}

// IsIntegrityError returns true if err is an *IntegrityError.
// Uses errors.As to handle wrapped errors.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
