package harness

import (
	"github.com/roach88/dbsearch/internal/search"
)

// TraceEvent is one search event as recorded by the harness.
type TraceEvent struct {
	Kind    string `json:"kind"`
	Pass    int    `json:"pass,omitempty"`
	File    string `json:"file,omitempty"`
	Ordinal int    `json:"ordinal,omitempty"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the search outcome and every assertion match.
	Pass bool `json:"pass"`

	// Trace contains the search events in order, without progress events.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Search is the search result; nil when the search failed.
	Search *search.Result `json:"-"`

	// Err is the search error, if any.
	Err error `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends ev to the trace. Progress events are dropped.
func (r *Result) AddEvent(ev search.Event) {
	if ev.Kind == search.EventProgress {
		return
	}
	r.Trace = append(r.Trace, TraceEvent{
		Kind:    string(ev.Kind),
		Pass:    ev.Pass,
		File:    ev.File,
		Ordinal: ev.Ordinal,
		Name:    ev.Name,
		Message: ev.Message,
	})
}
