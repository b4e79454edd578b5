package search

import (
	"log/slog"

	"github.com/roach88/dbsearch/internal/dbfile"
	"github.com/roach88/dbsearch/internal/ir"
)

// Engine runs closure searches. An Engine holds only collaborators; every
// Search call owns its own state, so one Engine may serve many searches,
// one at a time or concurrently.
type Engine struct {
	opener           dbfile.Opener
	confirmer        Confirmer
	sink             Sink
	logger           *slog.Logger
	runIDs           RunIDGenerator
	maxSubstitutions int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithOpener sets how databases are opened. Default: dbfile.Open.
func WithOpener(open dbfile.Opener) EngineOption {
	return func(e *Engine) {
		e.opener = open
	}
}

// WithConfirmer sets who decides on warnings. Default: AutoConfirm.
func WithConfirmer(c Confirmer) EngineOption {
	return func(e *Engine) {
		e.confirmer = c
	}
}

// WithSink sets the event sink. Default: NopSink.
func WithSink(s Sink) EngineOption {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRunIDGenerator sets the run ID generator. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithMaxSubstitutions bounds the rewrite substitutions per record.
//
// Default: 1000 (DefaultMaxSubstitutions).
func WithMaxSubstitutions(n int) EngineOption {
	return func(e *Engine) {
		e.maxSubstitutions = n
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		opener:           dbfile.Open,
		confirmer:        AutoConfirm{},
		sink:             NopSink{},
		logger:           slog.Default(),
		runIDs:           UUIDv7Generator{},
		maxSubstitutions: DefaultMaxSubstitutions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is a closed and rewritten search.
type Result struct {
	RunID string
	// Records are soluble records followed by solid records.
	Records []ir.Record
	NX      int
	NF      int
	// Original are the user's components.
	Original []string
	// Discovered are the defining records of discovered redox components,
	// in discovery order.
	Discovered []ir.Record
	Passes     int
	// Candidates and Excluded are the redox lists the search ran with.
	Candidates []string
	Excluded   []string
	// ExcludedSolids names the solids dropped by the solid mode.
	ExcludedSolids []string
	Warnings       []Warning
}

// Soluble returns the soluble records.
func (r *Result) Soluble() []ir.Record {
	return r.Records[:r.NX]
}

// Solids returns the solid records.
func (r *Result) Solids() []ir.Record {
	return r.Records[r.NX:]
}

// DiscoveredNames returns the names of the discovered components.
func (r *Result) DiscoveredNames() []string {
	out := make([]string, len(r.Discovered))
	for i, d := range r.Discovered {
		out[i] = d.Name
	}
	return out
}

// Components returns every component of the closed selection, original
// ones first.
func (r *Result) Components() []string {
	return append(append([]string{}, r.Original...), r.DiscoveredNames()...)
}
