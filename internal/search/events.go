package search

import (
	"context"
	"log/slog"
	"sync"
)

// EventKind names a step of a search.
type EventKind string

const (
	EventPassStarted         EventKind = "pass_started"
	EventFileStarted         EventKind = "file_started"
	EventRecordAccepted      EventKind = "record_accepted"
	EventRecordReplaced      EventKind = "record_replaced"
	EventRecordWithdrawn     EventKind = "record_withdrawn"
	EventRecordExcluded      EventKind = "record_excluded"
	EventSolidExcluded       EventKind = "solid_excluded"
	EventComponentDiscovered EventKind = "component_discovered"
	EventComponentRetracted  EventKind = "component_retracted"
	EventFileFinished        EventKind = "file_finished"
	EventPassFinished        EventKind = "pass_finished"
	EventRewriteStarted      EventKind = "rewrite_started"
	EventRecordRewritten     EventKind = "record_rewritten"
	EventSearchFinished      EventKind = "search_finished"
	EventProgress            EventKind = "progress"
)

// Event is a progress notification. Events are informational: the search
// result never depends on what a sink does with them.
type Event struct {
	// Seq is the logical clock value; strictly increasing within a search.
	Seq  int64
	Kind EventKind
	// Pass is the 1-based pass number, or 0 outside the scanning passes.
	Pass int
	// File is the database being read, if any.
	File string
	// Ordinal is the 1-based record number within File, if any.
	Ordinal int
	// Name is the species the event is about, if any.
	Name string
	// Fraction is the progress through File, in [0, 1], for progress events.
	Fraction float64
	// Message carries detail for annotations such as solid_excluded.
	Message string
}

// Sink receives search events. Emit must not block for long; the search
// waits for it.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(ev).
func (f SinkFunc) Emit(ev Event) { f(ev) }

// NopSink discards every event.
type NopSink struct{}

// Emit does nothing.
func (NopSink) Emit(Event) {}

// Recorder keeps every event in memory. Used by tests and the harness.
//
// Thread-safety: Recorder is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit appends ev.
func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of the recorded events, optionally restricted to
// the given kinds.
func (r *Recorder) Kinds(only ...EventKind) []EventKind {
	keep := make(map[EventKind]bool, len(only))
	for _, k := range only {
		keep[k] = true
	}
	var out []EventKind
	for _, ev := range r.Events() {
		if len(keep) == 0 || keep[ev.Kind] {
			out = append(out, ev.Kind)
		}
	}
	return out
}

// MultiSink fans every event out to several sinks in order.
type MultiSink []Sink

// Emit forwards ev to every sink.
func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ev)
		}
	}
}

// emitter stamps events and shields the search from misbehaving sinks.
type emitter struct {
	clock  *Clock
	sink   Sink
	logger *slog.Logger
}

func (em *emitter) emit(ev Event) {
	ev.Seq = em.clock.Next()
	defer func() {
		if r := recover(); r != nil {
			em.logger.Warn("event sink panicked", "kind", ev.Kind, "seq", ev.Seq, "panic", r)
		}
	}()
	em.sink.Emit(ev)
}

// Confirmer decides whether a search continues after a warning.
// Returning false cancels the search.
type Confirmer interface {
	Confirm(ctx context.Context, message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, message string) bool

// Confirm calls f(ctx, message).
func (f ConfirmFunc) Confirm(ctx context.Context, message string) bool {
	return f(ctx, message)
}

// AutoConfirm proceeds on every warning. It is the non-interactive default.
type AutoConfirm struct{}

// Confirm always returns true.
func (AutoConfirm) Confirm(context.Context, string) bool { return true }
