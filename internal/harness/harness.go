package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/dbsearch/internal/ir"
	"github.com/roach88/dbsearch/internal/search"
	"github.com/roach88/dbsearch/internal/testutil"
)

// Harness holds the deterministic collaborators of one scenario run.
type Harness struct {
	db        *testutil.MemoryDB
	confirmer *testutil.ScriptedConfirmer
	recorder  *search.Recorder
	logger    *slog.Logger
	runID     string
}

// newHarness builds the in-memory databases and helpers for scenario.
func newHarness(scenario *Scenario, logger *slog.Logger) *Harness {
	db := testutil.NewMemoryDB()
	for _, d := range scenario.Databases {
		recs := make([]ir.Record, len(d.Records))
		for i, r := range d.Records {
			recs[i] = r.Record()
		}
		if d.Text {
			db.AddText(d.Name, recs...)
		} else {
			db.Add(d.Name, recs...)
		}
	}

	runID := scenario.RunID
	if runID == "" {
		runID = DefaultRunID
	}
	return &Harness{
		db:        db,
		confirmer: testutil.NewScriptedConfirmer(scenario.Confirm...),
		recorder:  &search.Recorder{},
		logger:    logger,
		runID:     runID,
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs over fresh in-memory databases. The returned error
// reports scenarios that cannot be run at all; search failures are part of
// the result and checked against expect_error.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// RunContext is Run with a context and logger.
func RunContext(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	opts, err := scenario.Options()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	h := newHarness(scenario, logger)
	eng := search.New(
		search.WithOpener(h.db.Open),
		search.WithConfirmer(h.confirmer),
		search.WithSink(h.recorder),
		search.WithLogger(logger),
		search.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(h.runID)),
	)

	res, searchErr := eng.Search(ctx, opts)

	result := NewResult()
	result.Search = res
	result.Err = searchErr
	for _, ev := range h.recorder.Events() {
		result.AddEvent(ev)
	}

	switch {
	case searchErr != nil && scenario.ExpectError == "":
		result.AddError(fmt.Sprintf("search failed: %v", searchErr))
		return result, nil
	case searchErr != nil:
		if got := string(search.KindOf(searchErr)); got != scenario.ExpectError {
			result.AddError(fmt.Sprintf("expected error %s, got %s (%v)", scenario.ExpectError, got, searchErr))
		}
		return result, nil
	case scenario.ExpectError != "":
		result.AddError(fmt.Sprintf("expected error %s, search succeeded", scenario.ExpectError))
		return result, nil
	}

	for _, msg := range EvaluateAssertions(res, scenario.Assertions) {
		result.AddError(msg)
	}

	logger.Info("scenario completed",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"passes", res.Passes,
		"events", len(result.Trace),
	)
	return result, nil
}
