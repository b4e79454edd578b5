package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dbsearch/internal/search"
	"github.com/roach88/dbsearch/internal/testutil"
)

// newTestMetrics registers metrics on an isolated registry.
func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	return m, reg
}

func TestNew_DoubleRegistration(t *testing.T) {
	_, reg := newTestMetrics(t)
	_, err := New(reg)
	assert.Error(t, err)
}

func TestEmit_CountsEvents(t *testing.T) {
	m, _ := newTestMetrics(t)

	for _, k := range []search.EventKind{
		search.EventPassStarted,
		search.EventProgress,
		search.EventRecordAccepted,
		search.EventRecordAccepted,
		search.EventSolidExcluded,
		search.EventComponentDiscovered,
		search.EventPassStarted,
	} {
		m.Emit(search.Event{Kind: k})
	}

	assert.Equal(t, 2.0, promtest.ToFloat64(m.events.WithLabelValues("record_accepted")))
	assert.Equal(t, 0.0, promtest.ToFloat64(m.events.WithLabelValues("progress")), "progress is not counted")
	assert.Equal(t, 2.0, promtest.ToFloat64(m.records.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.records.WithLabelValues("solid_excluded")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.discovered))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.passes))
}

func TestObserveSearch(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.ObserveSearch(&search.Result{Passes: 3}, nil, 20*time.Millisecond)
	m.ObserveSearch(nil, &search.Error{Kind: search.ErrCancelled}, time.Millisecond)

	assert.Equal(t, 1.0, promtest.ToFloat64(m.searches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.searches.WithLabelValues("cancelled")))
	assert.Equal(t, 3.0, promtest.ToFloat64(m.lastPasses))
	assert.Equal(t, 1, promtest.CollectAndCount(m.duration))

	count, err := promtest.GatherAndCount(reg, "dbsearch_search_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "ok", Status(nil))
	assert.Equal(t, "malformed_record", Status(&search.Error{Kind: search.ErrMalformedRecord}))
	assert.Equal(t, "source_unavailable", Status(&search.Error{Kind: search.ErrSourceUnavailable}))
	assert.Equal(t, "error", Status(errors.New("other")))
}

func TestMetricsAsEngineSink(t *testing.T) {
	m, _ := newTestMetrics(t)
	db := testutil.NewMemoryDB().Add("main.db",
		testutil.Rec("Fe+3", -13.02, "Fe+2", 1, "e-", -1),
		testutil.Rec("FeOH+2", -2.19, "Fe+3", 1, "H2O", 1, "H+", -1),
	)
	eng := search.New(search.WithOpener(db.Open), search.WithSink(m))
	_, err := eng.Search(context.Background(), search.Options{
		Components: []string{"Fe+2", "e-", "H+"},
		Databases:  []string{"main.db"},
		Catalogue:  testutil.IronCatalogue(),
	})
	require.NoError(t, err)

	assert.Equal(t, 2.0, promtest.ToFloat64(m.passes))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.discovered))
	assert.Equal(t, 2.0, promtest.ToFloat64(m.records.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.records.WithLabelValues("rewritten")))
}

func TestWriteTextfile(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.Emit(search.Event{Kind: search.EventPassStarted})

	path := filepath.Join(t.TempDir(), "dbsearch.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "dbsearch_search_passes_total 1"))

	assert.Error(t, WriteTextfile("", reg))
}
