// Package metrics exposes search activity as Prometheus metrics.
//
// Metrics is a search.Sink: pass it to search.WithSink (alone or in a
// search.MultiSink) and every event is counted. The CLI writes the
// registry to a textfile for the node exporter after a run.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/dbsearch/internal/search"
)

const namespace = "dbsearch"

// Metrics counts search events and outcomes.
//
// Thread-safety: Metrics is safe for concurrent use.
type Metrics struct {
	events     *prometheus.CounterVec
	records    *prometheus.CounterVec
	discovered prometheus.Counter
	passes     prometheus.Counter
	searches   *prometheus.CounterVec
	duration   prometheus.Histogram
	lastPasses prometheus.Gauge
}

// New creates the metrics and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "events_total",
			Help:      "Search events by kind",
		}, []string{"kind"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "records_total",
			Help:      "Database records by acceptance outcome",
		}, []string{"outcome"}),
		discovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "components_discovered_total",
			Help:      "Redox components discovered during closure",
		}),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "passes_total",
			Help:      "Database scanning passes",
		}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "runs_total",
			Help:      "Completed searches by status",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search wall-clock duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		lastPasses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "last_passes",
			Help:      "Number of passes of the most recent search",
		}),
	}

	for _, c := range []prometheus.Collector{m.events, m.records, m.discovered, m.passes, m.searches, m.duration, m.lastPasses} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// recordOutcomes maps record-level events to the records_total label.
var recordOutcomes = map[search.EventKind]string{
	search.EventRecordAccepted:  "accepted",
	search.EventRecordReplaced:  "replaced",
	search.EventRecordWithdrawn: "withdrawn",
	search.EventRecordExcluded:  "redox_excluded",
	search.EventSolidExcluded:   "solid_excluded",
	search.EventRecordRewritten: "rewritten",
}

// Emit implements search.Sink.
func (m *Metrics) Emit(ev search.Event) {
	if ev.Kind == search.EventProgress {
		return
	}
	m.events.WithLabelValues(string(ev.Kind)).Inc()
	if outcome, ok := recordOutcomes[ev.Kind]; ok {
		m.records.WithLabelValues(outcome).Inc()
	}
	switch ev.Kind {
	case search.EventComponentDiscovered:
		m.discovered.Inc()
	case search.EventPassStarted:
		m.passes.Inc()
	}
}

// ObserveSearch records the outcome of one search. res may be nil when err
// is not.
func (m *Metrics) ObserveSearch(res *search.Result, err error, elapsed time.Duration) {
	m.duration.Observe(elapsed.Seconds())
	m.searches.WithLabelValues(Status(err)).Inc()
	if res != nil {
		m.lastPasses.Set(float64(res.Passes))
	}
}

// Status is the runs_total label for a search error: "ok", or the error
// kind in lower case.
func Status(err error) string {
	if err == nil {
		return "ok"
	}
	switch search.KindOf(err) {
	case search.ErrConfiguration:
		return "configuration_error"
	case search.ErrSourceUnavailable:
		return "source_unavailable"
	case search.ErrMalformedRecord:
		return "malformed_record"
	case search.ErrInternalInvariant:
		return "internal_invariant"
	case search.ErrCancelled:
		return "cancelled"
	}
	return "error"
}

// WriteTextfile writes every metric of g to path in the Prometheus text
// format, replacing the file atomically.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return errors.New("metrics: empty textfile path")
	}
	return prometheus.WriteToTextfile(path, g)
}
