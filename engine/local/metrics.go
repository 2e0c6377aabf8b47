package local

import (
	"io"

	"github.com/VictoriaMetrics/metrics"
)

type engineMetrics struct {
	set *metrics.Set

	writes        *metrics.Counter
	writeErrors   *metrics.Counter
	resolves      *metrics.Counter
	seriesCreated *metrics.Counter
	pagesFlushed  *metrics.Counter
	busy          *metrics.Counter
}

func newEngineMetrics(openDatabases func() float64) *engineMetrics {
	set := metrics.NewSet()
	set.NewGauge("akumuli_local_open_databases", openDatabases)

	return &engineMetrics{
		set:           set,
		writes:        set.NewCounter("akumuli_local_writes_total"),
		writeErrors:   set.NewCounter("akumuli_local_write_errors_total"),
		resolves:      set.NewCounter("akumuli_local_resolves_total"),
		seriesCreated: set.NewCounter("akumuli_local_series_created_total"),
		pagesFlushed:  set.NewCounter("akumuli_local_pages_flushed_total"),
		busy:          set.NewCounter("akumuli_local_busy_total"),
	}
}

// WritePrometheus writes the engine's counters in Prometheus text format.
func (e *Engine) WritePrometheus(w io.Writer) {
	e.metrics.set.WritePrometheus(w)
}
