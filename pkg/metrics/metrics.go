// Package metrics exposes benchmark results as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives measurements from the runner.
type Recorder interface {
	ObserveLoad(seconds float64, vertices, entries int)
	ObserveRun(algorithm, impl string, seconds float64, peakBytes uint64)
	ObserveMismatches(algorithm string, n int)
}

// Nop discards everything.
type Nop struct{}

func (Nop) ObserveLoad(float64, int, int)              {}
func (Nop) ObserveRun(string, string, float64, uint64) {}
func (Nop) ObserveMismatches(string, int)              {}

// Registry is a Recorder backed by its own Prometheus registry.
type Registry struct {
	reg        *prometheus.Registry
	loadTime   prometheus.Gauge
	vertices   prometheus.Gauge
	entries    prometheus.Gauge
	runTime    *prometheus.HistogramVec
	lastTime   *prometheus.GaugeVec
	peakHeap   *prometheus.GaugeVec
	mismatches *prometheus.GaugeVec
	runs       *prometheus.CounterVec
}

// NewRegistry creates and registers all graphbench collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		loadTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "graphbench_load_duration_seconds",
			Help: "Duration of the last edge-list load.",
		}),
		vertices: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "graphbench_graph_vertices",
			Help: "Vertices in the loaded graph.",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "graphbench_graph_adjacency_entries",
			Help: "Adjacency entries in the loaded graph.",
		}),
		runTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graphbench_algorithm_duration_seconds",
			Help:    "Algorithm run time by implementation.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"algorithm", "impl"}),
		lastTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "graphbench_algorithm_last_duration_seconds",
			Help: "Run time of the most recent run by implementation.",
		}, []string{"algorithm", "impl"}),
		peakHeap: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "graphbench_algorithm_peak_heap_bytes",
			Help: "Peak live-heap growth of the most recent run.",
		}, []string{"algorithm", "impl"}),
		mismatches: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "graphbench_reference_mismatches",
			Help: "Vertices whose custom result differs from the reference.",
		}, []string{"algorithm"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graphbench_algorithm_runs_total",
			Help: "Completed algorithm runs.",
		}, []string{"algorithm", "impl"}),
	}

	r.reg.MustRegister(
		r.loadTime, r.vertices, r.entries,
		r.runTime, r.lastTime, r.peakHeap, r.mismatches, r.runs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Registry) ObserveLoad(seconds float64, vertices, entries int) {
	r.loadTime.Set(seconds)
	r.vertices.Set(float64(vertices))
	r.entries.Set(float64(entries))
}

func (r *Registry) ObserveRun(algorithm, impl string, seconds float64, peakBytes uint64) {
	r.runTime.WithLabelValues(algorithm, impl).Observe(seconds)
	r.lastTime.WithLabelValues(algorithm, impl).Set(seconds)
	r.peakHeap.WithLabelValues(algorithm, impl).Set(float64(peakBytes))
	r.runs.WithLabelValues(algorithm, impl).Inc()
}

func (r *Registry) ObserveMismatches(algorithm string, n int) {
	r.mismatches.WithLabelValues(algorithm).Set(float64(n))
}

// Gatherer exposes the underlying registry, mostly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
