// Package runner loads a graph and benchmarks each selected algorithm
// against its gonum reference.
package runner

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/ritzau/graphbench/pkg/bench"
	"github.com/ritzau/graphbench/pkg/centrality"
	"github.com/ritzau/graphbench/pkg/config"
	"github.com/ritzau/graphbench/pkg/graph"
	"github.com/ritzau/graphbench/pkg/ingest"
	"github.com/ritzau/graphbench/pkg/logging"
	"github.com/ritzau/graphbench/pkg/matching"
	"github.com/ritzau/graphbench/pkg/metrics"
	"github.com/ritzau/graphbench/pkg/reference"
	"github.com/ritzau/graphbench/pkg/shortest"
)

// Tolerance is the largest difference still counted as a match.
const Tolerance = 1e-9

// Implementation labels used in measurements and metrics.
const (
	ImplCustom    = "custom"
	ImplReference = "reference"
)

// Status is a progress update published while a run is in flight.
type Status struct {
	RunID   string `json:"runId"`
	State   string `json:"state"`
	Message string `json:"message"`
	Step    int    `json:"step"`
	Total   int    `json:"total"`
}

// Observer receives status updates. It is called synchronously.
type Observer func(Status)

// Runner orchestrates benchmark runs. Runs are serialized.
type Runner struct {
	cfg      *config.Config
	observer Observer
	recorder metrics.Recorder

	mu   sync.Mutex // Prevent concurrent runs
	last *Report
	lmu  sync.RWMutex
}

// Option configures a Runner.
type Option func(*Runner)

// WithObserver sets the status observer.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithRecorder sets where measurements are recorded.
func WithRecorder(rec metrics.Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// New creates a runner for cfg.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		observer: func(Status) {},
		recorder: metrics.Nop{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetConfig replaces the configuration used by later runs.
func (r *Runner) SetConfig(cfg *config.Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
}

// Last returns the most recent completed report, or nil.
func (r *Runner) Last() *Report {
	r.lmu.RLock()
	defer r.lmu.RUnlock()
	return r.last
}

// Run loads the input and runs every selected algorithm. Load failures are
// returned as errors; algorithm failures are recorded in the report.
func (r *Runner) Run(ctx context.Context, reason string) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg := r.cfg
	runID := logging.GetRunID(ctx)
	if runID == "" {
		runID = logging.NewRunID()
		ctx = logging.WithRunID(ctx, runID)
	}

	total := 1 + len(cfg.Algorithms)
	status := func(state, message string, step int) {
		r.observer(Status{RunID: runID, State: state, Message: message, Step: step, Total: total})
	}
	logging.InfoContext(ctx, "starting run", "reason", reason, "input", cfg.Input)

	report := &Report{
		RunID:     runID,
		Reason:    reason,
		StartedAt: time.Now(),
		Input:     cfg.Input,
		Directed:  cfg.Directed,
	}

	status("loading", "Loading "+cfg.Input, 1)
	logging.InfoContext(ctx, fmt.Sprintf("[1/%d] Loading edge list...", total))

	var g *graph.Graph[int64]
	var stats ingest.Stats
	cost, err := bench.Measure(ctx, "Graph loading", func() error {
		var err error
		g, stats, err = ingest.Load(ctx, cfg.Input, ingest.Options{
			Directed:      cfg.Directed,
			Weighted:      cfg.Weighted,
			DropSelfLoops: cfg.DropSelfLoops,
			Simple:        cfg.Simple,
			MaxVertices:   cfg.MaxVertices,
			ShowProgress:  cfg.Progress,
			Progress: func(lines int) {
				logging.InfoContext(ctx, "loading", "lines", lines)
			},
		})
		return err
	})
	if err != nil {
		logging.ErrorContext(ctx, "load failed", "error", err)
		status("error", fmt.Sprintf("Error loading graph: %v", err), 1)
		return nil, fmt.Errorf("loading %s: %w", cfg.Input, err)
	}

	report.Vertices = g.Order()
	report.Entries = g.Size()
	report.Load = stats
	report.LoadCost = cost
	r.recorder.ObserveLoad(cost.Seconds(), g.Order(), g.Size())
	logging.InfoContext(ctx, fmt.Sprintf("[1/%d] Graph with %d nodes and %d adjacency entries", total, g.Order(), g.Size()),
		"selfLoops", stats.SelfLoops, "droppedSelfLoops", stats.DroppedLoops, "duplicates", stats.Duplicates)

	for i, algo := range cfg.Algorithms {
		step := i + 2
		if err := ctx.Err(); err != nil {
			status("error", "Run cancelled", step)
			return nil, err
		}

		status("running", "Running "+algo, step)
		logging.InfoContext(ctx, fmt.Sprintf("[%d/%d] Running %s...", step, total, algo))

		res := r.runAlgorithm(ctx, cfg, g, algo, report)
		if res.Error != "" {
			logging.WarnContext(ctx, fmt.Sprintf("[%d/%d] %s failed", step, total, algo), "error", res.Error)
		} else if res.Checked {
			r.recorder.ObserveMismatches(algo, res.Mismatches)
			logging.InfoContext(ctx, fmt.Sprintf("[%d/%d] %s done", step, total, algo),
				"mismatches", res.Mismatches, "maxDiff", res.MaxDiff)
		}
		report.Results = append(report.Results, res)
	}

	r.lmu.Lock()
	r.last = report
	r.lmu.Unlock()

	status("ready", "Run complete", total)
	logging.InfoContext(ctx, "run complete", "reason", reason,
		"mismatching", report.MismatchCount(), "failed", report.ErrorCount())
	return report, nil
}

func (r *Runner) runAlgorithm(ctx context.Context, cfg *config.Config, g *graph.Graph[int64], algo string, report *Report) Result {
	switch algo {
	case config.AlgoDijkstra:
		return r.runDijkstra(ctx, cfg, g, report)
	case config.AlgoBetweenness:
		return r.runBetweenness(ctx, cfg, g)
	case config.AlgoMatching:
		return r.runMatching(ctx, g)
	case config.AlgoLouvain:
		return r.runLouvain(ctx, cfg, g)
	default:
		return Result{Algorithm: algo, Error: fmt.Sprintf("unknown algorithm %q", algo)}
	}
}

// measure runs fn under bench.Measure and records it.
func (r *Runner) measure(ctx context.Context, algo, impl, label string, fn func() error) (*bench.Measurement, error) {
	m, err := bench.Measure(ctx, label, fn)
	if err != nil {
		return nil, err
	}
	r.recorder.ObserveRun(algo, impl, m.Seconds(), m.PeakHeapBytes)
	return &m, nil
}

// resolveSource parses the configured source, or picks the first vertex.
func resolveSource(g *graph.Graph[int64], source string) (int64, error) {
	if source == "" {
		if g.Order() == 0 {
			return 0, fmt.Errorf("graph has no vertices")
		}
		return g.Vertex(0), nil
	}
	v, err := strconv.ParseInt(source, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("source %q is not an integer vertex id", source)
	}
	return v, nil
}

func (r *Runner) runDijkstra(ctx context.Context, cfg *config.Config, g *graph.Graph[int64], report *Report) Result {
	res := Result{Algorithm: config.AlgoDijkstra}

	source, err := resolveSource(g, cfg.Source)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if !g.Has(source) {
		res.Notes = append(res.Notes, fmt.Sprintf("Source %d is not in the graph", source))
	}

	var dist map[int64]float64
	res.Custom, err = r.measure(ctx, config.AlgoDijkstra, ImplCustom, "Custom Dijkstra", func() error {
		var err error
		dist, err = shortest.Dijkstra(g, source)
		return err
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	report.Distances = dist
	res.Notes = append(res.Notes,
		fmt.Sprintf("Source %d reaches %d of %d vertices", source, len(dist), g.Order()))
	if n := triangleViolations(g, dist); n > 0 {
		res.Notes = append(res.Notes, fmt.Sprintf("%d edges violate the triangle inequality", n))
		res.Checked = true
		res.Mismatches += n
	}

	if !cfg.Reference {
		return res
	}
	var ref map[int64]float64
	res.Reference, err = r.measure(ctx, config.AlgoDijkstra, ImplReference, "gonum Dijkstra", func() error {
		var err error
		ref, err = reference.Dijkstra(g, source)
		return err
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	n, maxDiff := Compare(dist, ref)
	res.Checked = true
	res.Mismatches += n
	res.MaxDiff = maxDiff
	return res
}

func (r *Runner) runBetweenness(ctx context.Context, cfg *config.Config, g *graph.Graph[int64]) Result {
	res := Result{Algorithm: config.AlgoBetweenness}

	var cb map[int64]float64
	var err error
	res.Custom, err = r.measure(ctx, config.AlgoBetweenness, ImplCustom, "Custom betweenness", func() error {
		cb = centrality.Betweenness(g)
		return nil
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Top = TopK(cb, cfg.Top)
	if len(res.Top) > 0 {
		res.Notes = append(res.Notes, fmt.Sprintf("Top %d vertices by betweenness:", len(res.Top)))
	}

	if !cfg.Reference {
		return res
	}
	var ref map[int64]float64
	res.Reference, err = r.measure(ctx, config.AlgoBetweenness, ImplReference, "gonum betweenness", func() error {
		ref = reference.Betweenness(g)
		return nil
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	// gonum merges parallel edges, which changes shortest path counts
	if p := g.Parallel(); p > 0 {
		res.Notes = append(res.Notes,
			fmt.Sprintf("Not compared: %d parallel edges are merged by the reference (load with --simple)", p))
		return res
	}
	res.Mismatches, res.MaxDiff = Compare(cb, ref)
	res.Checked = true
	return res
}

func (r *Runner) runMatching(ctx context.Context, g *graph.Graph[int64]) Result {
	res := Result{Algorithm: config.AlgoMatching}

	var pairs []matching.Pair[int64]
	var err error
	res.Custom, err = r.measure(ctx, config.AlgoMatching, ImplCustom, "Greedy matching", func() error {
		pairs = matching.Greedy(g)
		return nil
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Notes = append(res.Notes, fmt.Sprintf("Matching size: %d", len(pairs)))

	// gonum has no maximal matching, so the result is validated instead.
	res.Checked = true
	if err := matching.Validate(g, pairs); err != nil {
		res.Mismatches = 1
		res.Notes = append(res.Notes, "Invalid matching: "+err.Error())
	}
	return res
}

func (r *Runner) runLouvain(ctx context.Context, cfg *config.Config, g *graph.Graph[int64]) Result {
	res := Result{Algorithm: config.AlgoLouvain}
	if !cfg.Reference {
		res.Notes = append(res.Notes, "Skipped: louvain only runs with the reference enabled")
		return res
	}

	var p reference.Partition[int64]
	var err error
	res.Reference, err = r.measure(ctx, config.AlgoLouvain, ImplReference, "gonum Louvain", func() error {
		p = reference.Louvain(g, cfg.Resolution)
		return nil
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Notes = append(res.Notes,
		fmt.Sprintf("Communities: %d", len(p.Communities)),
		fmt.Sprintf("Modularity: %.4f", p.Q))
	return res
}

// Compare counts vertices whose values differ by more than Tolerance or are
// present in only one map, and returns the largest finite difference.
func Compare(got, want map[int64]float64) (mismatches int, maxDiff float64) {
	for v, w := range want {
		g, ok := got[v]
		if !ok {
			mismatches++
			continue
		}
		d := math.Abs(g - w)
		if d > maxDiff {
			maxDiff = d
		}
		if d > Tolerance {
			mismatches++
		}
	}
	for v := range got {
		if _, ok := want[v]; !ok {
			mismatches++
		}
	}
	return mismatches, maxDiff
}

// TopK returns the k highest scores, ties broken by ascending vertex.
func TopK(scores map[int64]float64, k int) []VertexScore {
	out := make([]VertexScore, 0, len(scores))
	for v, s := range scores {
		out = append(out, VertexScore{Vertex: v, Score: s})
	}
	slices.SortFunc(out, func(a, b VertexScore) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Vertex, b.Vertex)
	})
	if k < len(out) {
		out = out[:k]
	}
	return out
}

// triangleViolations counts arcs u->v with dist[v] > dist[u] + w.
func triangleViolations(g *graph.Graph[int64], dist map[int64]float64) int {
	n := 0
	for i := 0; i < g.Order(); i++ {
		du, ok := dist[g.Vertex(i)]
		if !ok {
			continue
		}
		for _, a := range g.Arcs(i) {
			dv, ok := dist[g.Vertex(a.To)]
			if !ok || dv > du+a.Weight+Tolerance {
				n++
			}
		}
	}
	return n
}
