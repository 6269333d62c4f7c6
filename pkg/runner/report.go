package runner

import (
	"time"

	"github.com/ritzau/graphbench/pkg/bench"
	"github.com/ritzau/graphbench/pkg/ingest"
)

// Report is the outcome of one benchmark run.
type Report struct {
	RunID     string            `json:"runId"`
	Reason    string            `json:"reason"`
	StartedAt time.Time         `json:"startedAt"`
	Input     string            `json:"input"`
	Directed  bool              `json:"directed"`
	Vertices  int               `json:"vertices"`
	Entries   int               `json:"adjacencyEntries"`
	Load      ingest.Stats      `json:"load"`
	LoadCost  bench.Measurement `json:"loadCost"`
	Results   []Result          `json:"results"`

	// Distances holds the custom Dijkstra result for writing to disk.
	Distances map[int64]float64 `json:"-"`
}

// Result is one algorithm's custom and reference runs.
type Result struct {
	Algorithm string             `json:"algorithm"`
	Custom    *bench.Measurement `json:"custom,omitempty"`
	Reference *bench.Measurement `json:"reference,omitempty"`
	// Checked is set when the custom result was compared or validated.
	Checked    bool          `json:"checked"`
	Mismatches int           `json:"mismatches"`
	MaxDiff    float64       `json:"maxDiff"`
	Notes      []string      `json:"notes,omitempty"`
	Top        []VertexScore `json:"top,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// VertexScore pairs a vertex with a score.
type VertexScore struct {
	Vertex int64   `json:"vertex"`
	Score  float64 `json:"score"`
}

// MismatchCount returns how many results disagree with their reference.
func (r *Report) MismatchCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Mismatches > 0 {
			n++
		}
	}
	return n
}

// ErrorCount returns how many algorithms failed to run.
func (r *Report) ErrorCount() int {
	n := 0
	for _, res := range r.Results {
		if res.Error != "" {
			n++
		}
	}
	return n
}

// Failed reports whether any result errored or mismatched.
func (r *Report) Failed() bool {
	return r.MismatchCount() > 0 || r.ErrorCount() > 0
}
