package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/ritzau/graphbench/pkg/bench"
	"github.com/ritzau/graphbench/pkg/ingest"
	"github.com/ritzau/graphbench/pkg/runner"
)

func init() {
	color.NoColor = true
}

func TestWriteDistances(t *testing.T) {
	var buf bytes.Buffer
	err := WriteDistances(&buf, map[int64]float64{10: 2.5, 2: 1, 1: 0})
	if err != nil {
		t.Fatalf("WriteDistances failed: %v", err)
	}

	want := "Node 1: Distance = 0\nNode 2: Distance = 1\nNode 10: Distance = 2.5\n"
	if buf.String() != want {
		t.Errorf("Got:\n%s\nWant:\n%s", buf.String(), want)
	}
}

func TestWriteDistancesEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDistances(&buf, nil); err != nil {
		t.Fatalf("WriteDistances failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Expected no output, got %q", buf.String())
	}
}

func TestPrintReport(t *testing.T) {
	custom := bench.Measurement{Label: "Custom Dijkstra", Duration: time.Second, PeakHeapBytes: 2048}
	ref := bench.Measurement{Label: "gonum Dijkstra", Duration: 3 * time.Second}

	report := &runner.Report{
		Input:    "edges.txt",
		Vertices: 1200,
		Entries:  4000,
		Load:     ingest.Stats{SelfLoops: 2, DroppedLoops: 2, Duplicates: 3, OutsideCap: 7, VerticesSeen: 3000, VerticesLoaded: 1200},
		LoadCost: bench.Measurement{Label: "Graph loading", Duration: 500 * time.Millisecond},
		Results: []runner.Result{
			{Algorithm: "dijkstra", Custom: &custom, Reference: &ref, Checked: true},
			{
				Algorithm:  "betweenness",
				Custom:     &custom,
				Checked:    true,
				Mismatches: 4,
				MaxDiff:    0.5,
				Top:        []runner.VertexScore{{Vertex: 7, Score: 12}},
			},
			{Algorithm: "matching", Error: "boom"},
		},
	}

	var buf bytes.Buffer
	PrintReport(&buf, report)
	out := buf.String()

	for _, want := range []string{
		"Input: edges.txt",
		"Graph with 1,200 nodes and 4,000 adjacency entries",
		"Number of self-loops: 2",
		"Removed 2 self-loops",
		"Skipped 3 repeated edges",
		"Reduced graph to 1200 of 3000 nodes",
		"Graph loading - Time: 0.50 sec",
		"Custom Dijkstra - Time: 1.00 sec, Peak Memory: 2.0 KiB",
		"Speedup vs reference: 3.00x",
		"✓ Matches reference",
		"✗ 4 mismatches (max |Δ| = 0.5)",
		"7: 12.0000",
		"Error: boom",
		"Summary: 3 algorithm(s), 1 mismatching, 1 failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintReportNoCapNotes(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, &runner.Report{Input: "x"})
	out := buf.String()

	if strings.Contains(out, "Removed") || strings.Contains(out, "Skipped") || strings.Contains(out, "Reduced") {
		t.Errorf("Unexpected load notes:\n%s", out)
	}
	if !strings.Contains(out, "Summary: 0 algorithm(s), 0 mismatching, 0 failed") {
		t.Errorf("Missing summary:\n%s", out)
	}
}
