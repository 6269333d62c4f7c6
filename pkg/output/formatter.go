package output

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/ritzau/graphbench/pkg/bench"
	"github.com/ritzau/graphbench/pkg/runner"
)

// PrintReport prints a colorized summary of a benchmark run
func PrintReport(w io.Writer, r *runner.Report) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, "Graph Benchmark Report")
	bold.Fprintln(w, "======================")
	fmt.Fprintf(w, "Input: %s\n", r.Input)
	fmt.Fprintf(w, "Graph with %s nodes and %s adjacency entries (directed=%t)\n",
		humanize.Comma(int64(r.Vertices)), humanize.Comma(int64(r.Entries)), r.Directed)
	fmt.Fprintf(w, "Number of self-loops: %d\n", r.Load.SelfLoops)
	if r.Load.DroppedLoops > 0 {
		yellow.Fprintf(w, "Removed %d self-loops\n", r.Load.DroppedLoops)
	}
	if r.Load.Duplicates > 0 {
		yellow.Fprintf(w, "Skipped %d repeated edges\n", r.Load.Duplicates)
	}
	if r.Load.OutsideCap > 0 {
		yellow.Fprintf(w, "Reduced graph to %d of %d nodes (%d edges outside the cap)\n",
			r.Load.VerticesLoaded, r.Load.VerticesSeen, r.Load.OutsideCap)
	}
	printMeasurement(w, cyan, r.LoadCost)
	fmt.Fprintln(w)

	for _, res := range r.Results {
		bold.Fprintf(w, "%s\n", res.Algorithm)
		if res.Custom != nil {
			printMeasurement(w, cyan, *res.Custom)
		}
		if res.Reference != nil {
			printMeasurement(w, cyan, *res.Reference)
		}
		if res.Custom != nil && res.Reference != nil && res.Custom.Duration > 0 {
			ratio := res.Reference.Duration.Seconds() / res.Custom.Duration.Seconds()
			fmt.Fprintf(w, "  Speedup vs reference: %.2fx\n", ratio)
		}
		for _, note := range res.Notes {
			fmt.Fprintf(w, "  %s\n", note)
		}
		for _, tv := range res.Top {
			fmt.Fprintf(w, "    %d: %.4f\n", tv.Vertex, tv.Score)
		}
		switch {
		case res.Error != "":
			red.Fprintf(w, "  Error: %s\n", res.Error)
		case !res.Checked:
		case res.Mismatches == 0:
			green.Fprintln(w, "  ✓ Matches reference")
		default:
			red.Fprintf(w, "  ✗ %d mismatches (max |Δ| = %g)\n", res.Mismatches, res.MaxDiff)
		}
		fmt.Fprintln(w)
	}

	summary := green
	if r.Failed() {
		summary = red
	}
	summary.Fprintf(w, "Summary: %d algorithm(s), %d mismatching, %d failed\n",
		len(r.Results), r.MismatchCount(), r.ErrorCount())
}

func printMeasurement(w io.Writer, c *color.Color, m bench.Measurement) {
	c.Fprintf(w, "  %s - Time: %.2f sec, Peak Memory: %s, Allocated: %s\n",
		m.Label, m.Duration.Seconds(), humanize.IBytes(m.PeakHeapBytes), humanize.IBytes(m.AllocBytes))
}

// WriteDistances writes one "Node <v>: Distance = <d>" line per vertex,
// sorted by vertex.
func WriteDistances(w io.Writer, dist map[int64]float64) error {
	keys := make([]int64, 0, len(dist))
	for v := range dist {
		keys = append(keys, v)
	}
	slices.SortFunc(keys, cmp.Compare[int64])

	bw := bufio.NewWriter(w)
	for _, v := range keys {
		if _, err := fmt.Fprintf(bw, "Node %d: Distance = %s\n", v, formatDistance(dist[v])); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// formatDistance prints integral distances without a fraction.
func formatDistance(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}
