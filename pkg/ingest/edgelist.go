// Package ingest loads SNAP-style edge lists into a graph.Graph.
//
// Each data line holds "u v [weight]" separated by whitespace. Blank lines and
// lines starting with '#' or '%' are skipped, and anything after a '#' is
// ignored. Files ending in ".gz" are decompressed on the fly.
package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/ritzau/graphbench/pkg/graph"
	"github.com/ritzau/graphbench/pkg/logging"
)

// DefaultProgressEvery is how many data lines pass between Progress calls
// when Options.ProgressEvery is zero.
const DefaultProgressEvery = 1_000_000

const cancelCheckEvery = 1 << 16

// ErrNoInput is returned when no path is given.
var ErrNoInput = errors.New("no input file")

// ParseError reports a malformed data line.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	errArity  = errors.New("expected at least two fields")
	errVertex = errors.New("vertex id is not an integer")
	errWeight = errors.New("weight is not a finite number")
)

// Options controls how an edge list becomes a graph.
type Options struct {
	Directed bool
	// Weighted parses the third column as the edge weight. Otherwise extra
	// columns are ignored and every edge has weight 1.
	Weighted bool
	// DropSelfLoops skips u == v lines. The vertex itself is still kept.
	DropSelfLoops bool
	// Simple skips a line whose vertex pair was already loaded. On an
	// undirected graph "v u" repeats "u v".
	Simple bool
	// MaxVertices > 0 keeps only the subgraph induced by the first
	// MaxVertices vertices in order of first appearance.
	MaxVertices int
	// Progress, if set, is called with the number of data lines read so far.
	Progress      func(lines int)
	ProgressEvery int
	// ShowProgress draws a byte progress bar on stderr when it is a terminal.
	ShowProgress bool
}

// Stats summarizes a load.
type Stats struct {
	Lines          int `json:"lines"`
	Edges          int `json:"edges"`
	SelfLoops      int `json:"selfLoops"`
	DroppedLoops   int `json:"droppedSelfLoops"`
	Duplicates     int `json:"duplicates"`
	OutsideCap     int `json:"outsideCap"`
	VerticesSeen   int `json:"verticesSeen"`
	VerticesLoaded int `json:"verticesLoaded"`
}

// Load reads the edge list at path.
func Load(ctx context.Context, path string, opts Options) (*graph.Graph[int64], Stats, error) {
	if path == "" {
		return nil, Stats{}, ErrNoInput
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("opening edge list: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if opts.ShowProgress && isatty.IsTerminal(os.Stderr.Fd()) {
		if info, err := f.Stat(); err == nil {
			bar := progressbar.DefaultBytes(info.Size(), "loading "+path)
			defer func() { _ = bar.Finish() }()
			r = io.TeeReader(f, bar)
		}
	}

	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	logging.Debug("loading edge list", "path", path, "directed", opts.Directed, "weighted", opts.Weighted)
	return Read(ctx, r, opts)
}

// Read parses an edge list from r.
func Read(ctx context.Context, r io.Reader, opts Options) (*graph.Graph[int64], Stats, error) {
	every := opts.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}

	l := &loader{
		opts: opts,
		g:    graph.New[int64](opts.Directed),
	}
	if opts.MaxVertices > 0 {
		l.rank = make(map[int64]int)
	}
	if opts.Simple {
		l.seen = make(map[[2]int64]struct{})
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		if lineNo%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, l.stats, err
			}
		}

		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" || text[0] == '%' {
			continue
		}

		if err := l.line(text); err != nil {
			return nil, l.stats, &ParseError{Line: lineNo, Text: sc.Text(), Err: err}
		}
		l.stats.Lines++
		if opts.Progress != nil && l.stats.Lines%every == 0 {
			opts.Progress(l.stats.Lines)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, l.stats, fmt.Errorf("reading edge list: %w", err)
	}

	l.stats.VerticesLoaded = l.g.Order()
	if l.rank != nil {
		l.stats.VerticesSeen = len(l.rank)
	} else {
		l.stats.VerticesSeen = l.g.Order()
	}
	return l.g, l.stats, nil
}

type loader struct {
	opts  Options
	g     *graph.Graph[int64]
	rank  map[int64]int         // first-appearance rank, only with a vertex cap
	seen  map[[2]int64]struct{} // loaded pairs, only when Simple
	stats Stats
}

func (l *loader) line(text string) error {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return errArity
	}
	u, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return errVertex
	}
	v, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return errVertex
	}
	w := 1.0
	if l.opts.Weighted && len(fields) > 2 {
		w, err = strconv.ParseFloat(fields[2], 64)
		if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
			return errWeight
		}
	}

	keepU, keepV := l.admit(u), l.admit(v)

	if u == v {
		l.stats.SelfLoops++
		if l.opts.DropSelfLoops {
			l.stats.DroppedLoops++
			return nil
		}
	}
	if !keepU || !keepV {
		l.stats.OutsideCap++
		return nil
	}

	if l.seen != nil {
		key := [2]int64{u, v}
		if !l.opts.Directed && v < u {
			key = [2]int64{v, u}
		}
		if _, ok := l.seen[key]; ok {
			l.stats.Duplicates++
			return nil
		}
		l.seen[key] = struct{}{}
	}

	l.g.AddWeightedEdge(u, v, w)
	l.stats.Edges++
	return nil
}

// admit registers the vertex in first-appearance order and reports whether it
// falls inside the vertex cap.
func (l *loader) admit(v int64) bool {
	if l.rank == nil {
		l.g.AddVertex(v)
		return true
	}
	r, ok := l.rank[v]
	if !ok {
		r = len(l.rank)
		l.rank[v] = r
		if r < l.opts.MaxVertices {
			l.g.AddVertex(v)
		}
	}
	return r < l.opts.MaxVertices
}
