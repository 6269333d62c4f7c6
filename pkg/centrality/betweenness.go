// Package centrality computes vertex betweenness centrality with Brandes'
// algorithm for unweighted graphs.
//
// For every source s the algorithm runs a breadth-first search that records
// hop distances, the number of shortest paths (sigma) and the shortest-path
// predecessors of each vertex, then walks the BFS visitation order backwards
// to accumulate pair dependencies (delta).
//
// Scores are not normalized. On an undirected graph each pair (s, t) is
// counted from both endpoints, so the raw score is twice the conventional
// undirected value. Edge weights are ignored; parallel edges count as
// distinct shortest paths.
//
// Complexity: O(V·(V+E)) time, O(V+E) working space reused across sources.
package centrality

import (
	"github.com/ritzau/graphbench/pkg/graph"
)

// Betweenness returns the unnormalized betweenness score of every vertex.
func Betweenness[V comparable](g *graph.Graph[V]) map[V]float64 {
	n := g.Order()
	cb := make([]float64, n)

	b := newBrandes(n)
	for s := 0; s < n; s++ {
		b.bfs(g, s)
		b.accumulate(s, cb)
	}

	out := make(map[V]float64, n)
	for i, score := range cb {
		out[g.Vertex(i)] = score
	}
	return out
}

// adjacency is the index-based view of a graph.Graph the BFS needs.
type adjacency interface {
	Arcs(i int) []graph.Arc
}

// brandes is the per-call working set, sized to the vertex count and reset
// for each source.
type brandes struct {
	dist  []int
	sigma []float64
	delta []float64
	pred  [][]int
	order []int // BFS visitation order; doubles as the queue
}

func newBrandes(n int) *brandes {
	return &brandes{
		dist:  make([]int, n),
		sigma: make([]float64, n),
		delta: make([]float64, n),
		pred:  make([][]int, n),
		order: make([]int, 0, n),
	}
}

func (b *brandes) reset() {
	for i := range b.dist {
		b.dist[i] = -1
		b.sigma[i] = 0
		b.delta[i] = 0
		b.pred[i] = b.pred[i][:0]
	}
	b.order = b.order[:0]
}

// bfs layers the graph from s. Vertices are appended to order when enqueued,
// and the head index walks the same slice, so order ends up holding the BFS
// pop sequence.
func (b *brandes) bfs(g adjacency, s int) {
	b.reset()
	b.dist[s] = 0
	b.sigma[s] = 1
	b.order = append(b.order, s)

	for head := 0; head < len(b.order); head++ {
		v := b.order[head]
		for _, a := range g.Arcs(v) {
			w := a.To
			if b.dist[w] < 0 {
				b.dist[w] = b.dist[v] + 1
				b.order = append(b.order, w)
			}
			if b.dist[w] == b.dist[v]+1 {
				b.sigma[w] += b.sigma[v]
				b.pred[w] = append(b.pred[w], v)
			}
		}
	}
}

// accumulate back-propagates dependencies in reverse BFS order and adds them
// to cb. sigma[w] >= 1 for every visited w, so the division is safe.
func (b *brandes) accumulate(s int, cb []float64) {
	for i := len(b.order) - 1; i >= 0; i-- {
		w := b.order[i]
		for _, v := range b.pred[w] {
			b.delta[v] += (b.sigma[v] / b.sigma[w]) * (1 + b.delta[w])
		}
		if w != s {
			cb[w] += b.delta[w]
		}
	}
}
