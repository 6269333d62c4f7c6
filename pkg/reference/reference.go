// Package reference runs gonum's implementations over the same graphs the
// custom engines use, so results and costs can be compared.
//
// Graphs are exported with each vertex's dense index as its gonum node ID.
// gonum's simple graphs hold at most one edge per ordered pair and no
// self-loops, so the export drops self-loops and collapses parallel edges to
// the cheapest one. On graphs without either, the reference results equal
// the custom ones (betweenness is computed on the directed export, which
// keeps gonum from applying any undirected halving).
package reference

import (
	"math"

	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/ritzau/graphbench/pkg/graph"
	"github.com/ritzau/graphbench/pkg/shortest"
)

// Export builds a weighted directed gonum graph. Undirected graphs get an arc
// in each direction.
func Export[V comparable](g *graph.Graph[V]) *simple.WeightedDirectedGraph {
	dg := simple.NewWeightedDirectedGraph(0, math.Inf(1))
	for i := 0; i < g.Order(); i++ {
		dg.AddNode(simple.Node(i))
	}
	for i := 0; i < g.Order(); i++ {
		for _, a := range g.Arcs(i) {
			if a.To == i {
				continue
			}
			from, to := int64(i), int64(a.To)
			if w, ok := dg.Weight(from, to); ok && w <= a.Weight {
				continue
			}
			dg.SetWeightedEdge(dg.NewWeightedEdge(dg.Node(from), dg.Node(to), a.Weight))
		}
	}
	return dg
}

// ExportUndirected builds a weighted undirected gonum graph, folding both
// directions of every adjacency entry onto one edge.
func ExportUndirected[V comparable](g *graph.Graph[V]) *simple.WeightedUndirectedGraph {
	ug := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := 0; i < g.Order(); i++ {
		ug.AddNode(simple.Node(i))
	}
	for i := 0; i < g.Order(); i++ {
		for _, a := range g.Arcs(i) {
			if a.To == i {
				continue
			}
			from, to := int64(i), int64(a.To)
			if w, ok := ug.Weight(from, to); ok && w <= a.Weight {
				continue
			}
			ug.SetWeightedEdge(ug.NewWeightedEdge(ug.Node(from), ug.Node(to), a.Weight))
		}
	}
	return ug
}

// Dijkstra returns distances from source using gonum's path.DijkstraFrom.
// Unreachable vertices are absent, matching the custom engine.
func Dijkstra[V comparable](g *graph.Graph[V], source V) (map[V]float64, error) {
	// gonum panics on negative weights
	if err := shortest.CheckWeights(g); err != nil {
		return nil, err
	}
	src, ok := g.Index(source)
	if !ok {
		return map[V]float64{}, nil
	}

	dg := Export(g)
	sp := path.DijkstraFrom(dg.Node(int64(src)), dg)

	out := make(map[V]float64)
	for i := 0; i < g.Order(); i++ {
		if w := sp.WeightTo(int64(i)); !math.IsInf(w, 1) {
			out[g.Vertex(i)] = w
		}
	}
	return out, nil
}

// Betweenness returns gonum's betweenness for every vertex, including the
// zero scores gonum leaves out.
func Betweenness[V comparable](g *graph.Graph[V]) map[V]float64 {
	cb := network.Betweenness(Export(g))

	out := make(map[V]float64, g.Order())
	for i := 0; i < g.Order(); i++ {
		out[g.Vertex(i)] = cb[int64(i)]
	}
	return out
}

// Partition is a community assignment and its modularity.
type Partition[V comparable] struct {
	Communities [][]V
	Q           float64
}

// Louvain detects communities with gonum's community.Modularize. The
// algorithm is randomized, so repeated runs may differ.
func Louvain[V comparable](g *graph.Graph[V], resolution float64) Partition[V] {
	var reduced community.ReducedGraph
	var q float64
	if g.Directed() {
		dg := Export(g)
		reduced = community.Modularize(dg, resolution, nil)
		q = community.Q(dg, reduced.Communities(), resolution)
	} else {
		ug := ExportUndirected(g)
		reduced = community.Modularize(ug, resolution, nil)
		q = community.Q(ug, reduced.Communities(), resolution)
	}

	var p Partition[V]
	p.Q = q
	for _, c := range reduced.Communities() {
		members := make([]V, 0, len(c))
		for _, n := range c {
			members = append(members, g.Vertex(int(n.ID())))
		}
		p.Communities = append(p.Communities, members)
	}
	return p
}
