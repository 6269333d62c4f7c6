// Package matching computes a greedy maximal matching.
//
// The result is vertex-disjoint and maximal: no edge of the graph has both
// endpoints unmatched. It is not necessarily of maximum cardinality, and it
// depends on vertex and neighbor insertion order.
package matching

import (
	"errors"
	"fmt"

	"github.com/ritzau/graphbench/pkg/graph"
)

var (
	// ErrNotDisjoint is returned by Validate when a vertex is matched twice.
	ErrNotDisjoint = errors.New("matching is not vertex-disjoint")

	// ErrNotMaximal is returned by Validate when an edge could still be added.
	ErrNotMaximal = errors.New("matching is not maximal")

	// ErrUnknownEdge is returned by Validate when a pair is not a graph edge.
	ErrUnknownEdge = errors.New("matched pair is not an edge of the graph")
)

// Pair is a matched edge, oriented the way it was discovered.
type Pair[V comparable] struct {
	U V
	V V
}

// Greedy scans vertices in order and matches each unmatched vertex with its
// first unmatched neighbor other than itself. Pairs are returned in
// discovery order.
func Greedy[V comparable](g *graph.Graph[V]) []Pair[V] {
	n := g.Order()
	visited := make([]bool, n)
	pairs := make([]Pair[V], 0)

	for u := 0; u < n; u++ {
		if visited[u] {
			continue
		}
		for _, a := range g.Arcs(u) {
			if a.To != u && !visited[a.To] {
				pairs = append(pairs, Pair[V]{U: g.Vertex(u), V: g.Vertex(a.To)})
				visited[u] = true
				visited[a.To] = true
				break
			}
		}
	}
	return pairs
}

// Validate checks that pairs is a maximal matching of g.
func Validate[V comparable](g *graph.Graph[V], pairs []Pair[V]) error {
	matched := make([]bool, g.Order())
	for _, p := range pairs {
		ui, okU := g.Index(p.U)
		vi, okV := g.Index(p.V)
		if !okU || !okV || ui == vi || !hasArc(g, ui, vi) {
			return fmt.Errorf("%w: (%v, %v)", ErrUnknownEdge, p.U, p.V)
		}
		if matched[ui] {
			return fmt.Errorf("%w: %v", ErrNotDisjoint, p.U)
		}
		if matched[vi] {
			return fmt.Errorf("%w: %v", ErrNotDisjoint, p.V)
		}
		matched[ui] = true
		matched[vi] = true
	}

	for u := 0; u < g.Order(); u++ {
		if matched[u] {
			continue
		}
		for _, a := range g.Arcs(u) {
			if a.To != u && !matched[a.To] {
				return fmt.Errorf("%w: edge (%v, %v) is free", ErrNotMaximal, g.Vertex(u), g.Vertex(a.To))
			}
		}
	}
	return nil
}

func hasArc[V comparable](g *graph.Graph[V], u, v int) bool {
	for _, a := range g.Arcs(u) {
		if a.To == v {
			return true
		}
	}
	return false
}
