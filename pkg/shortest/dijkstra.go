// Package shortest computes single-source shortest path distances.
//
// Dijkstra uses a binary min-heap with lazy deletion: a vertex may sit in the
// heap several times with different tentative distances, and any entry popped
// after the vertex has been finalized is discarded. Distances are therefore
// finalized in non-decreasing order. The order among equal distances depends
// on the heap and is not part of the contract.
//
// Complexity: O((V + E) log V) time, O(V + E) space in the worst case because
// of duplicate heap entries.
package shortest

import (
	"errors"
	"fmt"
	"math"

	"github.com/emirpasic/gods/trees/binaryheap"

	"github.com/ritzau/graphbench/pkg/graph"
)

// ErrNegativeWeight is returned when the graph contains an edge with a
// negative weight; Dijkstra's invariant does not hold for such graphs.
var ErrNegativeWeight = errors.New("negative edge weight")

// ErrNaNWeight is returned when an edge weight is NaN.
var ErrNaNWeight = errors.New("NaN edge weight")

// item is a heap entry.
type item struct {
	vertex int
	dist   float64
}

func byDist(a, b interface{}) int {
	da, db := a.(item).dist, b.(item).dist
	switch {
	case da < db:
		return -1
	case da > db:
		return 1
	default:
		return 0
	}
}

// Dijkstra returns the distance from source to every vertex reachable from
// it. Unreachable vertices are absent from the result and source maps to 0.
// An unknown source yields an empty map.
func Dijkstra[V comparable](g *graph.Graph[V], source V) (map[V]float64, error) {
	if err := CheckWeights(g); err != nil {
		return nil, err
	}

	src, ok := g.Index(source)
	if !ok {
		return map[V]float64{}, nil
	}

	done := make([]bool, g.Order())
	result := make(map[V]float64)

	pq := binaryheap.NewWith(byDist)
	pq.Push(item{vertex: src, dist: 0})

	for !pq.Empty() {
		top, _ := pq.Pop()
		cur := top.(item)
		if done[cur.vertex] {
			continue
		}
		done[cur.vertex] = true
		result[g.Vertex(cur.vertex)] = cur.dist

		for _, a := range g.Arcs(cur.vertex) {
			if !done[a.To] {
				pq.Push(item{vertex: a.To, dist: cur.dist + a.Weight})
			}
		}
	}

	return result, nil
}

// CheckWeights fails on the first negative or NaN edge.
func CheckWeights[V comparable](g *graph.Graph[V]) error {
	for i := 0; i < g.Order(); i++ {
		for _, a := range g.Arcs(i) {
			if math.IsNaN(a.Weight) {
				return fmt.Errorf("%w: edge %v->%v", ErrNaNWeight, g.Vertex(i), g.Vertex(a.To))
			}
			if a.Weight < 0 {
				return fmt.Errorf("%w: edge %v->%v weight=%g", ErrNegativeWeight, g.Vertex(i), g.Vertex(a.To), a.Weight)
			}
		}
	}
	return nil
}
