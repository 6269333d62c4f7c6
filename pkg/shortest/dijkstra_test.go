package shortest

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/graphbench/pkg/graph"
)

func pathGraph() *graph.Graph[int] {
	g := graph.New[int](false)
	g.AddWeightedEdge(0, 1, 1)
	g.AddWeightedEdge(1, 2, 1)
	g.AddWeightedEdge(2, 3, 1)
	return g
}

func TestDijkstra_PathGraph(t *testing.T) {
	dist, err := Dijkstra(pathGraph(), 0)
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{0: 0, 1: 1, 2: 2, 3: 3}, dist)
}

func TestDijkstra_PrefersCheaperDetour(t *testing.T) {
	g := graph.New[string](true)
	g.AddWeightedEdge("A", "B", 10)
	g.AddWeightedEdge("A", "C", 1)
	g.AddWeightedEdge("C", "B", 2)
	g.AddWeightedEdge("B", "D", 1)

	dist, err := Dijkstra(g, "A")
	require.NoError(t, err)
	assert.Equal(t, 3.0, dist["B"])
	assert.Equal(t, 4.0, dist["D"])
}

func TestDijkstra_UnreachableAbsent(t *testing.T) {
	g := graph.New[int](true)
	g.AddEdge(0, 1)
	g.AddEdge(2, 3)

	dist, err := Dijkstra(g, 0)
	require.NoError(t, err)
	assert.Len(t, dist, 2)
	_, ok := dist[2]
	assert.False(t, ok, "unreachable vertex must be absent")
}

func TestDijkstra_UnknownSource(t *testing.T) {
	dist, err := Dijkstra(pathGraph(), 99)
	require.NoError(t, err)
	assert.NotNil(t, dist)
	assert.Empty(t, dist)
}

func TestDijkstra_IsolatedSource(t *testing.T) {
	g := pathGraph()
	g.AddVertex(7)

	dist, err := Dijkstra(g, 7)
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{7: 0}, dist)
}

func TestDijkstra_NegativeWeight(t *testing.T) {
	g := graph.New[int](true)
	g.AddWeightedEdge(0, 1, 2)
	g.AddWeightedEdge(1, 2, -1)

	dist, err := Dijkstra(g, 0)
	require.ErrorIs(t, err, ErrNegativeWeight)
	assert.Nil(t, dist)
	assert.Contains(t, err.Error(), "1->2")
}

func TestDijkstra_ZeroWeightAndSelfLoop(t *testing.T) {
	g := graph.New[int](false)
	g.AddWeightedEdge(0, 0, 5)
	g.AddWeightedEdge(0, 1, 0)
	g.AddWeightedEdge(1, 2, 4)

	dist, err := Dijkstra(g, 0)
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{0: 0, 1: 0, 2: 4}, dist)
}

func TestDijkstra_ParallelEdgesUseCheapest(t *testing.T) {
	g := graph.New[int](false)
	g.AddWeightedEdge(0, 1, 7)
	g.AddWeightedEdge(0, 1, 2)

	dist, err := Dijkstra(g, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, dist[1])
}

func TestDijkstra_TriangleInequality(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 20; trial++ {
		g := graph.New[int](false)
		for i := 0; i < 60; i++ {
			g.AddWeightedEdge(rng.Intn(25), rng.Intn(25), float64(rng.Intn(10)))
		}
		source := g.Vertex(0)

		dist, err := Dijkstra(g, source)
		require.NoError(t, err)
		require.Equal(t, 0.0, dist[source])

		for _, e := range g.Edges() {
			du, okU := dist[e.From]
			dv, okV := dist[e.To]
			if okU {
				// an edge out of a reachable vertex reaches its head
				require.True(t, okV, "trial %d: %d reachable but neighbor %d not", trial, e.From, e.To)
				assert.LessOrEqual(t, dv, du+e.Weight, "trial %d edge %v", trial, e)
			}
		}
	}
}

func TestDijkstra_Idempotent(t *testing.T) {
	g := pathGraph()
	first, err := Dijkstra(g, 1)
	require.NoError(t, err)
	second, err := Dijkstra(g, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCheckWeights(t *testing.T) {
	assert.NoError(t, CheckWeights(pathGraph()))
	assert.NoError(t, CheckWeights(graph.New[int](false)))

	g := graph.New[int](false)
	g.AddWeightedEdge(0, 1, math.NaN())
	g.AddWeightedEdge(1, 2, 1)
	g.AddWeightedEdge(0, 2, 5)
	dist, err := Dijkstra(g, 0)
	assert.ErrorIs(t, err, ErrNaNWeight)
	assert.Nil(t, dist)
}

func BenchmarkDijkstra(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	g := graph.New[int](false)
	for i := 0; i < 20000; i++ {
		g.AddWeightedEdge(rng.Intn(5000), rng.Intn(5000), float64(1+rng.Intn(9)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Dijkstra(g, g.Vertex(0))
	}
}
