package graph

import (
	"reflect"
	"testing"
)

func TestNewGraph(t *testing.T) {
	g := New[int](false)
	if g == nil {
		t.Fatal("New() returned nil")
	}

	if g.Order() != 0 {
		t.Errorf("New graph should have 0 vertices, got %d", g.Order())
	}
	if g.Size() != 0 {
		t.Errorf("New graph should have 0 entries, got %d", g.Size())
	}
	if len(g.Edges()) != 0 {
		t.Errorf("New graph should have no edges, got %v", g.Edges())
	}
}

func TestAddEdgeUndirected(t *testing.T) {
	g := New[int](false)
	g.AddEdge(1, 2)

	if g.Order() != 2 {
		t.Errorf("Expected 2 vertices, got %d", g.Order())
	}
	if g.Size() != 2 {
		t.Errorf("Expected 2 adjacency entries, got %d", g.Size())
	}

	want := []Neighbor[int]{{Vertex: 2, Weight: 1}}
	if got := g.Neighbors(1); !reflect.DeepEqual(got, want) {
		t.Errorf("Neighbors(1) = %v, want %v", got, want)
	}
	want = []Neighbor[int]{{Vertex: 1, Weight: 1}}
	if got := g.Neighbors(2); !reflect.DeepEqual(got, want) {
		t.Errorf("Neighbors(2) = %v, want %v", got, want)
	}
}

func TestAddEdgeDirected(t *testing.T) {
	g := New[int](true)
	g.AddWeightedEdge(1, 2, 2.5)

	if got := g.Neighbors(1); len(got) != 1 || got[0].Vertex != 2 || got[0].Weight != 2.5 {
		t.Errorf("Neighbors(1) = %v, want [{2 2.5}]", got)
	}
	if got := g.Neighbors(2); len(got) != 0 {
		t.Errorf("Directed edge should not add reverse entry, got %v", got)
	}
	if !g.Has(2) {
		t.Error("Head vertex should still be part of the vertex set")
	}
}

func TestParallelEdgesKept(t *testing.T) {
	g := New[string](false)
	g.AddEdge("a", "b")
	g.AddEdge("a", "b")

	if len(g.Neighbors("a")) != 2 {
		t.Errorf("Expected 2 parallel entries for a, got %d", len(g.Neighbors("a")))
	}
	if g.Size() != 4 {
		t.Errorf("Expected 4 adjacency entries, got %d", g.Size())
	}
}

func TestInsertionOrder(t *testing.T) {
	g := New[int](false)
	g.AddEdge(5, 3)
	g.AddEdge(9, 5)
	g.AddEdge(3, 1)

	if got, want := g.Vertices(), []int{5, 3, 9, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("Vertices() = %v, want %v", got, want)
	}

	var order []int
	for _, n := range g.Neighbors(5) {
		order = append(order, n.Vertex)
	}
	if want := []int{3, 9}; !reflect.DeepEqual(order, want) {
		t.Errorf("Neighbors(5) order = %v, want %v", order, want)
	}
}

func TestNeighborsUnknownVertex(t *testing.T) {
	g := New[int](false)
	g.AddEdge(1, 2)

	got := g.Neighbors(42)
	if got == nil || len(got) != 0 {
		t.Errorf("Neighbors of unknown vertex should be empty, got %v", got)
	}
}

func TestSelfLoops(t *testing.T) {
	g := New[int](false)
	g.AddEdge(1, 1)
	g.AddEdge(1, 2)

	if g.SelfLoops() != 1 {
		t.Errorf("Expected 1 self-loop, got %d", g.SelfLoops())
	}
	if len(g.Neighbors(1)) != 3 {
		t.Errorf("Undirected self-loop should add two entries, got %v", g.Neighbors(1))
	}

	d := New[int](true)
	d.AddEdge(1, 1)
	if d.SelfLoops() != 1 {
		t.Errorf("Expected 1 directed self-loop, got %d", d.SelfLoops())
	}
}

func TestParallel(t *testing.T) {
	g := New[int](false)
	g.AddEdge(1, 2)
	g.AddEdge(2, 1)
	g.AddEdge(2, 3)
	g.AddEdge(3, 3)
	g.AddEdge(3, 3)

	if g.Parallel() != 1 {
		t.Errorf("Expected 1 parallel edge, got %d", g.Parallel())
	}

	d := New[int](true)
	d.AddEdge(1, 2)
	d.AddEdge(2, 1)
	if d.Parallel() != 0 {
		t.Errorf("Opposite directed arcs are not parallel, got %d", d.Parallel())
	}
	d.AddEdge(1, 2)
	if d.Parallel() != 1 {
		t.Errorf("Expected 1 parallel arc, got %d", d.Parallel())
	}
}

func TestAddVertex(t *testing.T) {
	g := New[int](false)
	g.AddVertex(7)
	g.AddEdge(1, 7)
	g.AddVertex(7)

	if got, want := g.Vertices(), []int{7, 1}; !reflect.DeepEqual(got, want) {
		t.Errorf("Vertices() = %v, want %v", got, want)
	}
}

func TestIndexAccessors(t *testing.T) {
	g := New[string](true)
	g.AddWeightedEdge("x", "y", 3)

	xi, ok := g.Index("x")
	if !ok {
		t.Fatal("x should have an index")
	}
	yi, _ := g.Index("y")
	if g.Vertex(xi) != "x" || g.Vertex(yi) != "y" {
		t.Errorf("Vertex() does not round-trip Index()")
	}
	arcs := g.Arcs(xi)
	if len(arcs) != 1 || arcs[0].To != yi || arcs[0].Weight != 3 {
		t.Errorf("Arcs(x) = %v", arcs)
	}
	if _, ok := g.Index("z"); ok {
		t.Error("unknown vertex should have no index")
	}
}

func TestEdges(t *testing.T) {
	g := New[int](false)
	g.AddWeightedEdge(0, 1, 2)

	want := []Edge[int]{
		{From: 0, To: 1, Weight: 2},
		{From: 1, To: 0, Weight: 2},
	}
	if got := g.Edges(); !reflect.DeepEqual(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
}

func TestVerticesReturnsCopy(t *testing.T) {
	g := New[int](false)
	g.AddEdge(1, 2)

	vs := g.Vertices()
	vs[0] = 99
	if g.Vertices()[0] != 1 {
		t.Error("mutating Vertices() result changed the graph")
	}
}
