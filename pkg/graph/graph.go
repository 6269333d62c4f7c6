// Package graph holds the sparse adjacency representation shared by the
// analytics engines.
//
// A Graph is built once (usually by the ingest package) and then only read.
// Vertices are assigned dense indices in first-reference order; the engines
// work on those indices so their per-call state can live in flat slices
// instead of maps. Iteration order over vertices and over a vertex's
// neighbors is insertion order, and results of the order-dependent engines
// (matching, betweenness source order) rely on it.
//
// Graph is not safe for concurrent mutation. Once building is done any
// number of goroutines may read it.
package graph

// Arc is one adjacency entry addressed by dense vertex index.
type Arc struct {
	To     int
	Weight float64
}

// Neighbor is one adjacency entry addressed by vertex identifier.
type Neighbor[V comparable] struct {
	Vertex V
	Weight float64
}

// Edge is an adjacency entry together with its tail vertex.
type Edge[V comparable] struct {
	From   V
	To     V
	Weight float64
}

// Graph is an insertion-ordered adjacency list keyed by vertex identifier.
type Graph[V comparable] struct {
	directed bool
	vertices []V       // index -> vertex
	ids      map[V]int // vertex -> index
	adj      [][]Arc   // index -> outgoing entries
	size     int
}

// New creates an empty graph.
func New[V comparable](directed bool) *Graph[V] {
	return &Graph[V]{
		directed: directed,
		ids:      make(map[V]int),
	}
}

// Directed reports whether AddEdge inserts a single direction.
func (g *Graph[V]) Directed() bool {
	return g.directed
}

// AddVertex registers v without any edges. It is a no-op if v is known.
func (g *Graph[V]) AddVertex(v V) {
	g.index(v)
}

// AddEdge inserts an edge of weight 1.
func (g *Graph[V]) AddEdge(u, v V) {
	g.AddWeightedEdge(u, v, 1)
}

// AddWeightedEdge appends (v, w) to u's neighbors and, for undirected graphs,
// (u, w) to v's neighbors. Parallel edges and self-loops are kept as given.
func (g *Graph[V]) AddWeightedEdge(u, v V, w float64) {
	ui := g.index(u)
	vi := g.index(v)

	g.adj[ui] = append(g.adj[ui], Arc{To: vi, Weight: w})
	g.size++
	if !g.directed {
		g.adj[vi] = append(g.adj[vi], Arc{To: ui, Weight: w})
		g.size++
	}
}

func (g *Graph[V]) index(v V) int {
	if i, ok := g.ids[v]; ok {
		return i
	}
	i := len(g.vertices)
	g.ids[v] = i
	g.vertices = append(g.vertices, v)
	g.adj = append(g.adj, nil)
	return i
}

// Has reports whether v has been referenced.
func (g *Graph[V]) Has(v V) bool {
	_, ok := g.ids[v]
	return ok
}

// Order returns the number of vertices.
func (g *Graph[V]) Order() int {
	return len(g.vertices)
}

// Size returns the number of adjacency entries. For an undirected graph every
// inserted edge counts twice.
func (g *Graph[V]) Size() int {
	return g.size
}

// Vertices returns the vertices in insertion order.
func (g *Graph[V]) Vertices() []V {
	out := make([]V, len(g.vertices))
	copy(out, g.vertices)
	return out
}

// Neighbors returns v's adjacency entries in insertion order, or an empty
// slice when v is unknown.
func (g *Graph[V]) Neighbors(v V) []Neighbor[V] {
	i, ok := g.ids[v]
	if !ok {
		return []Neighbor[V]{}
	}
	arcs := g.adj[i]
	out := make([]Neighbor[V], len(arcs))
	for k, a := range arcs {
		out[k] = Neighbor[V]{Vertex: g.vertices[a.To], Weight: a.Weight}
	}
	return out
}

// Edges returns every adjacency entry, ordered by tail vertex and then by
// insertion.
func (g *Graph[V]) Edges() []Edge[V] {
	out := make([]Edge[V], 0, g.size)
	for i, arcs := range g.adj {
		for _, a := range arcs {
			out = append(out, Edge[V]{From: g.vertices[i], To: g.vertices[a.To], Weight: a.Weight})
		}
	}
	return out
}

// SelfLoops counts inserted self-loop edges.
func (g *Graph[V]) SelfLoops() int {
	n := 0
	for i, arcs := range g.adj {
		for _, a := range arcs {
			if a.To == i {
				n++
			}
		}
	}
	if !g.directed {
		// both directions of an undirected loop land on the same list
		n /= 2
	}
	return n
}

// Parallel counts edges that repeat an earlier edge between the same
// endpoints. Self-loops are not counted.
func (g *Graph[V]) Parallel() int {
	n := 0
	seen := make(map[int]struct{})
	for i, arcs := range g.adj {
		clear(seen)
		for _, a := range arcs {
			if a.To == i {
				continue
			}
			if _, ok := seen[a.To]; ok {
				n++
			}
			seen[a.To] = struct{}{}
		}
	}
	if !g.directed {
		n /= 2
	}
	return n
}

// Index returns the dense index of v.
func (g *Graph[V]) Index(v V) (int, bool) {
	i, ok := g.ids[v]
	return i, ok
}

// Vertex returns the vertex stored at index i.
func (g *Graph[V]) Vertex(i int) V {
	return g.vertices[i]
}

// Arcs returns the adjacency entries of the vertex at index i. The slice is
// owned by the graph and must not be modified.
func (g *Graph[V]) Arcs(i int) []Arc {
	return g.adj[i]
}
