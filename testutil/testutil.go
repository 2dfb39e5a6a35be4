package testutil

import (
	"math/rand"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/hupe1980/trilist/internal/vertex"
)

// Edge is an undirected edge.
type Edge struct {
	U, V vertex.ID
}

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// SortedSet returns up to size distinct ascending IDs drawn from [0, max).
func (r *RNG) SortedSet(size, max int) []vertex.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[vertex.ID]struct{}, size)
	for i := 0; i < size && len(seen) < max; i++ {
		seen[vertex.ID(r.rand.Intn(max))] = struct{}{}
	}
	out := make([]vertex.ID, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RandomGraph returns the edges of an Erdős–Rényi graph G(n, p) without
// self loops, each edge once with U < V.
func (r *RNG) RandomGraph(n int, p float64) []Edge {
	r.mu.Lock()
	defer r.mu.Unlock()
	var edges []Edge
	for u := 0; u < n; u++ {
		for v := u + 1; v < n; v++ {
			if r.rand.Float64() < p {
				edges = append(edges, Edge{U: vertex.ID(u), V: vertex.ID(v)})
			}
		}
	}
	return edges
}

// Undirected returns sorted, symmetric adjacency lists for n vertices.
func Undirected(n int, edges []Edge) [][]vertex.ID {
	sets := make([]map[vertex.ID]struct{}, n)
	for i := range sets {
		sets[i] = make(map[vertex.ID]struct{})
	}
	for _, e := range edges {
		if e.U == e.V {
			continue
		}
		sets[e.U][e.V] = struct{}{}
		sets[e.V][e.U] = struct{}{}
	}
	adj := make([][]vertex.ID, n)
	for u, set := range sets {
		for v := range set {
			adj[u] = append(adj[u], v)
		}
		sort.Slice(adj[u], func(i, j int) bool { return adj[u][i] < adj[u][j] })
	}
	return adj
}

// Orient keeps u->v iff deg(u) < deg(v), or the degrees tie and u < v.
func Orient(adj [][]vertex.ID) [][]vertex.ID {
	out := make([][]vertex.ID, len(adj))
	for u, list := range adj {
		du := len(list)
		for _, v := range list {
			dv := len(adj[v])
			if du < dv || (du == dv && vertex.ID(u) < v) {
				out[u] = append(out[u], v)
			}
		}
	}
	return out
}

// EdgeCount returns the total number of directed edges in adj.
func EdgeCount(adj [][]vertex.ID) uint64 {
	var n uint64
	for _, list := range adj {
		n += uint64(len(list))
	}
	return n
}

// MaxDegree returns the longest adjacency list length.
func MaxDegree(adj [][]vertex.ID) vertex.ID {
	var m int
	for _, list := range adj {
		m = max(m, len(list))
	}
	return vertex.ID(m)
}

// WriteGraph writes adj as base.adj and base.deg, covering every vertex in
// [0, len(adj)) including zero-degree ones.
func WriteGraph(t testing.TB, base string, adj [][]vertex.ID) {
	t.Helper()
	var adjRaw, degRaw []byte
	buf := make([]byte, vertex.Width)
	for u, list := range adj {
		for _, v := range list {
			vertex.Put(buf, v)
			adjRaw = append(adjRaw, buf...)
		}
		vertex.Put(buf, vertex.ID(u))
		degRaw = append(degRaw, buf...)
		vertex.Put(buf, vertex.ID(len(list)))
		degRaw = append(degRaw, buf...)
	}
	require.NoError(t, os.WriteFile(vertex.AdjName(base), adjRaw, 0o644))
	require.NoError(t, os.WriteFile(vertex.DegName(base), degRaw, 0o644))
}

// ReadIDs reads a whole file of native-endian IDs.
func ReadIDs(t testing.TB, path string) []vertex.ID {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Zero(t, len(raw)%vertex.Width, "truncated ID file %s", path)
	ids := make([]vertex.ID, len(raw)/vertex.Width)
	vertex.Decode(ids, raw)
	return ids
}

// Triangle is an unordered vertex triple in canonical ascending order.
type Triangle [3]vertex.ID

// Canonical returns t with its vertices sorted.
func Canonical(a, b, c vertex.ID) Triangle {
	t := Triangle{a, b, c}
	sort.Slice(t[:], func(i, j int) bool { return t[i] < t[j] })
	return t
}

// ReadTriangles reads a triangle output file as canonical triples.
func ReadTriangles(t testing.TB, path string) []Triangle {
	t.Helper()
	ids := ReadIDs(t, path)
	require.Zero(t, len(ids)%3, "truncated triangle file %s", path)
	out := make([]Triangle, 0, len(ids)/3)
	for i := 0; i < len(ids); i += 3 {
		out = append(out, Canonical(ids[i], ids[i+1], ids[i+2]))
	}
	return out
}

// BruteForceTriangles lists every triangle of the undirected graph using a
// gonum graph, independent of the code under test.
func BruteForceTriangles(edges []Edge) []Triangle {
	g := simple.NewUndirectedGraph()
	for _, e := range edges {
		if e.U == e.V {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(int64(e.U)), simple.Node(int64(e.V))))
	}

	var out []Triangle
	for _, u := range graph.NodesOf(g.Nodes()) {
		neighbors := graph.NodesOf(g.From(u.ID()))
		for i, v := range neighbors {
			if v.ID() <= u.ID() {
				continue
			}
			for _, w := range neighbors[i+1:] {
				if w.ID() <= u.ID() || !g.HasEdgeBetween(v.ID(), w.ID()) {
					continue
				}
				out = append(out, Canonical(vertex.ID(u.ID()), vertex.ID(v.ID()), vertex.ID(w.ID())))
			}
		}
	}
	SortTriangles(out)
	return out
}

// SortTriangles orders canonical triangles lexicographically.
func SortTriangles(ts []Triangle) {
	sort.Slice(ts, func(i, j int) bool {
		a, b := ts[i], ts[j]
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})
}
