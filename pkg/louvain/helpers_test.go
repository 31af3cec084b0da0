package louvain

import (
	"io"
	"math/rand"

	"github.com/gilchrisn/sat-graph-features/pkg/graph"
)

// scriptedSource replays fixed Intn results, then returns 0 forever
type scriptedSource struct {
	values []int
	pos    int
}

func (s *scriptedSource) Intn(n int) int {
	if s.pos >= len(s.values) {
		return 0
	}
	v := s.values[s.pos] % n
	s.pos++
	return v
}

// roundCounter calls onRound whenever a new shuffle starts
type roundCounter struct {
	rng     *rand.Rand
	n       int
	onRound func()
}

func (r *roundCounter) Intn(n int) int {
	if n == r.n {
		r.onRound()
	}
	return r.rng.Intn(n)
}

func newTestConfig(seed int64) *Config {
	config := NewConfig()
	config.Set("algorithm.random_seed", seed)
	config.SetOutput(io.Discard)
	return config
}

func buildGraph(n int, edges [][3]float64) *graph.Graph {
	g := graph.New(n, len(edges))
	for _, e := range edges {
		g.AddEdge(int(e[0]), int(e[1]), e[2])
	}
	return g
}

func twoTriangles() *graph.Graph {
	return buildGraph(6, [][3]float64{
		{0, 1, 1}, {1, 2, 1}, {0, 2, 1},
		{3, 4, 1}, {4, 5, 1}, {3, 5, 1},
	})
}

// ringOfCliques joins m cliques of size k in a ring by single edges
func ringOfCliques(m, k int) *graph.Graph {
	g := graph.New(m*k, m*k*k/2+m)
	for c := 0; c < m; c++ {
		base := c * k
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				g.AddEdge(base+i, base+j, 1)
			}
		}
		next := ((c + 1) % m) * k
		g.AddEdge(base, next+1, 1)
	}
	return g
}

// randomGraph draws an Erdos-Renyi style graph with integer weights and
// occasional self-loops
func randomGraph(seed int64, n int, density float64, selfLoops bool) *graph.Graph {
	rng := rand.New(rand.NewSource(seed))
	g := graph.New(n, 0)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if i == j && (!selfLoops || rng.Float64() > 0.1) {
				continue
			}
			if rng.Float64() < density {
				g.AddEdge(i, j, float64(1+rng.Intn(4)))
			}
		}
	}
	return g
}

func randomAssignment(seed int64, n, k int) []int {
	rng := rand.New(rand.NewSource(seed))
	a := make([]int, n)
	for i := range a {
		a[i] = rng.Intn(k)
	}
	return a
}
