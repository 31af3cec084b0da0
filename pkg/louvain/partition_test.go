package louvain

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/gilchrisn/sat-graph-features/pkg/graph"
)

// directModularity evaluates the modularity formula from scratch
func directModularity(g *graph.Graph, assignment []int) float64 {
	total := 0.0
	for i := 0; i < g.Size(); i++ {
		total += g.Arity(i)
	}
	if total == 0 {
		return 0
	}

	internal := 0.0
	for _, e := range g.EdgeList {
		if assignment[e.From] == assignment[e.To] {
			internal += e.Weight
		}
	}

	sums := make(map[int]float64)
	for i, c := range assignment {
		sums[c] += g.Arity(i)
	}

	expected := 0.0
	for _, s := range sums {
		expected += (s / total) * (s / total)
	}
	return 2*internal/total - expected
}

func TestSingletonModularity(t *testing.T) {
	tests := []struct {
		name string
		g    *graph.Graph
		want float64
	}{
		{
			name: "Empty",
			g:    graph.New(3, 0),
			want: 0,
		},
		{
			name: "SingleEdge",
			g:    buildGraph(2, [][3]float64{{0, 1, 1}}),
			want: -0.5,
		},
		{
			name: "SelfLoopIsInternal",
			// arity: 0 -> 2+1 = 3, 1 -> 1; W = 4, W_in = 1
			g:    buildGraph(2, [][3]float64{{0, 0, 1}, {0, 1, 1}}),
			want: 2.0/4.0 - (9.0/16.0 + 1.0/16.0),
		},
		{
			name: "TwoTriangles",
			g:    twoTriangles(),
			want: -6 * (2.0 / 12.0) * (2.0 / 12.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPartition(tt.g)
			assert.InDelta(t, tt.want, p.Modularity(), 1e-12)
			assert.Equal(t, tt.g.Size(), p.NumCommunities())
		})
	}
}

func TestModularityMatchesReference(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("singleton modularity matches the direct formula", prop.ForAll(
		func(seed int64, n int) bool {
			g := randomGraph(seed, n, 0.3, true)
			singletons := make([]int, n)
			for i := range singletons {
				singletons[i] = i
			}
			return math.Abs(NewPartition(g).Modularity()-directModularity(g, singletons)) < 1e-9
		},
		gen.Int64(),
		gen.IntRange(1, 40),
	))

	properties.Property("modularity matches gonum for arbitrary assignments", prop.ForAll(
		func(seed int64, n, k int) bool {
			g := randomGraph(seed, n, 0.3, false)
			if g.TotalArity() == 0 {
				return true
			}
			assignment := randomAssignment(seed+1, n, k)
			reference, ok := g.GonumModularity(assignment)
			if !ok {
				return false
			}
			return math.Abs(NewPartitionFrom(g, assignment).Modularity()-reference) < 1e-9
		},
		gen.Int64(),
		gen.IntRange(2, 30),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}

func TestNewPartitionFromDerivesArity(t *testing.T) {
	g := buildGraph(4, [][3]float64{{0, 1, 1}, {1, 2, 2}, {2, 3, 3}, {3, 3, 1}})
	p := NewPartitionFrom(g, []int{2, 2, 0, 0})

	assert.InDelta(t, g.Arity(0)+g.Arity(1), p.CommunityArity(2), 1e-12)
	assert.InDelta(t, g.Arity(2)+g.Arity(3), p.CommunityArity(0), 1e-12)
	assert.Zero(t, p.CommunityArity(1))
	assert.Equal(t, 2, p.NumCommunities())
	assert.Equal(t, 2, p.Community(1))

	assignment := p.Assignment()
	assignment[0] = 3
	assert.Equal(t, 2, p.Community(0), "Assignment must return a copy")
}
