package dimension

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/sat-graph-features/pkg/graph"
)

type zeroSource struct{}

func (zeroSource) Intn(int) int { return 0 }

func path(n int) *graph.Graph {
	g := graph.New(n, n-1)
	for i := 0; i+1 < n; i++ {
		g.AddEdge(i, i+1, 1)
	}
	return g
}

func TestNeeded(t *testing.T) {
	complete := graph.New(5, 10)
	for i := 0; i < 5; i++ {
		for j := i + 1; j < 5; j++ {
			complete.AddEdge(i, j, 1)
		}
	}

	tests := []struct {
		name      string
		g         *graph.Graph
		maxRadius int
		want      []int
	}{
		{"Empty", graph.New(0, 0), 5, []int{0}},
		{"Complete", complete, 5, []int{5, 1}},
		{"Path", path(3), 5, []int{3, 2, 1}},
		{"LongPath", path(7), 5, []int{7, 4, 3, 2, 2, 2}},
		{"Isolated", graph.New(3, 0), 4, []int{3, 3, 3, 3, 3}},
		{"RadiusLimit", path(100), 2, []int{100, 50, 34}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Needed(tt.g, tt.maxRadius, zeroSource{}))
		})
	}
}

func TestNeededIsMonotoneOnRandomOrders(t *testing.T) {
	g := path(500)
	needed := Needed(g, 10, rand.New(rand.NewSource(1)))
	require.Len(t, needed, 11)
	for l := 1; l < len(needed); l++ {
		// a box of radius l spans at most 2l+1 nodes of a path
		assert.GreaterOrEqual(t, needed[l], int(math.Ceil(500/float64(2*l+1))), "radius %d", l)
	}
}

func TestRegressPowerLaw(t *testing.T) {
	needed := []int{0}
	for l := 1; l <= 6; l++ {
		needed = append(needed, int(math.Round(1e6*math.Pow(float64(l), -2))))
	}

	est, err := Regress(needed, 0, 6)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, est.Dimension, 1e-4)
	assert.InDelta(t, 1.0, est.RSquaredPow, 1e-6)
	assert.Equal(t, 6, est.Points)
}

func TestRegressExponentialDecay(t *testing.T) {
	needed := []int{0}
	for l := 1; l <= 8; l++ {
		needed = append(needed, int(math.Round(1e6*math.Exp(-0.5*float64(l)))))
	}

	est, err := Regress(needed, 2, 6)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, est.Decay, 1e-4)
	assert.Equal(t, 5, est.Points)
	assert.Greater(t, est.RSquaredExp, est.RSquaredPow)
}

func TestRegressTooFewPoints(t *testing.T) {
	_, err := Regress([]int{10, 1}, 0, 6)
	assert.ErrorIs(t, err, ErrTooFewPoints)

	_, err = Regress([]int{10, 5, 3}, 3, 6)
	assert.ErrorIs(t, err, ErrTooFewPoints)
}
