// Package dimension estimates the self-similarity of a graph from how the
// number of boxes needed to cover it shrinks as the box radius grows.
package dimension

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/gilchrisn/sat-graph-features/pkg/graph"
)

// ErrTooFewPoints is returned when fewer than two radii fall in the
// regression window
var ErrTooFewPoints = errors.New("need at least two box counts to regress")

// RandomSource orders the box centers
type RandomSource interface {
	Intn(n int) int
}

// Needed returns, for every radius l in 1..maxRadius, the number of boxes
// of radius l a greedy cover uses. Index 0 holds the node count. Centers
// are taken in a random order among nodes still uncovered; each box covers
// every uncovered node within l hops. The slice stops early once a single
// box covers the whole graph.
func Needed(g *graph.Graph, maxRadius int, rng RandomSource) []int {
	n := g.Size()
	needed := []int{n}
	if n == 0 {
		return needed
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	covered := make([]bool, n)
	dist := make([]int, n)
	for i := range dist {
		dist[i] = -1
	}
	queue := make([]int, 0, n)

	for l := 1; l <= maxRadius; l++ {
		for i := 0; i < n-1; i++ {
			j := i + rng.Intn(n-i)
			order[i], order[j] = order[j], order[i]
		}
		for i := range covered {
			covered[i] = false
		}

		boxes := 0
		for _, center := range order {
			if covered[center] {
				continue
			}
			boxes++
			queue = ball(g, center, l, covered, dist, queue)
		}

		needed = append(needed, boxes)
		if boxes == 1 {
			break
		}
	}

	return needed
}

// ball runs a breadth-first search up to radius hops from center and marks
// every node reached as covered. dist must be -1 everywhere on entry and is
// restored before returning.
func ball(g *graph.Graph, center, radius int, covered []bool, dist []int, queue []int) []int {
	queue = append(queue[:0], center)
	dist[center] = 0
	covered[center] = true

	for head := 0; head < len(queue); head++ {
		node := queue[head]
		if dist[node] == radius {
			continue
		}
		for dest := range g.Neighbors(node) {
			if dist[dest] >= 0 {
				continue
			}
			dist[dest] = dist[node] + 1
			covered[dest] = true
			queue = append(queue, dest)
		}
	}

	for _, node := range queue {
		dist[node] = -1
	}
	return queue
}

// Estimate holds the regressions of log needed[l] against log l and l
type Estimate struct {
	Dimension   float64 `json:"dimension"` // negated slope against log l
	Decay       float64 `json:"decay"`     // negated slope against l
	RSquaredPow float64 `json:"r_squared_pow"`
	RSquaredExp float64 `json:"r_squared_exp"`
	Points      int     `json:"points"`
}

// Regress fits the box counts for radii in [minX, maxX]
func Regress(needed []int, minX, maxX int) (Estimate, error) {
	logL := make([]float64, 0, len(needed))
	lin := make([]float64, 0, len(needed))
	logN := make([]float64, 0, len(needed))

	for l := max(1, minX); l < len(needed) && l <= maxX; l++ {
		if needed[l] <= 0 {
			continue
		}
		logL = append(logL, math.Log(float64(l)))
		lin = append(lin, float64(l))
		logN = append(logN, math.Log(float64(needed[l])))
	}

	if len(logN) < 2 {
		return Estimate{}, ErrTooFewPoints
	}

	powAlpha, powBeta := stat.LinearRegression(logL, logN, nil, false)
	expAlpha, expBeta := stat.LinearRegression(lin, logN, nil, false)

	return Estimate{
		Dimension:   -powBeta,
		Decay:       -expBeta,
		RSquaredPow: stat.RSquared(logL, logN, nil, powAlpha, powBeta),
		RSquaredExp: stat.RSquared(lin, logN, nil, expAlpha, expBeta),
		Points:      len(logN),
	}, nil
}
