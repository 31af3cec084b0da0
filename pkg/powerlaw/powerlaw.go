// Package powerlaw fits discrete power-law distributions p(x) ~ x^-alpha,
// x >= xmin, by maximum likelihood.
package powerlaw

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/mathext"
)

// ErrInsufficientData is returned when the sample cannot support a fit
var ErrInsufficientData = errors.New("not enough distinct values to fit a power law")

const (
	minAlpha  = 1.01
	maxAlpha  = 10.0
	gridStep  = 0.05
	tolerance = 1e-6
)

// Sample is a positive integer value observed Count times
type Sample struct {
	Value int
	Count int
}

// Fit is the best power law found for a sample
type Fit struct {
	Alpha         float64 `json:"alpha"`
	Xmin          int     `json:"xmin"`
	KS            float64 `json:"ks"`             // Kolmogorov-Smirnov distance of the tail
	TailSize      int     `json:"tail_size"`      // observations with value >= Xmin
	LogLikelihood float64 `json:"log_likelihood"` // of the tail under Alpha
}

// Estimate fits the sample. Every distinct value up to maxXmin is tried as
// xmin and the candidate whose fitted tail is closest to the data in
// Kolmogorov-Smirnov distance wins; ties go to the smaller xmin.
func Estimate(samples []Sample, maxXmin int) (Fit, error) {
	data := normalize(samples)
	if len(data) < 2 {
		return Fit{}, ErrInsufficientData
	}

	best := Fit{KS: math.Inf(1)}
	found := false
	for i, s := range data {
		if s.Value > maxXmin && found {
			break
		}
		tail := data[i:]
		if len(tail) < 2 {
			break
		}

		fit := fitTail(tail)
		if fit.KS < best.KS {
			best = fit
			found = true
		}
	}

	if !found {
		return Fit{}, ErrInsufficientData
	}
	return best, nil
}

// normalize drops non-positive values and empty bins, merges duplicates
// and sorts by value
func normalize(samples []Sample) []Sample {
	counts := make(map[int]int)
	for _, s := range samples {
		if s.Value > 0 && s.Count > 0 {
			counts[s.Value] += s.Count
		}
	}

	data := make([]Sample, 0, len(counts))
	for v, c := range counts {
		data = append(data, Sample{Value: v, Count: c})
	}
	slices.SortFunc(data, func(a, b Sample) int { return a.Value - b.Value })
	return data
}

// fitTail fits a tail whose smallest value is xmin
func fitTail(tail []Sample) Fit {
	xmin := tail[0].Value
	n := 0
	sumLog := 0.0
	for _, s := range tail {
		n += s.Count
		sumLog += float64(s.Count) * math.Log(float64(s.Value))
	}

	logLikelihood := func(alpha float64) float64 {
		return -float64(n)*math.Log(mathext.Zeta(alpha, float64(xmin))) - alpha*sumLog
	}

	// coarse grid then golden-section refinement around the best point
	bestAlpha := minAlpha
	bestL := logLikelihood(minAlpha)
	for a := minAlpha + gridStep; a <= maxAlpha; a += gridStep {
		if l := logLikelihood(a); l > bestL {
			bestAlpha, bestL = a, l
		}
	}
	lo := math.Max(minAlpha, bestAlpha-gridStep)
	hi := math.Min(maxAlpha, bestAlpha+gridStep)
	alpha := goldenMax(logLikelihood, lo, hi)

	return Fit{
		Alpha:         alpha,
		Xmin:          xmin,
		KS:            ksDistance(tail, n, alpha),
		TailSize:      n,
		LogLikelihood: logLikelihood(alpha),
	}
}

// goldenMax maximizes a unimodal function on [lo, hi]
func goldenMax(f func(float64) float64, lo, hi float64) float64 {
	invPhi := (math.Sqrt(5) - 1) / 2
	a, b := lo, hi
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)

	for b-a > tolerance {
		if fc > fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return (a + b) / 2
}

// ksDistance compares the empirical CDF of the tail against the fitted
// model at every observed value
func ksDistance(tail []Sample, n int, alpha float64) float64 {
	xmin := float64(tail[0].Value)
	norm := mathext.Zeta(alpha, xmin)

	distance := 0.0
	cumulative := 0
	for _, s := range tail {
		cumulative += s.Count
		empirical := float64(cumulative) / float64(n)
		model := 1 - mathext.Zeta(alpha, float64(s.Value+1))/norm
		distance = math.Max(distance, math.Abs(empirical-model))
	}
	return distance
}
