package features

import (
	"context"
	"fmt"
	"time"

	"github.com/gilchrisn/sat-graph-features/pkg/cnf"
	"github.com/gilchrisn/sat-graph-features/pkg/dimension"
	"github.com/gilchrisn/sat-graph-features/pkg/graph"
)

// SelfSimilarReport describes how box counts shrink with the box radius
type SelfSimilarReport struct {
	Graph       GraphKind     `json:"graph" yaml:"graph"`
	Dimension   float64       `json:"dimension" yaml:"dimension"`
	Decay       float64       `json:"decay" yaml:"decay"`
	RSquaredPow float64       `json:"r_squared_pow" yaml:"r_squared_pow"`
	RSquaredExp float64       `json:"r_squared_exp" yaml:"r_squared_exp"`
	Needed      []int         `json:"needed" yaml:"needed"`
	BuildTime   time.Duration `json:"build_time_ns" yaml:"build_time_ns"`
	ComputeTime time.Duration `json:"compute_time_ns" yaml:"compute_time_ns"`
}

// SelfSimilarVIG estimates the fractal dimension of the variable incidence graph
func (s *Service) SelfSimilarVIG(ctx context.Context, f *cnf.Formula) (*SelfSimilarReport, error) {
	return s.SelfSimilar(ctx, f, VIG)
}

// SelfSimilarCVIG estimates the fractal dimension of the clause-variable incidence graph
func (s *Service) SelfSimilarCVIG(ctx context.Context, f *cnf.Formula) (*SelfSimilarReport, error) {
	return s.SelfSimilar(ctx, f, CVIG)
}

// SelfSimilar builds the requested graph and estimates its fractal dimension
func (s *Service) SelfSimilar(ctx context.Context, f *cnf.Formula, kind GraphKind) (*SelfSimilarReport, error) {
	g, buildTime, err := s.BuildGraph(f, kind)
	if err != nil {
		return nil, err
	}

	report, err := s.selfSimilar(ctx, g, kind)
	if err != nil {
		return nil, err
	}
	report.BuildTime = buildTime
	return report, nil
}

func (s *Service) selfSimilar(ctx context.Context, g *graph.Graph, kind GraphKind) (*SelfSimilarReport, error) {
	feature, stream := SelfSimilarVIG, int64(1)
	if kind == CVIG {
		feature, stream = SelfSimilarCVIG, 2
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	needed := dimension.Needed(g, s.config.MaxRadius(), s.config.RandomSource(stream))

	estimate, err := dimension.Regress(needed, s.config.MinX(), s.config.MaxX())
	if err != nil {
		s.record(feature, start, 0, err)
		return nil, fmt.Errorf("%s: %w", feature, err)
	}

	report := &SelfSimilarReport{
		Graph:       kind,
		Dimension:   estimate.Dimension,
		Decay:       estimate.Decay,
		RSquaredPow: estimate.RSquaredPow,
		RSquaredExp: estimate.RSquaredExp,
		Needed:      needed,
		ComputeTime: time.Since(start),
	}

	s.record(feature, start, report.Dimension, nil)
	s.logger.Info().
		Str("graph", string(kind)).
		Float64("dimension", report.Dimension).
		Float64("decay", report.Decay).
		Ints("needed", needed).
		Dur("compute_time", report.ComputeTime).
		Msg("Self-similarity estimated")

	return report, nil
}
