package features

import (
	"fmt"
	"time"

	"github.com/gilchrisn/sat-graph-features/pkg/cnf"
	"github.com/gilchrisn/sat-graph-features/pkg/powerlaw"
)

// ScaleFreeReport describes the power-law fit of an occurrence distribution
type ScaleFreeReport struct {
	Feature     Feature       `json:"feature" yaml:"feature"`
	Alpha       float64       `json:"alpha" yaml:"alpha"`
	Xmin        int           `json:"xmin" yaml:"xmin"`
	KS          float64       `json:"ks" yaml:"ks"`
	TailSize    int           `json:"tail_size" yaml:"tail_size"`
	Observed    int           `json:"observed" yaml:"observed"`
	ComputeTime time.Duration `json:"compute_time_ns" yaml:"compute_time_ns"`
}

// ScaleFreeVar fits the distribution of variable occurrences
func (s *Service) ScaleFreeVar(f *cnf.Formula) (*ScaleFreeReport, error) {
	return s.scaleFree(ScaleFreeVar, cnf.VarOccurrences(f))
}

// ScaleFreeClause fits the distribution of clause sizes
func (s *Service) ScaleFreeClause(f *cnf.Formula) (*ScaleFreeReport, error) {
	return s.scaleFree(ScaleFreeClause, cnf.ClauseSizes(f))
}

func (s *Service) scaleFree(feature Feature, h cnf.Histogram) (*ScaleFreeReport, error) {
	start := time.Now()

	fit, err := powerlaw.Estimate(samples(h), s.config.MaxXmin())
	if err != nil {
		s.record(feature, start, 0, err)
		return nil, fmt.Errorf("%s: %w", feature, err)
	}

	report := &ScaleFreeReport{
		Feature:     feature,
		Alpha:       fit.Alpha,
		Xmin:        fit.Xmin,
		KS:          fit.KS,
		TailSize:    fit.TailSize,
		Observed:    h.Total(),
		ComputeTime: time.Since(start),
	}

	s.record(feature, start, report.Alpha, nil)
	s.logger.Info().
		Str("feature", string(feature)).
		Float64("alpha", report.Alpha).
		Int("xmin", report.Xmin).
		Float64("ks", report.KS).
		Dur("compute_time", report.ComputeTime).
		Msg("Power law fitted")

	return report, nil
}

func samples(h cnf.Histogram) []powerlaw.Sample {
	out := make([]powerlaw.Sample, len(h))
	for i, b := range h {
		out[i] = powerlaw.Sample{Value: b.Value, Count: b.Count}
	}
	return out
}
