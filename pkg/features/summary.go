package features

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/gilchrisn/sat-graph-features/pkg/cnf"
	"github.com/gilchrisn/sat-graph-features/pkg/dimension"
	"github.com/gilchrisn/sat-graph-features/pkg/powerlaw"
)

// Unavailable marks a feature that could not be computed for an instance
const Unavailable = -1

// Summary is the stat line of one instance. Times are in seconds.
type Summary struct {
	Instance          string  `json:"instance" yaml:"instance"`
	BuildTime         float64 `json:"time_build_graphs" yaml:"time_build_graphs"`
	AlphaVar          float64 `json:"alpha_var" yaml:"alpha_var"`
	AlphaVarTime      float64 `json:"time_alpha_var" yaml:"time_alpha_var"`
	AlphaClause       float64 `json:"alpha_clause" yaml:"alpha_clause"`
	AlphaClauseTime   float64 `json:"time_alpha_clause" yaml:"time_alpha_clause"`
	Dimension         float64 `json:"dim" yaml:"dim"`
	DimensionTime     float64 `json:"time_dim" yaml:"time_dim"`
	DimensionBip      float64 `json:"dim_bip" yaml:"dim_bip"`
	DimensionBipTime  float64 `json:"time_dim_bip" yaml:"time_dim_bip"`
	Modularity        float64 `json:"mod" yaml:"mod"`
	CommunitiesVIG    int     `json:"comm_vig" yaml:"comm_vig"`
	ModularityTime    float64 `json:"time_mod" yaml:"time_mod"`
	ModularityBip     float64 `json:"mod_bip" yaml:"mod_bip"`
	CommunitiesCVIG   int     `json:"comm_cvig" yaml:"comm_cvig"`
	ModularityBipTime float64 `json:"time_mod_bip" yaml:"time_mod_bip"`
	TotalTime         float64 `json:"time_total" yaml:"time_total"`
}

// CSVHeader is the column row of the stat line
var CSVHeader = []string{
	"#instances", "time-buildGraphs",
	"alphaVarExp", "time-AlphaVar", "alphaClauExp", "time-AlphaClau",
	"dim", "time-dim", "dim-bip", "time-dimBip",
	"mod", "#comm-vig", "time-mod", "mod-bip", "#comm-cvig", "time-mod-bip",
	"time-total",
}

func newSummary(instance string) *Summary {
	return &Summary{
		Instance:        instance,
		AlphaVar:        Unavailable,
		AlphaClause:     Unavailable,
		Dimension:       Unavailable,
		DimensionBip:    Unavailable,
		Modularity:      Unavailable,
		CommunitiesVIG:  Unavailable,
		ModularityBip:   Unavailable,
		CommunitiesCVIG: Unavailable,
	}
}

// Record renders the summary as one CSV row
func (s *Summary) Record() []string {
	return []string{
		s.Instance, formatFloat(s.BuildTime),
		formatFloat(s.AlphaVar), formatFloat(s.AlphaVarTime),
		formatFloat(s.AlphaClause), formatFloat(s.AlphaClauseTime),
		formatFloat(s.Dimension), formatFloat(s.DimensionTime),
		formatFloat(s.DimensionBip), formatFloat(s.DimensionBipTime),
		formatFloat(s.Modularity), strconv.Itoa(s.CommunitiesVIG), formatFloat(s.ModularityTime),
		formatFloat(s.ModularityBip), strconv.Itoa(s.CommunitiesCVIG), formatFloat(s.ModularityBipTime),
		formatFloat(s.TotalTime),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// ComputeAll computes every feature of f. The two graphs are built once and
// shared read-only by the feature computations, which run concurrently
// unless the configuration carries an injected random source.
//
// A feature whose input is too small to fit is reported as Unavailable;
// any other failure aborts the computation.
func (s *Service) ComputeAll(ctx context.Context, instance string, f *cnf.Formula) (*Summary, error) {
	start := time.Now()
	summary := newSummary(instance)

	vig, vigTime, err := s.BuildGraph(f, VIG)
	if err != nil {
		return nil, err
	}
	cvig, cvigTime, err := s.BuildGraph(f, CVIG)
	if err != nil {
		return nil, err
	}
	summary.BuildTime = (vigTime + cvigTime).Seconds()

	g, gctx := errgroup.WithContext(ctx)
	if s.config.HasRandomSource() {
		// a shared source must see calls in a fixed order
		g.SetLimit(1)
	}

	g.Go(func() error {
		report, err := s.ScaleFreeVar(f)
		if err != nil {
			return s.unavailable(ScaleFreeVar, instance, err)
		}
		summary.AlphaVar, summary.AlphaVarTime = report.Alpha, report.ComputeTime.Seconds()
		return nil
	})
	g.Go(func() error {
		report, err := s.ScaleFreeClause(f)
		if err != nil {
			return s.unavailable(ScaleFreeClause, instance, err)
		}
		summary.AlphaClause, summary.AlphaClauseTime = report.Alpha, report.ComputeTime.Seconds()
		return nil
	})
	g.Go(func() error {
		report, err := s.selfSimilar(gctx, vig, VIG)
		if err != nil {
			return s.unavailable(SelfSimilarVIG, instance, err)
		}
		summary.Dimension, summary.DimensionTime = report.Dimension, report.ComputeTime.Seconds()
		return nil
	})
	g.Go(func() error {
		report, err := s.selfSimilar(gctx, cvig, CVIG)
		if err != nil {
			return s.unavailable(SelfSimilarCVIG, instance, err)
		}
		summary.DimensionBip, summary.DimensionBipTime = report.Dimension, report.ComputeTime.Seconds()
		return nil
	})
	g.Go(func() error {
		report, err := s.communities(gctx, vig, VIG)
		if err != nil {
			return err
		}
		summary.Modularity, summary.CommunitiesVIG = report.Modularity, report.NumCommunities
		summary.ModularityTime = report.ComputeTime.Seconds()
		return nil
	})
	g.Go(func() error {
		report, err := s.communities(gctx, cvig, CVIG)
		if err != nil {
			return err
		}
		summary.ModularityBip, summary.CommunitiesCVIG = report.Modularity, report.NumCommunities
		summary.ModularityBipTime = report.ComputeTime.Seconds()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("computing features of %s: %w", instance, err)
	}

	summary.TotalTime = time.Since(start).Seconds()
	s.logger.Info().
		Str("instance", instance).
		Float64("mod", summary.Modularity).
		Float64("mod_bip", summary.ModularityBip).
		Float64("total_time", summary.TotalTime).
		Msg("Features computed")

	return summary, nil
}

// unavailable swallows the errors that mean "too little data" and passes
// every other error through
func (s *Service) unavailable(feature Feature, instance string, err error) error {
	if errors.Is(err, powerlaw.ErrInsufficientData) || errors.Is(err, dimension.ErrTooFewPoints) {
		s.logger.Warn().
			Err(err).
			Str("instance", instance).
			Str("feature", string(feature)).
			Msg("Feature unavailable")
		return nil
	}
	return err
}

// ComputeFile parses a DIMACS file and computes every feature
func (s *Service) ComputeFile(ctx context.Context, path string) (*Summary, error) {
	f, err := cnf.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return s.ComputeAll(ctx, path, f)
}

// ComputeArchive computes every feature of each formula in a tar archive,
// handing summaries to fn in archive order
func (s *Service) ComputeArchive(ctx context.Context, path string, fn func(*Summary) error) error {
	return cnf.ReadArchiveFile(path, func(name string, f *cnf.Formula) error {
		summary, err := s.ComputeAll(ctx, name, f)
		if err != nil {
			return err
		}
		return fn(summary)
	})
}

// Format selects how summaries are rendered
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an output format name
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatCSV, FormatJSON, FormatYAML:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unknown output format %q, want csv, json or yaml", name)
	}
}

// SummaryWriter renders summaries one at a time. CSV output streams; JSON
// and YAML output is buffered until Close so the result is one document.
type SummaryWriter struct {
	w       io.Writer
	format  Format
	csv     *csv.Writer
	pending []*Summary
}

// NewSummaryWriter creates a writer. header controls the CSV column row.
func NewSummaryWriter(w io.Writer, format Format, header bool) (*SummaryWriter, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}

	sw := &SummaryWriter{w: w, format: format}
	if format == FormatCSV {
		sw.csv = csv.NewWriter(w)
		if header {
			if err := sw.csv.Write(CSVHeader); err != nil {
				return nil, err
			}
		}
	}
	return sw, nil
}

// Write renders one summary
func (sw *SummaryWriter) Write(s *Summary) error {
	if sw.csv == nil {
		sw.pending = append(sw.pending, s)
		return nil
	}
	if err := sw.csv.Write(s.Record()); err != nil {
		return err
	}
	sw.csv.Flush()
	return sw.csv.Error()
}

// Close flushes buffered output
func (sw *SummaryWriter) Close() error {
	switch sw.format {
	case FormatCSV:
		sw.csv.Flush()
		return sw.csv.Error()
	case FormatJSON:
		encoder := json.NewEncoder(sw.w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(sw.pending)
	case FormatYAML:
		encoder := yaml.NewEncoder(sw.w)
		encoder.SetIndent(2)
		if err := encoder.Encode(sw.pending); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unknown output format %q", sw.format)
	}
}
