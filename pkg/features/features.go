// Package features computes structural features of SAT instances: the
// modularity of their incidence graphs, the scale-free exponent of their
// occurrence distributions and the self-similarity of their graphs.
package features

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gilchrisn/sat-graph-features/pkg/cnf"
	"github.com/gilchrisn/sat-graph-features/pkg/graph"
	"github.com/gilchrisn/sat-graph-features/pkg/louvain"
	"github.com/gilchrisn/sat-graph-features/pkg/metrics"
)

// Feature names one computable feature
type Feature string

const (
	ModularityVIG   Feature = "modularity-vig"
	ModularityCVIG  Feature = "modularity-cvig"
	ScaleFreeVar    Feature = "scale-free-var"
	ScaleFreeClause Feature = "scale-free-clause"
	SelfSimilarVIG  Feature = "self-similar-vig"
	SelfSimilarCVIG Feature = "self-similar-cvig"
)

// AllFeatures lists every feature in stat line order
var AllFeatures = []Feature{
	ScaleFreeVar, ScaleFreeClause, SelfSimilarVIG, SelfSimilarCVIG, ModularityVIG, ModularityCVIG,
}

// ParseFeature validates a feature name
func ParseFeature(name string) (Feature, error) {
	for _, f := range AllFeatures {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown feature %q", name)
}

// GraphKind selects the graph representation of a formula
type GraphKind string

const (
	VIG  GraphKind = "vig"
	CVIG GraphKind = "cvig"
)

// ParseGraphKind validates a graph kind name
func ParseGraphKind(name string) (GraphKind, error) {
	switch GraphKind(name) {
	case VIG, CVIG:
		return GraphKind(name), nil
	default:
		return "", fmt.Errorf("unknown graph kind %q, want vig or cvig", name)
	}
}

// Service computes features with one configuration. It is safe for
// concurrent use; with analysis.track_moves every optimization run logs to
// one shared move file, opened on first use and released by Close.
type Service struct {
	config  *louvain.Config
	logger  zerolog.Logger
	metrics *metrics.Registry

	movesOnce sync.Once
	moves     *louvain.MoveTracker
	movesErr  error
}

// NewService creates a service. registry may be nil.
func NewService(config *louvain.Config, registry *metrics.Registry) *Service {
	return &Service{
		config:  config,
		logger:  config.CreateLogger().With().Str("component", "features").Logger(),
		metrics: registry,
	}
}

// Config returns the configuration the service runs with
func (s *Service) Config() *louvain.Config { return s.config }

// moveTracker returns the shared move log, or nil when tracking is off
func (s *Service) moveTracker() (*louvain.MoveTracker, error) {
	if !s.config.EnableMoveTracking() {
		return nil, nil
	}
	s.movesOnce.Do(func() {
		s.moves, s.movesErr = louvain.NewMoveTrackerFile(s.config.TrackingOutputFile())
		if s.movesErr == nil {
			s.logger.Info().Str("file", s.config.TrackingOutputFile()).Msg("Tracking node moves")
		}
	})
	return s.moves, s.movesErr
}

// Close releases the move log, if one was opened, and reports its first
// write error. Runs started after Close log no moves.
func (s *Service) Close() error {
	s.movesOnce.Do(func() {})
	return s.moves.Close()
}

// BuildGraph builds the requested graph representation of f
func (s *Service) BuildGraph(f *cnf.Formula, kind GraphKind) (*graph.Graph, time.Duration, error) {
	start := time.Now()

	var g *graph.Graph
	switch kind {
	case VIG:
		g = cnf.BuildVIG(f, s.config.MaxClauseSize())
	case CVIG:
		g = cnf.BuildCVIG(f, s.config.MaxClauseSize())
	default:
		return nil, 0, fmt.Errorf("unknown graph kind %q", kind)
	}
	elapsed := time.Since(start)

	if s.config.Verify() {
		if err := g.Validate(); err != nil {
			return nil, 0, fmt.Errorf("%s graph: %w", kind, err)
		}
	}

	s.metrics.RecordGraph(string(kind), g.Size(), g.NumEdges())
	s.logger.Debug().
		Str("graph", string(kind)).
		Int("nodes", g.Size()).
		Int("edges", g.NumEdges()).
		Dur("build_time", elapsed).
		Msg("Graph built")

	return g, elapsed, nil
}

func (s *Service) record(feature Feature, start time.Time, value float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordFeature(string(feature), status, time.Since(start), value)
}
