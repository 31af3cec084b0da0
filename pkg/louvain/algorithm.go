package louvain

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/gilchrisn/sat-graph-features/pkg/graph"
)

// Result represents the algorithm output
type Result struct {
	Modularity     float64     `json:"modularity"`
	Assignment     []int       `json:"assignment"` // original node -> dense community id
	NumCommunities int         `json:"num_communities"`
	Iterations     int         `json:"iterations"` // local-search rounds over all levels
	Levels         []LevelInfo `json:"levels"`
	Statistics     Statistics  `json:"statistics"`
}

// LevelInfo contains information about each level of the multilevel loop
type LevelInfo struct {
	Level             int     `json:"level"`
	Nodes             int     `json:"nodes"`
	NumCommunities    int     `json:"num_communities"`
	InitialModularity float64 `json:"initial_modularity"`
	FinalModularity   float64 `json:"final_modularity"`
	Rounds            int     `json:"rounds"`
	NumMoves          int     `json:"num_moves"`
	Contracted        bool    `json:"contracted"`
	RuntimeMS         int64   `json:"runtime_ms"`
}

// Statistics contains algorithm performance metrics
type Statistics struct {
	TotalMoves   int   `json:"total_moves"`
	RuntimeMS    int64 `json:"runtime_ms"`
	MemoryPeakMB int64 `json:"memory_peak_mb"`
}

// OneLevel moves single nodes between neighboring communities while some
// move strictly increases modularity. Each round visits the nodes in a fresh
// random order drawn from rng. Gains not exceeding eps count as no gain.
// It returns whether any node moved, the number of rounds and the number
// of accepted moves.
func (p *Partition) OneLevel(rng RandomSource, eps float64) (bool, int, int) {
	g := p.graph
	n := g.Size()
	total := g.TotalArity()
	if n == 0 || total == 0 {
		return false, 0, 0
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	// neighWeight[c] = weight from the current node into c, -1 if c is not adjacent
	neighWeight := make([]float64, n)
	for i := range neighWeight {
		neighWeight[i] = -1
	}
	neighComms := make([]int, 0, 16)

	improved := false
	rounds, moves := 0, 0

	for {
		rounds++
		for i := 0; i < n-1; i++ {
			j := i + rng.Intn(n-i)
			order[i], order[j] = order[j], order[i]
		}

		changed := false
		for _, node := range order {
			current := p.n2c[node]
			degree := g.Arity(node)
			p.arity[current] -= degree

			for _, c := range neighComms {
				neighWeight[c] = -1
			}
			neighComms = neighComms[:0]

			for dest, w := range g.Neighbors(node) {
				if dest == node {
					continue
				}
				c := p.n2c[dest]
				if neighWeight[c] < 0 {
					neighWeight[c] = 0
					neighComms = append(neighComms, c)
				}
				neighWeight[c] += w
			}

			best := current
			bestInc := 0.0
			for _, c := range neighComms {
				inc := neighWeight[c] - degree*p.arity[c]/total
				if inc > bestInc+eps {
					bestInc = inc
					best = c
				}
			}

			if best != current {
				changed = true
				improved = true
				moves++
				p.n2c[node] = best
				p.tracker.LogMove(rounds, node, current, best, bestInc)
			}
			p.arity[best] += degree
		}

		if !changed {
			break
		}
	}

	return improved, rounds, moves
}

// Contract renumbers the occupied communities densely in ascending id order,
// rewrites the partition with the new ids and returns the graph whose nodes
// are those communities. Intra-community edges become self-loops.
func (p *Partition) Contract() *graph.Graph {
	renumber := make([]int, len(p.arity))
	for i := range renumber {
		renumber[i] = -1
	}
	for _, c := range p.n2c {
		renumber[c] = 0
	}

	k := 0
	for c := range renumber {
		if renumber[c] == 0 {
			renumber[c] = k
			k++
		}
	}

	for i, c := range p.n2c {
		p.n2c[i] = renumber[c]
	}

	for c := range p.arity {
		p.arity[c] = 0
	}
	for i, c := range p.n2c {
		p.arity[c] += p.graph.Arity(i)
	}

	contracted := graph.New(k, p.graph.NumEdges())
	for e := range p.graph.Edges() {
		contracted.AddEdge(p.n2c[e.From], p.n2c[e.To], e.Weight)
	}

	return contracted
}

// Run executes the multilevel optimization starting from singletons
func Run(ctx context.Context, g *graph.Graph, config *Config) (*Result, error) {
	return RunFrom(ctx, g, nil, config)
}

// RunTracked is Run with moves logged to tracker instead of the file named by
// analysis.output_file. The caller owns tracker; a nil tracker logs nothing.
func RunTracked(ctx context.Context, g *graph.Graph, config *Config, tracker *MoveTracker) (*Result, error) {
	return run(ctx, g, nil, config, tracker)
}

// RunFrom executes the multilevel optimization starting from an existing
// assignment of the nodes of g. A nil assignment means singletons. Starting
// from the output of a previous run never improves modularity by more than
// the configured precision.
func RunFrom(ctx context.Context, g *graph.Graph, initial []int, config *Config) (*Result, error) {
	if !config.EnableMoveTracking() {
		return run(ctx, g, initial, config, nil)
	}

	tracker, err := NewMoveTrackerFile(config.TrackingOutputFile())
	if err != nil {
		return nil, err
	}
	result, err := run(ctx, g, initial, config, tracker)
	if closeErr := tracker.Close(); closeErr != nil {
		logger := config.CreateLogger()
		logger.Warn().Err(closeErr).Msg("Move log incomplete")
	}
	return result, err
}

func run(ctx context.Context, g *graph.Graph, initial []int, config *Config, tracker *MoveTracker) (*Result, error) {
	startTime := time.Now()
	logger := config.CreateLogger()
	n := g.Size()

	if initial != nil {
		if len(initial) != n {
			return nil, fmt.Errorf("initial assignment has %d entries for %d nodes", len(initial), n)
		}
		for i, c := range initial {
			if c < 0 || c >= n {
				return nil, fmt.Errorf("node %d assigned to community %d outside [0, %d)", i, c, n)
			}
		}
	}

	logger.Info().
		Int("nodes", n).
		Int("edges", g.NumEdges()).
		Float64("total_arity", g.TotalArity()).
		Msg("Starting modularity optimization")

	result := &Result{
		Assignment: make([]int, n),
		Levels:     make([]LevelInfo, 0),
	}

	current := g
	ncomm := n
	if initial != nil {
		start := NewPartitionFrom(g, initial)
		current = start.Contract()
		copy(result.Assignment, start.n2c)
		ncomm = current.Size()
	} else {
		for i := range result.Assignment {
			result.Assignment[i] = i
		}
	}

	if n <= 1 || g.TotalArity() == 0 {
		result.NumCommunities = ncomm
		result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()
		logger.Info().Msg("Degenerate graph, modularity is zero")
		return result, nil
	}

	rng := config.RandomSource(0)
	precision := config.Precision()
	eps := config.GainEpsilon()
	maxLevels := config.MaxLevels()

	for level := 0; maxLevels <= 0 || level < maxLevels; level++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		levelStart := time.Now()
		p := NewPartition(current)
		p.SetTracker(tracker)
		tracker.SetLevel(level)

		initialMod := p.Modularity()
		moved, rounds, moves := p.OneLevel(rng, eps)
		finalMod := p.Modularity()

		result.Iterations += rounds
		result.Statistics.TotalMoves += moves

		info := LevelInfo{
			Level:             level,
			Nodes:             current.Size(),
			NumCommunities:    p.NumCommunities(),
			InitialModularity: initialMod,
			FinalModularity:   finalMod,
			Rounds:            rounds,
			NumMoves:          moves,
		}

		improved := moved && math.Abs(finalMod-initialMod) > precision
		if improved {
			next := p.Contract()
			improved = next.Size() != ncomm
			ncomm = next.Size()
			for i, c := range result.Assignment {
				result.Assignment[i] = p.n2c[c]
			}
			current = next
			info.Contracted = true
		}
		info.RuntimeMS = time.Since(levelStart).Milliseconds()
		result.Levels = append(result.Levels, info)

		progress := logger.Debug()
		if config.EnableProgress() {
			progress = logger.Info()
		}
		progress.
			Int("level", level).
			Int("nodes", info.Nodes).
			Int("communities", info.NumCommunities).
			Int("rounds", rounds).
			Int("moves", moves).
			Float64("modularity", finalMod).
			Msg("Level completed")

		if !improved {
			logger.Debug().Int("level", level).Msg("No improvement, stopping")
			break
		}
	}

	final := NewPartitionFrom(g, result.Assignment)
	result.Modularity = final.Modularity()
	result.NumCommunities = final.NumCommunities()
	result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()
	result.Statistics.MemoryPeakMB = getMemoryUsage()

	if config.Verify() {
		if reference, ok := g.GonumModularity(result.Assignment); ok {
			if math.Abs(reference-result.Modularity) > 1e-9 {
				return nil, fmt.Errorf("modularity %.12f disagrees with reference %.12f", result.Modularity, reference)
			}
			logger.Debug().Float64("reference", reference).Msg("Modularity verified")
		}
	}

	logger.Info().
		Int("levels", len(result.Levels)).
		Int("communities", result.NumCommunities).
		Int("iterations", result.Iterations).
		Float64("final_modularity", result.Modularity).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Modularity optimization completed")

	return result, nil
}

// getMemoryUsage returns current memory usage in MB
func getMemoryUsage() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / 1024 / 1024)
}
