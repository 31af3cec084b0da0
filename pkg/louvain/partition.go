package louvain

import (
	"github.com/gilchrisn/sat-graph-features/pkg/graph"
)

// Partition assigns every node of a graph to one community. Community ids
// live in [0, Size()) and arity[c] always equals the summed weighted degree
// of the nodes currently in c.
type Partition struct {
	graph *graph.Graph
	n2c   []int
	arity []float64

	tracker *MoveTracker
}

// NewPartition puts every node in its own singleton community
func NewPartition(g *graph.Graph) *Partition {
	n := g.Size()
	p := &Partition{
		graph: g,
		n2c:   make([]int, n),
		arity: make([]float64, n),
	}

	for i := 0; i < n; i++ {
		p.n2c[i] = i
		p.arity[i] = g.Arity(i)
	}

	return p
}

// NewPartitionFrom builds a partition from an existing node -> community
// assignment. Ids must lie in [0, g.Size()); the slice is copied.
func NewPartitionFrom(g *graph.Graph, n2c []int) *Partition {
	p := &Partition{
		graph: g,
		n2c:   make([]int, g.Size()),
		arity: make([]float64, g.Size()),
	}

	copy(p.n2c, n2c)
	for i, c := range p.n2c {
		p.arity[c] += g.Arity(i)
	}

	return p
}

// Graph returns the graph the partition is defined over
func (p *Partition) Graph() *graph.Graph { return p.graph }

// Community returns the community of node n
func (p *Partition) Community(n int) int { return p.n2c[n] }

// CommunityArity returns the summed weighted degree of community c
func (p *Partition) CommunityArity(c int) float64 { return p.arity[c] }

// Assignment returns a copy of the node -> community mapping
func (p *Partition) Assignment() []int {
	out := make([]int, len(p.n2c))
	copy(out, p.n2c)
	return out
}

// NumCommunities counts the distinct communities holding at least one node
func (p *Partition) NumCommunities() int {
	seen := make([]bool, len(p.arity))
	count := 0
	for _, c := range p.n2c {
		if !seen[c] {
			seen[c] = true
			count++
		}
	}
	return count
}

// SetTracker records every accepted move of the local search
func (p *Partition) SetTracker(mt *MoveTracker) { p.tracker = mt }

// Modularity computes Newman's modularity of the partition:
// 2*W_in/W - sum_c (arity[c]/W)^2 with W the total arity of the graph.
func (p *Partition) Modularity() float64 {
	total := p.graph.TotalArity()
	if total == 0 {
		return 0
	}

	internal := 0.0
	for e := range p.graph.Edges() {
		if p.n2c[e.From] == p.n2c[e.To] {
			internal += e.Weight
		}
	}

	aritym := make([]float64, len(p.arity))
	for i, c := range p.n2c {
		aritym[c] += p.graph.Arity(i)
	}

	expected := 0.0
	for _, a := range aritym {
		expected += (a / total) * (a / total)
	}

	return 2*internal/total - expected
}
