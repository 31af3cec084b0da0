package graph

import (
	"fmt"
	"iter"
	"math"
)

// Edge is a weighted undirected edge stored in canonical orientation (From <= To)
type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight"`
}

// Graph represents a weighted undirected graph using simple arrays.
// Parallel edges are merged by summing their weights; self-loops are allowed.
type Graph struct {
	NumNodes  int       `json:"num_nodes"`
	Degrees   []float64 `json:"degrees"` // degrees[i] = weighted degree (arity) of node i
	EdgeList  []Edge    `json:"edges"`
	Adjacency [][]int   `json:"-"` // adjacency[i] = indices into EdgeList of edges incident to i

	totalArity float64
	selfLoops  int
	index      map[[2]int]int
}

// New creates a graph with numNodes nodes and no edges. edgeHint is the
// expected number of distinct edges and only sizes internal buffers.
func New(numNodes, edgeHint int) *Graph {
	if edgeHint < 0 {
		edgeHint = 0
	}
	return &Graph{
		NumNodes:  numNodes,
		Degrees:   make([]float64, numNodes),
		EdgeList:  make([]Edge, 0, edgeHint),
		Adjacency: make([][]int, numNodes),
		index:     make(map[[2]int]int, edgeHint),
	}
}

// AddEdge adds weight between orig and dest. Node indices must be in
// [0, Size()); adding an existing edge accumulates its weight.
func (g *Graph) AddEdge(orig, dest int, weight float64) {
	if orig > dest {
		orig, dest = dest, orig
	}

	key := [2]int{orig, dest}
	if i, exists := g.index[key]; exists {
		g.EdgeList[i].Weight += weight
	} else {
		i = len(g.EdgeList)
		g.index[key] = i
		g.EdgeList = append(g.EdgeList, Edge{From: orig, To: dest, Weight: weight})
		g.Adjacency[orig] = append(g.Adjacency[orig], i)
		if orig != dest {
			g.Adjacency[dest] = append(g.Adjacency[dest], i)
		} else {
			g.selfLoops++
		}
	}

	// Self-loop: counts twice for degree
	g.Degrees[orig] += weight
	g.Degrees[dest] += weight
	g.totalArity += 2 * weight
}

// Size returns the number of nodes
func (g *Graph) Size() int { return g.NumNodes }

// NumEdges returns the number of distinct edges
func (g *Graph) NumEdges() int { return len(g.EdgeList) }

// Arity returns the weighted degree of a node
func (g *Graph) Arity(node int) float64 { return g.Degrees[node] }

// TotalArity returns the sum of all node arities, i.e. twice the sum of edge weights
func (g *Graph) TotalArity() float64 { return g.totalArity }

// HasSelfLoops reports whether any edge connects a node to itself
func (g *Graph) HasSelfLoops() bool { return g.selfLoops > 0 }

// Edges yields every edge exactly once
func (g *Graph) Edges() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		for _, e := range g.EdgeList {
			if !yield(e) {
				return
			}
		}
	}
}

// Neighbors yields (destination, weight) for every edge incident to node.
// A self-loop is yielded once with destination == node.
func (g *Graph) Neighbors(node int) iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		for _, i := range g.Adjacency[node] {
			e := g.EdgeList[i]
			dest := e.To
			if dest == node {
				dest = e.From
			}
			if !yield(dest, e.Weight) {
				return
			}
		}
	}
}

// EdgeWeight returns the weight of the edge between u and v, or 0
func (g *Graph) EdgeWeight(u, v int) float64 {
	if u > v {
		u, v = v, u
	}
	if i, exists := g.index[[2]int{u, v}]; exists {
		return g.EdgeList[i].Weight
	}
	return 0
}

// Clone creates a deep copy of the graph
func (g *Graph) Clone() *Graph {
	clone := New(g.NumNodes, len(g.EdgeList))
	for _, e := range g.EdgeList {
		clone.AddEdge(e.From, e.To, e.Weight)
	}
	return clone
}

// Validate checks graph consistency. The community engine trusts its input;
// feature extraction runs this on every built graph when verification is on.
func (g *Graph) Validate() error {
	if len(g.Degrees) != g.NumNodes || len(g.Adjacency) != g.NumNodes {
		return fmt.Errorf("graph arrays sized %d/%d, want %d", len(g.Degrees), len(g.Adjacency), g.NumNodes)
	}

	degrees := make([]float64, g.NumNodes)
	for i, e := range g.EdgeList {
		if e.From < 0 || e.To >= g.NumNodes || e.From > e.To {
			return fmt.Errorf("edge %d has invalid endpoints %d-%d", i, e.From, e.To)
		}
		if e.Weight < 0 || math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) {
			return fmt.Errorf("invalid weight %f for edge %d-%d", e.Weight, e.From, e.To)
		}
		degrees[e.From] += e.Weight
		degrees[e.To] += e.Weight
	}

	for i, d := range degrees {
		if math.Abs(d-g.Degrees[i]) > 1e-9*math.Max(1, d) {
			return fmt.Errorf("degree mismatch for node %d: stored %f, computed %f", i, g.Degrees[i], d)
		}
	}

	return nil
}
