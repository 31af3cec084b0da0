package graph

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ToGonum converts the graph to a gonum weighted undirected graph.
// Self-loops are dropped since simple graphs cannot hold them.
func (g *Graph) ToGonum() *simple.WeightedUndirectedGraph {
	wg := simple.NewWeightedUndirectedGraph(0, 0)
	for i := 0; i < g.NumNodes; i++ {
		wg.AddNode(simple.Node(int64(i)))
	}

	for _, e := range g.EdgeList {
		if e.From == e.To {
			continue
		}
		wg.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(int64(e.From)),
			T: simple.Node(int64(e.To)),
			W: e.Weight,
		})
	}

	return wg
}

// GonumModularity scores an assignment with gonum's community.Q.
// The second result is false when the graph has self-loops, which the
// gonum conversion cannot represent.
func (g *Graph) GonumModularity(assignment []int) (float64, bool) {
	if g.HasSelfLoops() || len(assignment) != g.NumNodes {
		return 0, false
	}

	groups := make(map[int][]graph.Node)
	order := make([]int, 0)
	for node, c := range assignment {
		if _, exists := groups[c]; !exists {
			order = append(order, c)
		}
		groups[c] = append(groups[c], simple.Node(int64(node)))
	}

	communities := make([][]graph.Node, 0, len(order))
	for _, c := range order {
		communities = append(communities, groups[c])
	}

	return community.Q(g.ToGonum(), communities, 1), true
}

// GonumComponents returns connected components as computed by gonum's topo
// package, each component a list of node indices.
func (g *Graph) GonumComponents() [][]int {
	cc := topo.ConnectedComponents(g.ToGonum())

	components := make([][]int, len(cc))
	for i, nodes := range cc {
		components[i] = make([]int, len(nodes))
		for j, n := range nodes {
			components[i][j] = int(n.ID())
		}
	}
	return components
}
