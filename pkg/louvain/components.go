package louvain

import (
	"github.com/gilchrisn/sat-graph-features/pkg/graph"
)

// ConnectedComponents assigns every node the id of its connected component.
// Ids are handed out in discovery order scanning nodes by index, so the
// component holding node 0 is always 0.
func ConnectedComponents(g *graph.Graph) *Partition {
	n := g.Size()
	p := &Partition{
		graph: g,
		n2c:   make([]int, n),
		arity: make([]float64, n),
	}

	for i := range p.n2c {
		p.n2c[i] = -1
	}

	c := 0
	stack := make([]int, 0, 64)
	for i := 0; i < n; i++ {
		if p.n2c[i] != -1 {
			continue
		}

		p.n2c[i] = c
		stack = append(stack, i)
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			p.arity[c] += g.Arity(node)

			for dest := range g.Neighbors(node) {
				if p.n2c[dest] == -1 {
					p.n2c[dest] = c
					stack = append(stack, dest)
				}
			}
		}
		c++
	}

	return p
}
