package cnf

import (
	"github.com/gilchrisn/sat-graph-features/pkg/graph"
)

// variables returns the distinct variables of a clause, 0-based, in first
// occurrence order. seen is scratch space sized NumVars and left cleared.
func variables(clause []int, seen []bool, out []int) []int {
	out = out[:0]
	for _, lit := range clause {
		v := lit
		if v < 0 {
			v = -v
		}
		v--
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range out {
		seen[v] = false
	}
	return out
}

func skipClause(size, maxClauseSize int) bool {
	return maxClauseSize > 0 && size > maxClauseSize
}

// BuildVIG builds the variable incidence graph: one node per variable and,
// for every clause of k >= 2 distinct variables, weight 1/C(k,2) between
// each pair of them. Clauses with more than maxClauseSize distinct
// variables are ignored; maxClauseSize <= 0 keeps every clause.
func BuildVIG(f *Formula, maxClauseSize int) *graph.Graph {
	g := graph.New(f.NumVars, len(f.Clauses)*3)
	seen := make([]bool, f.NumVars)
	vars := make([]int, 0, 16)

	for _, clause := range f.Clauses {
		vars = variables(clause, seen, vars)
		k := len(vars)
		if k < 2 || skipClause(k, maxClauseSize) {
			continue
		}

		w := 2.0 / float64(k*(k-1))
		for i := 0; i < k; i++ {
			for j := i + 1; j < k; j++ {
				g.AddEdge(vars[i], vars[j], w)
			}
		}
	}

	return g
}

// BuildCVIG builds the clause-variable incidence graph. Nodes [0, NumVars)
// are variables and NumVars+j is clause j; a clause of k distinct
// variables links to each of them with weight 1/k.
func BuildCVIG(f *Formula, maxClauseSize int) *graph.Graph {
	g := graph.New(f.NumVars+len(f.Clauses), len(f.Clauses)*3)
	seen := make([]bool, f.NumVars)
	vars := make([]int, 0, 16)

	for j, clause := range f.Clauses {
		vars = variables(clause, seen, vars)
		k := len(vars)
		if k == 0 || skipClause(k, maxClauseSize) {
			continue
		}

		w := 1.0 / float64(k)
		for _, v := range vars {
			g.AddEdge(v, f.NumVars+j, w)
		}
	}

	return g
}
