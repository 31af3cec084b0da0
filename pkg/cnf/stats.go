package cnf

import (
	"slices"
)

// Bin counts how many items share one value
type Bin struct {
	Value int `json:"value"`
	Count int `json:"count"`
}

// Histogram is a list of bins in ascending value order without empty bins
type Histogram []Bin

func histogram(values []int) Histogram {
	counts := make(map[int]int)
	for _, v := range values {
		if v > 0 {
			counts[v]++
		}
	}

	h := make(Histogram, 0, len(counts))
	for v, c := range counts {
		h = append(h, Bin{Value: v, Count: c})
	}
	slices.SortFunc(h, func(a, b Bin) int { return a.Value - b.Value })
	return h
}

// Total returns the number of items in the histogram
func (h Histogram) Total() int {
	total := 0
	for _, b := range h {
		total += b.Count
	}
	return total
}

// VarOccurrences maps each occurrence count to the number of variables
// appearing that many times. Variables that never occur are left out.
func VarOccurrences(f *Formula) Histogram {
	occurrences := make([]int, f.NumVars)
	for _, clause := range f.Clauses {
		for _, lit := range clause {
			if lit < 0 {
				lit = -lit
			}
			occurrences[lit-1]++
		}
	}
	return histogram(occurrences)
}

// ClauseSizes maps each clause length to the number of clauses of that
// length. Empty clauses are left out.
func ClauseSizes(f *Formula) Histogram {
	sizes := make([]int, len(f.Clauses))
	for i, clause := range f.Clauses {
		sizes[i] = len(clause)
	}
	return histogram(sizes)
}
