package louvain

import (
	"slices"
)

// Community is one entry of a ranking: the raw community id and its
// members as 1-indexed original node ids in ascending order.
type Community struct {
	ID      int   `json:"id"`
	Members []int `json:"members"`
}

// Size returns the number of members
func (c Community) Size() int { return len(c.Members) }

// Ranking lists non-empty communities by descending size. Communities of
// equal size keep ascending id order.
type Ranking []Community

// Rank groups the nodes of an assignment by community and orders the
// groups by size
func Rank(assignment []int) Ranking {
	maxID := -1
	for _, c := range assignment {
		maxID = max(maxID, c)
	}

	groups := make([][]int, maxID+1)
	for node, c := range assignment {
		groups[c] = append(groups[c], node+1)
	}

	ranking := make(Ranking, 0, len(groups))
	for id, members := range groups {
		if len(members) == 0 {
			continue
		}
		ranking = append(ranking, Community{ID: id, Members: members})
	}

	slices.SortStableFunc(ranking, func(a, b Community) int {
		return b.Size() - a.Size()
	})

	return ranking
}

// Largest returns the biggest community, or false for an empty ranking
func (r Ranking) Largest() (Community, bool) {
	if len(r) == 0 {
		return Community{}, false
	}
	return r[0], true
}

// Sizes returns the community sizes in ranking order
func (r Ranking) Sizes() []int {
	sizes := make([]int, len(r))
	for i, c := range r {
		sizes[i] = c.Size()
	}
	return sizes
}
