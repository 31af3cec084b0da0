package louvain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	tests := []struct {
		name       string
		assignment []int
		want       Ranking
	}{
		{
			name: "Empty",
			want: Ranking{},
		},
		{
			name:       "DropsEmptyIds",
			assignment: []int{3, 0, 3, 3},
			want: Ranking{
				{ID: 3, Members: []int{1, 3, 4}},
				{ID: 0, Members: []int{2}},
			},
		},
		{
			name:       "TiesKeepIdOrder",
			assignment: []int{2, 1, 0, 1, 2, 0},
			want: Ranking{
				{ID: 0, Members: []int{3, 6}},
				{ID: 1, Members: []int{2, 4}},
				{ID: 2, Members: []int{1, 5}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rank(tt.assignment))
		})
	}
}

func TestRankingLargest(t *testing.T) {
	_, ok := Ranking{}.Largest()
	assert.False(t, ok)

	largest, ok := Rank([]int{0, 1, 1}).Largest()
	require.True(t, ok)
	assert.Equal(t, 1, largest.ID)
	assert.Equal(t, 2, largest.Size())
}

func TestWriteCommunitiesFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCommunities(&buf, Rank([]int{0, 0, 0, 1})))
	assert.Equal(t, "2\n1 1 2 3 0\n2 4 0\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteRawAssignment(&buf, []int{0, 0, 0, 1}))
	assert.Equal(t, "0\n0\n0\n1\n", buf.String())
}

func TestCommunitiesRoundTrip(t *testing.T) {
	g := ringOfCliques(6, 4)
	result, err := Run(context.Background(), g, newTestConfig(17))
	require.NoError(t, err)

	ranking := Rank(result.Assignment)
	path := filepath.Join(t.TempDir(), "communities.txt")
	require.NoError(t, WriteCommunitiesFile(path, ranking))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	parsed, err := ReadCommunities(file)
	require.NoError(t, err)
	require.Len(t, parsed, len(ranking))

	want := make([][]int, len(ranking))
	for i, c := range ranking {
		want[i] = c.Members
	}
	assert.ElementsMatch(t, setKeys(want), setKeys(parsed))
}

func setKeys(groups [][]int) []string {
	keys := make([]string, len(groups))
	for i, g := range groups {
		sorted := slices.Clone(g)
		slices.Sort(sorted)
		keys[i] = fmt.Sprint(sorted)
	}
	return keys
}

func TestReadCommunitiesRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"MissingHeader", ""},
		{"BadHeader", "two\n"},
		{"Unterminated", "1\n1 2 3\n"},
		{"CountMismatch", "2\n1 1 2 0\n"},
		{"BadMember", "1\n1 x 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCommunities(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestExportOpenFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.txt")

	err := WriteCommunitiesFile(path, Rank([]int{0}))
	var exportErr *ExportError
	require.True(t, errors.As(err, &exportErr))
	assert.Equal(t, path, exportErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = WriteRawAssignmentFile(path, []int{0})
	assert.True(t, errors.As(err, &exportErr))
}
