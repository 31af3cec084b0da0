package louvain

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ExportError reports that an export file could not be written. Callers
// treat it as fatal; there is no retry.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("unable to write %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// WriteCommunities writes the community count, then one line per community
// holding its rank, its 1-indexed members and a terminating 0.
func WriteCommunities(w io.Writer, r Ranking) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(r))

	for i, c := range r {
		bw.WriteString(strconv.Itoa(i + 1))
		for _, m := range c.Members {
			bw.WriteByte(' ')
			bw.WriteString(strconv.Itoa(m))
		}
		bw.WriteString(" 0\n")
	}

	return bw.Flush()
}

// WriteRawAssignment writes the community id of every node, one per line,
// in node order
func WriteRawAssignment(w io.Writer, assignment []int) error {
	bw := bufio.NewWriter(w)
	for _, c := range assignment {
		bw.WriteString(strconv.Itoa(c))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteCommunitiesFile writes the ranking to path
func WriteCommunitiesFile(path string, r Ranking) error {
	return writeFile(path, func(w io.Writer) error { return WriteCommunities(w, r) })
}

// WriteRawAssignmentFile writes the raw assignment to path
func WriteRawAssignmentFile(path string, assignment []int) error {
	return writeFile(path, func(w io.Writer) error { return WriteRawAssignment(w, assignment) })
}

func writeFile(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return &ExportError{Path: path, Err: err}
	}

	if err := write(file); err != nil {
		file.Close()
		return &ExportError{Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &ExportError{Path: path, Err: err}
	}
	return nil
}

var errBadCommunityFile = errors.New("malformed community file")

// ReadCommunities parses the format produced by WriteCommunities and
// returns the member lists in file order
func ReadCommunities(r io.Reader) ([][]int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	lineNum := 0
	count := -1
	communities := make([][]int, 0)

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if count < 0 {
			n, err := strconv.Atoi(fields[0])
			if err != nil || n < 0 || len(fields) != 1 {
				return nil, fmt.Errorf("%w: line %d: invalid community count %q", errBadCommunityFile, lineNum, line)
			}
			count = n
			continue
		}

		if len(fields) < 2 || fields[len(fields)-1] != "0" {
			return nil, fmt.Errorf("%w: line %d: community not terminated by 0", errBadCommunityFile, lineNum)
		}

		members := make([]int, 0, len(fields)-2)
		for _, f := range fields[1 : len(fields)-1] {
			m, err := strconv.Atoi(f)
			if err != nil || m <= 0 {
				return nil, fmt.Errorf("%w: line %d: invalid member %q", errBadCommunityFile, lineNum, f)
			}
			members = append(members, m)
		}
		communities = append(communities, members)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read community file: %w", err)
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: missing community count", errBadCommunityFile)
	}
	if count != len(communities) {
		return nil, fmt.Errorf("%w: header announces %d communities, found %d", errBadCommunityFile, count, len(communities))
	}

	return communities, nil
}
