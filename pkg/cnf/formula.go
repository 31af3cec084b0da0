package cnf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrMalformed is wrapped by every parse error caused by the input text
var ErrMalformed = errors.New("malformed DIMACS input")

// Formula is a propositional formula in conjunctive normal form. Variables
// are numbered 1..NumVars; a negative literal is a negated variable.
type Formula struct {
	NumVars    int      `json:"num_vars"`
	NumClauses int      `json:"num_clauses"`
	Clauses    [][]int  `json:"clauses"`
	Comments   []string `json:"comments,omitempty"`
}

// Header is the problem line of a DIMACS file together with the comments
// preceding it
type Header struct {
	NumVars    int      `json:"num_vars" yaml:"num_vars"`
	NumClauses int      `json:"num_clauses" yaml:"num_clauses"`
	Comments   []string `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// Description joins the comment lines
func (f *Formula) Description() string {
	return strings.Join(f.Comments, "\n")
}

// Parse reads a DIMACS CNF formula. Clauses are zero-terminated literal
// lists and may span lines. A line starting with '%' ends the formula.
func Parse(r io.Reader) (*Formula, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	f := &Formula{}
	headerSeen := false
	clause := make([]int, 0, 8)
	lineNum := 0

scan:
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line[0] == 'c':
			f.Comments = append(f.Comments, line[1:])
			continue
		case line[0] == '%':
			break scan
		case line[0] == 'p':
			if headerSeen {
				return nil, fmt.Errorf("%w: line %d: duplicate problem line", ErrMalformed, lineNum)
			}
			vars, clauses, err := parseProblemLine(line)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, lineNum, err)
			}
			f.NumVars, f.NumClauses = vars, clauses
			f.Clauses = make([][]int, 0, clauses)
			headerSeen = true
			continue
		}

		if !headerSeen {
			return nil, fmt.Errorf("%w: line %d: clause before problem line", ErrMalformed, lineNum)
		}

		for _, token := range strings.Fields(line) {
			lit, err := strconv.Atoi(token)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: invalid literal %q", ErrMalformed, lineNum, token)
			}
			if lit == 0 {
				f.Clauses = append(f.Clauses, clause)
				clause = make([]int, 0, len(clause))
				continue
			}
			if lit > f.NumVars || lit < -f.NumVars {
				return nil, fmt.Errorf("%w: line %d: literal %d outside 1..%d", ErrMalformed, lineNum, lit, f.NumVars)
			}
			clause = append(clause, lit)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read formula: %w", err)
	}
	if !headerSeen {
		return nil, fmt.Errorf("%w: no problem line", ErrMalformed)
	}
	if len(clause) > 0 {
		return nil, fmt.Errorf("%w: last clause is not terminated by 0", ErrMalformed)
	}
	if len(f.Clauses) != f.NumClauses {
		return nil, fmt.Errorf("%w: header announces %d clauses, found %d", ErrMalformed, f.NumClauses, len(f.Clauses))
	}

	return f, nil
}

func parseProblemLine(line string) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 || fields[0] != "p" || fields[1] != "cnf" {
		return 0, 0, fmt.Errorf("expected \"p cnf <vars> <clauses>\", got %q", line)
	}

	vars, err := strconv.Atoi(fields[2])
	if err != nil || vars < 0 {
		return 0, 0, fmt.Errorf("invalid variable count %q", fields[2])
	}
	clauses, err := strconv.Atoi(fields[3])
	if err != nil || clauses < 0 {
		return 0, 0, fmt.Errorf("invalid clause count %q", fields[3])
	}

	return vars, clauses, nil
}

// ReadHeader reads up to and including the problem line
func ReadHeader(r io.Reader) (*Header, error) {
	scanner := bufio.NewScanner(r)
	h := &Header{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == 'c' {
			h.Comments = append(h.Comments, line[1:])
			continue
		}
		if line[0] != 'p' {
			return nil, fmt.Errorf("%w: data before problem line", ErrMalformed)
		}

		vars, clauses, err := parseProblemLine(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		h.NumVars, h.NumClauses = vars, clauses
		return h, nil
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	return nil, fmt.Errorf("%w: no problem line", ErrMalformed)
}

// CheckExtension accepts .cnf and .dimacs file names
func CheckExtension(path string) error {
	switch filepath.Ext(path) {
	case ".cnf", ".dimacs":
		return nil
	default:
		return fmt.Errorf("%s: file must end in .cnf or .dimacs", path)
	}
}

// ParseFile opens and parses a .cnf or .dimacs file
func ParseFile(path string) (*Formula, error) {
	if err := CheckExtension(path); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open formula: %w", err)
	}
	defer file.Close()

	f, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// ReadHeaderFile reads the problem line of a .cnf or .dimacs file
func ReadHeaderFile(path string) (*Header, error) {
	if err := CheckExtension(path); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open formula: %w", err)
	}
	defer file.Close()

	return ReadHeader(file)
}
