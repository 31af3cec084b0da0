// Command satfeat computes structural features of SAT instances.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gilchrisn/sat-graph-features/pkg/louvain"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		var exportErr *louvain.ExportError
		if errors.As(err, &exportErr) {
			fmt.Fprintf(os.Stderr, "export failed: %v\n", exportErr)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
