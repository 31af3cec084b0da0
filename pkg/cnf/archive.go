package cnf

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadArchive parses every .cnf or .dimacs member of a tar stream and hands
// it to fn in archive order. Returning an error from fn stops the walk.
func ReadArchive(r io.Reader, fn func(name string, f *Formula) error) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}

		if hdr.Typeflag != tar.TypeReg || CheckExtension(hdr.Name) != nil {
			continue
		}

		f, err := Parse(tr)
		if err != nil {
			return fmt.Errorf("%s: %w", hdr.Name, err)
		}
		if err := fn(hdr.Name, f); err != nil {
			return err
		}
	}
}

// ReadArchiveFile opens path and walks it with ReadArchive
func ReadArchiveFile(path string, fn func(name string, f *Formula) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	return ReadArchive(file, fn)
}
