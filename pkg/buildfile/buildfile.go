// Package buildfile generates the build-system include file that makes
// fetched libraries visible to the project's build.
//
// The file is a CMakeLists.txt in the libraries destination listing one
// add_subdirectory per materialized library. It is machine-owned: a
// warning header marks it as generated and every run overwrites it
// unconditionally.
package buildfile

import (
	"fmt"
	"os"
	"path/filepath"

	liberrors "github.com/libvend/libvend/pkg/errors"
)

// FileName is the generated include file's name inside the destination.
const FileName = "CMakeLists.txt"

// Header is the first line of the generated file.
const Header = "# Generated by libvend. Do not edit - this file is overwritten on every install."

// Write writes the include file for the given canonical library names
// into dest, overwriting any previous file. The names are emitted in the
// order given; callers pass discovery order for reproducible output.
func Write(dest string, names []string) error {
	path := filepath.Join(dest, FileName)

	f, err := os.Create(path)
	if err != nil {
		return liberrors.Wrap(liberrors.ErrCodeInternal, err, "write %s", path)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, Header); err != nil {
		return liberrors.Wrap(liberrors.ErrCodeInternal, err, "write %s", path)
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(f, "add_subdirectory(%s)\n", name); err != nil {
			return liberrors.Wrap(liberrors.ErrCodeInternal, err, "write %s", path)
		}
	}

	if err := f.Close(); err != nil {
		return liberrors.Wrap(liberrors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}
