// Package manifest loads project descriptors from project.json files.
//
// A manifest declares a project's direct library dependencies, where to
// materialize them, and optional precondition shell steps to run at load
// time. Both the root project and any fetched library may carry a
// manifest; a library without one is simply a leaf of the dependency
// graph.
package manifest

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"

	liberrors "github.com/libvend/libvend/pkg/errors"
)

const (
	// DefaultFileName is the conventional manifest file name.
	DefaultFileName = "project.json"

	// DefaultDestination is the libraries destination relative to the
	// manifest's directory when libraries_destination is not set.
	DefaultDestination = "lib"
)

// File is the on-disk JSON shape of a manifest. All fields are optional.
type File struct {
	Name                 string   `json:"name"`
	Libraries            []string `json:"libraries"`
	LibrariesDestination string   `json:"libraries_destination"`
	Preconditions        []string `json:"preconditions"`
}

// Descriptor is a loaded manifest with defaults applied and paths resolved
// against the manifest's directory. Immutable after load.
type Descriptor struct {
	// DisplayName is the project name, defaulting to the base name of the
	// directory containing the manifest.
	DisplayName string
	// Dir is the directory containing the manifest file.
	Dir string
	// Destination is where libraries are materialized (Dir-relative
	// libraries_destination resolved to a full path).
	Destination string
	// Libraries are the raw dependency tokens in declaration order.
	Libraries []string
	// Preconditions are the shell steps that ran at load time.
	Preconditions []string
}

// Shell executes one precondition step with dir as working directory.
type Shell interface {
	Run(ctx context.Context, dir, command string) error
}

// ShellFunc adapts a function to the Shell interface.
type ShellFunc func(ctx context.Context, dir, command string) error

// Run calls f.
func (f ShellFunc) Run(ctx context.Context, dir, command string) error {
	return f(ctx, dir, command)
}

// SystemShell runs precondition steps through "sh -c".
func SystemShell() Shell {
	return ShellFunc(func(ctx context.Context, dir, command string) error {
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Dir = dir
		cmd.Stdout = os.Stderr
		cmd.Stderr = os.Stderr
		return cmd.Run()
	})
}

// Reader loads manifests and runs their precondition steps.
type Reader struct {
	shell  Shell
	logger *log.Logger
}

// NewReader creates a Reader. A nil shell disables precondition execution;
// a nil logger falls back to the package default.
func NewReader(shell Shell, logger *log.Logger) *Reader {
	if logger == nil {
		logger = log.Default()
	}
	return &Reader{shell: shell, logger: logger}
}

// Load reads the manifest at path and returns its Descriptor.
//
// Errors carry ErrCodeManifestNotFound when no file exists at path and
// ErrCodeManifestMalformed when the content is not valid manifest JSON,
// so callers can tell "no manifest" apart from "broken manifest". The
// distinction matters: a missing nested manifest means a leaf library,
// while a broken one deserves a warning.
func (r *Reader) Load(ctx context.Context, path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, liberrors.New(liberrors.ErrCodeManifestNotFound, "no manifest at %s", path)
	}
	if err != nil {
		return nil, liberrors.Wrap(liberrors.ErrCodeManifestMalformed, err, "read manifest %s", path)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, liberrors.Wrap(liberrors.ErrCodeManifestMalformed, err, "parse manifest %s", path)
	}

	dir := filepath.Dir(path)
	absDir, err := filepath.Abs(dir)
	if err != nil {
		absDir = dir
	}

	d := &Descriptor{
		DisplayName:   f.Name,
		Dir:           absDir,
		Libraries:     f.Libraries,
		Preconditions: f.Preconditions,
	}
	if d.DisplayName == "" {
		d.DisplayName = filepath.Base(absDir)
	}

	dest := f.LibrariesDestination
	if dest == "" {
		dest = DefaultDestination
	}
	if filepath.IsAbs(dest) {
		d.Destination = dest
	} else {
		d.Destination = filepath.Join(absDir, dest)
	}

	r.runPreconditions(ctx, d)
	return d, nil
}

// LoadDir loads the conventionally named manifest inside dir.
func (r *Reader) LoadDir(ctx context.Context, dir string) (*Descriptor, error) {
	return r.Load(ctx, filepath.Join(dir, DefaultFileName))
}

// runPreconditions executes the manifest's setup steps in declared order.
// Steps are best-effort side effects: a failing step is logged at warning
// level and the remaining steps still run.
func (r *Reader) runPreconditions(ctx context.Context, d *Descriptor) {
	if r.shell == nil || len(d.Preconditions) == 0 {
		return
	}
	for _, step := range d.Preconditions {
		r.logger.Debugf("Running precondition for %s: %s", d.DisplayName, step)
		if err := r.shell.Run(ctx, d.Dir, step); err != nil {
			r.logger.Warnf("Precondition failed for %s: %q: %v", d.DisplayName, step, err)
		}
	}
}
