// Package git wraps the system git binary for clone and pull operations.
//
// The resolution core treats version control as an opaque capability:
// clone a source location into a directory, or update an existing checkout
// in place. Both operations block until the underlying process exits and
// are attempted exactly once per logical need - retries, timeouts, and
// authentication are the environment's problem, not this package's.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Client performs version-control fetch operations.
type Client interface {
	// Clone materializes the repository at url into dest.
	// dest must not already contain a checkout.
	Clone(ctx context.Context, url, dest string) error
	// Pull updates the existing checkout at dir in place.
	Pull(ctx context.Context, dir string) error
}

// CLI is a Client backed by the system git binary.
type CLI struct {
	// Binary is the git executable to invoke. Defaults to "git".
	Binary string
	// Shallow clones with --depth 1 when true.
	Shallow bool
}

// NewCLI creates a git client using the given binary, or "git" if empty.
// Clones are shallow: the walker only needs the working tree, not history.
func NewCLI(binary string) *CLI {
	if binary == "" {
		binary = "git"
	}
	return &CLI{Binary: binary, Shallow: true}
}

// Clone runs "git clone [--depth 1] url dest".
func (c *CLI) Clone(ctx context.Context, url, dest string) error {
	args := []string{"clone"}
	if c.Shallow {
		args = append(args, "--depth", "1")
	}
	args = append(args, "--", url, dest)
	return c.run(ctx, "", args...)
}

// Pull runs "git pull" inside dir.
func (c *CLI) Pull(ctx context.Context, dir string) error {
	return c.run(ctx, dir, "pull", "--ff-only")
}

func (c *CLI) run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return fmt.Errorf("%s %s: %s", c.Binary, args[0], msg)
		}
		return fmt.Errorf("%s %s: %w", c.Binary, args[0], err)
	}
	return nil
}

// lastLine returns the final non-empty line of git's stderr, which is
// where git puts the human-readable reason for a failure.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// Ensure CLI implements Client.
var _ Client = (*CLI)(nil)
