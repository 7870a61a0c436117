// Package cli implements the libvend command-line interface.
package cli

import (
	"io"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/libvend/libvend/pkg/buildinfo"
	"github.com/libvend/libvend/pkg/config"
	"github.com/libvend/libvend/pkg/git"
	"github.com/libvend/libvend/pkg/registry"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "libvend"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "libvend fetches a project's source library dependencies",
		Long: `libvend reads a project.json manifest, fetches every declared library and
its transitive dependencies via git, and generates the CMake include file
that wires them into the build.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.installCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.registryCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Construction
// =============================================================================

// loadConfig reads the user configuration, falling back to defaults when
// no file exists.
func loadConfig() (config.Config, error) {
	path, err := config.Path()
	if err != nil {
		return config.Default(), nil
	}
	return config.Load(path)
}

// newMirror builds the registry mirror from configuration.
func (c *CLI) newMirror(cfg config.Config, gitc git.Client) (*registry.Mirror, error) {
	dir, err := mirrorDir()
	if err != nil {
		return nil, err
	}
	return registry.NewMirror(dir, cfg.RegistryURL, cfg.DefaultOwner, gitc, c.Logger), nil
}

// =============================================================================
// Paths
// =============================================================================

// mirrorDir returns the registry mirror directory (~/.config/libvend/registry).
func mirrorDir() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "registry"), nil
}
