package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libvend/libvend/pkg/git"
	"github.com/libvend/libvend/pkg/registry"
)

// registryCommand creates the registry command with subcommands.
func (c *CLI) registryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the local registry index mirror",
		Long: `Inspect and update the local mirror of the central library index.

The mirror lives under ~/.config/libvend/registry and is consulted whenever
a manifest declares a library by bare name.`,
	}

	cmd.AddCommand(c.registryUpdateCommand())
	cmd.AddCommand(c.registryLookupCommand())
	cmd.AddCommand(c.registryPathCommand())

	return cmd
}

// registryUpdateCommand creates the "registry update" subcommand.
func (c *CLI) registryUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Refresh the registry index mirror",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mirror, err := c.mirrorFromConfig()
			if err != nil {
				return err
			}

			spinner := newSpinnerWithContext(cmd.Context(), "Updating registry index...")
			spinner.Start()
			if err := mirror.Refresh(cmd.Context()); err != nil {
				spinner.StopWithError("Registry update failed")
				return err
			}
			spinner.StopWithSuccess("Registry index up to date")
			printDetail("Mirror: %s", mirror.Dir())
			return nil
		},
	}
}

// registryLookupCommand creates the "registry lookup" subcommand.
func (c *CLI) registryLookupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <name>",
		Short: "Resolve a bare library name to its source location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mirror, err := c.mirrorFromConfig()
			if err != nil {
				return err
			}

			res, err := mirror.Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printKeyValue("Name", args[0])
			printKeyValue("Location", res.Location)
			if res.Indexed {
				printKeyValue("Source", "registry index")
			} else {
				printWarning("Not in the index - location is a conventional guess")
			}
			return nil
		},
	}
}

// registryPathCommand creates the "registry path" subcommand.
func (c *CLI) registryPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the registry mirror directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := mirrorDir()
			if err != nil {
				return fmt.Errorf("get mirror dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}

// mirrorFromConfig builds a registry mirror with configured git settings.
func (c *CLI) mirrorFromConfig() (*registry.Mirror, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return c.newMirror(cfg, git.NewCLI(cfg.GitBinary))
}
