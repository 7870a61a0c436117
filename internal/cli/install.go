package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/libvend/libvend/pkg/buildfile"
	"github.com/libvend/libvend/pkg/git"
	"github.com/libvend/libvend/pkg/manifest"
	"github.com/libvend/libvend/pkg/resolve"
)

// installOpts holds the command-line flags for the install command.
type installOpts struct {
	manifestPath string // manifest file (default: ./project.json)
	yes          bool   // skip the destructive-recreate confirmation
}

// installCommand creates the install command, the tool's main action:
// resolve, fetch, and materialize the full transitive library set, then
// generate the build include file.
func (c *CLI) installCommand() *cobra.Command {
	var opts installOpts

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Fetch declared libraries and generate the build include file",
		Long: `Install resolves every library declared in project.json, clones it and all
of its transitive dependencies into the libraries destination, and writes a
CMakeLists.txt listing them.

The destination directory is recreated from scratch on every install: the
manifest is the source of truth, and libraries no longer declared anywhere
are removed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInstall(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.manifestPath, "manifest", "f", "", "manifest file (default ./project.json)")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "do not ask before recreating the destination directory")

	return cmd
}

func (c *CLI) runInstall(cmd *cobra.Command, opts installOpts) error {
	ctx := cmd.Context()

	reader := manifest.NewReader(manifest.SystemShell(), c.Logger)

	path := opts.manifestPath
	if path == "" {
		path = manifest.DefaultFileName
	}
	desc, err := reader.Load(ctx, path)
	if err != nil {
		return err
	}

	if len(desc.Libraries) == 0 {
		printInfo("%s declares no libraries, nothing to install", desc.DisplayName)
		return nil
	}

	if !opts.yes && destinationHasContents(desc.Destination) {
		ok, err := confirm(fmt.Sprintf("Recreate %s? Its current contents will be removed.", desc.Destination))
		if err != nil {
			return err
		}
		if !ok {
			printInfo("Install aborted")
			return nil
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	gitc := git.NewCLI(cfg.GitBinary)
	mirror, err := c.newMirror(cfg, gitc)
	if err != nil {
		return err
	}

	resolver := resolve.NewResolver(mirror, c.Logger)
	walker := resolve.NewWalker(resolver, gitc, reader, c.Logger)

	prog := newProgress(c.Logger)
	res, err := walker.Run(ctx, desc)
	if err != nil {
		return err
	}

	if err := buildfile.Write(desc.Destination, res.Names()); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Installed %d libraries for %s", len(res.Libraries), desc.DisplayName))

	printSuccess("%d libraries materialized", len(res.Libraries))
	for _, lib := range res.Libraries {
		printDetail("%s %s %s", lib.Name, iconArrow, lib.Source)
	}
	printFile(filepath.Join(desc.Destination, buildfile.FileName))
	return nil
}

// destinationHasContents reports whether dest exists and contains anything,
// i.e. whether recreating it would actually destroy something.
func destinationHasContents(dest string) bool {
	entries, err := os.ReadDir(dest)
	return err == nil && len(entries) > 0
}
