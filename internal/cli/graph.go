package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/libvend/libvend/pkg/depgraph"
	liberrors "github.com/libvend/libvend/pkg/errors"
	"github.com/libvend/libvend/pkg/manifest"
	"github.com/libvend/libvend/pkg/resolve"
)

// Graph output formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
	formatPNG = "png"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	manifestPath string // manifest file (default: ./project.json)
	output       string // output file path (stdout if empty, DOT only)
	format       string // dot, svg, or png
}

// graphCommand creates the graph command. It renders the dependency graph
// of an already installed tree by re-reading the nested manifests on disk;
// nothing is fetched or modified.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{format: formatDOT}

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the dependency graph of the installed libraries",
		Long: `Graph walks the materialized libraries destination and renders which
manifest pulled in which library. Run it after "libvend install"; libraries
that are declared but not yet fetched show up as leaves.

Examples:
  libvend graph                        # DOT to stdout
  libvend graph -o deps.svg --format svg
  libvend graph -o deps.png --format png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.manifestPath, "manifest", "f", "", "manifest file (default ./project.json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&opts.format, "format", opts.format, "output format: dot, svg, or png")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, opts graphOpts) error {
	ctx := cmd.Context()

	// No shell: a passive inspection must not re-run precondition steps.
	reader := manifest.NewReader(nil, c.Logger)

	path := opts.manifestPath
	if path == "" {
		path = manifest.DefaultFileName
	}
	desc, err := reader.Load(ctx, path)
	if err != nil {
		return err
	}

	g := scanInstalled(ctx, reader, desc)

	dot := depgraph.ToDOT(g, depgraph.Options{Root: desc.DisplayName})

	var data []byte
	switch opts.format {
	case formatDOT:
		data = []byte(dot)
	case formatSVG:
		if data, err = depgraph.RenderSVG(dot); err != nil {
			return err
		}
	case formatPNG:
		if data, err = depgraph.RenderPNG(dot); err != nil {
			return err
		}
	default:
		return liberrors.New(liberrors.ErrCodeInvalidInput, "unknown format %q (want dot, svg, or png)", opts.format)
	}

	if opts.output == "" {
		fmt.Print(string(data))
		return nil
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return liberrors.Wrap(liberrors.ErrCodeInternal, err, "write %s", opts.output)
	}

	printSuccess("Graph with %d libraries rendered", g.NodeCount()-1)
	printFile(opts.output)
	return nil
}

// scanInstalled rebuilds the dependency graph from the materialized tree.
// Canonical names are derived from token text alone, so no registry access
// is needed; libraries missing from disk (or without a manifest) are leaves.
func scanInstalled(ctx context.Context, reader *manifest.Reader, root *manifest.Descriptor) *depgraph.Graph {
	g := depgraph.New()
	_ = g.AddNode(root.DisplayName)

	type item struct {
		parent string
		tokens []string
	}
	queue := []item{{parent: root.DisplayName, tokens: root.Libraries}}
	visited := make(map[string]bool)

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]

		for _, token := range it.tokens {
			name := resolve.TokenName(token)
			if name == "" {
				continue
			}
			_ = g.AddEdge(it.parent, name)

			if visited[name] {
				continue
			}
			visited[name] = true

			nested, err := reader.Load(ctx, filepath.Join(root.Destination, name, manifest.DefaultFileName))
			if err != nil {
				continue // not installed or a leaf
			}
			queue = append(queue, item{parent: name, tokens: nested.Libraries})
		}
	}

	return g
}
