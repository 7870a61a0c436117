package resolve

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/libvend/libvend/pkg/depgraph"
	liberrors "github.com/libvend/libvend/pkg/errors"
	"github.com/libvend/libvend/pkg/git"
	"github.com/libvend/libvend/pkg/manifest"
)

// Result holds the outcome of a successful walk.
type Result struct {
	// Libraries are all materialized libraries in discovery order.
	// Discovery order is deterministic (FIFO over declaration order), so
	// repeated runs over an unchanged graph produce identical results.
	Libraries []Library
	// Graph records which manifest pulled in which library. The root
	// project appears under its display name.
	Graph *depgraph.Graph
}

// Names returns the canonical names of all materialized libraries,
// in discovery order.
func (r *Result) Names() []string {
	names := make([]string, len(r.Libraries))
	for i, lib := range r.Libraries {
		names[i] = lib.Name
	}
	return names
}

// walkState is the mutable traversal state, owned by one Run call.
//
// Invariants: processed is a subset of fetched; a name joins fetched the
// moment its clone succeeds and joins processed only after its nested
// manifest has been read or found absent. queue holds exactly the names
// in fetched but not yet in processed, in discovery order.
type walkState struct {
	resolved  map[string]Library
	fetched   map[string]bool
	processed map[string]bool
	queue     []string
	order     []string
}

func newWalkState() *walkState {
	return &walkState{
		resolved:  make(map[string]Library),
		fetched:   make(map[string]bool),
		processed: make(map[string]bool),
	}
}

// Walker materializes the full transitive dependency set of a project.
// It owns the destination directory and its walk state for the duration
// of one Run; everything is synchronous and single-threaded.
type Walker struct {
	resolver *Resolver
	git      git.Client
	reader   *manifest.Reader
	logger   *log.Logger
}

// NewWalker creates a Walker.
func NewWalker(resolver *Resolver, gitc git.Client, reader *manifest.Reader, logger *log.Logger) *Walker {
	if logger == nil {
		logger = log.Default()
	}
	return &Walker{resolver: resolver, git: gitc, reader: reader, logger: logger}
}

// Run resolves and fetches every transitive dependency of root.
//
// A root with no dependency tokens is a complete no-op: the destination
// directory is neither created nor cleared. Otherwise the destination is
// destructively recreated first - the manifest is the source of truth,
// and previously fetched libraries no longer declared anywhere are
// removed rather than left to rot.
//
// The walk reads each fetched library's own nested manifest to discover
// further dependencies, deduplicating by canonical name, so dependency
// cycles terminate naturally: a known name is never fetched or revisited
// twice. Any clone failure aborts the run (LIBRARY_FETCH_FAILED); there
// is no partial-success mode.
func (w *Walker) Run(ctx context.Context, root *manifest.Descriptor) (*Result, error) {
	g := depgraph.New()
	_ = g.AddNode(root.DisplayName)
	res := &Result{Graph: g}

	if len(root.Libraries) == 0 {
		w.logger.Debugf("%s declares no libraries, nothing to do", root.DisplayName)
		return res, nil
	}

	dest := root.Destination
	w.logger.Debugf("Recreating %s", dest)
	if err := os.RemoveAll(dest); err != nil {
		return nil, liberrors.Wrap(liberrors.ErrCodeInternal, err, "clear destination %s", dest)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, liberrors.Wrap(liberrors.ErrCodeInternal, err, "create destination %s", dest)
	}

	state := newWalkState()
	if err := w.fetchAll(ctx, state, g, root.DisplayName, root.Libraries, dest); err != nil {
		return nil, err
	}

	for len(state.queue) > 0 {
		name := state.queue[0]
		state.queue = state.queue[1:]

		if err := w.process(ctx, state, g, name, dest); err != nil {
			return nil, err
		}
		state.processed[name] = true
	}

	for _, name := range state.order {
		res.Libraries = append(res.Libraries, state.resolved[name])
	}
	return res, nil
}

// fetchAll resolves each token and clones any library not yet fetched.
// parent names the manifest that declared the tokens, for graph edges.
func (w *Walker) fetchAll(ctx context.Context, state *walkState, g *depgraph.Graph, parent string, tokens []string, dest string) error {
	for _, token := range tokens {
		lib, err := w.resolver.Resolve(ctx, token, dest)
		if err != nil {
			return err
		}

		_ = g.AddEdge(parent, lib.Name)

		if state.fetched[lib.Name] {
			w.logger.Debugf("Already fetched %s, skipping", lib.Name)
			continue
		}

		w.logger.Infof("Fetching %s from %s", lib.Name, lib.Source)
		if err := w.git.Clone(ctx, lib.Source, lib.Path); err != nil {
			return liberrors.Wrap(liberrors.ErrCodeFetchFailed, err, "fetch %s from %s", lib.Name, lib.Source)
		}

		state.resolved[lib.Name] = lib
		state.fetched[lib.Name] = true
		state.queue = append(state.queue, lib.Name)
		state.order = append(state.order, lib.Name)
	}
	return nil
}

// process reads one fetched library's nested manifest and fetches whatever
// it declares. A library without a manifest - or with one that does not
// parse - is a leaf, not an error: most libraries are not themselves
// libvend clients.
func (w *Walker) process(ctx context.Context, state *walkState, g *depgraph.Graph, name, dest string) error {
	lib := state.resolved[name]

	nested, err := w.reader.Load(ctx, filepath.Join(lib.Path, manifest.DefaultFileName))
	if err != nil {
		switch {
		case liberrors.Is(err, liberrors.ErrCodeManifestNotFound):
			w.logger.Debugf("%s has no manifest, treating as leaf", name)
		case liberrors.Is(err, liberrors.ErrCodeManifestMalformed):
			w.logger.Warnf("Manifest of %s is unreadable, treating as leaf: %v", name, err)
		default:
			return err
		}
		return nil
	}

	if len(nested.Libraries) == 0 {
		return nil
	}

	w.logger.Debugf("%s declares %d libraries", name, len(nested.Libraries))
	return w.fetchAll(ctx, state, g, name, nested.Libraries, dest)
}
