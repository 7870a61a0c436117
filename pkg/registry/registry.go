// Package registry maintains a local mirror of the central library index.
//
// The index is an ordinary git repository whose index.json maps bare
// library names to git source locations. libvend keeps a clone of it under
// the user's config directory, refreshed at most once per run, and
// consults it only when a dependency token is a bare name.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	liberrors "github.com/libvend/libvend/pkg/errors"
	"github.com/libvend/libvend/pkg/git"
)

// IndexFileName is the name of the mapping file inside the registry repo.
const IndexFileName = "index.json"

// indexFile is the JSON shape of the registry index.
type indexFile struct {
	Libraries map[string]string `json:"libraries"`
}

// Resolution is the outcome of a bare-name lookup.
type Resolution struct {
	// Location is the git source location for the name.
	Location string
	// Indexed is false when the name was missing from the index and
	// Location is the conventional default guess.
	Indexed bool
}

// Mirror is the local checkout of the central registry repository.
type Mirror struct {
	dir          string
	url          string
	defaultOwner string
	git          git.Client
	logger       *log.Logger

	ensured bool
}

// NewMirror creates a Mirror rooted at dir, cloning from url when needed.
// Bare names absent from the index resolve to the defaultOwner namespace.
func NewMirror(dir, url, defaultOwner string, gitc git.Client, logger *log.Logger) *Mirror {
	if logger == nil {
		logger = log.Default()
	}
	return &Mirror{dir: dir, url: url, defaultOwner: defaultOwner, git: gitc, logger: logger}
}

// Dir returns the local mirror directory.
func (m *Mirror) Dir() string { return m.dir }

// Ensure brings the mirror up to date, at most once per Mirror.
//
// A missing mirror is cloned fresh; failure there is fatal
// (REGISTRY_UNAVAILABLE) since no lookup can be answered. An existing
// mirror is pulled in place; failure there only logs a warning and the
// stale copy is used.
func (m *Mirror) Ensure(ctx context.Context) error {
	if m.ensured {
		return nil
	}

	if !m.exists() {
		m.logger.Infof("Cloning registry index from %s", m.url)
		if err := m.cloneFresh(ctx); err != nil {
			return liberrors.Wrap(liberrors.ErrCodeRegistryUnavailable, err, "clone registry %s", m.url)
		}
	} else {
		m.logger.Debugf("Updating registry index at %s", m.dir)
		if err := m.git.Pull(ctx, m.dir); err != nil {
			m.logger.Warnf("Registry update failed, using stale index: %v", err)
		}
	}

	m.ensured = true
	return nil
}

// Refresh forces an update regardless of whether one already ran.
// Unlike Ensure, a pull failure is returned so the caller can surface it.
func (m *Mirror) Refresh(ctx context.Context) error {
	m.ensured = false
	if !m.exists() {
		return m.Ensure(ctx)
	}
	if err := m.git.Pull(ctx, m.dir); err != nil {
		return liberrors.Wrap(liberrors.ErrCodeRegistryUnavailable, err, "update registry %s", m.dir)
	}
	m.ensured = true
	return nil
}

// Lookup resolves a bare library name to its git source location.
//
// Names present in the index return exactly the indexed value. Missing
// names fall back to the conventional default location under the
// configured owner namespace; that is a best-effort guess, surfaced as a
// warning rather than an error, and reported via Resolution.Indexed.
func (m *Mirror) Lookup(ctx context.Context, name string) (Resolution, error) {
	if err := m.Ensure(ctx); err != nil {
		return Resolution{}, err
	}

	idx, err := m.readIndex()
	if err != nil {
		return Resolution{}, err
	}

	if loc, ok := idx.Libraries[name]; ok {
		return Resolution{Location: loc, Indexed: true}, nil
	}

	guess := fmt.Sprintf("https://github.com/%s/%s.git", m.defaultOwner, name)
	m.logger.Warnf("Library %q not in registry index, guessing %s", name, guess)
	return Resolution{Location: guess, Indexed: false}, nil
}

func (m *Mirror) readIndex() (*indexFile, error) {
	path := filepath.Join(m.dir, IndexFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, liberrors.Wrap(liberrors.ErrCodeRegistryIndex, err, "read registry index %s", path)
	}
	var idx indexFile
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, liberrors.Wrap(liberrors.ErrCodeRegistryIndex, err, "parse registry index %s", path)
	}
	return &idx, nil
}

func (m *Mirror) exists() bool {
	info, err := os.Stat(m.dir)
	return err == nil && info.IsDir()
}

// cloneFresh clones into a uuid-named staging directory and renames it
// into place, so an interrupted clone never leaves a half-populated
// mirror that a later run would mistake for a valid checkout.
func (m *Mirror) cloneFresh(ctx context.Context) error {
	parent := filepath.Dir(m.dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}

	staging := m.dir + ".stage-" + uuid.NewString()[:8]
	if err := m.git.Clone(ctx, m.url, staging); err != nil {
		_ = os.RemoveAll(staging)
		return err
	}
	if err := os.Rename(staging, m.dir); err != nil {
		_ = os.RemoveAll(staging)
		return err
	}
	return nil
}
