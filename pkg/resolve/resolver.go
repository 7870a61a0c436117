// Package resolve implements dependency token resolution and the
// transitive materialization walk.
//
// A dependency token as written in a manifest takes one of three forms:
//
//	https://host/owner/repo.git   full remote location, used verbatim
//	owner/repo                    GitHub shorthand
//	repo                          bare name, looked up in the registry
//
// Resolution turns a token into a canonical name (the dedup key), a
// fetchable source location, and a local path under the libraries
// destination. Two tokens resolving to the same canonical name are the
// same library no matter how they were spelled.
package resolve

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	liberrors "github.com/libvend/libvend/pkg/errors"
	"github.com/libvend/libvend/pkg/registry"
)

// hostTemplate builds the source location for owner/repo shorthand tokens.
const hostTemplate = "https://github.com/%s.git"

// Index answers bare-name lookups. *registry.Mirror implements it.
type Index interface {
	Lookup(ctx context.Context, name string) (registry.Resolution, error)
}

// Library is a dependency token resolved to a concrete fetch target.
type Library struct {
	// Name is the canonical name, the dedup key and the directory name
	// under the libraries destination.
	Name string
	// Source is the git location the library is cloned from.
	Source string
	// Path is the local clone destination.
	Path string
}

// Resolver classifies dependency tokens. It performs no disk I/O itself;
// only bare names reach out to the registry index.
type Resolver struct {
	index  Index
	logger *log.Logger
}

// NewResolver creates a Resolver consulting index for bare names.
func NewResolver(index Index, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{index: index, logger: logger}
}

// Resolve turns one dependency token into a Library with Path placed
// under destination.
//
// Classification order matters: the remote-protocol check must run before
// the owner/repo check, because a full URL always contains slashes and
// would otherwise be misread as shorthand.
func (r *Resolver) Resolve(ctx context.Context, token, destination string) (Library, error) {
	if err := liberrors.ValidateToken(token); err != nil {
		return Library{}, err
	}

	var lib Library
	switch {
	case IsRemote(token):
		lib = Library{Name: CanonicalName(token), Source: token}

	case strings.Count(token, "/") == 1:
		lib = Library{
			Name:   token[strings.Index(token, "/")+1:],
			Source: fmt.Sprintf(hostTemplate, token),
		}

	default:
		res, err := r.index.Lookup(ctx, token)
		if err != nil {
			return Library{}, err
		}
		lib = Library{Name: token, Source: res.Location}
	}

	if err := liberrors.ValidateCanonicalName(lib.Name); err != nil {
		return Library{}, liberrors.Wrap(liberrors.ErrCodeInvalidToken, err, "token %q", token)
	}

	lib.Path = filepath.Join(destination, lib.Name)
	r.logger.Debugf("Resolved %q to %s (%s)", token, lib.Name, lib.Source)
	return lib, nil
}

// TokenName returns the canonical name a token will resolve to, without
// consulting the registry: for all three token forms the name is derivable
// from the token's text alone. Useful for passive inspection of an already
// materialized tree.
func TokenName(token string) string {
	switch {
	case IsRemote(token):
		return CanonicalName(token)
	case strings.Count(token, "/") == 1:
		return token[strings.Index(token, "/")+1:]
	default:
		return token
	}
}

// IsRemote reports whether the token is already a full remote location:
// either a URL with a transport scheme or an scp-like git@ address.
func IsRemote(token string) bool {
	return strings.Contains(token, "://") || strings.HasPrefix(token, "git@")
}

// CanonicalName derives the dedup key from a remote location: the last
// path segment with a trailing .git stripped.
//
//	https://github.com/acme/foo.git  -> foo
//	git@github.com:acme/bar.git      -> bar
func CanonicalName(location string) string {
	name := strings.TrimSuffix(location, "/")
	name = strings.TrimSuffix(name, ".git")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
