package registry

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	liberrors "github.com/libvend/libvend/pkg/errors"
)

// fakeGit is a scriptable git.Client for mirror tests.
type fakeGit struct {
	cloneFunc func(ctx context.Context, url, dest string) error
	pullFunc  func(ctx context.Context, dir string) error

	clones int
	pulls  int
}

func (f *fakeGit) Clone(ctx context.Context, url, dest string) error {
	f.clones++
	if f.cloneFunc != nil {
		return f.cloneFunc(ctx, url, dest)
	}
	return os.MkdirAll(dest, 0o755)
}

func (f *fakeGit) Pull(ctx context.Context, dir string) error {
	f.pulls++
	if f.pullFunc != nil {
		return f.pullFunc(ctx, dir)
	}
	return nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

// cloneWithIndex returns a clone func that materializes an index.json.
func cloneWithIndex(content string) func(ctx context.Context, url, dest string) error {
	return func(ctx context.Context, url, dest string) error {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(dest, IndexFileName), []byte(content), 0o644)
	}
}

func TestEnsureClonesWhenMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "registry")
	g := &fakeGit{cloneFunc: cloneWithIndex(`{"libraries": {}}`)}
	m := NewMirror(dir, "https://example.com/index.git", "acme", g, discardLogger())

	if err := m.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}

	if g.clones != 1 {
		t.Errorf("clones = %d, want 1", g.clones)
	}
	if _, err := os.Stat(filepath.Join(dir, IndexFileName)); err != nil {
		t.Errorf("mirror not materialized at %s: %v", dir, err)
	}

	// No staging leftovers next to the mirror.
	entries, err := os.ReadDir(filepath.Dir(dir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("parent has %d entries, want just the mirror", len(entries))
	}
}

func TestEnsureCloneFailureIsFatal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "registry")
	g := &fakeGit{cloneFunc: func(ctx context.Context, url, dest string) error {
		return errors.New("connection refused")
	}}
	m := NewMirror(dir, "https://example.com/index.git", "acme", g, discardLogger())

	err := m.Ensure(context.Background())
	if err == nil {
		t.Fatal("Ensure() expected error when initial clone fails")
	}
	if !liberrors.Is(err, liberrors.ErrCodeRegistryUnavailable) {
		t.Errorf("error code = %v, want %v", liberrors.GetCode(err), liberrors.ErrCodeRegistryUnavailable)
	}

	if _, statErr := os.Stat(dir); !os.IsNotExist(statErr) {
		t.Error("failed clone must not leave a mirror directory behind")
	}
}

func TestEnsurePullFailureUsesStaleCopy(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "registry")
	if err := cloneWithIndex(`{"libraries": {"zlib": "https://example.com/zlib.git"}}`)(context.Background(), "", dir); err != nil {
		t.Fatal(err)
	}

	g := &fakeGit{pullFunc: func(ctx context.Context, d string) error {
		return errors.New("remote unreachable")
	}}
	m := NewMirror(dir, "https://example.com/index.git", "acme", g, discardLogger())

	if err := m.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure() error = %v, want nil on stale mirror", err)
	}

	// The stale index still answers lookups.
	res, err := m.Lookup(context.Background(), "zlib")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if res.Location != "https://example.com/zlib.git" || !res.Indexed {
		t.Errorf("Lookup() = %+v, want stale indexed entry", res)
	}
}

func TestEnsureRunsOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "registry")
	if err := cloneWithIndex(`{"libraries": {}}`)(context.Background(), "", dir); err != nil {
		t.Fatal(err)
	}

	g := &fakeGit{}
	m := NewMirror(dir, "https://example.com/index.git", "acme", g, discardLogger())

	for range 3 {
		if err := m.Ensure(context.Background()); err != nil {
			t.Fatalf("Ensure() error = %v", err)
		}
	}

	if g.pulls != 1 {
		t.Errorf("pulls = %d, want 1 (refresh at most once per run)", g.pulls)
	}
}

func TestLookupIndexedName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "registry")
	content := `{"libraries": {"json-parser": "https://git.example.com/libs/json-parser.git"}}`
	if err := cloneWithIndex(content)(context.Background(), "", dir); err != nil {
		t.Fatal(err)
	}

	m := NewMirror(dir, "https://example.com/index.git", "acme", &fakeGit{}, discardLogger())

	res, err := m.Lookup(context.Background(), "json-parser")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if res.Location != "https://git.example.com/libs/json-parser.git" {
		t.Errorf("Location = %q, want the exact indexed value", res.Location)
	}
	if !res.Indexed {
		t.Error("Indexed = false, want true")
	}
}

func TestLookupMissFallsBackToDefault(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "registry")
	if err := cloneWithIndex(`{"libraries": {}}`)(context.Background(), "", dir); err != nil {
		t.Fatal(err)
	}

	m := NewMirror(dir, "https://example.com/index.git", "acme", &fakeGit{}, discardLogger())

	res, err := m.Lookup(context.Background(), "unknownlib")
	if err != nil {
		t.Fatalf("Lookup() error = %v, want nil (miss is a warning, not an error)", err)
	}
	if res.Location != "https://github.com/acme/unknownlib.git" {
		t.Errorf("Location = %q, want conventional default", res.Location)
	}
	if res.Indexed {
		t.Error("Indexed = true, want false for a guessed location")
	}
}

func TestLookupMalformedIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "registry")
	if err := cloneWithIndex(`{not json`)(context.Background(), "", dir); err != nil {
		t.Fatal(err)
	}

	m := NewMirror(dir, "https://example.com/index.git", "acme", &fakeGit{}, discardLogger())

	_, err := m.Lookup(context.Background(), "anything")
	if err == nil {
		t.Fatal("Lookup() expected error for malformed index")
	}
	if !liberrors.Is(err, liberrors.ErrCodeRegistryIndex) {
		t.Errorf("error code = %v, want %v", liberrors.GetCode(err), liberrors.ErrCodeRegistryIndex)
	}
}

func TestRefreshReturnsPullError(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "registry")
	if err := cloneWithIndex(`{"libraries": {}}`)(context.Background(), "", dir); err != nil {
		t.Fatal(err)
	}

	g := &fakeGit{pullFunc: func(ctx context.Context, d string) error {
		return errors.New("remote unreachable")
	}}
	m := NewMirror(dir, "https://example.com/index.git", "acme", g, discardLogger())

	err := m.Refresh(context.Background())
	if err == nil {
		t.Fatal("Refresh() expected error when pull fails")
	}
	if !liberrors.Is(err, liberrors.ErrCodeRegistryUnavailable) {
		t.Errorf("error code = %v, want %v", liberrors.GetCode(err), liberrors.ErrCodeRegistryUnavailable)
	}
}
