package manifest

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	liberrors "github.com/libvend/libvend/pkg/errors"
)

func testReader(shell Shell) *Reader {
	return NewReader(shell, log.New(io.Discard))
}

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, DefaultFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{}`)

	d, err := testReader(nil).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if d.DisplayName != filepath.Base(dir) {
		t.Errorf("DisplayName = %q, want directory base %q", d.DisplayName, filepath.Base(dir))
	}
	if d.Destination != filepath.Join(dir, DefaultDestination) {
		t.Errorf("Destination = %q, want %q", d.Destination, filepath.Join(dir, DefaultDestination))
	}
	if len(d.Libraries) != 0 {
		t.Errorf("Libraries = %v, want empty", d.Libraries)
	}
	if len(d.Preconditions) != 0 {
		t.Errorf("Preconditions = %v, want empty", d.Preconditions)
	}
}

func TestLoadAllFields(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{
		"name": "frobnicator",
		"libraries": ["acme/foo", "bar"],
		"libraries_destination": "third_party",
		"preconditions": ["true"]
	}`)

	d, err := testReader(nil).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if d.DisplayName != "frobnicator" {
		t.Errorf("DisplayName = %q, want %q", d.DisplayName, "frobnicator")
	}
	if d.Destination != filepath.Join(dir, "third_party") {
		t.Errorf("Destination = %q, want %q", d.Destination, filepath.Join(dir, "third_party"))
	}
	if len(d.Libraries) != 2 || d.Libraries[0] != "acme/foo" || d.Libraries[1] != "bar" {
		t.Errorf("Libraries = %v, want [acme/foo bar]", d.Libraries)
	}
}

func TestLoadNotFound(t *testing.T) {
	dir := t.TempDir()

	_, err := testReader(nil).Load(context.Background(), filepath.Join(dir, DefaultFileName))
	if err == nil {
		t.Fatal("Load() expected error for missing manifest")
	}
	if !liberrors.Is(err, liberrors.ErrCodeManifestNotFound) {
		t.Errorf("error code = %v, want %v", liberrors.GetCode(err), liberrors.ErrCodeManifestNotFound)
	}
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "truncated", content: `{"name": "x"`},
		{name: "not json", content: `name = x`},
		{name: "wrong field type", content: `{"libraries": "not-a-list"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeManifest(t, dir, tt.content)

			_, err := testReader(nil).Load(context.Background(), path)
			if err == nil {
				t.Fatal("Load() expected error for malformed manifest")
			}
			if !liberrors.Is(err, liberrors.ErrCodeManifestMalformed) {
				t.Errorf("error code = %v, want %v", liberrors.GetCode(err), liberrors.ErrCodeManifestMalformed)
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"name": "proj"}`)

	d, err := testReader(nil).LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if d.DisplayName != "proj" {
		t.Errorf("DisplayName = %q, want %q", d.DisplayName, "proj")
	}
}

func TestPreconditionsRunInOrder(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{"preconditions": ["first", "second", "third"]}`)

	var ran []string
	var dirs []string
	shell := ShellFunc(func(ctx context.Context, cwd, command string) error {
		ran = append(ran, command)
		dirs = append(dirs, cwd)
		return nil
	})

	if _, err := testReader(shell).Load(context.Background(), path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"first", "second", "third"}
	if len(ran) != len(want) {
		t.Fatalf("ran %d steps, want %d", len(ran), len(want))
	}
	for i := range want {
		if ran[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, ran[i], want[i])
		}
	}

	absDir, _ := filepath.Abs(dir)
	for i, d := range dirs {
		if d != absDir {
			t.Errorf("step %d cwd = %q, want %q", i, d, absDir)
		}
	}
}

func TestPreconditionFailureDoesNotAbort(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{"preconditions": ["boom", "after"]}`)

	var ran []string
	shell := ShellFunc(func(ctx context.Context, cwd, command string) error {
		ran = append(ran, command)
		if command == "boom" {
			return os.ErrPermission
		}
		return nil
	})

	d, err := testReader(shell).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil despite failing precondition", err)
	}
	if d == nil {
		t.Fatal("Load() returned nil descriptor")
	}
	if len(ran) != 2 || ran[1] != "after" {
		t.Errorf("ran = %v, want both steps to run", ran)
	}
}

func TestLoadNilShellSkipsPreconditions(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `{"preconditions": ["true"]}`)

	// Must not panic with a nil shell.
	if _, err := testReader(nil).Load(context.Background(), path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}
