package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/libvend/libvend/pkg/depgraph"
	"github.com/libvend/libvend/pkg/manifest"
)

// installTree writes a root manifest plus materialized library manifests
// into a temp layout matching a completed install.
func installTree(t *testing.T, libs map[string]string) *manifest.Descriptor {
	t.Helper()
	dir := t.TempDir()
	dest := filepath.Join(dir, "lib")

	for name, content := range libs {
		libDir := filepath.Join(dest, name)
		if err := os.MkdirAll(libDir, 0o755); err != nil {
			t.Fatal(err)
		}
		if content != "" {
			if err := os.WriteFile(filepath.Join(libDir, manifest.DefaultFileName), []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}

	return &manifest.Descriptor{
		DisplayName: "proj",
		Dir:         dir,
		Destination: dest,
	}
}

func TestScanInstalled(t *testing.T) {
	root := installTree(t, map[string]string{
		"foo": `{"libraries": ["bar"]}`,
		"bar": "",
	})
	root.Libraries = []string{"acme/foo"}

	reader := manifest.NewReader(nil, log.New(io.Discard))
	g := scanInstalled(context.Background(), reader, root)

	for _, node := range []string{"proj", "foo", "bar"} {
		if !g.Has(node) {
			t.Errorf("graph missing node %q", node)
		}
	}

	want := []depgraph.Edge{
		{From: "proj", To: "foo"},
		{From: "foo", To: "bar"},
	}
	edges := g.Edges()
	if len(edges) != len(want) {
		t.Fatalf("Edges() = %v, want %v", edges, want)
	}
	for i := range want {
		if edges[i] != want[i] {
			t.Errorf("edge %d = %v, want %v", i, edges[i], want[i])
		}
	}
}

func TestScanInstalledCycle(t *testing.T) {
	root := installTree(t, map[string]string{
		"liba": `{"libraries": ["acme/libb"]}`,
		"libb": `{"libraries": ["acme/liba"]}`,
	})
	root.Libraries = []string{"acme/liba"}

	reader := manifest.NewReader(nil, log.New(io.Discard))
	g := scanInstalled(context.Background(), reader, root)

	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3 (proj, liba, libb)", g.NodeCount())
	}
	if g.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3", g.EdgeCount())
	}
}

func TestScanInstalledMissingLibraryIsLeaf(t *testing.T) {
	root := installTree(t, nil)
	root.Libraries = []string{"acme/neverfetched"}

	reader := manifest.NewReader(nil, log.New(io.Discard))
	g := scanInstalled(context.Background(), reader, root)

	if !g.Has("neverfetched") {
		t.Error("declared-but-unfetched library should still appear in the graph")
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}
