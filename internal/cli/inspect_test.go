package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/lumenwm/lumen/pkg/errors"
)

// writeTestScene writes a small scene file and returns its path.
func writeTestScene(t *testing.T) string {
	t.Helper()
	data := `{"layers": [
		{"id": 1},
		{"id": 2, "parent": 1, "z": 1},
		{"id": 3, "parent": 2}
	]}`
	path := filepath.Join(t.TempDir(), "scene.json")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runInspect(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	cmd := c.inspectCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestInspectChildrenOnlyRequiresRoot(t *testing.T) {
	path := writeTestScene(t)
	if err := runInspect(t, path, "--children-only"); err == nil {
		t.Error("expected error for --children-only without --root")
	}
}

func TestInspectUnknownRoot(t *testing.T) {
	path := writeTestScene(t)
	err := runInspect(t, path, "--root", "99")
	if err == nil {
		t.Fatal("expected error for unknown root layer")
	}
	if code := errors.GetCode(err); code != errors.ErrCodeLayerNotFound {
		t.Errorf("error code = %q, want %q", code, errors.ErrCodeLayerNotFound)
	}
}

func TestInspectPartialView(t *testing.T) {
	path := writeTestScene(t)
	if err := runInspect(t, path, "--root", "2"); err != nil {
		t.Fatalf("inspect --root 2 failed: %v", err)
	}
	if err := runInspect(t, path, "--root", "2", "--children-only"); err != nil {
		t.Fatalf("inspect --root 2 --children-only failed: %v", err)
	}
}

func TestInspectOffscreenFlag(t *testing.T) {
	path := writeTestScene(t)
	if err := runInspect(t, path, "--offscreen"); err != nil {
		t.Fatalf("inspect --offscreen failed: %v", err)
	}
}
