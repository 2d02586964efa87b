package dot

import (
	"strings"
	"testing"

	"github.com/lumenwm/lumen/pkg/hierarchy"
	"github.com/lumenwm/lumen/pkg/layer"
)

func testBuilder(t *testing.T) *hierarchy.Builder {
	t.Helper()
	l1 := layer.New(1)
	l2 := layer.New(2)
	l2.ParentID = 1
	l3 := layer.New(3)
	l3.ParentID = 1
	l3.RelativeParentID = 2
	l4 := layer.New(4)
	l4.MirrorFromID = 1
	l5 := layer.New(5)
	l5.ParentID = 99 // unresolved, parked offscreen
	return hierarchy.New([]*layer.State{l1, l2, l3, l4, l5})
}

func TestToDOTEdgeStyles(t *testing.T) {
	out := ToDOT(testBuilder(t), Options{})

	wantLines := []string{
		`"1" -> "2";`,
		`"1" -> "3" [color=grey];`,
		`"2" -> "3" [style=dashed, label="rel"];`,
		`"4" -> "1" [style=dotted, label="mirror"];`,
	}
	for _, want := range wantLines {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "cluster_offscreen") {
		t.Error("offscreen cluster emitted without Options.Offscreen")
	}
}

func TestToDOTOffscreenCluster(t *testing.T) {
	out := ToDOT(testBuilder(t), Options{Offscreen: true})

	if !strings.Contains(out, "cluster_offscreen") {
		t.Fatalf("offscreen cluster missing:\n%s", out)
	}
	if !strings.Contains(out, `"5"`) {
		t.Errorf("parked layer missing from offscreen cluster:\n%s", out)
	}
}

func TestToDOTShowZ(t *testing.T) {
	l1 := layer.New(1)
	l2 := layer.New(2)
	l2.ParentID = 1
	l2.Z = -3
	b := hierarchy.New([]*layer.State{l1, l2})

	out := ToDOT(b, Options{ShowZ: true})
	if !strings.Contains(out, `"2" [label="2\nz=-3"];`) {
		t.Errorf("z label missing:\n%s", out)
	}
}

func TestToDOTEmptyScene(t *testing.T) {
	b := hierarchy.New(nil)
	out := ToDOT(b, Options{Offscreen: true})

	if !strings.HasPrefix(out, "digraph hierarchy {") || !strings.HasSuffix(out, "}\n") {
		t.Errorf("malformed DOT:\n%s", out)
	}
	if strings.Contains(out, "->") {
		t.Errorf("empty scene must produce no edges:\n%s", out)
	}
}

func TestToDOTTerminatesOnRelativeLoop(t *testing.T) {
	l1 := layer.New(1)
	l2 := layer.New(2)
	l2.ParentID = 1
	l2.RelativeParentID = 3
	l3 := layer.New(3)
	l3.ParentID = 1
	l3.RelativeParentID = 2
	b := hierarchy.New([]*layer.State{l1, l2, l3})

	out := ToDOT(b, Options{})
	if !strings.Contains(out, `"2" -> "3"`) || !strings.Contains(out, `"3" -> "2"`) {
		t.Errorf("loop edges missing:\n%s", out)
	}
}
