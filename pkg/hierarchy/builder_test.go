package hierarchy

import (
	"errors"
	"slices"
	"testing"

	"github.com/lumenwm/lumen/pkg/layer"
)

// mkLayer builds a layer record with optional ids cleared.
func mkLayer(id layer.ID, z int32) *layer.State {
	l := layer.New(id)
	l.Z = z
	return l
}

func withParent(l *layer.State, parent layer.ID) *layer.State {
	l.ParentID = parent
	return l
}

func withRelativeParent(l *layer.State, rel layer.ID) *layer.State {
	l.RelativeParentID = rel
	return l
}

func withMirror(l *layer.State, src layer.ID) *layer.State {
	l.MirrorFromID = src
	return l
}

// zOrderIDs runs the z-order traversal and returns the visited layer ids.
func zOrderIDs(n *Node) []layer.ID {
	var ids []layer.ID
	n.TraverseInZOrder(func(v *Node, _ TraversalPath) bool {
		ids = append(ids, v.ID())
		return true
	})
	return ids
}

// allPaths runs the full traversal and returns every visited path.
func allPaths(n *Node) []TraversalPath {
	var paths []TraversalPath
	n.Traverse(func(_ *Node, p TraversalPath) bool {
		paths = append(paths, p)
		return true
	})
	return paths
}

func TestBuildZOrder(t *testing.T) {
	tests := []struct {
		name   string
		layers []*layer.State
		want   []layer.ID
	}{
		{
			name:   "Empty",
			layers: nil,
			want:   nil,
		},
		{
			name: "NegativeZBeforeSibling",
			layers: []*layer.State{
				mkLayer(1, 0),
				withParent(mkLayer(2, 0), 1),
				withParent(mkLayer(3, -1), 1),
			},
			want: []layer.ID{1, 3, 2},
		},
		{
			name: "TiesByCreationOrder",
			layers: []*layer.State{
				mkLayer(1, 0),
				withParent(mkLayer(5, 0), 1),
				withParent(mkLayer(4, 0), 1),
				withParent(mkLayer(6, -2), 1),
			},
			want: []layer.ID{1, 6, 5, 4},
		},
		{
			name: "DetachedSkippedRelativeVisited",
			layers: []*layer.State{
				mkLayer(1, 0),
				withParent(mkLayer(2, 0), 1),
				withRelativeParent(withParent(mkLayer(3, -5), 1), 2),
			},
			// 3 has z=-5 but is composited from 2's position, not 1's.
			want: []layer.ID{1, 2, 3},
		},
		{
			name: "UnresolvedParentGoesOffscreen",
			layers: []*layer.State{
				mkLayer(1, 0),
				withParent(mkLayer(2, 0), 99),
			},
			want: []layer.ID{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.layers)
			if got := zOrderIDs(b.Hierarchy()); !slices.Equal(got, tt.want) {
				t.Errorf("z order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOffscreenHierarchy(t *testing.T) {
	b := New([]*layer.State{
		mkLayer(1, 0),
		withParent(mkLayer(2, 0), 99),
		withParent(mkLayer(3, 0), 2),
	})

	if got := zOrderIDs(b.OffscreenHierarchy()); !slices.Equal(got, []layer.ID{2, 3}) {
		t.Errorf("offscreen = %v, want [2 3]", got)
	}
}

func TestMirrorTraversal(t *testing.T) {
	b := New([]*layer.State{
		mkLayer(1, 0),
		withParent(mkLayer(2, 0), 1),
		withParent(mkLayer(3, -1), 1),
		withMirror(mkLayer(4, 0), 1),
	})

	got := zOrderIDs(b.Hierarchy())
	want := []layer.ID{1, 3, 2, 4, 1, 3, 2}
	if !slices.Equal(got, want) {
		t.Fatalf("z order = %v, want %v", got, want)
	}

	// The mirrored visits carry the mirror root; the original visits don't.
	var mirrored, direct []TraversalPath
	b.Hierarchy().TraverseInZOrder(func(_ *Node, p TraversalPath) bool {
		if len(p.MirrorRootIDs) > 0 {
			mirrored = append(mirrored, p)
		} else {
			direct = append(direct, p)
		}
		return true
	})
	if len(mirrored) != 3 {
		t.Fatalf("mirrored visits = %d, want 3", len(mirrored))
	}
	for _, p := range mirrored {
		if !slices.Equal(p.MirrorRootIDs, []layer.ID{4}) {
			t.Errorf("MirrorRootIDs = %v, want [4]", p.MirrorRootIDs)
		}
	}
	for _, m := range mirrored {
		for _, d := range direct {
			if m.Equal(d) {
				t.Errorf("mirrored path %v equal to direct path %v", m, d)
			}
		}
	}
}

func TestMirrorIsReferentialNotCopying(t *testing.T) {
	src := withParent(mkLayer(2, 0), 1)
	b := New([]*layer.State{
		mkLayer(1, 0),
		src,
		withMirror(mkLayer(3, 0), 1),
	})

	// External mutation of the record must be visible on every path within
	// the same pass, because the mirrored node is the same instance.
	src.Z = 42

	var seen []*layer.State
	b.Hierarchy().TraverseInZOrder(func(n *Node, _ TraversalPath) bool {
		if n.ID() == 2 {
			seen = append(seen, n.Layer())
		}
		return true
	})
	if len(seen) != 2 {
		t.Fatalf("visits of layer 2 = %d, want 2", len(seen))
	}
	if seen[0] != seen[1] {
		t.Error("mirror edge cloned the node: records differ between paths")
	}
	if seen[0].Z != 42 {
		t.Errorf("Z = %d, want externally mutated 42", seen[0].Z)
	}
}

func TestZOrderVisitsEachInstanceOnce(t *testing.T) {
	b := New([]*layer.State{
		mkLayer(1, 0),
		withParent(mkLayer(2, 0), 1),
		withRelativeParent(withParent(mkLayer(3, 0), 1), 2),
		withMirror(mkLayer(4, 1), 1),
	})

	var paths []TraversalPath
	b.Hierarchy().TraverseInZOrder(func(_ *Node, p TraversalPath) bool {
		paths = append(paths, p)
		return true
	})
	for i := range paths {
		for j := i + 1; j < len(paths); j++ {
			if paths[i].Equal(paths[j]) {
				t.Errorf("duplicate visit of instance %v", paths[i])
			}
		}
	}
}

func TestRelativeParentVariants(t *testing.T) {
	rel := withRelativeParent(withParent(mkLayer(3, 0), 1), 2)
	b := New([]*layer.State{
		mkLayer(1, 0),
		withParent(mkLayer(2, 0), 1),
		rel,
	})

	// Structural edge is detached while the relative parent is active; the
	// full traversal still sees both instances.
	var variants []Variant
	b.Hierarchy().Traverse(func(n *Node, p TraversalPath) bool {
		if n.ID() == 3 {
			variants = append(variants, p.Variant)
		}
		return true
	})
	slices.Sort(variants)
	if !slices.Equal(variants, []Variant{VariantDetached, VariantRelative}) {
		t.Fatalf("variants for 3 = %v, want [detached relative]", variants)
	}

	// Clearing the relative parent reverts the structural edge.
	rel.RelativeParentID = layer.Unassigned
	b.Update([]*layer.State{rel}, nil)

	variants = nil
	b.Hierarchy().Traverse(func(n *Node, p TraversalPath) bool {
		if n.ID() == 3 {
			variants = append(variants, p.Variant)
		}
		return true
	})
	if !slices.Equal(variants, []Variant{VariantAttached}) {
		t.Errorf("variants after clear = %v, want [attached]", variants)
	}
}

func TestNoopUpdateIsIdempotent(t *testing.T) {
	b := New([]*layer.State{
		mkLayer(1, 0),
		withParent(mkLayer(2, 0), 1),
		withRelativeParent(withParent(mkLayer(3, -1), 1), 2),
		withMirror(mkLayer(4, 2), 1),
		withParent(mkLayer(5, 0), 99),
	})

	before := b.DebugString()
	beforeCount := b.NodeCount()

	b.Update(nil, nil)

	if got := b.DebugString(); got != before {
		t.Errorf("hierarchy changed across no-op update:\nbefore:\n%s\nafter:\n%s", before, got)
	}
	if got := b.NodeCount(); got != beforeCount {
		t.Errorf("node count = %d, want %d", got, beforeCount)
	}
}

func TestUpdateAddsAndReparents(t *testing.T) {
	l2 := withParent(mkLayer(2, 0), 1)
	b := New([]*layer.State{
		mkLayer(1, 0),
		l2,
	})

	// New top-level layer, then reparent 2 under it.
	b.Update([]*layer.State{mkLayer(6, 1)}, nil)
	l2.ParentID = 6
	b.Update([]*layer.State{l2}, nil)

	if got := zOrderIDs(b.Hierarchy()); !slices.Equal(got, []layer.ID{1, 6, 2}) {
		t.Errorf("z order = %v, want [1 6 2]", got)
	}
}

func TestUpdateAdoptsPendingChildren(t *testing.T) {
	b := New([]*layer.State{
		mkLayer(1, 0),
		withParent(mkLayer(2, 0), 7), // 7 doesn't exist yet
	})

	if got := zOrderIDs(b.OffscreenHierarchy()); !slices.Equal(got, []layer.ID{2}) {
		t.Fatalf("offscreen before = %v, want [2]", got)
	}

	b.Update([]*layer.State{withParent(mkLayer(7, 1), 1)}, nil)

	if got := zOrderIDs(b.Hierarchy()); !slices.Equal(got, []layer.ID{1, 7, 2}) {
		t.Errorf("z order = %v, want [1 7 2]", got)
	}
	if got := zOrderIDs(b.OffscreenHierarchy()); len(got) != 0 {
		t.Errorf("offscreen after = %v, want empty", got)
	}
}

func TestDestroyUnlinksEverywhere(t *testing.T) {
	b := New([]*layer.State{
		mkLayer(1, 0),
		withParent(mkLayer(2, 0), 1),
		withParent(mkLayer(3, 0), 2),
		withMirror(mkLayer(4, 1), 2),
		withRelativeParent(withParent(mkLayer(5, 0), 1), 2),
	})

	b.Update(nil, []layer.ID{2})

	if _, err := b.PartialHierarchy(2, false); !errors.Is(err, ErrLayerNotFound) {
		t.Errorf("PartialHierarchy(2) error = %v, want ErrLayerNotFound", err)
	}
	// 3 is orphaned and parked offscreen.
	if got := zOrderIDs(b.OffscreenHierarchy()); !slices.Equal(got, []layer.ID{3}) {
		t.Errorf("offscreen = %v, want [3]", got)
	}
	// 4 lost its mirror edge, 5 fell back to its structural position.
	if got := zOrderIDs(b.Hierarchy()); !slices.Equal(got, []layer.ID{1, 5, 4}) {
		t.Errorf("z order = %v, want [1 5 4]", got)
	}
	// No node anywhere still references 2.
	b.Hierarchy().Traverse(func(n *Node, _ TraversalPath) bool {
		if n.ID() == 2 {
			t.Error("destroyed layer still reachable")
		}
		return true
	})
}

func TestDestroyRelativeChildFallsBack(t *testing.T) {
	b := New([]*layer.State{
		mkLayer(1, 0),
		withParent(mkLayer(2, 0), 1),
		withRelativeParent(withParent(mkLayer(3, 0), 1), 2),
	})

	b.Update(nil, []layer.ID{2})

	var variants []Variant
	b.Hierarchy().Traverse(func(n *Node, p TraversalPath) bool {
		if n.ID() == 3 {
			variants = append(variants, p.Variant)
		}
		return true
	})
	if !slices.Equal(variants, []Variant{VariantAttached}) {
		t.Errorf("variants for 3 = %v, want [attached]", variants)
	}
}

func TestPartialHierarchy(t *testing.T) {
	b := New([]*layer.State{
		mkLayer(1, 0),
		withParent(mkLayer(2, 0), 1),
		withParent(mkLayer(3, 0), 2),
		withParent(mkLayer(4, 0), 1),
	})

	t.Run("FullCopy", func(t *testing.T) {
		p, err := b.PartialHierarchy(2, false)
		if err != nil {
			t.Fatal(err)
		}
		var ids []layer.ID
		ids = append(ids, p.ID())
		for _, e := range p.Children() {
			ids = append(ids, e.Node.ID())
		}
		if !slices.Equal(ids, []layer.ID{2, 3}) {
			t.Errorf("ids = %v, want [2 3]", ids)
		}
	})

	t.Run("ChildrenOnly", func(t *testing.T) {
		p, err := b.PartialHierarchy(2, true)
		if err != nil {
			t.Fatal(err)
		}
		if !p.Synthetic() {
			t.Error("childrenOnly root should carry no layer record")
		}
		if got := zOrderIDs(p); !slices.Equal(got, []layer.ID{3}) {
			t.Errorf("descendants = %v, want strict descendants [3]", got)
		}
	})

	t.Run("SnapshotIsDetached", func(t *testing.T) {
		p, err := b.PartialHierarchy(1, false)
		if err != nil {
			t.Fatal(err)
		}
		before := zOrderIDs(p)
		b.Update(nil, []layer.ID{2})
		if got := zOrderIDs(p); !slices.Equal(got, before) {
			t.Errorf("snapshot changed after update: %v, want %v", got, before)
		}
	})

	t.Run("UnknownID", func(t *testing.T) {
		if _, err := b.PartialHierarchy(77, false); !errors.Is(err, ErrLayerNotFound) {
			t.Errorf("error = %v, want ErrLayerNotFound", err)
		}
	})
}

func TestVisitorPrunesSubtreeOnly(t *testing.T) {
	b := New([]*layer.State{
		mkLayer(1, 0),
		withParent(mkLayer(2, 0), 1),
		withParent(mkLayer(3, 0), 2),
		withParent(mkLayer(4, 1), 1),
	})

	var ids []layer.ID
	b.Hierarchy().TraverseInZOrder(func(n *Node, _ TraversalPath) bool {
		ids = append(ids, n.ID())
		return n.ID() != 2 // prune under 2
	})
	if !slices.Equal(ids, []layer.ID{1, 2, 4}) {
		t.Errorf("visits = %v, want [1 2 4]", ids)
	}
}

func TestSelfReferences(t *testing.T) {
	// A layer naming itself as parent, relative parent, or mirror source
	// must not produce self edges.
	self := mkLayer(2, 0)
	self.ParentID = 2
	self.RelativeParentID = 2
	self.MirrorFromID = 2

	b := New([]*layer.State{mkLayer(1, 0), self})

	if got := zOrderIDs(b.OffscreenHierarchy()); !slices.Equal(got, []layer.ID{2}) {
		t.Errorf("offscreen = %v, want [2]", got)
	}
	n, err := b.PartialHierarchy(2, false)
	if err != nil {
		t.Fatal(err)
	}
	if n.ChildCount() != 0 {
		t.Errorf("self-referencing layer has %d child edges, want 0", n.ChildCount())
	}
}
