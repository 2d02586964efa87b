package hierarchy

import (
	"slices"

	"github.com/lumenwm/lumen/pkg/layer"
)

// Variant labels a parent→child edge with the relationship it represents.
type Variant uint8

const (
	// VariantAttached marks a normal structural child.
	VariantAttached Variant = iota
	// VariantDetached marks a structural child that is currently
	// relative-parented to another layer. Detached edges keep the child
	// anchored in the structural hierarchy but are skipped by the z-order
	// walk, which reaches the child through its relative parent instead.
	VariantDetached
	// VariantRelative marks a child reached through its relative-parent
	// edge. The relative parent contributes z position, not ownership.
	VariantRelative
	// VariantMirror marks a child that is the root of another node's
	// subtree, referenced in place without cloning any state.
	VariantMirror
)

// String returns the lowercase variant name.
func (v Variant) String() string {
	switch v {
	case VariantAttached:
		return "attached"
	case VariantDetached:
		return "detached"
	case VariantRelative:
		return "relative"
	case VariantMirror:
		return "mirror"
	default:
		return "unknown"
	}
}

// ChildEdge is one entry in a node's ordered child list.
type ChildEdge struct {
	Node    *Node
	Variant Variant
}

// Node is a vertex in the layer hierarchy. It wraps a non-owning reference
// to an external layer record; the two synthetic roots carry no record at
// all. Nodes are created, linked, and destroyed exclusively by the
// [Builder] — consumers get a traversal-only view.
type Node struct {
	id    layer.ID
	layer *layer.State // nil for the synthetic roots
	name  string       // display name for the synthetic roots

	parent         *Node
	relativeParent *Node
	children       []ChildEdge

	// seq is the arena creation sequence, used to break z ties so sibling
	// order is deterministic across rebuilds with unchanged z values.
	seq uint64
}

func newNode(l *layer.State, seq uint64) *Node {
	return &Node{id: l.ID, layer: l, seq: seq}
}

func newSyntheticRoot(name string) *Node {
	return &Node{id: layer.Unassigned, name: name}
}

// ID returns the node's layer id, or [layer.Unassigned] for a synthetic root.
func (n *Node) ID() layer.ID { return n.id }

// Layer returns the backing layer record, or nil for a synthetic root.
func (n *Node) Layer() *layer.State { return n.layer }

// Synthetic reports whether the node is one of the two permanent roots.
func (n *Node) Synthetic() bool { return n.layer == nil }

// Parent returns the node's current structural parent, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// RelativeParent returns the node's current relative parent, if any.
func (n *Node) RelativeParent() *Node { return n.relativeParent }

// Children returns a copy of the node's ordered child edge list. The edges
// reference live nodes; the slice itself is the caller's to keep.
func (n *Node) Children() []ChildEdge { return slices.Clone(n.children) }

// ChildCount returns the number of child edges, counting every variant.
func (n *Node) ChildCount() int { return len(n.children) }

// addChild appends an edge to the child list. The list's z order is stale
// until the next sortChildrenByZOrder.
func (n *Node) addChild(child *Node, variant Variant) {
	n.children = append(n.children, ChildEdge{Node: child, Variant: variant})
}

// removeChild removes the first edge to child whose variant is one of
// variants (any variant when none are given). The relative order of the
// remaining children is left intact. It reports whether an edge was removed.
func (n *Node) removeChild(child *Node, variants ...Variant) bool {
	for i, e := range n.children {
		if e.Node != child {
			continue
		}
		if len(variants) > 0 && !slices.Contains(variants, e.Variant) {
			continue
		}
		n.children = slices.Delete(n.children, i, i+1)
		return true
	}
	return false
}

// updateChild replaces the variant of the existing structural edge to child.
// It is used when a child's relative-parent relationship starts or ends
// without changing who its structural parent is.
func (n *Node) updateChild(child *Node, variant Variant) {
	for i, e := range n.children {
		if e.Node == child && e.Variant != VariantMirror && e.Variant != VariantRelative {
			n.children[i].Variant = variant
			return
		}
	}
}

// removeMirrorEdges drops every mirror edge from the child list and reports
// whether any were present.
func (n *Node) removeMirrorEdges() bool {
	before := len(n.children)
	n.children = slices.DeleteFunc(n.children, func(e ChildEdge) bool {
		return e.Variant == VariantMirror
	})
	return len(n.children) != before
}

// removeMirrorEdgesTo drops mirror edges pointing at target and reports
// whether any were present.
func (n *Node) removeMirrorEdgesTo(target *Node) bool {
	before := len(n.children)
	n.children = slices.DeleteFunc(n.children, func(e ChildEdge) bool {
		return e.Variant == VariantMirror && e.Node == target
	})
	return len(n.children) != before
}

// hasMirrorEdge reports whether the node holds any mirror edge.
func (n *Node) hasMirrorEdge() bool {
	return slices.ContainsFunc(n.children, func(e ChildEdge) bool {
		return e.Variant == VariantMirror
	})
}

// sortChildrenByZOrder sorts the child list by the backing records' z
// values. Ties fall back to arena creation order, so the result is stable
// across rebuilds with unchanged z values. Synthetic roots never appear as
// children, so every edge has a backing record.
func (n *Node) sortChildrenByZOrder() {
	slices.SortStableFunc(n.children, func(a, b ChildEdge) int {
		if a.Node.layer.Z != b.Node.layer.Z {
			if a.Node.layer.Z < b.Node.layer.Z {
				return -1
			}
			return 1
		}
		switch {
		case a.Node.seq < b.Node.seq:
			return -1
		case a.Node.seq > b.Node.seq:
			return 1
		default:
			return 0
		}
	})
}
