package hierarchy

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lumenwm/lumen/pkg/layer"
)

// ErrLayerNotFound is returned by [Builder.PartialHierarchy] when the given
// id has no node in the arena.
var ErrLayerNotFound = errors.New("layer not found")

// Builder owns the node arena and derives the hierarchy from external layer
// records. It maintains two permanent synthetic roots: the attached
// hierarchy consumed by composition and an offscreen hierarchy for layers
// whose declared parent does not currently resolve.
//
// Builder follows a single-writer contract: Update must never run
// concurrently with another Update or with an in-flight traversal. There is
// no internal locking.
type Builder struct {
	nodes         map[layer.ID]*Node
	root          *Node
	offscreenRoot *Node

	// dirty holds parents whose child lists need a z re-sort. Sorting is
	// deferred so a frame's worth of changes is paid for once, and flushed
	// before any hierarchy is handed out.
	dirty map[*Node]struct{}

	nextSeq uint64
}

// New builds a hierarchy from a flat list of layer records. All nodes are
// created first, then linked, so forward references between records resolve
// regardless of list order.
func New(layers []*layer.State) *Builder {
	b := &Builder{
		nodes:         make(map[layer.ID]*Node, len(layers)),
		root:          newSyntheticRoot("ROOT"),
		offscreenRoot: newSyntheticRoot("OFFSCREEN"),
		dirty:         make(map[*Node]struct{}),
	}
	for _, l := range layers {
		b.createNode(l)
	}
	for _, l := range layers {
		b.linkNode(b.node(l.ID))
	}
	return b
}

// Hierarchy returns the attached root. Child lists are z-sorted before the
// root is handed out.
func (b *Builder) Hierarchy() *Node {
	b.flushDirty()
	return b.root
}

// OffscreenHierarchy returns the root holding every layer not currently
// reachable from the display tree.
func (b *Builder) OffscreenHierarchy() *Node {
	b.flushDirty()
	return b.offscreenRoot
}

// Update reconciles the hierarchy against a frame's transaction batch:
// records that were added or changed since the last pass, and ids of
// destroyed layers. The two sets are disjoint; from the caller's point of
// view the whole batch applies atomically. An empty update is a no-op.
//
// For every changed id the structural, relative, and mirror linkage is
// re-evaluated from scratch against the current record. Destroyed nodes are
// unlinked from every parent, relative parent, and mirror reference in the
// graph, and their children are parked under the offscreen root pending
// re-resolution.
func (b *Builder) Update(changed []*layer.State, destroyed []layer.ID) {
	for _, l := range changed {
		n, ok := b.lookupNode(l.ID)
		if !ok {
			n = b.createNode(l)
			b.linkNode(n)
			b.adoptPending(n)
			continue
		}
		n.layer = l
		b.detachFromRelativeParent(n)
		b.detachFromParent(n)
		b.linkNode(n)
		b.adoptPending(n)
	}
	for _, id := range destroyed {
		if n, ok := b.lookupNode(id); ok {
			b.destroyNode(n)
		}
	}
}

// PartialHierarchy returns a detached, read-only deep copy of the subgraph
// rooted at id. With childrenOnly the copy excludes the node itself and
// starts from its children. The snapshot shares the backing layer records
// but no nodes with the live graph, so it stays safe to read after further
// updates. Returns [ErrLayerNotFound] for an unknown id.
func (b *Builder) PartialHierarchy(id layer.ID, childrenOnly bool) (*Node, error) {
	n, ok := b.lookupNode(id)
	if !ok {
		return nil, fmt.Errorf("partial hierarchy for %s: %w", id, ErrLayerNotFound)
	}
	b.flushDirty()
	root := &Node{id: n.id, seq: n.seq}
	if !childrenOnly {
		root.layer = n.layer
	}
	cloneChildren(n, root, RootPath())
	return root, nil
}

// NodeCount returns the number of live nodes in the arena, excluding the
// two synthetic roots.
func (b *Builder) NodeCount() int { return len(b.nodes) }

// node looks up id and treats a miss as an invariant violation: after a
// completed update pass every id reachable through the graph has a node.
func (b *Builder) node(id layer.ID) *Node {
	n, ok := b.nodes[id]
	if !ok {
		panic(fmt.Sprintf("hierarchy: no node for layer %s", id))
	}
	return n
}

// lookupNode is the non-crashing lookup for call sites that can legitimately
// race with batched destruction ordering.
func (b *Builder) lookupNode(id layer.ID) (*Node, bool) {
	n, ok := b.nodes[id]
	return n, ok
}

func (b *Builder) createNode(l *layer.State) *Node {
	b.nextSeq++
	n := newNode(l, b.nextSeq)
	b.nodes[l.ID] = n
	return n
}

// linkNode resolves a node's structural parent, relative parent, and mirror
// source against the current arena.
func (b *Builder) linkNode(n *Node) {
	b.attachToParent(n)
	b.attachToRelativeParent(n)
	b.updateMirror(n)
}

// attachToParent hangs n under its declared structural parent: the attached
// root when no parent is declared, the offscreen root when the declaration
// does not resolve. The structural edge is detached while a relative parent
// is in effect.
func (b *Builder) attachToParent(n *Node) {
	l := n.layer
	parent := b.root
	if l.HasParent() {
		p, ok := b.lookupNode(l.ParentID)
		if !ok || p == n {
			parent = b.offscreenRoot
		} else {
			parent = p
		}
	}
	variant := VariantAttached
	if b.resolveRelativeParent(n) != nil {
		variant = VariantDetached
	}
	parent.addChild(n, variant)
	n.parent = parent
	b.markDirty(parent)
}

func (b *Builder) detachFromParent(n *Node) {
	if n.parent == nil {
		return
	}
	n.parent.removeChild(n, VariantAttached, VariantDetached)
	n.parent = nil
}

// attachToRelativeParent adds the relative edge declared by n's record, if
// its target resolves. An unresolved declaration leaves the structural edge
// attached and is re-evaluated the next time the layer or its target is
// touched.
func (b *Builder) attachToRelativeParent(n *Node) {
	rp := b.resolveRelativeParent(n)
	if rp == nil {
		return
	}
	rp.addChild(n, VariantRelative)
	n.relativeParent = rp
	b.markDirty(rp)
}

func (b *Builder) detachFromRelativeParent(n *Node) {
	if n.relativeParent == nil {
		return
	}
	n.relativeParent.removeChild(n, VariantRelative)
	n.relativeParent = nil
	if n.parent != nil {
		n.parent.updateChild(n, VariantAttached)
	}
}

// resolveRelativeParent returns the live node for n's declared relative
// parent, or nil when none is declared or the declaration does not resolve.
func (b *Builder) resolveRelativeParent(n *Node) *Node {
	l := n.layer
	if !l.HasRelativeParent() {
		return nil
	}
	rp, ok := b.lookupNode(l.RelativeParentID)
	if !ok || rp == n {
		return nil
	}
	return rp
}

// updateMirror re-derives n's mirror edge from its record. The mirrored node
// is referenced in place; nothing is cloned.
func (b *Builder) updateMirror(n *Node) {
	changed := n.removeMirrorEdges()
	l := n.layer
	if l.HasMirrorSource() {
		if src, ok := b.lookupNode(l.MirrorFromID); ok && src != n {
			n.addChild(src, VariantMirror)
			changed = true
		}
	}
	if changed {
		b.markDirty(n)
	}
}

// adoptPending re-links arena nodes whose records reference n's id but whose
// edges could not be resolved when they were last touched: offscreen
// children waiting for this parent, dangling relative parents, and dangling
// mirror sources.
func (b *Builder) adoptPending(n *Node) {
	for _, m := range b.nodes {
		if m == n || m.layer == nil {
			continue
		}
		if m.layer.ParentID == n.id && m.parent == b.offscreenRoot {
			b.detachFromParent(m)
			b.attachToParent(m)
		}
		if m.layer.RelativeParentID == n.id && m.relativeParent == nil {
			b.attachToRelativeParent(m)
			if m.relativeParent != nil && m.parent != nil {
				m.parent.updateChild(m, VariantDetached)
			}
		}
		if m.layer.MirrorFromID == n.id && !m.hasMirrorEdge() {
			b.updateMirror(m)
		}
	}
}

// destroyNode unlinks n from every reference in the graph, parks its former
// children under the offscreen root, and releases it from the arena.
func (b *Builder) destroyNode(n *Node) {
	b.detachFromRelativeParent(n)
	b.detachFromParent(n)
	for _, m := range b.nodes {
		if m != n {
			m.removeMirrorEdgesTo(n)
		}
	}

	for _, e := range slices.Clone(n.children) {
		switch e.Variant {
		case VariantAttached, VariantDetached:
			n.removeChild(e.Node, e.Variant)
			e.Node.parent = b.offscreenRoot
			b.offscreenRoot.addChild(e.Node, e.Variant)
			b.markDirty(b.offscreenRoot)
		case VariantRelative:
			// n was the relative parent; the child falls back to its
			// structural position.
			n.removeChild(e.Node, VariantRelative)
			e.Node.relativeParent = nil
			if e.Node.parent != nil {
				e.Node.parent.updateChild(e.Node, VariantAttached)
			}
		case VariantMirror:
			n.removeChild(e.Node, VariantMirror)
		}
	}

	delete(b.dirty, n)
	delete(b.nodes, n.id)
}

func (b *Builder) markDirty(n *Node) {
	b.dirty[n] = struct{}{}
}

func (b *Builder) flushDirty() {
	for n := range b.dirty {
		n.sortChildrenByZOrder()
	}
	clear(b.dirty)
}

// cloneChildren deep-copies src's child edges under dst, bounding recursion
// through relative loops the same way traversal does. Mirror edges are
// materialized as copies in the snapshot.
func cloneChildren(src, dst *Node, path TraversalPath) {
	for _, e := range src.children {
		childPath := path.child(e.Node.id, e.Variant)
		if childPath.HasRelZLoop() && path.HasRelZLoop() {
			continue
		}
		c := &Node{id: e.Node.id, layer: e.Node.layer, seq: e.Node.seq}
		switch e.Variant {
		case VariantAttached, VariantDetached:
			c.parent = dst
		case VariantRelative:
			c.relativeParent = dst
		}
		dst.children = append(dst.children, ChildEdge{Node: c, Variant: e.Variant})
		cloneChildren(e.Node, c, childPath)
	}
}
