package hierarchy

import "github.com/lumenwm/lumen/pkg/layer"

// Visitor is called once per (node, path) visit. Returning false stops the
// walk from descending into that node's children; siblings and ancestors are
// unaffected. Visitors must not mutate node adjacency.
type Visitor func(n *Node, p TraversalPath) bool

// Traverse walks the hierarchy depth-first, descending into every child
// edge regardless of variant. Synthetic roots are not visited.
//
// Relative-parent loops do not recurse forever: the first time a relative
// root repeats on a path the subtree is still visited once, with the path's
// loop sentinel armed, and the walk refuses to descend the same loop again.
func (n *Node) Traverse(visitor Visitor) {
	n.traverse(visitor, RootPath())
}

func (n *Node) traverse(visitor Visitor, path TraversalPath) {
	if n.layer != nil && !visitor(n, path) {
		return
	}
	for _, e := range n.children {
		child := path.child(e.Node.id, e.Variant)
		if child.HasRelZLoop() && path.HasRelZLoop() {
			// The sentinel already fired on this path; re-descending
			// would cycle.
			continue
		}
		e.Node.traverse(visitor, child)
	}
}

// TraverseInZOrder walks the hierarchy depth-first in compositing order:
// each node before its children, siblings in ascending z. Detached edges are
// skipped — a relative-parented layer is composited from its relative
// parent's position, not its structural parent's. Attached, relative, and
// mirror edges are all descended, with the same loop bounding as [Traverse].
//
// The child lists must be z-sorted; the [Builder] guarantees that for every
// hierarchy it hands out.
func (n *Node) TraverseInZOrder(visitor Visitor) {
	n.traverseInZOrder(visitor, RootPath())
}

func (n *Node) traverseInZOrder(visitor Visitor, path TraversalPath) {
	if n.layer != nil && !visitor(n, path) {
		return
	}
	for _, e := range n.children {
		if e.Variant == VariantDetached {
			continue
		}
		child := path.child(e.Node.id, e.Variant)
		if child.HasRelZLoop() && path.HasRelZLoop() {
			continue
		}
		e.Node.traverseInZOrder(visitor, child)
	}
}

// FindRelZLoop walks the whole graph under n and returns the first relative
// root that was revisited along any path, reporting whether such a loop
// exists. This is a diagnostic query: the loop stays in the graph and other
// operations keep working around it.
func (n *Node) FindRelZLoop() (layer.ID, bool) {
	loop := layer.Unassigned
	n.Traverse(func(_ *Node, p TraversalPath) bool {
		if loop == layer.Unassigned && p.HasRelZLoop() {
			loop = p.InvalidRelativeRootID
		}
		return loop == layer.Unassigned
	})
	return loop, loop != layer.Unassigned
}
