// Package hierarchy builds and traverses the compositor's layer hierarchy.
//
// # Overview
//
// The hierarchy is derived every frame from a flat collection of
// [layer.State] records, each naming its structural parent, an optional
// relative parent, and an optional mirror source. The result is a graph, not
// a tree: a node can be visited through multiple parents. The label on each
// parent→child edge (the [Variant]) records why that edge exists:
//
//   - [VariantAttached]: a normal structural child
//   - [VariantDetached]: a structural child currently relative-parented
//     elsewhere, excluded from the z-order walk
//   - [VariantRelative]: a child reached through its relative parent
//   - [VariantMirror]: a child that is the root of another node's subtree,
//     referenced without cloning
//
// Representing mirrors as plain edges keeps a mirrored subtree and its
// original in sync for free: both paths land on the same [Node], so any
// external mutation of the backing layer record is visible everywhere
// immediately.
//
// # Building
//
// [New] constructs the graph from a flat layer list, and [Builder.Update]
// reconciles it incrementally as layers are added, changed, or destroyed.
// The builder owns every node and maintains two permanent synthetic roots:
// the attached hierarchy consumed by composition ([Builder.Hierarchy]) and
// an offscreen hierarchy for layers whose declared parent does not currently
// resolve ([Builder.OffscreenHierarchy]).
//
//	b := hierarchy.New(layers)
//	b.Update(changed, destroyedIDs)
//	b.Hierarchy().TraverseInZOrder(func(n *hierarchy.Node, p hierarchy.TraversalPath) bool {
//	    draw(n.Layer(), p)
//	    return true
//	})
//
// # Traversal identity
//
// Because a node can be reached along several paths, a visit is identified
// by a [TraversalPath] rather than by the node alone. Two paths are the same
// visual instance iff their node id and mirror ancestry match; the variant
// and relative ancestry are deliberately excluded from identity.
//
// # Relative z loops
//
// A misbehaving client can relative-parent two layers to each other. The
// graph is allowed to contain such cycles; traversal detects them with the
// path's relative-root bookkeeping, bounds its own recursion, and reports
// the offending layer through [Node.FindRelZLoop] so an external policy can
// decide what to exclude from composition.
package hierarchy
