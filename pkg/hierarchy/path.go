package hierarchy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lumenwm/lumen/pkg/layer"
)

// TraversalPath identifies one specific path-instance of a node during a
// walk. The same node reached through two different mirror ancestries is two
// distinct visual instances; reached through the same mirror ancestry it is
// the same instance no matter which edge variant led to it last, so [Equal]
// compares only the node id and the mirror roots.
//
// Paths are values: descending an edge produces a new path owning its own
// root slices, so no bookkeeping is needed on the way back up a traversal,
// however the recursion exits.
type TraversalPath struct {
	// ID is the layer id of the node this path lands on.
	ID layer.ID
	// Variant is the label of the edge used to reach the node on this path.
	Variant Variant
	// MirrorRootIDs lists the mirroring nodes crossed on the way here,
	// outermost first. Mirror nesting is shallow in practice.
	MirrorRootIDs []layer.ID
	// RelativeRootIDs lists the relative parents crossed on the way here.
	// A repeated entry means two layers are relative-parented to each other
	// somewhere along this path.
	RelativeRootIDs []layer.ID
	// InvalidRelativeRootID holds the first relative root seen twice while
	// extending this path, or [layer.Unassigned] when the path is loop-free.
	// Once armed it is never overwritten: the first detected loop wins.
	InvalidRelativeRootID layer.ID
}

// RootPath returns the traversal path for the synthetic root, from which
// every walk starts.
func RootPath() TraversalPath {
	return TraversalPath{
		ID:                    layer.Unassigned,
		Variant:               VariantAttached,
		InvalidRelativeRootID: layer.Unassigned,
	}
}

// HasRelZLoop reports whether a relative-parent loop was detected while
// building this path.
func (p TraversalPath) HasRelZLoop() bool { return p.InvalidRelativeRootID != layer.Unassigned }

// IsRelative reports whether any relative edge was crossed on this path.
func (p TraversalPath) IsRelative() bool { return len(p.RelativeRootIDs) > 0 }

// Equal reports whether two paths identify the same visual instance: same
// node reached through the same mirror ancestry. Variant and relative roots
// are deliberately excluded.
func (p TraversalPath) Equal(other TraversalPath) bool {
	return p.ID == other.ID && slices.Equal(p.MirrorRootIDs, other.MirrorRootIDs)
}

// child extends the path down an edge to the node with the given id. A
// mirror edge records the current node as a mirror root; a relative edge
// records the current node as a relative root and arms the loop sentinel if
// that root was already on the path.
func (p TraversalPath) child(id layer.ID, variant Variant) TraversalPath {
	c := p
	c.ID = id
	c.Variant = variant
	c.MirrorRootIDs = slices.Clone(p.MirrorRootIDs)
	c.RelativeRootIDs = slices.Clone(p.RelativeRootIDs)
	switch variant {
	case VariantMirror:
		c.MirrorRootIDs = append(c.MirrorRootIDs, p.ID)
	case VariantRelative:
		if !c.HasRelZLoop() && slices.Contains(c.RelativeRootIDs, p.ID) {
			c.InvalidRelativeRootID = p.ID
		}
		c.RelativeRootIDs = append(c.RelativeRootIDs, p.ID)
	}
	return c
}

// String renders the path for diagnostics, e.g. "3(mirror)[mirrors:4]".
// The layout is not a compatibility surface.
func (p TraversalPath) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s)", p.ID, p.Variant)
	if len(p.MirrorRootIDs) > 0 {
		fmt.Fprintf(&b, "[mirrors:%s]", joinIDs(p.MirrorRootIDs))
	}
	if len(p.RelativeRootIDs) > 0 {
		fmt.Fprintf(&b, "[relatives:%s]", joinIDs(p.RelativeRootIDs))
	}
	if p.HasRelZLoop() {
		fmt.Fprintf(&b, "[loop:%s]", p.InvalidRelativeRootID)
	}
	return b.String()
}

func joinIDs(ids []layer.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}
