// Package layer defines the external layer record consumed by the hierarchy
// core.
//
// A layer is an opaque scene-graph entity owned and mutated entirely outside
// this module. The hierarchy only reads the linkage fields (parent, relative
// parent, mirror source), the z value used to order siblings, and the
// destroyed flag at update batch boundaries. Records are never copied or
// mutated by the core; nodes hold non-owning references so external changes
// are visible on every traversal path immediately.
package layer

import "fmt"

// ID identifies a layer. IDs are opaque, unique among live layers, and
// stable for the lifetime of the record.
type ID uint32

// Unassigned is the reserved sentinel for an absent layer id. It is never a
// valid layer id.
const Unassigned ID = ^ID(0)

// Valid reports whether the id is not the Unassigned sentinel.
func (id ID) Valid() bool { return id != Unassigned }

// String renders the id, or "none" for the Unassigned sentinel.
func (id ID) String() string {
	if id == Unassigned {
		return "none"
	}
	return fmt.Sprintf("%d", uint32(id))
}

// State is the flat description of a single layer. Optional linkage fields
// hold Unassigned when not set.
//
// The zero value is not usable as a record: its ID would be 0, which is a
// legal layer id. Use New to get a record with all optional ids cleared.
type State struct {
	ID               ID
	ParentID         ID // structural parent; Unassigned means a top-level layer
	RelativeParentID ID // layer whose z position this layer borrows
	MirrorFromID     ID // layer whose subtree this layer mirrors
	Z                int32
	Destroyed        bool
}

// New returns a State for id with every optional linkage field cleared.
func New(id ID) *State {
	return &State{
		ID:               id,
		ParentID:         Unassigned,
		RelativeParentID: Unassigned,
		MirrorFromID:     Unassigned,
	}
}

// HasParent reports whether the layer declares a structural parent.
func (s *State) HasParent() bool { return s.ParentID.Valid() }

// HasRelativeParent reports whether the layer declares a relative parent.
func (s *State) HasRelativeParent() bool { return s.RelativeParentID.Valid() }

// HasMirrorSource reports whether the layer mirrors another layer's subtree.
func (s *State) HasMirrorSource() bool { return s.MirrorFromID.Valid() }
