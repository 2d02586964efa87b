package scene

import (
	"slices"

	"github.com/lumenwm/lumen/pkg/errors"
	"github.com/lumenwm/lumen/pkg/hierarchy"
	"github.com/lumenwm/lumen/pkg/layer"
)

// =============================================================================
// Scene - Canonical Serialization Format
// =============================================================================

// Scene is the canonical serialization format for layer scenes. It carries
// the flat layer list a hierarchy is built from, plus optional per-frame
// transaction batches that can be replayed against the builder.
//
// The format is human-readable and designed for round-trip fidelity:
// read → build → apply → write → re-read produces identical results.
type Scene struct {
	Layers []Layer `json:"layers"`
	Frames []Frame `json:"frames,omitempty"`
}

// Layer is the wire form of a single layer record. Optional linkage fields
// are absent from the JSON when unset.
type Layer struct {
	ID             uint32  `json:"id"`
	Parent         *uint32 `json:"parent,omitempty"`
	RelativeParent *uint32 `json:"relative_parent,omitempty"`
	MirrorOf       *uint32 `json:"mirror_of,omitempty"`
	Z              int32   `json:"z,omitempty"`
}

// Frame is one transaction batch: records that were added or changed, and
// ids of destroyed layers. The two sets are disjoint.
type Frame struct {
	Changed   []Layer  `json:"changed,omitempty"`
	Destroyed []uint32 `json:"destroyed,omitempty"`
}

// =============================================================================
// Wire ↔ layer.State Conversion
// =============================================================================

// State converts the wire layer to a fresh layer record.
func (l Layer) State() *layer.State {
	s := layer.New(layer.ID(l.ID))
	s.Z = l.Z
	s.ParentID = optionalID(l.Parent)
	s.RelativeParentID = optionalID(l.RelativeParent)
	s.MirrorFromID = optionalID(l.MirrorOf)
	return s
}

// FromState converts a layer record to its wire form.
func FromState(s *layer.State) Layer {
	return Layer{
		ID:             uint32(s.ID),
		Parent:         optionalRef(s.ParentID),
		RelativeParent: optionalRef(s.RelativeParentID),
		MirrorOf:       optionalRef(s.MirrorFromID),
		Z:              s.Z,
	}
}

func optionalID(v *uint32) layer.ID {
	if v == nil {
		return layer.Unassigned
	}
	return layer.ID(*v)
}

func optionalRef(id layer.ID) *uint32 {
	if !id.Valid() {
		return nil
	}
	v := uint32(id)
	return &v
}

// States converts the scene's flat layer list to layer records.
func (s *Scene) States() []*layer.State {
	states := make([]*layer.State, len(s.Layers))
	for i, l := range s.Layers {
		states[i] = l.State()
	}
	return states
}

// States converts the frame's changed list to layer records.
func (f Frame) States() []*layer.State {
	states := make([]*layer.State, len(f.Changed))
	for i, l := range f.Changed {
		states[i] = l.State()
	}
	return states
}

// DestroyedIDs converts the frame's destroyed list to layer ids.
func (f Frame) DestroyedIDs() []layer.ID {
	ids := make([]layer.ID, len(f.Destroyed))
	for i, v := range f.Destroyed {
		ids[i] = layer.ID(v)
	}
	return ids
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks the scene for structural problems the hierarchy core
// cannot represent: duplicate layer ids, the reserved sentinel id, and
// frames whose changed and destroyed sets overlap. Dangling parent,
// relative-parent, or mirror references are legal — the builder parks or
// skips them — so they are not validation errors.
func (s *Scene) Validate() error {
	seen := make(map[uint32]struct{}, len(s.Layers))
	for _, l := range s.Layers {
		if layer.ID(l.ID) == layer.Unassigned {
			return errors.New(errors.ErrCodeInvalidLayer, "layer id %d is reserved", l.ID)
		}
		if _, dup := seen[l.ID]; dup {
			return errors.New(errors.ErrCodeInvalidScene, "duplicate layer id %d", l.ID)
		}
		seen[l.ID] = struct{}{}
	}

	for i, f := range s.Frames {
		for _, l := range f.Changed {
			if layer.ID(l.ID) == layer.Unassigned {
				return errors.New(errors.ErrCodeInvalidFrame, "frame %d: layer id %d is reserved", i, l.ID)
			}
			if slices.Contains(f.Destroyed, l.ID) {
				return errors.New(errors.ErrCodeInvalidFrame,
					"frame %d: layer %d both changed and destroyed", i, l.ID)
			}
		}
	}
	return nil
}

// =============================================================================
// Building and Replaying
// =============================================================================

// Build validates the scene and constructs a hierarchy builder from its
// flat layer list. Frames are not applied; use [Scene.Apply].
func (s *Scene) Build() (*hierarchy.Builder, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return hierarchy.New(s.States()), nil
}

// Apply replays the first n frames against the builder (all frames when n
// is negative or exceeds the frame count) and returns how many were applied.
func (s *Scene) Apply(b *hierarchy.Builder, n int) int {
	if n < 0 || n > len(s.Frames) {
		n = len(s.Frames)
	}
	for _, f := range s.Frames[:n] {
		b.Update(f.States(), f.DestroyedIDs())
	}
	return n
}

// Flatten returns a new scene whose layer list reflects the first n frames
// applied to the original list (all frames when n is negative), with no
// remaining frames. Layers are ordered by id for deterministic output.
func (s *Scene) Flatten(n int) (Scene, error) {
	if err := s.Validate(); err != nil {
		return Scene{}, err
	}
	if n < 0 || n > len(s.Frames) {
		n = len(s.Frames)
	}

	byID := make(map[uint32]Layer, len(s.Layers))
	for _, l := range s.Layers {
		byID[l.ID] = l
	}
	for _, f := range s.Frames[:n] {
		for _, l := range f.Changed {
			byID[l.ID] = l
		}
		for _, id := range f.Destroyed {
			delete(byID, id)
		}
	}

	out := Scene{Layers: make([]Layer, 0, len(byID))}
	for _, l := range byID {
		out.Layers = append(out.Layers, l)
	}
	slices.SortFunc(out.Layers, func(a, b Layer) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out, nil
}
