package scene

import (
	"bytes"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/lumenwm/lumen/pkg/errors"
	"github.com/lumenwm/lumen/pkg/hierarchy"
	"github.com/lumenwm/lumen/pkg/layer"
)

func ref(v uint32) *uint32 { return &v }

func TestLayerStateRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		wire Layer
	}{
		{"Minimal", Layer{ID: 1}},
		{"WithParent", Layer{ID: 2, Parent: ref(1), Z: -3}},
		{"AllLinks", Layer{ID: 3, Parent: ref(1), RelativeParent: ref(2), MirrorOf: ref(1), Z: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromState(tt.wire.State())
			if !reflect.DeepEqual(got, tt.wire) {
				t.Errorf("round trip = %+v, want %+v", got, tt.wire)
			}
		})
	}
}

func TestLayerStateUnsetLinks(t *testing.T) {
	s := Layer{ID: 5}.State()
	if s.ParentID.Valid() || s.RelativeParentID.Valid() || s.MirrorFromID.Valid() {
		t.Errorf("unset wire fields must map to unassigned ids, got %+v", s)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		scene    Scene
		wantCode errors.Code
	}{
		{
			name:  "Valid",
			scene: Scene{Layers: []Layer{{ID: 1}, {ID: 2, Parent: ref(1)}}},
		},
		{
			name:  "DanglingParentAllowed",
			scene: Scene{Layers: []Layer{{ID: 1, Parent: ref(99)}}},
		},
		{
			name:     "DuplicateID",
			scene:    Scene{Layers: []Layer{{ID: 1}, {ID: 1}}},
			wantCode: errors.ErrCodeInvalidScene,
		},
		{
			name:     "ReservedID",
			scene:    Scene{Layers: []Layer{{ID: uint32(layer.Unassigned)}}},
			wantCode: errors.ErrCodeInvalidLayer,
		},
		{
			name: "ReservedIDInFrame",
			scene: Scene{
				Layers: []Layer{{ID: 1}},
				Frames: []Frame{{Changed: []Layer{{ID: uint32(layer.Unassigned)}}}},
			},
			wantCode: errors.ErrCodeInvalidFrame,
		},
		{
			name: "ChangedAndDestroyedOverlap",
			scene: Scene{
				Layers: []Layer{{ID: 1}},
				Frames: []Frame{{Changed: []Layer{{ID: 2}}, Destroyed: []uint32{2}}},
			},
			wantCode: errors.ErrCodeInvalidFrame,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scene.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("error code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	in := &Scene{
		Layers: []Layer{
			{ID: 1},
			{ID: 2, Parent: ref(1)},
			{ID: 3, Parent: ref(1), Z: -1},
		},
		Frames: []Frame{
			{Changed: []Layer{{ID: 4, MirrorOf: ref(1)}}},
			{Destroyed: []uint32{2}},
		},
	}

	var buf bytes.Buffer
	if err := WriteScene(in, &buf); err != nil {
		t.Fatalf("WriteScene() error: %v", err)
	}
	out, err := ReadScene(&buf)
	if err != nil {
		t.Fatalf("ReadScene() error: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}

	data, err := MarshalScene(in)
	if err != nil {
		t.Fatalf("MarshalScene() error: %v", err)
	}
	out2, err := UnmarshalScene(data)
	if err != nil {
		t.Fatalf("UnmarshalScene() error: %v", err)
	}
	if !reflect.DeepEqual(in, out2) {
		t.Errorf("byte round trip mismatch:\n in: %+v\nout: %+v", in, out2)
	}
}

func TestReadSceneRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"MalformedJSON", `{"layers": [`},
		{"DuplicateID", `{"layers": [{"id": 1}, {"id": 1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadScene(strings.NewReader(tt.json)); err == nil {
				t.Error("ReadScene() = nil error, want error")
			}
		})
	}
}

func TestSceneFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.json")
	in := &Scene{Layers: []Layer{{ID: 1}, {ID: 2, Parent: ref(1)}}}

	if err := WriteSceneFile(in, path); err != nil {
		t.Fatalf("WriteSceneFile() error: %v", err)
	}
	out, err := ReadSceneFile(path)
	if err != nil {
		t.Fatalf("ReadSceneFile() error: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("file round trip mismatch: %+v vs %+v", in, out)
	}
}

func TestBuildAndApply(t *testing.T) {
	s := &Scene{
		Layers: []Layer{
			{ID: 1},
			{ID: 2, Parent: ref(1)},
			{ID: 3, Parent: ref(1), Z: -1},
		},
		Frames: []Frame{
			{Changed: []Layer{{ID: 4, Parent: ref(1), Z: 5}}},
			{Destroyed: []uint32{2}},
		},
	}

	b, err := s.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if got := zOrderIDs(b); !reflect.DeepEqual(got, []layer.ID{1, 3, 2}) {
		t.Errorf("initial z-order = %v, want [1 3 2]", got)
	}

	if n := s.Apply(b, 1); n != 1 {
		t.Fatalf("Apply(1) = %d, want 1", n)
	}
	if got := zOrderIDs(b); !reflect.DeepEqual(got, []layer.ID{1, 3, 2, 4}) {
		t.Errorf("after frame 1 z-order = %v, want [1 3 2 4]", got)
	}

	b2, err := s.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if n := s.Apply(b2, -1); n != 2 {
		t.Fatalf("Apply(-1) = %d, want 2", n)
	}
	if got := zOrderIDs(b2); !reflect.DeepEqual(got, []layer.ID{1, 3, 4}) {
		t.Errorf("after all frames z-order = %v, want [1 3 4]", got)
	}
}

func TestFlatten(t *testing.T) {
	s := &Scene{
		Layers: []Layer{{ID: 2, Parent: ref(1)}, {ID: 1}},
		Frames: []Frame{
			{Changed: []Layer{{ID: 3, Parent: ref(1)}, {ID: 2, Parent: ref(1), Z: 9}}},
			{Destroyed: []uint32{3}},
		},
	}

	flat, err := s.Flatten(-1)
	if err != nil {
		t.Fatalf("Flatten() error: %v", err)
	}
	want := Scene{Layers: []Layer{{ID: 1}, {ID: 2, Parent: ref(1), Z: 9}}}
	if !reflect.DeepEqual(flat, want) {
		t.Errorf("Flatten(-1) = %+v, want %+v", flat, want)
	}

	partial, err := s.Flatten(0)
	if err != nil {
		t.Fatalf("Flatten() error: %v", err)
	}
	if len(partial.Layers) != 2 || partial.Layers[0].ID != 1 {
		t.Errorf("Flatten(0) = %+v, want sorted original layers", partial)
	}
	if partial.Frames != nil {
		t.Errorf("Flatten() must not carry frames, got %v", partial.Frames)
	}
}

func zOrderIDs(b *hierarchy.Builder) []layer.ID {
	var ids []layer.ID
	b.Hierarchy().TraverseInZOrder(func(n *hierarchy.Node, _ hierarchy.TraversalPath) bool {
		ids = append(ids, n.ID())
		return true
	})
	return ids
}
