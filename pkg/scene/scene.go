package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Scene Serialization API
// =============================================================================

// MarshalScene converts a scene to JSON bytes.
func MarshalScene(s *Scene) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeSceneTo(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalScene decodes a scene from JSON bytes and validates it.
func UnmarshalScene(data []byte) (*Scene, error) {
	return readSceneFrom(bytes.NewReader(data))
}

// WriteSceneFile writes a scene to a JSON file.
// The file is created with 0644 permissions.
func WriteSceneFile(s *Scene, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeSceneTo(s, f)
}

// WriteScene writes a scene as JSON to an io.Writer.
// Use MarshalScene for in-memory serialization or WriteSceneFile for files.
func WriteScene(s *Scene, w io.Writer) error {
	return writeSceneTo(s, w)
}

// ReadSceneFile reads a JSON file and returns the decoded, validated scene.
func ReadSceneFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readSceneFrom(f)
}

// ReadScene decodes a JSON scene from an io.Reader and validates it.
// Use ReadSceneFile for files or pass bytes.NewReader for in-memory data.
func ReadScene(r io.Reader) (*Scene, error) {
	return readSceneFrom(r)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeSceneTo(s *Scene, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readSceneFrom(r io.Reader) (*Scene, error) {
	var s Scene
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
