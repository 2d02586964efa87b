// Package pipeline provides the core scene pipeline for lumen.
//
// This package implements the complete load → build → render pipeline that
// the CLI commands share. By centralizing this logic, we ensure consistent
// behavior across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read and validate the scene file
//  2. Build: Construct the layer hierarchy and replay transaction frames
//  3. Render: Generate output in various formats (tree, zorder, dot, svg, png, json)
//
// Graphviz-backed formats (svg, png) are cached by scene content hash and
// render options; text formats are cheap and always regenerated.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    ScenePath: "scene.json",
//	    Formats:   []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lumenwm/lumen/pkg/errors"
	"github.com/lumenwm/lumen/pkg/hierarchy"
	"github.com/lumenwm/lumen/pkg/layer"
	"github.com/lumenwm/lumen/pkg/scene"
)

// =============================================================================
// Defaults - Single Source of Truth for All Entry Points
// =============================================================================

const (
	// AllFrames selects every transaction frame in the scene.
	AllFrames = -1

	// DefaultCacheTTL is how long rendered artifacts stay cached.
	DefaultCacheTTL = 24 * time.Hour
)

// Format constants for output formats.
const (
	FormatTree   = "tree"
	FormatZOrder = "zorder"
	FormatDOT    = "dot"
	FormatSVG    = "svg"
	FormatPNG    = "png"
	FormatJSON   = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatTree:   true,
	FormatZOrder: true,
	FormatDOT:    true,
	FormatSVG:    true,
	FormatPNG:    true,
	FormatJSON:   true,
}

// cacheableFormats are the formats worth caching: they go through graphviz
// layout, which dominates pipeline runtime.
var cacheableFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: tree, zorder, dot, svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the scene pipeline.
type Options struct {
	// Load options. Exactly one of ScenePath and SceneData must be set.
	ScenePath string `json:"scene_path,omitempty"`
	SceneData []byte `json:"-"`

	// Build options. Frames is the number of transaction frames to replay:
	// 0 leaves the base scene untouched, AllFrames replays every frame.
	Frames int `json:"frames,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	ShowZ     bool     `json:"show_z,omitempty"`
	Offscreen bool     `json:"offscreen,omitempty"`
	Refresh   bool     `json:"refresh,omitempty"` // bypass the artifact cache

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.ScenePath == "" && o.SceneData == nil {
		return fmt.Errorf("scene path or scene data is required")
	}
	if o.ScenePath != "" && o.SceneData != nil {
		return fmt.Errorf("scene path and scene data are mutually exclusive")
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatTree}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// frameCount normalizes the Frames option against the scene's frame list.
func (o *Options) frameCount(s *scene.Scene) int {
	if o.Frames < 0 || o.Frames > len(s.Frames) {
		return len(s.Frames)
	}
	return o.Frames
}

// =============================================================================
// Result - Pipeline Outputs
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Scene is the loaded scene.
	Scene *scene.Scene

	// SceneHash is the content hash of the serialized scene.
	SceneHash string

	// Builder holds the constructed hierarchy after frame replay.
	Builder *hierarchy.Builder

	// LoopLayer is set when the hierarchy contains a relative z-order loop.
	LoopLayer layer.ID
	HasLoop   bool

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which artifacts hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LayerCount    int
	NodeCount     int
	FramesApplied int
	LoadTime      time.Duration
	BuildTime     time.Duration
	RenderTime    time.Duration
}

// CacheInfo tracks cache hits for rendered artifacts.
type CacheInfo struct {
	// RenderHit reports whether every cacheable artifact came from cache.
	RenderHit bool
}
