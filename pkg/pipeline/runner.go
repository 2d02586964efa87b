package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lumenwm/lumen/pkg/cache"
	"github.com/lumenwm/lumen/pkg/errors"
	"github.com/lumenwm/lumen/pkg/hierarchy"
	"github.com/lumenwm/lumen/pkg/layer"
	"github.com/lumenwm/lumen/pkg/observability"
	"github.com/lumenwm/lumen/pkg/render/dot"
	"github.com/lumenwm/lumen/pkg/scene"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL bounds how long rendered artifacts stay cached.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultCacheTTL,
	}
}

// Execute runs the complete load → build → render pipeline with caching.
// Stage logs go to the per-call logger when one is set in opts, otherwise
// to the runner's logger.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := opts.Logger
	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Load
	loadStart := time.Now()
	s, raw, err := r.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Scene = s
	result.SceneHash = cache.Hash(raw)
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.LayerCount = len(s.Layers)

	logger.Info("loaded scene",
		"layers", len(s.Layers),
		"frames", len(s.Frames),
		"duration", result.Stats.LoadTime)

	// Stage 2: Build
	buildStart := time.Now()
	b, applied := r.Build(ctx, s, opts)
	result.Builder = b
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = b.NodeCount()
	result.Stats.FramesApplied = applied

	if id, found := b.Hierarchy().FindRelZLoop(); found {
		result.LoopLayer = id
		result.HasLoop = true
		logger.Warn("relative z-order loop detected", "layer", id)
	}

	logger.Info("built hierarchy",
		"nodes", b.NodeCount(),
		"frames_applied", applied,
		"duration", result.Stats.BuildTime)

	// Stage 3: Render
	renderStart := time.Now()
	hit, err := r.Render(ctx, result, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = hit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cache_hit", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads the scene from the configured source and returns it together
// with its raw serialized form (the input to the content hash).
func (r *Runner) Load(opts Options) (*scene.Scene, []byte, error) {
	if opts.SceneData != nil {
		s, err := scene.ReadScene(bytes.NewReader(opts.SceneData))
		if err != nil {
			return nil, nil, err
		}
		return s, opts.SceneData, nil
	}

	s, err := scene.ReadSceneFile(opts.ScenePath)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scene file %s", opts.ScenePath)
		}
		return nil, nil, err
	}
	raw, err := scene.MarshalScene(s)
	if err != nil {
		return nil, nil, err
	}
	return s, raw, nil
}

// Build constructs the hierarchy from the scene's base layer list, then
// replays the requested number of frames. Returns the builder and how many
// frames were applied.
func (r *Runner) Build(ctx context.Context, s *scene.Scene, opts Options) (*hierarchy.Builder, int) {
	observability.Pipeline().OnBuildStart(ctx, len(s.Layers))
	start := time.Now()

	b := hierarchy.New(s.States())

	n := opts.frameCount(s)
	for i, f := range s.Frames[:n] {
		b.Update(f.States(), f.DestroyedIDs())
		observability.Pipeline().OnFrameApplied(ctx, i, len(f.Changed), len(f.Destroyed))
	}

	observability.Pipeline().OnBuildComplete(ctx, b.NodeCount(), time.Since(start), nil)
	return b, n
}

// Render generates artifacts for every requested format, consulting the
// cache for graphviz-backed formats.
func (r *Runner) Render(ctx context.Context, result *Result, opts Options) (bool, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	allHit := true
	sawCacheable := false

	for _, format := range opts.Formats {
		if cacheableFormats[format] {
			sawCacheable = true
			data, hit, err := r.renderCached(ctx, result, format, opts)
			if err != nil {
				return false, fmt.Errorf("render %s: %w", format, err)
			}
			if !hit {
				allHit = false
			}
			result.Artifacts[format] = data
			continue
		}

		data, err := r.renderFormat(ctx, result, format, opts)
		if err != nil {
			return false, fmt.Errorf("render %s: %w", format, err)
		}
		result.Artifacts[format] = data
	}

	return sawCacheable && allHit, nil
}

func (r *Runner) renderCached(ctx context.Context, result *Result, format string, opts Options) ([]byte, bool, error) {
	key := r.Keyer.ArtifactKey(result.SceneHash, cache.ArtifactKeyOpts{
		Format: format,
		Frames: result.Stats.FramesApplied,
	})

	if !opts.Refresh {
		if data, found, err := r.Cache.Get(ctx, key); err == nil && found {
			observability.Cache().OnCacheHit(ctx, "artifact")
			opts.Logger.Debug("artifact cache hit", "format", format)
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	data, err := r.renderFormat(ctx, result, format, opts)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		// Cache failures must not fail the render.
		opts.Logger.Warn("artifact cache write failed", "format", format, "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}
	return data, false, nil
}

func (r *Runner) renderFormat(ctx context.Context, result *Result, format string, opts Options) ([]byte, error) {
	observability.Pipeline().OnRenderStart(ctx, format)
	start := time.Now()

	var data []byte
	var err error
	switch format {
	case FormatTree:
		data = []byte(result.Builder.DebugString())
	case FormatZOrder:
		data = zOrderText(result.Builder)
	case FormatDOT:
		data = []byte(dot.ToDOT(result.Builder, dotOptions(opts)))
	case FormatSVG:
		data, err = dot.RenderSVG(dot.ToDOT(result.Builder, dotOptions(opts)))
	case FormatPNG:
		data, err = dot.RenderPNG(dot.ToDOT(result.Builder, dotOptions(opts)))
	case FormatJSON:
		var flat scene.Scene
		if flat, err = result.Scene.Flatten(result.Stats.FramesApplied); err == nil {
			data, err = scene.MarshalScene(&flat)
		}
	default:
		err = ValidateFormat(format)
	}

	observability.Pipeline().OnRenderComplete(ctx, format, len(data), time.Since(start), err)
	return data, err
}

func dotOptions(opts Options) dot.Options {
	return dot.Options{ShowZ: opts.ShowZ, Offscreen: opts.Offscreen}
}

// zOrderText lists layers bottom to top, one per line. Mirrored instances
// are annotated with the mirror path so repeated ids stay distinguishable.
func zOrderText(b *hierarchy.Builder) []byte {
	var buf bytes.Buffer
	b.Hierarchy().TraverseInZOrder(func(n *hierarchy.Node, p hierarchy.TraversalPath) bool {
		if len(p.MirrorRootIDs) > 0 {
			fmt.Fprintf(&buf, "%s (via mirror %s)\n", n.ID(), mirrorPath(p.MirrorRootIDs))
		} else {
			fmt.Fprintf(&buf, "%s\n", n.ID())
		}
		return true
	})
	return buf.Bytes()
}

func mirrorPath(ids []layer.ID) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id.String()
	}
	return out
}
