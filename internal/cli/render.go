package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumenwm/lumen/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string // output file path (or base path for multiple formats)
	formats   []string
	frames    int
	showZ     bool // include z values in node labels
	offscreen bool // include the offscreen hierarchy as a cluster
	noCache   bool // disable the artifact cache
	refresh   bool // bypass cached artifacts, re-render and overwrite
}

// renderCommand creates the render command for generating diagrams.
// SVG and PNG artifacts are cached by scene content hash; DOT is cheap
// and always regenerated.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [scene]",
		Short: "Render the layer hierarchy as a diagram",
		Long: `Render builds the layer hierarchy and draws it with graphviz.
Structural parent edges are solid, relative z-parent edges dashed, and
mirror edges dotted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if formatsStr == "" && c.Config.Format != "" {
				opts.formats = []string{c.Config.Format}
			}
			if err := validateRenderFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot (comma-separated)")
	cmd.Flags().IntVar(&opts.frames, "frames", pipeline.AllFrames, "number of transaction frames to replay (-1 for all)")
	cmd.Flags().BoolVar(&opts.showZ, "show-z", c.Config.ShowZ, "include z values in node labels")
	cmd.Flags().BoolVar(&opts.offscreen, "offscreen", c.Config.Offscreen, "include the offscreen hierarchy")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when a cached artifact exists")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, scenePath string, opts *renderOpts) error {
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	result, err := runner.Execute(cmd.Context(), pipeline.Options{
		ScenePath: scenePath,
		Frames:    opts.frames,
		Formats:   opts.formats,
		ShowZ:     opts.showZ,
		Offscreen: opts.offscreen,
		Refresh:   opts.refresh,
		Logger:    loggerFromContext(cmd.Context()),
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d format(s)", len(opts.formats)))

	if result.HasLoop {
		printWarning("relative z-order loop involving layer %s", result.LoopLayer)
	}

	printSuccess("Rendered %s", filepath.Base(scenePath))
	for _, format := range opts.formats {
		path := outputPath(scenePath, opts.output, format, len(opts.formats) > 1)
		if err := os.WriteFile(path, result.Artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(result.Stats.LayerCount, result.Stats.NodeCount, result.Stats.FramesApplied, result.CacheInfo.RenderHit)

	return nil
}

// outputPath decides where an artifact lands. With an explicit output and a
// single format the path is used verbatim; otherwise the format extension is
// appended to the output base or the scene file stem.
func outputPath(scenePath, output, format string, multi bool) string {
	if output != "" && !multi {
		return output
	}
	base := output
	if base == "" {
		base = strings.TrimSuffix(scenePath, filepath.Ext(scenePath))
	}
	return base + "." + format
}

// validateRenderFormats restricts render to diagram formats; text listings
// have their own commands.
func validateRenderFormats(formats []string) error {
	for _, f := range formats {
		switch f {
		case pipeline.FormatDOT, pipeline.FormatSVG, pipeline.FormatPNG:
		default:
			return fmt.Errorf("invalid render format: %q (must be one of: dot, svg, png)", f)
		}
	}
	return nil
}
