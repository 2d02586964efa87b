package cli

import (
	"github.com/spf13/cobra"

	"github.com/lumenwm/lumen/pkg/errors"
	"github.com/lumenwm/lumen/pkg/pipeline"
)

// loopsCommand creates the loops command for relative z-order loop checks.
func (c *CLI) loopsCommand() *cobra.Command {
	var frames int

	cmd := &cobra.Command{
		Use:   "loops [scene]",
		Short: "Check a scene for relative z-order loops",
		Long: `Loops builds the hierarchy and checks whether any chain of relative
parents forms a cycle. Traversal always terminates even with loops
present; this command exists so scene authors can find and fix them.

Exits with a non-zero status when a loop is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(true)
			if err != nil {
				return err
			}

			result, err := runner.Execute(cmd.Context(), pipeline.Options{
				ScenePath: args[0],
				Frames:    frames,
				Formats:   []string{pipeline.FormatTree},
				Logger:    loggerFromContext(cmd.Context()),
			})
			if err != nil {
				return err
			}

			if result.HasLoop {
				printError("relative z-order loop involving layer %s", result.LoopLayer)
				return errors.New(errors.ErrCodeRelZLoop, "scene has a relative z-order loop (layer %s)", result.LoopLayer)
			}

			printSuccess("No relative z-order loops")
			printStats(result.Stats.LayerCount, result.Stats.NodeCount, result.Stats.FramesApplied, false)
			return nil
		},
	}

	cmd.Flags().IntVar(&frames, "frames", pipeline.AllFrames, "number of transaction frames to replay (-1 for all)")

	return cmd
}
