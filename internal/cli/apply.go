package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenwm/lumen/pkg/pipeline"
)

// applyCommand creates the apply command for frame replay.
func (c *CLI) applyCommand() *cobra.Command {
	var frames int
	var output string

	cmd := &cobra.Command{
		Use:   "apply [scene]",
		Short: "Replay transaction frames and write the flattened scene",
		Long: `Apply replays the requested number of transaction frames against the
scene's base layer list and writes the resulting flat scene as JSON.
The output has no remaining frames and can be fed back to any command.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(true)
			if err != nil {
				return err
			}

			result, err := runner.Execute(cmd.Context(), pipeline.Options{
				ScenePath: args[0],
				Frames:    frames,
				Formats:   []string{pipeline.FormatJSON},
				Logger:    loggerFromContext(cmd.Context()),
			})
			if err != nil {
				return err
			}

			data := result.Artifacts[pipeline.FormatJSON]
			if output == "" {
				fmt.Print(string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}

			printSuccess("Applied %d frame(s)", result.Stats.FramesApplied)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().IntVar(&frames, "frames", pipeline.AllFrames, "number of transaction frames to replay (-1 for all)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}
