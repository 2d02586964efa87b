package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumenwm/lumen/pkg/pipeline"
)

// zorderCommand creates the zorder command for printing compositing order.
func (c *CLI) zorderCommand() *cobra.Command {
	var frames int

	cmd := &cobra.Command{
		Use:   "zorder [scene]",
		Short: "Print layers in compositing order, bottom to top",
		Long: `Zorder traverses the onscreen hierarchy in global z-order and prints
one layer per line, bottom to top. Layers reached through mirrors appear
once per mirror instance, annotated with the mirror path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(true)
			if err != nil {
				return err
			}

			result, err := runner.Execute(cmd.Context(), pipeline.Options{
				ScenePath: args[0],
				Frames:    frames,
				Formats:   []string{pipeline.FormatZOrder},
				Logger:    loggerFromContext(cmd.Context()),
			})
			if err != nil {
				return err
			}

			fmt.Print(string(result.Artifacts[pipeline.FormatZOrder]))

			if result.HasLoop {
				printWarning("relative z-order loop involving layer %s", result.LoopLayer)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&frames, "frames", pipeline.AllFrames, "number of transaction frames to replay (-1 for all)")

	return cmd
}
