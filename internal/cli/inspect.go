package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumenwm/lumen/pkg/errors"
	"github.com/lumenwm/lumen/pkg/layer"
	"github.com/lumenwm/lumen/pkg/pipeline"
)

// inspectCommand creates the inspect command for printing hierarchies.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		frames       int
		offscreen    bool
		rootID       uint32
		childrenOnly bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [scene]",
		Short: "Print the layer hierarchy as an indented tree",
		Long: `Inspect builds the layer hierarchy from a scene file, replays the
requested number of transaction frames, and prints the attached tree with
z values and edge variants. Use --offscreen to include detached layers,
or --root to print the subtree rooted at a single layer.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if childrenOnly && !cmd.Flags().Changed("root") {
				return fmt.Errorf("--children-only requires --root")
			}

			runner, err := c.newRunner(true)
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			result, err := runner.Execute(cmd.Context(), pipeline.Options{
				ScenePath: args[0],
				Frames:    frames,
				Logger:    loggerFromContext(cmd.Context()),
			})
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Built hierarchy with %d nodes", result.Stats.NodeCount))

			if cmd.Flags().Changed("root") {
				node, err := result.Builder.PartialHierarchy(layer.ID(rootID), childrenOnly)
				if err != nil {
					return errors.Wrap(errors.ErrCodeLayerNotFound, err, "layer %d", rootID)
				}
				fmt.Println(StyleTitle.Render(fmt.Sprintf("Subtree of layer %d", rootID)))
				fmt.Print(node.DebugString())
			} else {
				fmt.Println(StyleTitle.Render("Hierarchy"))
				fmt.Print(result.Builder.Hierarchy().DebugString())
				if offscreen {
					fmt.Println(StyleTitle.Render("Offscreen"))
					fmt.Print(result.Builder.OffscreenHierarchy().DebugString())
				}
			}
			printStats(result.Stats.LayerCount, result.Stats.NodeCount, result.Stats.FramesApplied, false)

			if result.HasLoop {
				printWarning("relative z-order loop involving layer %s", result.LoopLayer)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&frames, "frames", pipeline.AllFrames, "number of transaction frames to replay (-1 for all)")
	cmd.Flags().BoolVar(&offscreen, "offscreen", false, "also print the offscreen hierarchy")
	cmd.Flags().Uint32Var(&rootID, "root", 0, "print only the subtree rooted at this layer id")
	cmd.Flags().BoolVar(&childrenOnly, "children-only", false, "with --root, omit the root layer itself")

	return cmd
}
