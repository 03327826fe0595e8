package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/phylogram/pkg/pipeline"
	"github.com/matzehuels/phylogram/pkg/render/sink"
)

// layoutCommand creates the layout command for printing computed
// coordinates.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "layout [tree]",
		Short: "Compute a tree layout and print it as JSON",
		Long: `Compute a tree layout and print it as JSON.

Every node is listed with its parent, branch length, root distance and both
the raw clustering coordinates (breadth, depth) and the scaled position
(x, y). With --mapping the leaf metadata is included.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Tree = args[0]
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&opts.MappingFile, "mapping", "m", "", "tab-separated leaf metadata file or URL")
	addLayoutFlags(cmd, &opts)

	return cmd
}

// runLayout loads the tree, computes the layout, and writes its JSON.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache, "")
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	opts.SetDefaults()
	if err := opts.ValidateForLayout(); err != nil {
		return err
	}

	in, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}
	prog := newProgress(c.Logger)
	res, hit, err := runner.LayoutWithCacheInfo(ctx, in, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	prog.done("computed layout", "type", opts.TreeType, "cached", hit)

	data, err := sink.RenderJSON(res, nil, sink.WithIndent(), sink.WithMetadata(in.Table))
	if err != nil {
		return err
	}

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(append(data, '\n')); err != nil {
		return err
	}
	if output != "" {
		printSuccess("Layout complete")
		printFile(output)
		printStats(len(in.Tree.Leaves()), in.Tree.Len(), hit)
		printNewline()
		printNextStep("Render", appName+" render "+opts.Tree)
	}
	return nil
}
