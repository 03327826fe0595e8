package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/pipeline"
	"github.com/matzehuels/phylogram/pkg/render/nodelink"
)

// graphvizCommand creates the graphviz command for node-link diagrams.
func (c *CLI) graphvizCommand() *cobra.Command {
	var (
		format  string
		output  string
		noCache bool
	)
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "graphviz [tree]",
		Short: "Draw the tree as a Graphviz node-link diagram",
		Long: `Draw the tree as a Graphviz node-link diagram.

Graphviz places the nodes itself, so branch lengths appear only as edge
labels. Leaves are colored by --leaf-color like the dendrogram. The dot
format writes the DOT source without running Graphviz; png and pdf need
rsvg-convert.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Tree = args[0]
			return c.runGraphviz(cmd.Context(), opts, format, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatSVG, "output format: svg, png, pdf, dot")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <tree>_graphviz.<format>)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&opts.MappingFile, "mapping", "m", "", "tab-separated leaf metadata file or URL")
	cmd.Flags().StringVar(&opts.LeafColorColumn, "leaf-color", "", "mapping column that colors leaves")
	cmd.Flags().BoolVar(&opts.SkipDistanceLabels, "skip-distance-labels", false, "omit branch length edge labels")
	cmd.Flags().Float64Var(&opts.PNGScale, "png-scale", opts.PNGScale, "PNG resolution multiplier")

	return cmd
}

func (c *CLI) runGraphviz(ctx context.Context, opts pipeline.Options, format, output string, noCache bool) error {
	switch format {
	case pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatPDF, pipeline.FormatDOT:
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "graphviz cannot write %q (use svg, png, pdf or dot)", format)
	}

	runner, err := c.newRunner(ctx, noCache, "")
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	in, err := runner.Load(ctx, opts)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	dot := nodelink.ToDOT(in.Tree, nodelink.Options{
		Lengths: !opts.SkipDistanceLabels,
		Styler:  pipeline.NewStyler(in, opts),
	})
	var data []byte
	switch format {
	case pipeline.FormatDOT:
		data = []byte(dot)
	case pipeline.FormatSVG:
		data, err = nodelink.RenderSVG(ctx, dot)
	case pipeline.FormatPNG:
		data, err = nodelink.RenderPNG(ctx, dot, opts.PNGScale)
	case pipeline.FormatPDF:
		data, err = nodelink.RenderPDF(ctx, dot)
	}
	if err != nil {
		return err
	}
	prog.done("rendered graphviz", "format", format, "bytes", len(data))

	if output == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if output == "" {
		output = basePath("", opts.Tree) + "_graphviz." + format
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}
	printSuccess("Rendered %s", format)
	printFile(output)
	return nil
}
