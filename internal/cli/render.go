package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/phylogram/pkg/pipeline"
)

// renderFlags are the render command flags outside pipeline.Options.
type renderFlags struct {
	output  string
	formats string
	config  string
	redis   string
	noCache bool
	watch   bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "render [tree]",
		Short: "Render a Newick tree to SVG, PNG, PDF, JSON or DOT",
		Long: `Render a Newick tree.

The tree is read from a file or an http(s) URL. A tab-separated mapping file
(--mapping) colors leaves (--leaf-color) and their backgrounds
(--background-color) by metadata column; missing or broken mappings only
produce a warning.

Options may also come from a TOML or YAML file (--config); flags win over the
file. With --watch the tree and mapping files are re-read and the outputs
rewritten on every change.

Layouts and artifacts are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConfig(cmd, flags.config, &opts); err != nil {
				return err
			}
			opts.Tree = args[0]
			if flags.formats != "" {
				opts.Formats = pipeline.ParseFormats(flags.formats)
			}
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if flags.watch {
				return c.runWatch(cmd.Context(), opts, flags)
			}
			return c.runRender(cmd.Context(), opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot (comma-separated)")
	cmd.Flags().StringVar(&flags.config, "config", "", "options file (.toml, .yaml)")
	cmd.Flags().StringVar(&flags.redis, "redis", "", "redis URL for a shared cache")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-fetch URLs and recompute cached layouts")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "re-render when the tree or mapping file changes")
	addLayoutFlags(cmd, &opts)
	addStyleFlags(cmd, &opts)

	return cmd
}

// runRender runs the pipeline once and writes one file per format.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, flags renderFlags) error {
	runner, err := c.newRunner(ctx, flags.noCache, flags.redis)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Rendering "+opts.Source()+"...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	for _, w := range result.Input.Warnings {
		printWarning("%v", w)
	}
	if err := writeArtifacts(result.Artifacts, opts.Formats, opts.Tree, flags.output); err != nil {
		return err
	}
	printStats(result.Stats.LeafCount, result.Stats.NodeCount, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	return nil
}

// writeArtifacts writes each rendered format next to the input, or to the
// path named by output.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) error {
	if output == "-" {
		if len(formats) != 1 {
			return fmt.Errorf("stdout output needs exactly one format, got %s", strings.Join(formats, ","))
		}
		_, err := os.Stdout.Write(artifacts[formats[0]])
		return err
	}
	printSuccess("Render complete")
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		path := outputPath(output, input, format, len(formats))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput opens path for writing, or stdout when path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
