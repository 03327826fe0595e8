package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/phylogram/pkg/pipeline"
)

// addLayoutFlags binds the options that change the layout.
func addLayoutFlags(cmd *cobra.Command, opts *pipeline.Options) {
	f := cmd.Flags()
	f.StringVarP(&opts.TreeType, "type", "t", opts.TreeType, "tree type: rectangular (default), radial")
	f.BoolVar(&opts.SkipBranchLengthScaling, "skip-branch-lengths", opts.SkipBranchLengthScaling, "ignore branch lengths and place nodes by depth")
	f.Float64Var(&opts.MinLeafSeparation, "min-separation", opts.MinLeafSeparation, "minimum distance between adjacent leaves (rectangular)")
	f.Float64Var(&opts.Width, "width", opts.Width, "layout width")
	f.Float64Var(&opts.Height, "height", opts.Height, "layout height")
}

// addStyleFlags binds the options that change rendering but not layout.
func addStyleFlags(cmd *cobra.Command, opts *pipeline.Options) {
	f := cmd.Flags()
	f.StringVarP(&opts.MappingFile, "mapping", "m", "", "tab-separated leaf metadata file or URL")
	f.Float64Var(&opts.LeafRadius, "leaf-radius", opts.LeafRadius, "leaf circle radius")
	f.BoolVar(&opts.SkipLabels, "skip-labels", false, "hide node labels")
	f.BoolVar(&opts.SkipDistanceLabels, "skip-distance-labels", false, "hide branch lengths in labels")
	f.BoolVar(&opts.HideRuler, "hide-ruler", false, "hide the distance ruler")
	f.StringVar(&opts.LeafColorColumn, "leaf-color", "", "metadata column coloring the leaves")
	f.StringVar(&opts.BackgroundColorColumn, "background-color", "", "metadata column coloring the leaf backgrounds")
	f.StringVar(&opts.Title, "title", "", "document title")
	f.Float64Var(&opts.PNGScale, "png-scale", opts.PNGScale, "PNG resolution multiplier")
}
