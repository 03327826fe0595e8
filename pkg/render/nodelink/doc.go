// Package nodelink draws the topology of a tree as a Graphviz node-link
// diagram.
//
// Edges run from the root on the left towards the leaves. Branch lengths
// are ignored for placement and can be shown as edge labels. Leaves are
// filled with their metadata color when a [color.Styler] is given.
//
//	dot := nodelink.ToDOT(t, nodelink.Options{Lengths: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [color.Styler]: github.com/matzehuels/phylogram/pkg/color.Styler
package nodelink
