// Package render turns a computed tree layout into drawable output.
//
// # Overview
//
// Rendering happens in two steps. [Build] derives a [Scene] from a
// [layout.Result]: one [Mark] per node, one [Link] per branch, the depth
// ruler of rectangular trees, and the placed color legends. A scene is
// independent of any output format and carries everything needed to draw
// the tree: node classes, label text and anchors, fills and strokes, leaf
// backgrounds and tooltips.
//
// Sinks in the [sink] subpackage consume a scene:
//
//	scene := render.Build(res, render.Options{Styler: styler, Table: table})
//	svg := sink.RenderSVG(scene, sink.WithTitle("tree"))
//	png, err := sink.RenderPNG(scene, sink.WithScale(2))
//
// The [nodelink] subpackage draws the bare topology through Graphviz.
//
// # Coordinates
//
// Scene coordinates are tree coordinates: rectangular trees put depth on
// the x axis and breadth on the y axis, radial trees are centered on the
// root. [Scene.Origin] moves the tree group inside the canvas so that the
// margins, labels and legends fit.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG through the external rsvg-convert
// tool (from librsvg). Without it, sink.RenderPDF embeds a raster of the
// scene in a PDF page instead.
//
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0) // 2x scale
//
// [layout.Result]: github.com/matzehuels/phylogram/pkg/layout.Result
// [sink]: github.com/matzehuels/phylogram/pkg/render/sink
// [nodelink]: github.com/matzehuels/phylogram/pkg/render/nodelink
package render
