package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/phylogram/pkg/color"
	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/render"
	"github.com/matzehuels/phylogram/pkg/tree"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Lengths labels every edge with its branch length.
	Lengths bool
	// Styler colors leaves; nil uses the fallback colors.
	Styler *color.Styler
}

// ToDOT converts a tree to Graphviz DOT format, root on the left.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
//
// Unnamed internal nodes are drawn as points.
func ToDOT(t *tree.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph T {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fillcolor=white, fontsize=10, fontname=\"sans-serif\"];\n")
	buf.WriteString("  edge [arrowhead=none, color=\"#aaaaaa\", fontsize=8];\n")
	buf.WriteString("\n")

	ids := make(map[*tree.Node]string, t.Len())
	for i, n := range t.Nodes() {
		ids[n] = "n" + strconv.Itoa(i)
		fmt.Fprintf(&buf, "  %s [%s];\n", ids[n], strings.Join(fmtAttrs(n, opts.Styler), ", "))
	}

	buf.WriteString("\n")
	for _, l := range t.Links() {
		attrs := ""
		if opts.Lengths && l.Target.HasLength {
			attrs = fmt.Sprintf(" [label=%q]", render.FormatLength(l.Target.Length))
		}
		fmt.Fprintf(&buf, "  %s -> %s%s;\n", ids[l.Source], ids[l.Target], attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtAttrs(n *tree.Node, s *color.Styler) []string {
	if !n.IsLeaf() {
		if n.Name == "" {
			return []string{`label=""`, "shape=point", "width=0.05"}
		}
		return []string{fmt.Sprintf("label=%q", n.Name), "shape=plaintext", `style=""`}
	}
	st := s.Leaf(n.Name)
	attrs := []string{
		fmt.Sprintf("label=%q", n.Name),
		fmt.Sprintf("fillcolor=%q", st.Fill),
		fmt.Sprintf("color=%q", st.Stroke),
	}
	if st.Mapped {
		attrs = append(attrs, fmt.Sprintf("fontcolor=%q", color.TextOn(st.Fill)))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDFContext(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
