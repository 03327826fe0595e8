package sink

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/phylogram/pkg/color"
	"github.com/matzehuels/phylogram/pkg/layout"
	"github.com/matzehuels/phylogram/pkg/render"
)

const treeCSS = `
    .link { fill: none; stroke: #aaa; stroke-width: 1px; }
    line.rule { stroke: #ddd; stroke-width: 1px; }
    text.rule { fill: #888; }
    .node text, .legend text { font: 10px sans-serif; }
    .legend .title { font-weight: bold; }
    .root.node circle { fill: #fff; stroke: #aaa; }`

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	title    string
	noCSS    bool
	tooltips bool
	ids      bool
}

// WithTitle sets the document title.
func WithTitle(t string) SVGOption { return func(r *svgRenderer) { r.title = t } }

// WithoutStyle omits the embedded stylesheet.
func WithoutStyle() SVGOption { return func(r *svgRenderer) { r.noCSS = true } }

// WithoutTooltips drops the leaf <title> tooltips.
func WithoutTooltips() SVGOption { return func(r *svgRenderer) { r.tooltips = false } }

// WithNodeIDs tags node groups with id="node-N".
func WithNodeIDs() SVGOption { return func(r *svgRenderer) { r.ids = true } }

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{tooltips: true}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// RenderSVG draws s as a standalone SVG document.
func RenderSVG(s *render.Scene, opts ...SVGOption) []byte {
	r := newSVGRenderer(opts...)

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(int(s.Width), int(s.Height), fmt.Sprintf(`viewBox="0 0 %s %s"`, num(s.Width), num(s.Height)))
	if r.title != "" {
		canvas.Title(r.title)
	}
	if !r.noCSS {
		canvas.Style("text/css", treeCSS)
	}

	canvas.Group(`class="tree"`, transform(translate(s.Origin.X, s.Origin.Y)))
	renderRules(canvas, s.Rules)
	renderLinks(canvas, s.Links)
	for _, m := range s.Marks {
		r.renderMark(canvas, s.Radial, m)
	}
	renderLegends(canvas, s.Legends)
	canvas.Gend()

	canvas.End()
	return buf.Bytes()
}

// ===== Ruler =====

func renderRules(canvas *svg.SVG, rules []render.Rule) {
	if len(rules) == 0 {
		return
	}
	canvas.Group(`class="ruler"`)
	for _, rule := range rules {
		canvas.Gtransform(translate(rule.X, 0))
		canvas.Line(0, int(math.Round(rule.Y1)), 0, int(math.Round(rule.Y2)), `class="rule"`)
		canvas.Text(0, 0, rule.Label, `class="rule"`, `dy="-3"`, `text-anchor="middle"`)
		canvas.Gend()
	}
	canvas.Gend()
}

// ===== Links =====

func renderLinks(canvas *svg.SVG, links []render.Link) {
	canvas.Group(`class="links"`)
	for _, l := range links {
		canvas.Path(linkPath(l), `class="link"`,
			fmt.Sprintf(`data-source="%d"`, l.Source), fmt.Sprintf(`data-target="%d"`, l.Target))
	}
	canvas.Gend()
}

// linkPath is the path data of one branch: an elbow for rectangular links,
// an arc followed by a radial segment for radial ones.
func linkPath(l render.Link) string {
	if !l.Arc && l.Start.X == l.Corner.X && l.Corner.Y == l.End.Y {
		return "M" + point(l.Start) + "V" + num(l.Corner.Y) + "H" + num(l.End.X)
	}
	var b strings.Builder
	b.WriteString("M" + point(l.Start))
	if l.Arc {
		fmt.Fprintf(&b, "A%s,%s 0 0,%d %s", num(l.ArcRadius), num(l.ArcRadius), l.Sweep, point(l.Corner))
	} else {
		b.WriteString("L" + point(l.Corner))
	}
	b.WriteString("L" + point(l.End))
	return b.String()
}

// ===== Nodes =====

func (r *svgRenderer) renderMark(canvas *svg.SVG, radial bool, m render.Mark) {
	attrs := []string{fmt.Sprintf(`class="%s"`, m.Class)}
	if r.ids {
		attrs = append(attrs, fmt.Sprintf(`id="node-%d"`, m.ID))
	}
	if radial {
		attrs = append(attrs, transform(fmt.Sprintf("rotate(%s)translate(%s)", num(m.Angle-90), num(m.Radius))))
	} else {
		attrs = append(attrs, transform(translate(m.Position.X, m.Position.Y)))
	}
	canvas.Group(attrs...)

	if r.tooltips && m.Tooltip != "" {
		canvas.Title(m.Tooltip)
	}
	if bg := m.Background; bg != nil {
		canvas.Rect(int(math.Round(bg.X)), int(math.Round(bg.Y)),
			int(math.Ceil(bg.Width)), int(math.Ceil(bg.Height)),
			`class="background"`, "fill:"+bg.Fill)
	}
	if m.Circle > 0 {
		style := ""
		if m.Fill != "" {
			style = "fill:" + m.Fill + ";stroke:" + m.Stroke
		}
		if style != "" {
			canvas.Circle(0, 0, int(math.Round(m.Circle)), style)
		} else {
			canvas.Circle(0, 0, int(math.Round(m.Circle)))
		}
	}
	if l := m.Label; l != nil {
		attrs := []string{
			fmt.Sprintf(`dx="%s"`, num(l.DX)),
			fmt.Sprintf(`dy="%s"`, num(l.DY)),
			fmt.Sprintf(`text-anchor="%s"`, l.Anchor),
		}
		if l.Flip {
			attrs = append(attrs, `transform="rotate(180)"`)
		}
		canvas.Text(0, 0, l.Text, attrs...)
	}
	canvas.Gend()
}

// ===== Legends =====

func renderLegends(canvas *svg.SVG, legends []render.LegendBox) {
	for _, l := range legends {
		canvas.Group(`class="legend"`, transform(translate(l.X, l.Y)))
		canvas.Text(0, 0, l.Role+": ", `class="title"`, `dy="10"`)
		canvas.Text(titleOffset(l), 0, l.Title, `dy="10"`)
		for i, e := range l.Entries {
			canvas.Gtransform(fmt.Sprintf("translate(5,%d)", 25+20*i))
			renderEntry(canvas, l.Shape, e)
			canvas.Gend()
		}
		canvas.Gend()
	}
}

func titleOffset(l render.LegendBox) int {
	if l.Shape == render.ShapeRect {
		return 140
	}
	return 70
}

func renderEntry(canvas *svg.SVG, shape string, e color.Entry) {
	switch shape {
	case render.ShapeBar:
		canvas.Rect(4, -11, 30, 20, "fill:"+e.Color)
		canvas.Text(0, 0, e.Label, `dx="8"`, `dy="3"`, "fill:"+color.TextOn(e.Color))
	case render.ShapeRect:
		canvas.Rect(-4, -4, 9, 9, "fill:"+e.Color)
		canvas.Text(0, 0, e.Label, `dx="8"`, `dy="3"`)
	default:
		canvas.Circle(0, 0, 5, "fill:"+e.Color)
		canvas.Text(0, 0, e.Label, `dx="8"`, `dy="3"`)
	}
}

// ===== Formatting =====

func transform(t string) string { return `transform="` + t + `"` }

func translate(x, y float64) string {
	return "translate(" + num(x) + "," + num(y) + ")"
}

func point(p layout.Point) string { return num(p.X) + "," + num(p.Y) }

// num formats v with at most two decimals and no trailing zeros.
func num(v float64) string {
	if v == 0 {
		return "0"
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" {
		return "0"
	}
	return s
}
