package render

import (
	"math"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/phylogram/pkg/color"
	"github.com/matzehuels/phylogram/pkg/layout"
	"github.com/matzehuels/phylogram/pkg/metadata"
	"github.com/matzehuels/phylogram/pkg/scale"
	"github.com/matzehuels/phylogram/pkg/tree"
)

// Canvas margins around the tree group.
const (
	MarginTop    = 30.0
	MarginRight  = 0.0
	MarginBottom = 20.0
	MarginLeft   = 50.0
)

// FontSize is the label font size in pixels.
const FontSize = 10.0

// DefaultLeafRadius is the leaf circle radius when none is set.
const DefaultLeafRadius = 5.0

const legendGap = 20.0

// Options controls scene construction.
type Options struct {
	LeafRadius         float64
	SkipLabels         bool // No node labels at all
	SkipDistanceLabels bool // Leaf labels show the name only; inner nodes are unlabeled
	HideRuler          bool
	Styler             *color.Styler   // Nil styles leaves with the fallback colors
	Table              *metadata.Table // Rows listed in leaf tooltips
}

// Node classes.
const (
	ClassRoot  = "root node"
	ClassInner = "inner node"
	ClassLeaf  = "leaf node"
)

// Label is a text mark relative to its node.
type Label struct {
	Text   string  `json:"text"`
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Anchor string  `json:"anchor"`         // "start" or "end"
	Flip   bool    `json:"flip,omitempty"` // Rotated by 180 degrees (radial, left half)
	Width  float64 `json:"width"`
}

// Box is an axis-aligned rectangle relative to its node.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Fill   string  `json:"fill"`
}

// Mark is one drawn node.
type Mark struct {
	ID       int          `json:"id"`
	Name     string       `json:"name"`
	Class    string       `json:"class"`
	Position layout.Point `json:"position"`
	// Angle and Radius are the polar position of radial marks; node groups
	// are drawn as rotate(Angle-90) translate(Radius).
	Angle      float64 `json:"angle,omitempty"`
	Radius     float64 `json:"radius,omitempty"`
	Circle     float64 `json:"circle,omitempty"` // Circle radius, zero for none
	Fill       string  `json:"fill,omitempty"`
	Stroke     string  `json:"stroke,omitempty"`
	Mapped     bool    `json:"mapped,omitempty"`
	Background *Box    `json:"background,omitempty"`
	Label      *Label  `json:"label,omitempty"`
	Tooltip    string  `json:"tooltip,omitempty"`
}

// Link is a drawn branch. Rectangular links run Start, Corner, End as an
// elbow. Radial links arc from Start to Corner around the origin with
// radius ArcRadius, then run straight to End.
type Link struct {
	Source    int          `json:"source"`
	Target    int          `json:"target"`
	Start     layout.Point `json:"start"`
	Corner    layout.Point `json:"corner"`
	End       layout.Point `json:"end"`
	Arc       bool         `json:"arc,omitempty"`
	ArcRadius float64      `json:"arc_radius,omitempty"`
	Sweep     int          `json:"sweep,omitempty"`
}

// Rule is a vertical ruler line at a depth tick.
type Rule struct {
	X     float64 `json:"x"`
	Y1    float64 `json:"y1"`
	Y2    float64 `json:"y2"`
	Label string  `json:"label"`
}

// Legend shapes.
const (
	ShapeCircle = "circle"
	ShapeRect   = "rect"
	ShapeBar    = "bar"
)

// LegendBox is a legend placed in tree coordinates.
type LegendBox struct {
	color.Legend
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Shape  string  `json:"shape"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Scene is a renderer-independent description of a drawn tree. Coordinates
// are in tree space; sinks translate the tree group by Origin.
type Scene struct {
	Width    float64      `json:"width"`
	Height   float64      `json:"height"`
	Origin   layout.Point `json:"origin"`
	TreeType string       `json:"tree_type"`
	Radial   bool         `json:"radial"`
	Rules    []Rule       `json:"rules,omitempty"`
	Links    []Link       `json:"links"`
	Marks    []Mark       `json:"marks"`
	Legends  []LegendBox  `json:"legends,omitempty"`
}

// Build derives the scene of a finished layout.
func Build(res *layout.Result, opts Options) *Scene {
	if opts.LeafRadius <= 0 {
		opts.LeafRadius = DefaultLeafRadius
	}
	s := &Scene{TreeType: res.Geometry.Name(), Radial: res.IsRadial()}

	ids := make(map[*tree.Node]int, len(res.Nodes))
	for i, n := range res.Nodes {
		ids[n] = i
	}
	for i, n := range res.Nodes {
		s.Marks = append(s.Marks, buildMark(res, i, n, opts))
	}
	for _, l := range res.Links {
		s.Links = append(s.Links, buildLink(res, ids[l.Source], ids[l.Target], l))
	}
	if !s.Radial && !opts.HideRuler {
		s.Rules = buildRules(res)
	}

	b := sceneBounds(s, opts.LeafRadius)
	s.Legends = placeLegends(opts.Styler.Legends(), b.MaxX+legendGap, math.Min(b.MinY, 0))
	for _, l := range s.Legends {
		b.MaxX = math.Max(b.MaxX, l.X+l.Width)
		b.MaxY = math.Max(b.MaxY, l.Y+l.Height)
	}

	minX, minY := math.Min(b.MinX, 0), math.Min(b.MinY, 0)
	s.Origin = layout.Point{X: MarginLeft - minX, Y: MarginTop - minY}
	s.Width = math.Ceil(b.MaxX - minX + MarginLeft + MarginRight)
	s.Height = math.Ceil(b.MaxY - minY + MarginTop + MarginBottom)
	return s
}

func nodeClass(n *tree.Node) string {
	switch {
	case n.IsLeaf():
		return ClassLeaf
	case n.IsRoot():
		return ClassRoot
	}
	return ClassInner
}

func buildMark(res *layout.Result, id int, n *tree.Node, opts Options) Mark {
	m := Mark{
		ID:       id,
		Name:     n.Name,
		Class:    nodeClass(n),
		Position: res.Point(n),
	}
	if res.IsRadial() {
		m.Angle, m.Radius = n.Breadth, n.DepthPos
	}

	switch m.Class {
	case ClassLeaf:
		st := opts.Styler.Leaf(n.Name)
		m.Circle, m.Fill, m.Stroke, m.Mapped = opts.LeafRadius, st.Fill, st.Stroke, st.Mapped
		if !opts.SkipLabels {
			m.Label = leafLabel(n, res.IsRadial(), opts.SkipDistanceLabels)
		}
		if st.Background != color.FallbackBackground {
			m.Background = background(m.Label, opts.LeafRadius, st.Background)
		}
		m.Tooltip = Tooltip(n.Name, opts.Table)
	case ClassRoot:
		m.Circle = opts.LeafRadius
	case ClassInner:
		if !opts.SkipLabels && !opts.SkipDistanceLabels && n.HasLength {
			m.Label = innerLabel(n, res.IsRadial())
		}
	}
	return m
}

// FormatLength formats a branch length the shortest way that round-trips.
func FormatLength(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func leafLabel(n *tree.Node, radial, nameOnly bool) *Label {
	text := n.Name
	if !radial && !nameOnly && n.HasLength {
		text += " (" + FormatLength(n.Length) + ")"
	}
	l := &Label{Text: text, DX: 8, DY: 3, Anchor: "start", Width: TextWidth(text)}
	if radial && flipped(n.Breadth) {
		l.DX, l.Anchor, l.Flip = -8, "end", true
	}
	return l
}

func innerLabel(n *tree.Node, radial bool) *Label {
	text := FormatLength(n.Length)
	l := &Label{Text: text, DX: -6, DY: -6, Anchor: "end", Width: TextWidth(text)}
	if radial && flipped(n.Breadth) {
		l.DX, l.Anchor, l.Flip = 6, "start", true
	}
	return l
}

// flipped reports whether a radial label sits on the left half and is
// turned upright.
func flipped(angle float64) bool { return angle >= 180 }

func background(l *Label, r float64, fill string) *Box {
	w := 2*r + 5
	if l != nil {
		w = math.Abs(l.DX) + l.Width + 5
	}
	return &Box{Y: -r - 5, Width: w, Height: 10 + 2*r, Fill: fill}
}

func buildLink(res *layout.Result, src, dst int, l tree.Link) Link {
	s, t := l.Source, l.Target
	if !res.IsRadial() {
		return Link{
			Source: src,
			Target: dst,
			Start:  layout.Point{X: s.DepthPos, Y: s.Breadth},
			Corner: layout.Point{X: s.DepthPos, Y: t.Breadth},
			End:    layout.Point{X: t.DepthPos, Y: t.Breadth},
		}
	}
	link := Link{
		Source: src,
		Target: dst,
		Start:  layout.Project(s.Breadth, s.DepthPos),
		Corner: layout.Project(t.Breadth, s.DepthPos),
		End:    layout.Project(t.Breadth, t.DepthPos),
	}
	delta := math.Mod(t.Breadth-s.Breadth+540, 360) - 180
	if delta != 0 && s.DepthPos > 0 {
		link.Arc, link.ArcRadius = true, s.DepthPos
		if delta > 0 {
			link.Sweep = 1
		}
	}
	return link
}

func buildRules(res *layout.Result) []Rule {
	var extent float64
	for _, n := range res.Nodes {
		extent = math.Max(extent, n.Breadth)
	}
	var rules []Rule
	for _, tick := range res.DepthScale.Ticks() {
		rules = append(rules, Rule{
			X:     res.DepthScale.Apply(tick),
			Y2:    extent,
			Label: FormatLength(scale.Round2(tick)),
		})
	}
	return rules
}

func placeLegends(legends []color.Legend, x, y float64) []LegendBox {
	var out []LegendBox
	offset := 0.0
	for _, l := range legends {
		box := LegendBox{Legend: l, X: x + 5, Y: y + offset, Shape: ShapeCircle}
		switch {
		case l.Colorbar:
			box.Shape = ShapeBar
		case l.Role == "Background":
			box.Shape = ShapeRect
		}
		titleWidth := 70.0
		if l.Role == "Background" {
			titleWidth = 140
		}
		box.Width = titleWidth + TextWidth(l.Title)
		for _, e := range l.Entries {
			box.Width = math.Max(box.Width, 8+TextWidth(e.Label)+rowInset(box.Shape))
		}
		box.Height = 25 + 20*float64(len(l.Entries))
		out = append(out, box)
		offset += box.Height + 15
	}
	return out
}

func rowInset(shape string) float64 {
	if shape == ShapeBar {
		return 34
	}
	return 5
}

// TextWidth estimates the rendered width of s at FontSize with the
// fixed-advance 7x13 face scaled to the label size.
func TextWidth(s string) float64 {
	adv := font.MeasureString(basicfont.Face7x13, s).Ceil()
	return float64(adv) * FontSize / 13
}

func sceneBounds(s *Scene, r float64) layout.Rect {
	b := layout.Rect{}
	grow := func(p layout.Point) {
		b.MinX, b.MinY = math.Min(b.MinX, p.X), math.Min(b.MinY, p.Y)
		b.MaxX, b.MaxY = math.Max(b.MaxX, p.X), math.Max(b.MaxY, p.Y)
	}
	first := true
	for _, m := range s.Marks {
		if first {
			b = layout.Rect{MinX: m.Position.X, MinY: m.Position.Y, MaxX: m.Position.X, MaxY: m.Position.Y}
			first = false
		}
		grow(layout.Point{X: m.Position.X - r, Y: m.Position.Y - r})
		grow(layout.Point{X: m.Position.X + r, Y: m.Position.Y + r})
		if m.Label == nil {
			continue
		}
		reach := math.Abs(m.Label.DX) + m.Label.Width
		if s.Radial {
			// Leaf labels always run outward and inner labels inward,
			// flipped or not.
			dir := 1.0
			if (m.Label.DX < 0) != m.Label.Flip {
				dir = -1
			}
			grow(layout.Project(m.Angle, m.Radius+dir*reach))
			continue
		}
		if m.Label.Anchor == "end" {
			grow(layout.Point{X: m.Position.X - reach, Y: m.Position.Y + m.Label.DY - FontSize})
		} else {
			grow(layout.Point{X: m.Position.X + reach, Y: m.Position.Y + m.Label.DY})
		}
	}
	for _, rule := range s.Rules {
		grow(layout.Point{X: rule.X, Y: rule.Y2})
	}
	return b
}

// Tooltip lists every metadata value recorded for leaf.
func Tooltip(leaf string, t *metadata.Table) string {
	text := "Leaf " + leaf
	for _, f := range t.Row(leaf) {
		text += "\n- " + f.Column + ": " + f.Value
	}
	return text
}
