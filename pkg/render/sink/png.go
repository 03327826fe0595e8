package sink

import (
	"bytes"
	"math"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/matzehuels/phylogram/pkg/color"
	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/render"
)

// faceHeight is the pixel height of basicfont.Face7x13.
const faceHeight = 13.0

type PNGOption func(*pngRenderer)

type pngRenderer struct {
	scale      float64
	background string
}

// WithScale multiplies the output resolution; 2 gives a 2x image.
func WithScale(s float64) PNGOption { return func(r *pngRenderer) { r.scale = s } }

// WithBackground fills the canvas with a hex color instead of white.
func WithBackground(hex string) PNGOption { return func(r *pngRenderer) { r.background = hex } }

// RenderPNG rasterizes s directly, without an SVG round trip.
func RenderPNG(s *render.Scene, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 1, background: "#ffffff"}
	for _, opt := range opts {
		opt(&r)
	}
	dc, err := rasterize(s, r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "encode png")
	}
	return buf.Bytes(), nil
}

func rasterize(s *render.Scene, r pngRenderer) (*gg.Context, error) {
	if r.scale <= 0 || math.IsNaN(r.scale) || math.IsInf(r.scale, 0) {
		return nil, errors.New(errors.ErrCodeInvalidOption, "png scale must be positive, got %v", r.scale)
	}

	w := int(math.Ceil(s.Width * r.scale))
	h := int(math.Ceil(s.Height * r.scale))
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeRender, "empty scene %dx%d", w, h)
	}
	dc := gg.NewContext(w, h)
	setColor(dc, r.background)
	dc.Clear()

	dc.Scale(r.scale, r.scale)
	dc.Translate(s.Origin.X, s.Origin.Y)
	dc.SetFontFace(basicfont.Face7x13)
	dc.SetLineWidth(1)

	drawRules(dc, s.Rules)
	drawLinks(dc, s.Links)
	for _, m := range s.Marks {
		drawMark(dc, s.Radial, m)
	}
	drawLegends(dc, s.Legends)
	return dc, nil
}

// setColor applies a hex or keyword color; "none" and unknown values leave
// the current color unchanged and report false.
func setColor(dc *gg.Context, s string) bool {
	c, ok := color.Parse(s)
	if !ok {
		return false
	}
	dc.SetColor(c)
	return true
}

func drawRules(dc *gg.Context, rules []render.Rule) {
	for _, rule := range rules {
		setColor(dc, "#dddddd")
		dc.DrawLine(rule.X, rule.Y1, rule.X, rule.Y2)
		dc.Stroke()
		setColor(dc, "#888888")
		drawText(dc, rule.Label, rule.X, -3, 0.5)
	}
}

func drawLinks(dc *gg.Context, links []render.Link) {
	setColor(dc, "#aaaaaa")
	for _, l := range links {
		dc.NewSubPath()
		dc.MoveTo(l.Start.X, l.Start.Y)
		if l.Arc {
			a0 := math.Atan2(l.Start.Y, l.Start.X)
			a1 := math.Atan2(l.Corner.Y, l.Corner.X)
			// Sweep 1 runs with increasing screen angle, 0 against it.
			if l.Sweep == 1 && a1 < a0 {
				a1 += 2 * math.Pi
			}
			if l.Sweep == 0 && a1 > a0 {
				a1 -= 2 * math.Pi
			}
			dc.DrawArc(0, 0, l.ArcRadius, a0, a1)
		} else {
			dc.LineTo(l.Corner.X, l.Corner.Y)
		}
		dc.LineTo(l.End.X, l.End.Y)
		dc.Stroke()
	}
}

func drawMark(dc *gg.Context, radial bool, m render.Mark) {
	dc.Push()
	defer dc.Pop()

	if radial {
		dc.Rotate(gg.Radians(m.Angle - 90))
		dc.Translate(m.Radius, 0)
	} else {
		dc.Translate(m.Position.X, m.Position.Y)
	}

	if bg := m.Background; bg != nil && setColor(dc, bg.Fill) {
		dc.DrawRectangle(bg.X, bg.Y, bg.Width, bg.Height)
		dc.Fill()
	}
	if m.Circle > 0 {
		dc.DrawCircle(0, 0, m.Circle)
		fill, stroke := m.Fill, m.Stroke
		if fill == "" {
			fill, stroke = "#ffffff", "#aaaaaa"
		}
		setColor(dc, fill)
		dc.FillPreserve()
		if !setColor(dc, stroke) {
			setColor(dc, fill)
		}
		dc.Stroke()
	}
	if l := m.Label; l != nil {
		setColor(dc, "#000000")
		if l.Flip {
			dc.Rotate(math.Pi)
		}
		ax := 0.0
		if l.Anchor == "end" {
			ax = 1
		}
		drawText(dc, l.Text, l.DX, l.DY, ax)
	}
}

func drawLegends(dc *gg.Context, legends []render.LegendBox) {
	for _, l := range legends {
		dc.Push()
		dc.Translate(l.X, l.Y)
		setColor(dc, "#000000")
		drawText(dc, l.Role+": ", 0, 10, 0)
		drawText(dc, l.Title, float64(titleOffset(l)), 10, 0)
		for i, e := range l.Entries {
			dc.Push()
			dc.Translate(5, float64(25+20*i))
			drawEntry(dc, l.Shape, e)
			dc.Pop()
		}
		dc.Pop()
	}
}

func drawEntry(dc *gg.Context, shape string, e color.Entry) {
	text := "#000000"
	switch shape {
	case render.ShapeBar:
		setColor(dc, e.Color)
		dc.DrawRectangle(4, -11, 30, 20)
		dc.Fill()
		text = color.TextOn(e.Color)
	case render.ShapeRect:
		setColor(dc, e.Color)
		dc.DrawRectangle(-4.5, -4.5, 9, 9)
		dc.Fill()
	default:
		setColor(dc, e.Color)
		dc.DrawCircle(0, 0, 4.5)
		dc.Fill()
	}
	setColor(dc, text)
	drawText(dc, e.Label, 8, 3, 0)
}

// drawText draws s with its baseline at (x, y), scaling the 7x13 face down
// to the label font size. ax is the horizontal anchor, 0 start to 1 end.
func drawText(dc *gg.Context, s string, x, y, ax float64) {
	k := render.FontSize / faceHeight
	dc.Push()
	dc.Scale(k, k)
	dc.DrawStringAnchored(s, x/k, y/k, ax, 0)
	dc.Pop()
}
