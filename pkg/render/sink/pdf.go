package sink

import (
	"bytes"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/vgpdf"

	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/render"
)

// pdfResolution is the raster scale of the fallback PDF page.
const pdfResolution = 3.0

// RenderPDF draws s as a single-page PDF holding a raster of the scene. It
// is used when rsvg-convert is not installed; the page matches the scene
// size in points.
func RenderPDF(s *render.Scene) ([]byte, error) {
	dc, err := rasterize(s, pngRenderer{scale: pdfResolution, background: "#ffffff"})
	if err != nil {
		return nil, err
	}

	w, h := vg.Length(s.Width), vg.Length(s.Height)
	c := vgpdf.New(w, h)
	c.DrawImage(vg.Rectangle{Max: vg.Point{X: w, Y: h}}, dc.Image())

	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRender, err, "encode pdf")
	}
	return buf.Bytes(), nil
}
