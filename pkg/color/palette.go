// Package color builds color scales and legends from metadata columns.
//
// Categorical columns map each distinct value onto a qualitative palette
// (Category10, or Category20 above ten values). Numeric columns quantize
// their extent into the eleven steps of the diverging Spectral palette.
package color

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette is an ordered list of colors.
type Palette struct {
	Name   string
	colors []colorful.Color
}

func mustPalette(name string, hexes ...string) Palette {
	p := Palette{Name: name, colors: make([]colorful.Color, len(hexes))}
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(fmt.Sprintf("palette %s: %v", name, err))
		}
		p.colors[i] = c
	}
	return p
}

// Len returns the number of colors.
func (p Palette) Len() int { return len(p.colors) }

// Color returns color i, wrapping around the palette.
func (p Palette) Color(i int) colorful.Color {
	n := len(p.colors)
	return p.colors[((i%n)+n)%n]
}

// Hex returns color i as "#rrggbb", wrapping around the palette.
func (p Palette) Hex(i int) string {
	return p.Color(i).Hex()
}

// Palettes used for metadata coloring.
var (
	Category10 = mustPalette("category10",
		"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
		"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
	)

	Category20 = mustPalette("category20",
		"#1f77b4", "#aec7e8", "#ff7f0e", "#ffbb78", "#2ca02c",
		"#98df8a", "#d62728", "#ff9896", "#9467bd", "#c5b0d5",
		"#8c564b", "#c49c94", "#e377c2", "#f7b6d2", "#7f7f7f",
		"#c7c7c7", "#bcbd22", "#dbdb8d", "#17becf", "#9edae5",
	)

	Spectral11 = mustPalette("spectral11",
		"#9e0142", "#d53e4f", "#f46d43", "#fdae61", "#fee08b",
		"#ffffbf", "#e6f598", "#abdda4", "#66c2a5", "#3288bd",
		"#5e4fa2",
	)
)

// TextOn returns "black" or "white", whichever reads better on hex.
// Unparseable input gets "black".
func TextOn(hex string) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return "black"
	}
	if _, _, l := c.Hcl(); l > 0.65 {
		return "black"
	}
	return "white"
}

// named holds the CSS color keywords used by the fallback styles.
var named = map[string]string{
	"black":       "#000000",
	"white":       "#ffffff",
	"greenyellow": "#adff2f",
	"yellowgreen": "#9acd32",
	"steelblue":   "#4682b4",
}

// Parse resolves a hex color or one of the fallback keywords. "none" and
// unknown names report false.
func Parse(s string) (colorful.Color, bool) {
	if hex, ok := named[s]; ok {
		s = hex
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}
