// Package scale provides the linear and quantize scales shared by layout,
// coloring and rendering.
package scale

import (
	"math"

	"gonum.org/v1/plot"
)

// Linear maps a continuous domain onto a continuous range.
//
// A degenerate domain (both ends equal) maps every input to Range[0], so a
// tree without branch lengths or with a single leaf never divides by zero.
type Linear struct {
	Domain [2]float64 `json:"domain"`
	Range  [2]float64 `json:"range"`
}

// NewLinear returns a scale mapping [d0, d1] onto [r0, r1].
func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{Domain: [2]float64{d0, d1}, Range: [2]float64{r0, r1}}
}

// Identity returns the scale mapping [0, extent] onto itself.
func Identity(extent float64) Linear {
	return NewLinear(0, extent, 0, extent)
}

// Degenerate reports whether the domain has zero width.
func (s Linear) Degenerate() bool {
	return s.Domain[0] == s.Domain[1]
}

// Apply maps v from the domain into the range. Values outside the domain
// extrapolate.
func (s Linear) Apply(v float64) float64 {
	if s.Degenerate() {
		return s.Range[0]
	}
	t := (v - s.Domain[0]) / (s.Domain[1] - s.Domain[0])
	return s.Range[0] + t*(s.Range[1]-s.Range[0])
}

// Invert maps v from the range back into the domain. A zero-width range
// inverts to Domain[0].
func (s Linear) Invert(v float64) float64 {
	if s.Range[0] == s.Range[1] {
		return s.Domain[0]
	}
	t := (v - s.Range[0]) / (s.Range[1] - s.Range[0])
	return s.Domain[0] + t*(s.Domain[1]-s.Domain[0])
}

// Ticks returns the major tick values inside the domain, in ascending order.
// Tick placement follows plot.DefaultTicks, which yields human-friendly
// steps (1, 2, 5 times a power of ten).
func (s Linear) Ticks() []float64 {
	lo, hi := math.Min(s.Domain[0], s.Domain[1]), math.Max(s.Domain[0], s.Domain[1])
	if lo == hi {
		return []float64{lo}
	}
	var ticks []float64
	for _, t := range (plot.DefaultTicks{}).Ticks(lo, hi) {
		if t.IsMinor() || t.Value < lo || t.Value > hi {
			continue
		}
		ticks = append(ticks, t.Value)
	}
	return ticks
}

// Round2 rounds v to two decimals, the precision used for ruler labels.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
