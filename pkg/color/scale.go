package color

import (
	"strconv"

	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/metadata"
	"github.com/matzehuels/phylogram/pkg/scale"
)

// Kind distinguishes categorical from quantized numeric scales.
type Kind int

const (
	Categorical Kind = iota
	Quantized
)

// String returns the kind name.
func (k Kind) String() string {
	if k == Quantized {
		return "quantized"
	}
	return "categorical"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "categorical":
		*k = Categorical
	case "quantized":
		*k = Quantized
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown color scale kind %q", b)
	}
	return nil
}

// Scale maps raw metadata values onto colors.
type Scale interface {
	Kind() Kind
	// Color returns the color of a raw value, or false if the value is not
	// in the domain (or not numeric, for quantized scales).
	Color(value string) (string, bool)
	// Domain returns the distinct values in sorted order.
	Domain() []string
	// Palette returns the palette colors are drawn from.
	Palette() Palette
}

// CategoricalScale assigns palette slots by position in the sorted domain.
type CategoricalScale struct {
	domain  []string
	slot    map[string]int
	palette Palette
}

// NewCategorical builds a categorical scale over the distinct values.
// Up to ten values use Category10, more use Category20.
func NewCategorical(values []string) *CategoricalScale {
	sorted := metadata.AutoSort(values, true)
	s := &CategoricalScale{
		domain:  sorted.Strings,
		slot:    make(map[string]int, sorted.Len()),
		palette: Category10,
	}
	if sorted.Len() > Category10.Len() {
		s.palette = Category20
	}
	for i, v := range s.domain {
		s.slot[v] = i
	}
	return s
}

// Kind implements Scale.
func (s *CategoricalScale) Kind() Kind { return Categorical }

// Domain implements Scale.
func (s *CategoricalScale) Domain() []string { return s.domain }

// Palette implements Scale.
func (s *CategoricalScale) Palette() Palette { return s.palette }

// Color implements Scale.
func (s *CategoricalScale) Color(value string) (string, bool) {
	i, ok := s.slot[value]
	if !ok {
		return "", false
	}
	return s.palette.Hex(i), true
}

// QuantizedScale buckets numeric values into Spectral11.
type QuantizedScale struct {
	domain []string
	q      scale.Quantize
}

// NewQuantized builds a quantized scale over the numeric extent of values.
// Values that are not numbers are ignored.
func NewQuantized(values []string) *QuantizedScale {
	sorted := metadata.AutoSort(values, true)
	s := &QuantizedScale{domain: sorted.Strings}
	lo, hi := 0.0, 0.0
	first := true
	for _, v := range values {
		kind, f := metadata.Classify(v)
		if kind == metadata.KindString {
			continue
		}
		if first {
			lo, hi, first = f, f, false
			continue
		}
		lo, hi = min(lo, f), max(hi, f)
	}
	s.q = scale.NewQuantize(lo, hi, Spectral11.Len())
	return s
}

// Kind implements Scale.
func (s *QuantizedScale) Kind() Kind { return Quantized }

// Domain implements Scale.
func (s *QuantizedScale) Domain() []string { return s.domain }

// Palette implements Scale.
func (s *QuantizedScale) Palette() Palette { return Spectral11 }

// Extent returns the numeric minimum and maximum.
func (s *QuantizedScale) Extent() (float64, float64) { return s.q.Min, s.q.Max }

// Color implements Scale.
func (s *QuantizedScale) Color(value string) (string, bool) {
	kind, f := metadata.Classify(value)
	if kind == metadata.KindString {
		return "", false
	}
	return s.ColorOf(f), true
}

// ColorOf returns the color of a numeric value.
func (s *QuantizedScale) ColorOf(v float64) string {
	return Spectral11.Hex(s.q.Bucket(v))
}

// ForColumn builds the scale for a column: quantized when every value is
// numeric, categorical otherwise.
func ForColumn(c *metadata.Column) Scale {
	values := c.RawValues()
	if metadata.ColumnKind(c) == metadata.KindString {
		return NewCategorical(values)
	}
	return NewQuantized(values)
}

// Scales builds a scale for every column of t.
func Scales(t *metadata.Table) map[string]Scale {
	out := make(map[string]Scale)
	if t == nil {
		return out
	}
	for _, name := range t.Columns() {
		c, _ := t.Column(name)
		out[name] = ForColumn(c)
	}
	return out
}

func formatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
