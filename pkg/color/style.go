package color

import (
	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/metadata"
)

// Fallback styling for leaves without a mapped value.
const (
	FallbackLeafFill   = "greenyellow"
	FallbackLeafStroke = "yellowgreen"
	MappedLeafStroke   = "white"
	FallbackBackground = "none"
)

// LeafStyle is the resolved style of one leaf.
type LeafStyle struct {
	Fill       string
	Stroke     string
	Background string
	Mapped     bool // Fill came from the leaf color column
}

// Styler resolves leaf colors against the selected metadata columns.
// The zero value styles everything with the fallbacks.
type Styler struct {
	Table            *metadata.Table
	Scales           map[string]Scale
	LeafColumn       string
	BackgroundColumn string
}

// NewStyler returns a Styler. Scales are built from t when scales is nil.
func NewStyler(t *metadata.Table, scales map[string]Scale, leafColumn, backgroundColumn string) *Styler {
	if scales == nil {
		scales = Scales(t)
	}
	return &Styler{Table: t, Scales: scales, LeafColumn: leafColumn, BackgroundColumn: backgroundColumn}
}

// Leaf returns the style of the leaf named name. Unknown columns and
// leaves missing from the table get the fallback colors.
func (s *Styler) Leaf(name string) LeafStyle {
	st := LeafStyle{Fill: FallbackLeafFill, Stroke: FallbackLeafStroke, Background: FallbackBackground}
	if s == nil {
		return st
	}
	if hex, ok := s.lookup(s.LeafColumn, name); ok {
		st.Fill, st.Stroke, st.Mapped = hex, MappedLeafStroke, true
	}
	if hex, ok := s.lookup(s.BackgroundColumn, name); ok {
		st.Background = hex
	}
	return st
}

// Background returns the background fill of the leaf named name.
func (s *Styler) Background(name string) string {
	return s.Leaf(name).Background
}

func (s *Styler) lookup(column, leaf string) (string, bool) {
	if column == "" {
		return "", false
	}
	c, ok := s.Table.Column(column)
	if !ok {
		return "", false
	}
	sc, ok := s.Scales[column]
	if !ok {
		return "", false
	}
	v, ok := c.Value(leaf)
	if !ok {
		return "", false
	}
	return sc.Color(v)
}

// Legends returns the legends of the selected columns that exist: the leaf
// column first, titled "Node", then the background column.
func (s *Styler) Legends() []Legend {
	if s == nil {
		return nil
	}
	var out []Legend
	for _, sel := range []struct{ role, column string }{
		{"Node", s.LeafColumn},
		{"Background", s.BackgroundColumn},
	} {
		if sel.column == "" {
			continue
		}
		c, ok := s.Table.Column(sel.column)
		if !ok {
			continue
		}
		sc, ok := s.Scales[sel.column]
		if !ok {
			continue
		}
		l := NewLegend(sel.column, c, sc)
		l.Role = sel.role
		out = append(out, l)
	}
	return out
}

// Check reports selected columns missing from the table as
// UNKNOWN_COLOR_COLUMN. Callers log the error and keep rendering.
func (s *Styler) Check() error {
	if s == nil {
		return nil
	}
	for _, column := range []string{s.LeafColumn, s.BackgroundColumn} {
		if column == "" {
			continue
		}
		if _, ok := s.Table.Column(column); !ok {
			return errors.New(errors.ErrCodeUnknownColorColumn, "no metadata column %q", column)
		}
	}
	return nil
}
