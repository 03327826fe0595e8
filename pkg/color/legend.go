package color

import (
	"fmt"

	"github.com/matzehuels/phylogram/pkg/metadata"
	"github.com/matzehuels/phylogram/pkg/scale"
)

// ColorbarRows is the number of rows in a numeric legend.
const ColorbarRows = 11

// Entry is one legend row.
type Entry struct {
	Value string `json:"value"`
	Count int    `json:"count,omitempty"` // Leaves carrying the value (categorical only)
	Color string `json:"color"`
	Label string `json:"label"`
}

// Legend describes the colors used for one metadata column.
type Legend struct {
	Title    string  `json:"title"`
	Role     string  `json:"role,omitempty"` // "Node" or "Background"
	Kind     Kind    `json:"kind"`
	Colorbar bool    `json:"colorbar"`
	Entries  []Entry `json:"entries"`
}

// NewLegend derives the legend for column c colored by s.
//
// Categorical legends list every distinct value in domain order with a
// "(count) value" label. Numeric legends are an eleven-row colorbar running
// from the column maximum down to its minimum; each row shows a
// representative value with two decimals and the color that value maps to.
func NewLegend(title string, c *metadata.Column, s Scale) Legend {
	l := Legend{Title: title, Kind: s.Kind()}

	if q, ok := s.(*QuantizedScale); ok {
		l.Colorbar = true
		lo, hi := q.Extent()
		rows := scale.NewLinear(ColorbarRows-1, 0, lo, hi)
		for i := range ColorbarRows {
			v := rows.Apply(float64(i))
			l.Entries = append(l.Entries, Entry{
				Value: formatFixed(v),
				Color: q.ColorOf(v),
				Label: formatFixed(v),
			})
		}
		return l
	}

	counts := c.Counts()
	for _, v := range s.Domain() {
		hex, _ := s.Color(v)
		l.Entries = append(l.Entries, Entry{
			Value: v,
			Count: counts[v],
			Color: hex,
			Label: fmt.Sprintf("(%d) %s", counts[v], v),
		})
	}
	return l
}
