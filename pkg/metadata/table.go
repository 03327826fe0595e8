// Package metadata parses tab-separated mapping files that attach
// attributes to tree leaves.
//
// The first column of a mapping file holds leaf names; every other column
// becomes a [Column] mapping leaf name to raw value. QIIME taxonomy strings
// ("k__Bacteria;p__Firmicutes;...") are split into one synthetic column per
// taxonomic level so a tree can be colored by, say, phylum.
package metadata

// Column holds the raw values of one metadata column keyed by leaf name.
type Column struct {
	Name   string
	Values map[string]string
	Leaves []string // Leaf names in file row order
}

// Value returns the raw value for leaf.
func (c *Column) Value(leaf string) (string, bool) {
	v, ok := c.Values[leaf]
	return v, ok
}

// RawValues returns the values in row order, duplicates included.
func (c *Column) RawValues() []string {
	out := make([]string, len(c.Leaves))
	for i, leaf := range c.Leaves {
		out[i] = c.Values[leaf]
	}
	return out
}

// Counts returns how many leaves carry each distinct value.
func (c *Column) Counts() map[string]int {
	counts := make(map[string]int)
	for _, v := range c.Values {
		counts[v]++
	}
	return counts
}

func (c *Column) set(leaf, value string) {
	if _, ok := c.Values[leaf]; !ok {
		c.Leaves = append(c.Leaves, leaf)
	}
	c.Values[leaf] = value
}

// Table is a parsed mapping file. It is not modified after Parse returns.
type Table struct {
	Key     string // Header of the leaf name column
	columns []*Column
	index   map[string]*Column
	leaves  []string
}

func newTable(key string) *Table {
	return &Table{Key: key, index: make(map[string]*Column)}
}

func (t *Table) column(name string) *Column {
	if c, ok := t.index[name]; ok {
		return c
	}
	c := &Column{Name: name, Values: make(map[string]string)}
	t.columns = append(t.columns, c)
	t.index[name] = c
	return c
}

// Columns returns column names in first-seen order. Synthetic taxonomy
// columns follow the file column they were derived from.
func (t *Table) Columns() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (t *Table) Column(name string) (*Column, bool) {
	if t == nil {
		return nil, false
	}
	c, ok := t.index[name]
	return c, ok
}

// Leaves returns the leaf names of all rows in file order.
func (t *Table) Leaves() []string {
	if t == nil {
		return nil
	}
	return t.leaves
}

// Row returns every column value recorded for leaf, in column order.
func (t *Table) Row(leaf string) []Field {
	if t == nil {
		return nil
	}
	var row []Field
	for _, c := range t.columns {
		if v, ok := c.Values[leaf]; ok {
			row = append(row, Field{Column: c.Name, Value: v})
		}
	}
	return row
}

// Field is one column value of a row.
type Field struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}
