package metadata

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/matzehuels/phylogram/pkg/errors"
)

// Parse reads a tab-separated mapping file. The header row names the
// columns; the first column holds leaf names. Rows shorter than the header
// are padded with empty values and extra fields are ignored. Rows with an
// empty leaf name and QIIME 2 "#q2:" directive rows are skipped. An input
// without header columns is METADATA_PARSE.
func Parse(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.MetadataParse("mapping file is empty")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMetadataParse, err, "read mapping header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if len(header) == 0 || (len(header) == 1 && header[0] == "") {
		return nil, errors.MetadataParse("mapping file header has no columns")
	}

	t := newTable(header[0])
	for _, name := range header[1:] {
		t.column(name)
	}
	split := make(map[string]bool)

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeMetadataParse, err, "read mapping row")
		}
		leaf := strings.TrimSpace(rec[0])
		if leaf == "" || strings.HasPrefix(leaf, "#q2:") {
			continue
		}
		t.leaves = append(t.leaves, leaf)
		for i, name := range header[1:] {
			value := ""
			if i+1 < len(rec) {
				value = strings.TrimSpace(rec[i+1])
			}
			if levels, ok := SplitTaxonomy(value); ok {
				for _, lv := range levels {
					t.column(lv.Level).set(leaf, lv.Taxon)
				}
				split[name] = true
				continue
			}
			t.column(name).set(leaf, value)
		}
	}
	t.dropSplit(split)
	return t, nil
}

// dropSplit removes file columns that held nothing but taxonomy strings
// (and blanks), so the column list shows the synthetic levels in their place.
func (t *Table) dropSplit(split map[string]bool) {
	kept := t.columns[:0]
	for _, c := range t.columns {
		if split[c.Name] && blank(c) {
			delete(t.index, c.Name)
			continue
		}
		kept = append(kept, c)
	}
	t.columns = kept
}

func blank(c *Column) bool {
	for _, v := range c.Values {
		if v != "" {
			return false
		}
	}
	return true
}
