package metadata

import (
	"regexp"
	"strings"
)

// TaxonomyLevels are the column names given to the levels of a QIIME
// taxonomy string, in order.
var TaxonomyLevels = []string{
	"Taxa [Kingdom]",
	"Taxa [Phylum]",
	"Taxa [Class]",
	"Taxa [Order]",
	"Taxa [Family]",
	"Taxa [Genus]",
	"Taxa [Species]",
}

var levelPrefix = regexp.MustCompile(`.__`)

// Taxon is one level of a decomposed taxonomy string.
type Taxon struct {
	Level string
	Taxon string
}

// IsTaxonomy reports whether v looks like a QIIME taxonomy string.
func IsTaxonomy(v string) bool {
	return strings.HasPrefix(v, "k_")
}

// SplitTaxonomy decomposes a QIIME taxonomy string into its levels.
// Level prefixes ("k__", "p__", ...) and a trailing semicolon are removed.
// Levels that are empty or "unassigned" are dropped; the remaining levels
// keep the name of their position. Levels beyond species are ignored.
func SplitTaxonomy(v string) ([]Taxon, bool) {
	if !IsTaxonomy(v) {
		return nil, false
	}
	s := levelPrefix.ReplaceAllString(v, "")
	s = strings.TrimSuffix(strings.TrimSpace(s), ";")

	var out []Taxon
	for i, part := range strings.Split(s, ";") {
		if i >= len(TaxonomyLevels) {
			break
		}
		part = strings.TrimSpace(part)
		if part == "" || strings.EqualFold(part, "unassigned") {
			continue
		}
		out = append(out, Taxon{Level: TaxonomyLevels[i], Taxon: part})
	}
	return out, true
}
