package metadata

import (
	"regexp"
	"slices"
	"strconv"
)

var (
	floatPattern = regexp.MustCompile(`^(\-|\+)?([0-9]+(\.[0-9]+))$`)
	intPattern   = regexp.MustCompile(`^\d+$`)
)

// Kind is the inferred type of a metadata value or column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	}
	return "string"
}

// Classify infers the kind of a single raw value and returns its numeric
// value for numeric kinds. Only plain decimals ("1.50", "-2.0") and
// unsigned integers ("42") count as numbers.
func Classify(v string) (Kind, float64) {
	if floatPattern.MatchString(v) {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return KindFloat, f
		}
	}
	if intPattern.MatchString(v) {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return KindInt, f
		}
	}
	return KindString, 0
}

// Sorted is the result of AutoSort: either numbers or strings, never both.
type Sorted struct {
	Numeric bool
	Strings []string  // Raw values in sorted order (both kinds)
	Numbers []float64 // Parsed values in sorted order (numeric only)
}

// Len returns the number of sorted values.
func (s Sorted) Len() int { return len(s.Strings) }

// AutoSort infers the type of values and sorts them.
//
// A collection is numeric only if every value classifies as a number; a
// single non-numeric value makes the whole collection a string collection.
// Numbers sort highest-first; strings sort ascending. With unique set,
// duplicate raw values are removed first.
func AutoSort(values []string, unique bool) Sorted {
	vals := slices.Clone(values)
	if unique {
		seen := make(map[string]bool, len(vals))
		kept := vals[:0]
		for _, v := range vals {
			if !seen[v] {
				seen[v] = true
				kept = append(kept, v)
			}
		}
		vals = kept
	}

	nums := make([]float64, len(vals))
	numeric := len(vals) > 0
	for i, v := range vals {
		kind, f := Classify(v)
		if kind == KindString {
			numeric = false
			break
		}
		nums[i] = f
	}

	if !numeric {
		slices.Sort(vals)
		return Sorted{Strings: vals}
	}

	idx := make([]int, len(vals))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		switch {
		case nums[a] > nums[b]:
			return -1
		case nums[a] < nums[b]:
			return 1
		}
		return 0
	})
	out := Sorted{Numeric: true, Strings: make([]string, len(idx)), Numbers: make([]float64, len(idx))}
	for i, j := range idx {
		out.Strings[i] = vals[j]
		out.Numbers[i] = nums[j]
	}
	return out
}

// ColumnKind reports the inferred kind of a whole column under the same
// policy as AutoSort: KindFloat if any value is fractional, KindInt if all
// are integers, otherwise KindString.
func ColumnKind(c *Column) Kind {
	kind := KindInt
	if len(c.Values) == 0 {
		return KindString
	}
	for _, v := range c.Values {
		k, _ := Classify(v)
		switch k {
		case KindString:
			return KindString
		case KindFloat:
			kind = KindFloat
		}
	}
	return kind
}
