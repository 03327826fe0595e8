package layout

import (
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/phylogram/pkg/scale"
	"github.com/matzehuels/phylogram/pkg/tree"
)

// DefaultMinLeafSeparation is the minimum gap between leaves in pixels.
const DefaultMinLeafSeparation = 22.0

// ScaleLeafSeparation rescales breadth positions so that the closest pair
// of leaves ends up exactly minSep apart. Every node, internal ones
// included, is mapped through the same scale so proportions are kept.
//
// The scale is always applied to RawBreadth, so calling it again with a
// different minSep starts from the clustering output rather than from the
// previous result. A tree without two distinct leaf positions uses the
// domain [0, 1]. A non-positive minSep falls back to the default.
func ScaleLeafSeparation(t *tree.Tree, minSep float64) scale.Linear {
	if minSep <= 0 {
		minSep = DefaultMinLeafSeparation
	}

	var pos []float64
	for _, n := range t.Nodes() {
		if n.IsLeaf() {
			pos = append(pos, n.RawBreadth)
		}
	}
	slices.Sort(pos)

	var gaps []float64
	for i := 1; i < len(pos); i++ {
		if g := pos[i] - pos[i-1]; g > 0 {
			gaps = append(gaps, g)
		}
	}
	minGap := 1.0
	if len(gaps) > 0 {
		minGap = floats.Min(gaps)
	}

	s := scale.NewLinear(0, minGap, 0, minSep)
	for _, n := range t.Nodes() {
		n.Breadth = s.Apply(n.RawBreadth)
	}
	return s
}
