package layout

import (
	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/phylogram/pkg/scale"
	"github.com/matzehuels/phylogram/pkg/tree"
)

// Distances sets Distance on every node to the summed edge length from the
// root (missing lengths count as 0) and returns the largest value.
func Distances(t *tree.Tree) float64 {
	dists := make([]float64, 0, t.Len())
	for _, n := range t.Nodes() {
		if n.Parent == nil {
			n.Distance = 0
		} else {
			n.Distance = n.Parent.Distance + n.Length
		}
		dists = append(dists, n.Distance)
	}
	return floats.Max(dists)
}

// ScaleBranchLengths maps each node's distance from the root onto the depth
// axis [0, extent] and stores the result in DepthPos. When no node is
// farther than 0 from the root, every node maps to 0.
func ScaleBranchLengths(t *tree.Tree, extent float64) scale.Linear {
	maxDist := Distances(t)
	s := scale.NewLinear(0, maxDist, 0, extent)
	for _, n := range t.Nodes() {
		n.DepthPos = s.Apply(n.Distance)
	}
	return s
}

// IdentityDepth keeps the clustering depth positions, passed through the
// identity scale over [0, extent]. Distances are still computed.
func IdentityDepth(t *tree.Tree, extent float64) scale.Linear {
	Distances(t)
	s := scale.Identity(extent)
	for _, n := range t.Nodes() {
		n.DepthPos = s.Apply(n.RawDepth)
	}
	return s
}
