package layout

import "github.com/matzehuels/phylogram/pkg/tree"

// Size is the extent of the clustering layout along each axis.
type Size struct {
	Breadth float64 // Pixels for rectangular layouts, 360 for radial
	Depth   float64
}

// Separation returns the spacing between two neighbouring leaves, in units
// of the sibling gap.
type Separation func(a, b *tree.Node) float64

// SiblingSeparation spaces siblings one unit apart and cousins two.
func SiblingSeparation(a, b *tree.Node) float64 {
	if a.Parent == b.Parent {
		return 1
	}
	return 2
}

// RadialSeparation is SiblingSeparation divided by the depth of a, so deep
// leaves that share less arc length are packed tighter.
func RadialSeparation(a, b *tree.Node) float64 {
	return SiblingSeparation(a, b) / float64(max(a.Depth, 1))
}

// Cluster assigns raw breadth and depth positions so that all leaves sit at
// full depth, spaced by sep along the breadth axis in original child order.
// Internal nodes are centred on the mean of their children. The results are
// written to RawBreadth and RawDepth and copied into Breadth and DepthPos.
func Cluster(t *tree.Tree, size Size, sep Separation) {
	if sep == nil {
		sep = SiblingSeparation
	}

	height := make(map[*tree.Node]float64, t.Len())
	var prev, first *tree.Node
	x := 0.0

	var visit func(n *tree.Node)
	visit = func(n *tree.Node) {
		if n.IsLeaf() {
			if prev != nil {
				x += sep(n, prev)
			} else {
				first = n
			}
			n.RawBreadth = x
			height[n] = 0
			prev = n
			return
		}
		sum, h := 0.0, 0.0
		for _, c := range n.Children {
			visit(c)
			sum += c.RawBreadth
			h = max(h, height[c])
		}
		n.RawBreadth = sum / float64(len(n.Children))
		height[n] = h + 1
	}
	visit(t.Root)

	last := prev
	x0 := first.RawBreadth - sep(first, last)/2
	x1 := last.RawBreadth + sep(last, first)/2
	rootHeight := height[t.Root]

	for _, n := range t.Nodes() {
		n.RawBreadth = (n.RawBreadth - x0) / (x1 - x0) * size.Breadth
		if rootHeight > 0 {
			n.RawDepth = (1 - height[n]/rootHeight) * size.Depth
		} else {
			n.RawDepth = 0
		}
		n.Breadth = n.RawBreadth
		n.DepthPos = n.RawDepth
	}
}
