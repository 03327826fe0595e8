package layout

import (
	"math"
	"strings"

	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/scale"
	"github.com/matzehuels/phylogram/pkg/tree"
)

// Tree type names accepted by ParseGeometry.
const (
	TreeTypeRectangular = "rectangular"
	TreeTypeRadial      = "radial"
)

// Geometry selects how the tree is laid out. The set of geometries is
// closed: Rectangular and Radial are the only implementations.
type Geometry interface {
	// Name returns the tree type name ("rectangular" or "radial").
	Name() string

	// layout positions every node and returns the depth and breadth scales.
	// The breadth scale is nil when the geometry leaves breadth unscaled.
	layout(t *tree.Tree, p Params) (depth scale.Linear, breadth *scale.Linear)

	// point converts a laid out node into Cartesian coordinates.
	point(n *tree.Node) Point
}

// ParseGeometry returns the geometry for a tree type name.
// The empty string selects Rectangular.
func ParseGeometry(name string) (Geometry, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", TreeTypeRectangular:
		return Rectangular{}, nil
	case TreeTypeRadial:
		return Radial{}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidTreeType, "unknown tree type %q (use rectangular or radial)", name)
}

// Rectangular lays the tree out left to right: depth runs along x,
// breadth along y. Both scalers apply.
type Rectangular struct{}

// Name implements Geometry.
func (Rectangular) Name() string { return TreeTypeRectangular }

func (Rectangular) layout(t *tree.Tree, p Params) (scale.Linear, *scale.Linear) {
	Cluster(t, Size{Breadth: p.Height, Depth: p.Width}, SiblingSeparation)
	depth := scaleDepth(t, p.Width, p.SkipBranchLengthScaling)
	breadth := ScaleLeafSeparation(t, p.MinLeafSeparation)
	return depth, &breadth
}

func (Rectangular) point(n *tree.Node) Point {
	return Point{X: n.DepthPos, Y: n.Breadth}
}

// Radial lays the tree out around a circle: breadth is an angle in degrees
// in [0, 360), depth is the radius. Leaf separation scaling is skipped.
type Radial struct{}

// Name implements Geometry.
func (Radial) Name() string { return TreeTypeRadial }

func (Radial) layout(t *tree.Tree, p Params) (scale.Linear, *scale.Linear) {
	extent := max(p.Radius()-p.LabelWidth, 0)
	Cluster(t, Size{Breadth: 360, Depth: extent}, RadialSeparation)
	for _, n := range t.Nodes() {
		n.RawBreadth = math.Mod(n.RawBreadth, 360)
		n.Breadth = n.RawBreadth
	}
	return scaleDepth(t, extent, p.SkipBranchLengthScaling), nil
}

func (Radial) point(n *tree.Node) Point {
	return Project(n.Breadth, n.DepthPos)
}

func scaleDepth(t *tree.Tree, extent float64, skip bool) scale.Linear {
	if skip {
		return IdentityDepth(t, extent)
	}
	return ScaleBranchLengths(t, extent)
}

// Point is a Cartesian coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Project converts a polar position (angle in degrees, radius) into
// Cartesian coordinates with 0 degrees pointing up.
func Project(angle, r float64) Point {
	a := (angle - 90) / 180 * math.Pi
	return Point{X: r * math.Cos(a), Y: r * math.Sin(a)}
}
