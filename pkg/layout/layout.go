// Package layout computes 2-D coordinates for phylogenetic trees.
//
// A layout pass runs in three steps:
//
//  1. Cluster assigns raw positions: leaves evenly spaced along the breadth
//     axis, all at full depth, internal nodes centred over their children.
//  2. ScaleBranchLengths replaces depth with the cumulative branch length
//     from the root, mapped onto the available extent (or IdentityDepth
//     keeps the clustering depth when branch lengths are ignored).
//  3. ScaleLeafSeparation stretches the breadth axis so that the closest
//     leaves are a minimum distance apart (rectangular only).
//
// Scalers read the raw clustering positions and write display positions, so
// a slider change can rescale a finished layout with [Result.Rescale]
// without running the clustering again.
package layout

import (
	"math"

	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/scale"
	"github.com/matzehuels/phylogram/pkg/tree"
)

// Default layout extents.
const (
	DefaultWidth      = 800.0
	DefaultHeight     = 600.0
	DefaultLabelWidth = 120.0
)

// Params controls a layout pass.
type Params struct {
	Width                   float64 `json:"width"`  // Depth extent (rectangular) or diameter (radial)
	Height                  float64 `json:"height"` // Initial breadth extent (rectangular)
	SkipBranchLengthScaling bool    `json:"skip_branch_length_scaling,omitempty"`
	MinLeafSeparation       float64 `json:"min_leaf_separation"`
	LabelWidth              float64 `json:"label_width"` // Space reserved outside the radial tree for labels
}

// Radius returns the radius of a radial layout.
func (p Params) Radius() float64 { return p.Width / 2 }

func (p Params) withDefaults() Params {
	if p.Width <= 0 {
		p.Width = DefaultWidth
	}
	if p.Height <= 0 {
		p.Height = DefaultHeight
	}
	if p.MinLeafSeparation <= 0 {
		p.MinLeafSeparation = DefaultMinLeafSeparation
	}
	if p.LabelWidth < 0 {
		p.LabelWidth = 0
	}
	return p
}

// Result is a finished layout. Its nodes are the tree's own nodes, so a new
// layout pass over the same tree replaces the coordinates of earlier results.
type Result struct {
	Geometry     Geometry
	Params       Params
	Tree         *tree.Tree
	Nodes        []*tree.Node
	Links        []tree.Link
	DepthScale   scale.Linear
	BreadthScale *scale.Linear // nil for radial layouts
}

// Compute lays out t with geometry g. A nil geometry selects Rectangular.
// Degenerate trees (a single node, no branch lengths) never fail.
func Compute(t *tree.Tree, g Geometry, p Params) (*Result, error) {
	if t == nil || t.Root == nil {
		return nil, errors.MalformedTree("nothing to lay out: tree is empty")
	}
	if g == nil {
		g = Rectangular{}
	}
	p = p.withDefaults()
	depth, breadth := g.layout(t, p)
	return &Result{
		Geometry:     g,
		Params:       p,
		Tree:         t,
		Nodes:        t.Nodes(),
		Links:        t.Links(),
		DepthScale:   depth,
		BreadthScale: breadth,
	}, nil
}

// Rescale reapplies leaf separation with a new minimum, starting from the
// raw clustering positions. It is a no-op for geometries without a breadth
// scale.
func (r *Result) Rescale(minSep float64) {
	if r.BreadthScale == nil {
		return
	}
	if minSep <= 0 {
		minSep = DefaultMinLeafSeparation
	}
	s := ScaleLeafSeparation(r.Tree, minSep)
	r.BreadthScale = &s
	r.Params.MinLeafSeparation = minSep
}

// Point returns the Cartesian position of n.
func (r *Result) Point(n *tree.Node) Point {
	return r.Geometry.point(n)
}

// IsRadial reports whether the layout is radial.
func (r *Result) IsRadial() bool {
	_, ok := r.Geometry.(Radial)
	return ok
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns the horizontal extent.
func (b Rect) Width() float64 { return b.MaxX - b.MinX }

// Height returns the vertical extent.
func (b Rect) Height() float64 { return b.MaxY - b.MinY }

// Bounds returns the bounding box of all node positions.
func (r *Result) Bounds() Rect {
	if len(r.Nodes) == 0 {
		return Rect{}
	}
	b := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, n := range r.Nodes {
		p := r.Point(n)
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}
