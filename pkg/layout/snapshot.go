package layout

import (
	"github.com/matzehuels/phylogram/pkg/errors"
	"github.com/matzehuels/phylogram/pkg/scale"
	"github.com/matzehuels/phylogram/pkg/tree"
)

// Position holds the computed coordinates of one node.
type Position struct {
	Distance   float64 `json:"distance"`
	RawBreadth float64 `json:"raw_breadth"`
	RawDepth   float64 `json:"raw_depth"`
	Breadth    float64 `json:"breadth"`
	DepthPos   float64 `json:"depth"`
}

// Snapshot is a serializable layout. Positions follow the order of
// [tree.Tree.Nodes], so a snapshot is only valid for the tree it was taken
// from.
type Snapshot struct {
	TreeType     string        `json:"tree_type"`
	Params       Params        `json:"params"`
	Positions    []Position    `json:"positions"`
	DepthScale   scale.Linear  `json:"depth_scale"`
	BreadthScale *scale.Linear `json:"breadth_scale,omitempty"`
}

// Snapshot captures the coordinates of r.
func (r *Result) Snapshot() Snapshot {
	s := Snapshot{
		TreeType:     r.Geometry.Name(),
		Params:       r.Params,
		Positions:    make([]Position, len(r.Nodes)),
		DepthScale:   r.DepthScale,
		BreadthScale: r.BreadthScale,
	}
	for i, n := range r.Nodes {
		s.Positions[i] = Position{
			Distance:   n.Distance,
			RawBreadth: n.RawBreadth,
			RawDepth:   n.RawDepth,
			Breadth:    n.Breadth,
			DepthPos:   n.DepthPos,
		}
	}
	return s
}

// Restore writes the coordinates of s back onto t and returns the layout.
// A snapshot of a different tree is MALFORMED_TREE.
func Restore(t *tree.Tree, s Snapshot) (*Result, error) {
	if t == nil || t.Root == nil {
		return nil, errors.MalformedTree("nothing to restore: tree is empty")
	}
	g, err := ParseGeometry(s.TreeType)
	if err != nil {
		return nil, err
	}
	nodes := t.Nodes()
	if len(nodes) != len(s.Positions) {
		return nil, errors.MalformedTree("layout has %d positions for %d nodes", len(s.Positions), len(nodes))
	}
	for i, n := range nodes {
		p := s.Positions[i]
		n.Distance, n.RawBreadth, n.RawDepth = p.Distance, p.RawBreadth, p.RawDepth
		n.Breadth, n.DepthPos = p.Breadth, p.DepthPos
	}
	return &Result{
		Geometry:     g,
		Params:       s.Params,
		Tree:         t,
		Nodes:        nodes,
		Links:        t.Links(),
		DepthScale:   s.DepthScale,
		BreadthScale: s.BreadthScale,
	}, nil
}
