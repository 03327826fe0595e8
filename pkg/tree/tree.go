// Package tree provides the phylogenetic tree model consumed by layout and
// rendering.
//
// A [Tree] wraps a root [Node] produced by the Newick reader ([Parse]) or
// built by hand. [New] validates the structure once: every node must be
// reachable exactly once from the root. After validation the tree exposes a
// fixed pre-order traversal ([Walk], [Tree.Nodes]) that visits children in
// reverse index order; layout results are defined in terms of that order.
//
// Nodes carry both the parsed attributes (name, edge length, children) and
// the layout fields written by package layout. Raw positions come from the
// clustering pass and are left untouched by the scalers, which always derive
// display positions from them.
package tree

import (
	"github.com/matzehuels/phylogram/pkg/errors"
)

// Node is one node of a phylogenetic tree.
type Node struct {
	Name      string  // Leaf label or internal label; may be empty
	Length    float64 // Non-negative edge length to parent (0 when absent)
	HasLength bool    // Whether the Newick input carried a length
	Children  []*Node

	// Structural fields set by New.
	Parent *Node
	Depth  int // Edges from the root

	// Layout fields set by package layout.
	Distance   float64 // Cumulative edge length from the root
	RawBreadth float64 // Breadth position assigned by clustering
	RawDepth   float64 // Depth position assigned by clustering
	Breadth    float64 // Display breadth (pixels, or degrees for radial)
	DepthPos   float64 // Display depth (pixels, or radius for radial)
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// IsRoot reports whether n has no parent.
func (n *Node) IsRoot() bool { return n.Parent == nil }

// Link is a parent to child edge.
type Link struct {
	Source *Node
	Target *Node
}

// Tree is a validated rooted tree.
type Tree struct {
	Root  *Node
	nodes []*Node
}

// New validates the structure below root and returns a Tree.
// It sets Parent and Depth on every node. A nil root, a nil child, or a node
// reachable along two different paths is reported as MALFORMED_TREE.
func New(root *Node) (*Tree, error) {
	if root == nil {
		return nil, errors.MalformedTree("tree has no root")
	}

	seen := make(map[*Node]bool)
	var nodes []*Node
	var visit func(n, parent *Node, depth int) error
	visit = func(n, parent *Node, depth int) error {
		if seen[n] {
			return errors.MalformedTree("node %q is reachable more than once", n.Name)
		}
		seen[n] = true
		n.Parent = parent
		n.Depth = depth
		nodes = append(nodes, n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			c := n.Children[i]
			if c == nil {
				return errors.MalformedTree("node %q has a nil child at index %d", n.Name, i)
			}
			if err := visit(c, n, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(root, nil, 0); err != nil {
		return nil, err
	}
	return &Tree{Root: root, nodes: nodes}, nil
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Nodes returns all nodes in traversal order (see Walk).
// The slice is shared; callers must not modify it.
func (t *Tree) Nodes() []*Node { return t.nodes }

// Leaves returns the leaf nodes in traversal order.
func (t *Tree) Leaves() []*Node {
	var leaves []*Node
	for _, n := range t.nodes {
		if n.IsLeaf() {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// Links returns every parent to child edge in traversal order of the child.
func (t *Tree) Links() []Link {
	links := make([]Link, 0, max(len(t.nodes)-1, 0))
	for _, n := range t.nodes {
		if n.Parent != nil {
			links = append(links, Link{Source: n.Parent, Target: n})
		}
	}
	return links
}

// Find returns the first node named name in traversal order.
func (t *Tree) Find(name string) (*Node, bool) {
	for _, n := range t.nodes {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// Walk visits root and its descendants in pre-order, children in reverse
// index order. If fn returns false, the children of that node are skipped.
// The structure below root must be acyclic; trees built with New are.
func Walk(root *Node, fn func(*Node) bool) {
	if root == nil || !fn(root) {
		return
	}
	for i := len(root.Children) - 1; i >= 0; i-- {
		Walk(root.Children[i], fn)
	}
}
