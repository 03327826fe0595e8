package sink

import (
	"github.com/goccy/go-json"

	"github.com/matzehuels/phylogram/pkg/layout"
	"github.com/matzehuels/phylogram/pkg/metadata"
	"github.com/matzehuels/phylogram/pkg/render"
	"github.com/matzehuels/phylogram/pkg/scale"
	"github.com/matzehuels/phylogram/pkg/tree"
)

// Document is the JSON export of a rendered tree.
type Document struct {
	TreeType     string             `json:"tree_type"`
	Newick       string             `json:"newick"`
	Params       layout.Params      `json:"params"`
	DepthScale   scale.Linear       `json:"depth_scale"`
	BreadthScale *scale.Linear      `json:"breadth_scale,omitempty"`
	Nodes        []Node             `json:"nodes"`
	Scene        *render.Scene      `json:"scene,omitempty"`
	Columns      []string           `json:"columns,omitempty"`
	Legends      []render.LegendBox `json:"legends,omitempty"`
}

// Node is one exported node. Parent is -1 for the root.
type Node struct {
	ID         int              `json:"id"`
	Name       string           `json:"name"`
	Class      string           `json:"class"`
	Parent     int              `json:"parent"`
	Length     *float64         `json:"length,omitempty"`
	Distance   float64          `json:"distance"`
	X          float64          `json:"x"`
	Y          float64          `json:"y"`
	Breadth    float64          `json:"breadth"`
	Depth      float64          `json:"depth"`
	Fill       string           `json:"fill,omitempty"`
	Background string           `json:"background,omitempty"`
	Metadata   []metadata.Field `json:"metadata,omitempty"`
}

type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	scene  bool
	indent bool
	table  *metadata.Table
}

// WithScene embeds the full scene in the document.
func WithScene() JSONOption { return func(r *jsonRenderer) { r.scene = true } }

// WithIndent pretty-prints the document.
func WithIndent() JSONOption { return func(r *jsonRenderer) { r.indent = true } }

// WithMetadata attaches each leaf's metadata row.
func WithMetadata(t *metadata.Table) JSONOption { return func(r *jsonRenderer) { r.table = t } }

// RenderJSON exports res together with the styling recorded in s.
func RenderJSON(res *layout.Result, s *render.Scene, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}
	doc := NewDocument(res, s, r.table)
	if !r.scene {
		doc.Scene = nil
	}
	if r.indent {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// NewDocument assembles the export of res. Node IDs match the scene mark
// IDs.
func NewDocument(res *layout.Result, s *render.Scene, t *metadata.Table) Document {
	doc := Document{
		TreeType:     res.Geometry.Name(),
		Newick:       res.Tree.Newick(),
		Params:       res.Params,
		DepthScale:   res.DepthScale,
		BreadthScale: res.BreadthScale,
		Scene:        s,
		Columns:      t.Columns(),
	}
	if s != nil {
		doc.Legends = s.Legends
	}

	ids := make(map[*tree.Node]int, len(res.Nodes))
	for i, n := range res.Nodes {
		ids[n] = i
	}
	for i, n := range res.Nodes {
		p := res.Point(n)
		node := Node{
			ID:       i,
			Name:     n.Name,
			Parent:   -1,
			Distance: n.Distance,
			X:        p.X,
			Y:        p.Y,
			Breadth:  n.Breadth,
			Depth:    n.DepthPos,
		}
		if n.Parent != nil {
			node.Parent = ids[n.Parent]
		}
		if n.HasLength {
			length := n.Length
			node.Length = &length
		}
		if s != nil && i < len(s.Marks) {
			m := s.Marks[i]
			node.Class, node.Fill = m.Class, m.Fill
			if m.Background != nil {
				node.Background = m.Background.Fill
			}
		}
		if n.IsLeaf() {
			node.Metadata = t.Row(n.Name)
		}
		doc.Nodes = append(doc.Nodes, node)
	}
	return doc
}
