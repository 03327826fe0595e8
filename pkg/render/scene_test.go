package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/phylogram/pkg/color"
	"github.com/matzehuels/phylogram/pkg/layout"
	"github.com/matzehuels/phylogram/pkg/metadata"
	"github.com/matzehuels/phylogram/pkg/tree"
)

const newick = "((A:1,B:2):1,(C:1,D:3):2);"

const mapping = "#SampleID\tBodySite\tpH\n" +
	"A\tgut\t6.5\n" +
	"B\tskin\t7.0\n" +
	"C\tgut\t5.5\n"

func compute(t *testing.T, g layout.Geometry) *layout.Result {
	t.Helper()
	tr, err := tree.ParseString(newick)
	if err != nil {
		t.Fatal(err)
	}
	res, err := layout.Compute(tr, g, layout.Params{Width: 100, Height: 300, MinLeafSeparation: 22})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func table(t *testing.T) *metadata.Table {
	t.Helper()
	tbl, err := metadata.Parse(strings.NewReader(mapping))
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func mark(t *testing.T, s *Scene, name string) Mark {
	t.Helper()
	for _, m := range s.Marks {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("no mark named %q", name)
	return Mark{}
}

func TestBuildRectangular(t *testing.T) {
	res := compute(t, layout.Rectangular{})
	s := Build(res, Options{})

	if len(s.Marks) != 7 || len(s.Links) != 6 {
		t.Fatalf("marks/links = %d/%d, want 7/6", len(s.Marks), len(s.Links))
	}
	if s.Radial || s.TreeType != "rectangular" {
		t.Errorf("TreeType = %q radial=%v", s.TreeType, s.Radial)
	}
	for i, m := range s.Marks {
		if m.ID != i {
			t.Errorf("mark %d has ID %d", i, m.ID)
		}
	}

	root := s.Marks[0]
	if root.Class != ClassRoot || root.Circle != DefaultLeafRadius {
		t.Errorf("root = %+v", root)
	}
	if root.Label != nil {
		t.Error("root without length should be unlabeled")
	}

	a := mark(t, s, "A")
	if a.Class != ClassLeaf {
		t.Errorf("A class = %q", a.Class)
	}
	if a.Label == nil || a.Label.Text != "A (1)" || a.Label.Anchor != "start" || a.Label.DX != 8 {
		t.Errorf("A label = %+v", a.Label)
	}
	if a.Fill != color.FallbackLeafFill || a.Stroke != color.FallbackLeafStroke || a.Mapped {
		t.Errorf("A style = %s/%s mapped=%v", a.Fill, a.Stroke, a.Mapped)
	}
	if a.Background != nil {
		t.Error("A should have no background")
	}
	if a.Tooltip != "Leaf A" {
		t.Errorf("A tooltip = %q", a.Tooltip)
	}

	var inner []string
	for _, m := range s.Marks {
		if m.Class == ClassInner {
			if m.Circle != 0 {
				t.Errorf("inner node %d has a circle", m.ID)
			}
			inner = append(inner, m.Label.Text)
			if m.Label.Anchor != "end" || m.Label.DX != -6 || m.Label.DY != -6 {
				t.Errorf("inner label = %+v", m.Label)
			}
		}
	}
	if strings.Join(inner, ",") != "2,1" {
		t.Errorf("inner labels = %v, want [2 1]", inner)
	}

	for _, l := range s.Links {
		if l.Arc {
			t.Error("rectangular link drawn as arc")
		}
		if l.Start.X != l.Corner.X || l.Corner.Y != l.End.Y {
			t.Errorf("link %d->%d is not an elbow: %+v", l.Source, l.Target, l)
		}
	}

	if len(s.Rules) == 0 {
		t.Fatal("rectangular scene should have a ruler")
	}
	for i, rule := range s.Rules {
		if rule.Y1 != 0 || rule.Y2 <= 0 || rule.Label == "" {
			t.Errorf("rule %d = %+v", i, rule)
		}
		if i > 0 && rule.X <= s.Rules[i-1].X {
			t.Errorf("rules not ascending at %d", i)
		}
		if rule.X < 0 || rule.X > 100 {
			t.Errorf("rule %d at x=%v outside the depth extent", i, rule.X)
		}
	}

	if s.Origin.X < MarginLeft || s.Origin.Y < MarginTop {
		t.Errorf("Origin = %+v, want at least the margins", s.Origin)
	}
	if s.Width < 100+MarginLeft {
		t.Errorf("Width = %v, want room for the tree", s.Width)
	}
}

func TestBuildLabelToggles(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		leafLabel string
		inner     bool
	}{
		{"all labels", Options{}, "D (3)", true},
		{"names only", Options{SkipDistanceLabels: true}, "D", false},
		{"no labels", Options{SkipLabels: true}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Build(compute(t, layout.Rectangular{}), tt.opts)
			d := mark(t, s, "D")
			got := ""
			if d.Label != nil {
				got = d.Label.Text
			}
			if got != tt.leafLabel {
				t.Errorf("D label = %q, want %q", got, tt.leafLabel)
			}
			hasInner := false
			for _, m := range s.Marks {
				if m.Class == ClassInner && m.Label != nil {
					hasInner = true
				}
			}
			if hasInner != tt.inner {
				t.Errorf("inner labels = %v, want %v", hasInner, tt.inner)
			}
		})
	}
}

func TestBuildHideRuler(t *testing.T) {
	s := Build(compute(t, layout.Rectangular{}), Options{HideRuler: true})
	if len(s.Rules) != 0 {
		t.Errorf("Rules = %d, want none", len(s.Rules))
	}
}

func TestBuildRadial(t *testing.T) {
	res := compute(t, layout.Radial{})
	s := Build(res, Options{LeafRadius: 3})

	if !s.Radial || len(s.Rules) != 0 {
		t.Errorf("radial=%v rules=%d", s.Radial, len(s.Rules))
	}
	for _, n := range res.Tree.Leaves() {
		m := mark(t, s, n.Name)
		if m.Circle != 3 {
			t.Errorf("%s circle = %v, want 3", n.Name, m.Circle)
		}
		if m.Label.Text != n.Name {
			t.Errorf("radial leaf label = %q, want name only", m.Label.Text)
		}
		if flip := n.Breadth >= 180; m.Label.Flip != flip {
			t.Errorf("%s at %v flip = %v", n.Name, n.Breadth, m.Label.Flip)
		} else if flip && (m.Label.Anchor != "end" || m.Label.DX != -8) {
			t.Errorf("%s flipped label = %+v", n.Name, m.Label)
		}
		if m.Angle != n.Breadth || m.Radius != n.DepthPos {
			t.Errorf("%s polar = (%v, %v)", n.Name, m.Angle, m.Radius)
		}
	}
	for _, l := range s.Links {
		if l.Source == 0 && l.Arc {
			t.Error("links from the root have zero radius and no arc")
		}
	}
	if s.Origin.X <= MarginLeft || s.Origin.Y <= MarginTop {
		t.Errorf("radial origin %+v should be shifted past the margins", s.Origin)
	}
}

func TestBuildStyled(t *testing.T) {
	tbl := table(t)
	styler := color.NewStyler(tbl, nil, "BodySite", "pH")
	res := compute(t, layout.Rectangular{})
	s := Build(res, Options{Styler: styler, Table: tbl})

	a := mark(t, s, "A")
	if !a.Mapped || a.Stroke != color.MappedLeafStroke || !strings.HasPrefix(a.Fill, "#") {
		t.Errorf("A style = %s/%s mapped=%v", a.Fill, a.Stroke, a.Mapped)
	}
	if a.Background == nil {
		t.Fatal("A should have a background")
	}
	if want := 8 + a.Label.Width + 5; a.Background.Width != want {
		t.Errorf("background width = %v, want %v", a.Background.Width, want)
	}
	if a.Background.Y != -DefaultLeafRadius-5 || a.Background.Height != 10+2*DefaultLeafRadius {
		t.Errorf("background = %+v", a.Background)
	}
	if a.Tooltip != "Leaf A\n- BodySite: gut\n- pH: 6.5" {
		t.Errorf("A tooltip = %q", a.Tooltip)
	}

	d := mark(t, s, "D")
	if d.Mapped || d.Background != nil {
		t.Error("D has no metadata and should use the fallbacks")
	}

	if len(s.Legends) != 2 {
		t.Fatalf("legends = %d, want 2", len(s.Legends))
	}
	node, bg := s.Legends[0], s.Legends[1]
	if node.Shape != ShapeCircle || node.Role != "Node" {
		t.Errorf("node legend = %s/%s", node.Shape, node.Role)
	}
	if bg.Shape != ShapeBar || bg.Role != "Background" {
		t.Errorf("background legend = %s/%s", bg.Shape, bg.Role)
	}
	if bg.Y != node.Y+node.Height+15 {
		t.Errorf("background legend y = %v, want below node legend", bg.Y)
	}
	if node.X <= 100 {
		t.Errorf("legend x = %v, want right of the tree", node.X)
	}
	if s.Width < node.X+node.Width+MarginLeft {
		t.Errorf("Width = %v does not fit the legend", s.Width)
	}
}

func TestTooltip(t *testing.T) {
	if got := Tooltip("X", nil); got != "Leaf X" {
		t.Errorf("Tooltip(nil table) = %q", got)
	}
	if got := Tooltip("B", table(t)); got != "Leaf B\n- BodySite: skin\n- pH: 7.0" {
		t.Errorf("Tooltip(B) = %q", got)
	}
}

func TestFormatLength(t *testing.T) {
	tests := map[float64]string{1: "1", 0.25: "0.25", 1e-7: "0.0000001", -2: "-2"}
	for in, want := range tests {
		if got := FormatLength(in); got != want {
			t.Errorf("FormatLength(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestTextWidth(t *testing.T) {
	if TextWidth("") != 0 {
		t.Error("empty text should have no width")
	}
	if a, b := TextWidth("ab"), TextWidth("abcd"); b != 2*a {
		t.Errorf("fixed advance: %v vs %v", a, b)
	}
}
