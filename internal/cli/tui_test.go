package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/phylogram/pkg/layout"
	"github.com/matzehuels/phylogram/pkg/pipeline"
	"github.com/matzehuels/phylogram/pkg/session"
)

func testModel(t *testing.T) treeModel {
	t.Helper()
	ctx := context.Background()
	c := testCLI()
	runner := pipeline.NewRunner(nil, nil, c.Logger)
	sess, err := session.New(runner, pipeline.Options{Newick: testNewick, Mapping: testMapping}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := sess.Load(ctx); err != nil {
		t.Fatal(err)
	}
	return newTreeModel(ctx, sess, filepath.Join(t.TempDir(), "tree.svg"))
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCycleColumn(t *testing.T) {
	cols := []string{"site", "depth"}
	tests := []struct {
		columns []string
		current string
		want    string
	}{
		{cols, "", "site"},
		{cols, "site", "depth"},
		{cols, "depth", ""},
		{cols, "gone", ""},
		{nil, "", ""},
	}
	for _, tt := range tests {
		if got := cycleColumn(tt.columns, tt.current); got != tt.want {
			t.Errorf("cycleColumn(%v, %q) = %q, want %q", tt.columns, tt.current, got, tt.want)
		}
	}
}

func TestTreeModelEdit(t *testing.T) {
	m := treeModel{columns: []string{"site"}}
	base := pipeline.Options{}
	base.SetDefaults()

	tests := []struct {
		key   string
		check func(pipeline.Options) bool
	}{
		{"t", func(o pipeline.Options) bool { return o.TreeType == layout.TreeTypeRadial }},
		{"b", func(o pipeline.Options) bool { return o.SkipBranchLengthScaling }},
		{"+", func(o pipeline.Options) bool { return o.LeafRadius == base.LeafRadius+radiusStep }},
		{"-", func(o pipeline.Options) bool { return o.LeafRadius == pipeline.InteractiveMinLeafRadius }},
		{"]", func(o pipeline.Options) bool { return o.MinLeafSeparation == base.MinLeafSeparation+separationStep }},
		{"l", func(o pipeline.Options) bool { return o.SkipLabels }},
		{"d", func(o pipeline.Options) bool { return o.SkipDistanceLabels }},
		{"r", func(o pipeline.Options) bool { return o.HideRuler }},
		{"c", func(o pipeline.Options) bool { return o.LeafColorColumn == "site" }},
		{"g", func(o pipeline.Options) bool { return o.BackgroundColorColumn == "site" }},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := m.edit(tt.key, base)
			if !ok {
				t.Fatalf("edit(%q) not bound", tt.key)
			}
			if !tt.check(got) {
				t.Errorf("edit(%q) = %+v", tt.key, got)
			}
		})
	}

	if _, ok := m.edit("x", base); ok {
		t.Error("edit(x) should not be bound")
	}
}

func TestTreeModelSeparationBounds(t *testing.T) {
	m := treeModel{}
	opts := pipeline.Options{MinLeafSeparation: pipeline.InteractiveMaxLeafSeparation}
	got, _ := m.edit("]", opts)
	if got.MinLeafSeparation != pipeline.InteractiveMaxLeafSeparation {
		t.Errorf("separation = %v, want clamp at %v", got.MinLeafSeparation, pipeline.InteractiveMaxLeafSeparation)
	}
	opts.MinLeafSeparation = pipeline.InteractiveMinLeafSeparation
	got, _ = m.edit("[", opts)
	if got.MinLeafSeparation != pipeline.InteractiveMinLeafSeparation {
		t.Errorf("separation = %v, want clamp at %v", got.MinLeafSeparation, pipeline.InteractiveMinLeafSeparation)
	}
}

func TestTreeModelUpdate(t *testing.T) {
	m := testModel(t)

	tests := []struct {
		key  string
		want session.Change
	}{
		{"t", session.Relayout},
		{"r", session.Restyle},
		{"c", session.Restyle},
		{"]", session.Relayout},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			next, cmd := m.Update(key(tt.key))
			if cmd == nil {
				t.Fatalf("Update(%q) returned no command", tt.key)
			}
			if !next.(treeModel).busy {
				t.Error("model should be busy while rendering")
			}
			msg := cmd().(renderedMsg)
			if msg.err != nil {
				t.Fatalf("render error: %v", msg.err)
			}
			if msg.change != tt.want {
				t.Errorf("change = %v, want %v", msg.change, tt.want)
			}
			updated, _ := next.Update(msg)
			m = updated.(treeModel)
			if m.busy {
				t.Error("model still busy after render")
			}
		})
	}

	data, err := os.ReadFile(m.output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Error("output is not SVG")
	}
	if m.renders != len(tests) {
		t.Errorf("renders = %d, want %d", m.renders, len(tests))
	}
	if view := m.View(); !strings.Contains(view, "radial") || !strings.Contains(view, "site") {
		t.Errorf("View() missing current options:\n%s", view)
	}
}

func TestTreeModelQuit(t *testing.T) {
	m := testModel(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil || !next.(treeModel).quitting {
		t.Fatal("esc should quit")
	}
	if next.View() != "" {
		t.Error("View() should be empty after quit")
	}

	m.busy = true
	if _, cmd := m.Update(key("t")); cmd != nil {
		t.Error("keys are ignored while busy")
	}
}
