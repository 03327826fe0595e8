package layout

import (
	"testing"

	"github.com/matzehuels/phylogram/pkg/errors"
)

func TestSnapshotRestore(t *testing.T) {
	const newick = "((A:1,B:2):1,(C:1,D:3):2);"
	for _, g := range []Geometry{Rectangular{}, Radial{}} {
		t.Run(g.Name(), func(t *testing.T) {
			src := mustParse(t, newick)
			res, err := Compute(src, g, Params{Width: 400, Height: 300})
			if err != nil {
				t.Fatal(err)
			}
			snap := res.Snapshot()

			dst := mustParse(t, newick)
			got, err := Restore(dst, snap)
			if err != nil {
				t.Fatalf("Restore() error: %v", err)
			}
			if got.Geometry.Name() != g.Name() {
				t.Errorf("geometry = %s, want %s", got.Geometry.Name(), g.Name())
			}
			for i, n := range got.Nodes {
				want := res.Nodes[i]
				if n.Breadth != want.Breadth || n.DepthPos != want.DepthPos || n.RawBreadth != want.RawBreadth {
					t.Errorf("node %q restored at (%v,%v), want (%v,%v)", n.Name, n.Breadth, n.DepthPos, want.Breadth, want.DepthPos)
				}
			}
			if (got.BreadthScale == nil) != (res.BreadthScale == nil) {
				t.Error("breadth scale presence differs")
			}
		})
	}
}

func TestRestoreMismatch(t *testing.T) {
	res, err := Compute(mustParse(t, "(A,B);"), nil, Params{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = Restore(mustParse(t, "(A,B,C);"), res.Snapshot())
	if !errors.Is(err, errors.ErrCodeMalformedTree) {
		t.Errorf("Restore() error = %v, want %s", err, errors.ErrCodeMalformedTree)
	}

	bad := res.Snapshot()
	bad.TreeType = "circular"
	if _, err := Restore(mustParse(t, "(A,B);"), bad); !errors.Is(err, errors.ErrCodeInvalidTreeType) {
		t.Errorf("Restore() error = %v, want %s", err, errors.ErrCodeInvalidTreeType)
	}
}
