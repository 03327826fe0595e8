package scale

import (
	"math"
	"sort"
	"testing"
)

func TestLinearApply(t *testing.T) {
	tests := []struct {
		name  string
		scale Linear
		in    float64
		want  float64
	}{
		{"lower bound", NewLinear(0, 5, 0, 100), 0, 0},
		{"upper bound", NewLinear(0, 5, 0, 100), 5, 100},
		{"midpoint", NewLinear(0, 5, 0, 100), 1, 20},
		{"reversed range", NewLinear(0, 10, 100, 0), 10, 0},
		{"extrapolates", NewLinear(0, 1, 0, 22), 2, 44},
		{"degenerate domain", NewLinear(0, 0, 0, 100), 3, 0},
		{"identity", Identity(800), 123.5, 123.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.scale.Apply(tt.in)
			if math.IsNaN(got) || math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Apply(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLinearInvert(t *testing.T) {
	s := NewLinear(10, 0, -3, 7)
	for _, v := range []float64{0, 2.5, 10} {
		if got := s.Invert(s.Apply(v)); math.Abs(got-v) > 1e-9 {
			t.Errorf("Invert(Apply(%v)) = %v", v, got)
		}
	}
	if got := NewLinear(1, 2, 5, 5).Invert(5); got != 1 {
		t.Errorf("Invert on flat range = %v, want 1", got)
	}
}

func TestLinearTicks(t *testing.T) {
	tests := []struct {
		name   string
		domain [2]float64
	}{
		{"unit", [2]float64{0, 1}},
		{"branch lengths", [2]float64{0, 5}},
		{"pixels", [2]float64{0, 800}},
		{"reversed", [2]float64{3, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Linear{Domain: tt.domain, Range: [2]float64{0, 100}}
			ticks := s.Ticks()
			if len(ticks) < 2 {
				t.Fatalf("Ticks() = %v, want at least 2", ticks)
			}
			if !sort.Float64sAreSorted(ticks) {
				t.Errorf("Ticks() not ascending: %v", ticks)
			}
			lo, hi := math.Min(tt.domain[0], tt.domain[1]), math.Max(tt.domain[0], tt.domain[1])
			for _, v := range ticks {
				if v < lo || v > hi {
					t.Errorf("tick %v outside [%v, %v]", v, lo, hi)
				}
			}
		})
	}

	if got := NewLinear(0, 0, 0, 1).Ticks(); len(got) != 1 || got[0] != 0 {
		t.Errorf("degenerate Ticks() = %v, want [0]", got)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(1.23456); got != 1.23 {
		t.Errorf("Round2() = %v, want 1.23", got)
	}
	if got := Round2(0.125); got != 0.13 {
		t.Errorf("Round2() = %v, want 0.13", got)
	}
}

func TestQuantize(t *testing.T) {
	q := NewQuantize(0, 11, 11)
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.99, 0},
		{1, 1},
		{5.5, 5},
		{10.99, 10},
		{11, 10},
		{-4, 0},
		{40, 10},
	}
	for _, tt := range tests {
		if got := q.Bucket(tt.in); got != tt.want {
			t.Errorf("Bucket(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if got := NewQuantize(3, 3, 11).Bucket(3); got != 0 {
		t.Errorf("flat extent Bucket() = %d, want 0", got)
	}
	if s := NewQuantize(10, 0, 0); s.Min != 0 || s.Max != 10 || s.N != 1 {
		t.Errorf("NewQuantize normalisation = %+v", s)
	}
	if got := q.Threshold(2); got != 2 {
		t.Errorf("Threshold(2) = %v, want 2", got)
	}
}
