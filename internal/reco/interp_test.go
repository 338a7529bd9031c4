package reco

import (
	"math"
	"testing"
)

func TestNewCurveValidation(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		ys   []float64
	}{
		{"length mismatch", []float64{0, 1}, []float64{0}},
		{"single point", []float64{0}, []float64{1}},
		{"non-monotonic support", []float64{0, 2, 1}, []float64{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCurve(tt.xs, tt.ys); err == nil {
				t.Error("NewCurve succeeded, want error")
			}
		})
	}
}

func TestCurveEval(t *testing.T) {
	c, err := NewCurve([]float64{0, 1, 2, 4}, []float64{10, 20, 40, 80})
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}

	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"below support clamps", -5, 10},
		{"at first point", 0, 10},
		{"mid first interval", 0.5, 15},
		{"at interior point", 2, 40},
		{"mid wide interval", 3, 60},
		{"at last point", 4, 80},
		{"above support clamps", 100, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Eval(tt.x); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Eval(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestCurveEvalDescendingSupport(t *testing.T) {
	c, err := NewCurve([]float64{4, 2, 1, 0}, []float64{80, 40, 20, 10})
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}
	if got := c.Eval(3); got != 60 {
		t.Errorf("Eval(3) = %v, want 60", got)
	}
	if got := c.Eval(-1); got != 10 {
		t.Errorf("Eval below support = %v, want 10", got)
	}
	if got := c.Eval(9); got != 80 {
		t.Errorf("Eval above support = %v, want 80", got)
	}
}

func TestCurveEvalDuplicatePoints(t *testing.T) {
	c, err := NewCurve([]float64{0, 1, 1, 2}, []float64{0, 10, 30, 40})
	if err != nil {
		t.Fatalf("NewCurve: %v", err)
	}
	// At the duplicated abscissa the later value wins.
	if got := c.Eval(1); got != 30 {
		t.Errorf("Eval at duplicate support = %v, want 30", got)
	}
	if got := c.Eval(1.5); got != 35 {
		t.Errorf("Eval(1.5) = %v, want 35", got)
	}
}
