package reco

import "fmt"

// Curve is a piecewise-linear function over a monotonic support, used
// for energy-dependent corrections and cut lookups. Evaluation clamps
// to the first and last value outside the support.
type Curve struct {
	xs []float64
	ys []float64
}

// NewCurve builds a curve from matching x/y slices. The support must
// be monotonic (ascending or descending) and hold at least two
// points; a descending support is stored reversed.
func NewCurve(xs, ys []float64) (*Curve, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("curve: %d support points but %d values", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, fmt.Errorf("curve: need at least 2 points, got %d", len(xs))
	}

	descending := xs[len(xs)-1] < xs[0]
	for i := 1; i < len(xs); i++ {
		if descending && xs[i] > xs[i-1] {
			return nil, fmt.Errorf("curve: support not monotonic at index %d (%v > %v)", i, xs[i], xs[i-1])
		}
		if !descending && xs[i] < xs[i-1] {
			return nil, fmt.Errorf("curve: support not monotonic at index %d (%v < %v)", i, xs[i], xs[i-1])
		}
	}

	c := &Curve{
		xs: append([]float64(nil), xs...),
		ys: append([]float64(nil), ys...),
	}
	if descending {
		for i, j := 0, len(c.xs)-1; i < j; i, j = i+1, j-1 {
			c.xs[i], c.xs[j] = c.xs[j], c.xs[i]
			c.ys[i], c.ys[j] = c.ys[j], c.ys[i]
		}
	}
	return c, nil
}

// Len returns the number of support points.
func (c *Curve) Len() int { return len(c.xs) }

// Eval interpolates the curve at x. Values outside the support clamp
// to the edge values; evaluation exactly at a duplicated support
// point takes the later value.
func (c *Curve) Eval(x float64) float64 {
	n := len(c.xs)
	if x <= c.xs[0] {
		return c.ys[0]
	}
	if x >= c.xs[n-1] {
		return c.ys[n-1]
	}

	// Binary search for the interval with xs[lo] <= x < xs[lo+1].
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if x < c.xs[mid] {
			hi = mid
		} else {
			lo = mid
		}
	}

	dx := c.xs[lo+1] - c.xs[lo]
	frac := 0.5 // zero-width interval guard
	if dx > 0 {
		frac = (x - c.xs[lo]) / dx
	}
	return c.ys[lo] + frac*(c.ys[lo+1]-c.ys[lo])
}
