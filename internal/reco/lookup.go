package reco

import (
	"fmt"
	"math"
)

// Table is a 2-D lookup over core distance and log10 image amplitude
// with equidistant bins. Lookups use the nearest bin; bins without
// entries are unavailable. Tables are filled from simulations and
// hold expected image parameters (and their spread) per bin.
type Table struct {
	RMin, RMax float64 // core distance axis [m]
	AMin, AMax float64 // lg(amplitude) axis
	NR, NA     int

	val []float64 // NR*NA, row-major over r
	num []float64 // entries per bin; 0 marks the bin unavailable
}

// NewTable allocates an empty table with the given axes.
func NewTable(rmin, rmax float64, nr int, amin, amax float64, na int) (*Table, error) {
	if nr < 1 || na < 1 {
		return nil, fmt.Errorf("lookup table: need positive bin counts, got %dx%d", nr, na)
	}
	if rmax <= rmin || amax <= amin {
		return nil, fmt.Errorf("lookup table: empty axis range [%v,%v]x[%v,%v]", rmin, rmax, amin, amax)
	}
	return &Table{
		RMin: rmin, RMax: rmax, NR: nr,
		AMin: amin, AMax: amax, NA: na,
		val: make([]float64, nr*na),
		num: make([]float64, nr*na),
	}, nil
}

func (t *Table) bin(r, lgA float64) int {
	ir := int(float64(t.NR) * (r - t.RMin) / (t.RMax - t.RMin))
	if ir < 0 {
		ir = 0
	}
	if ir >= t.NR {
		ir = t.NR - 1
	}
	ia := int(float64(t.NA) * (lgA - t.AMin) / (t.AMax - t.AMin))
	if ia < 0 {
		ia = 0
	}
	if ia >= t.NA {
		ia = t.NA - 1
	}
	return ir*t.NA + ia
}

// SetBin stores a value and entry count at bin indices (ir, ia).
// Out-of-range indices are ignored.
func (t *Table) SetBin(ir, ia int, val, num float64) {
	if ir < 0 || ir >= t.NR || ia < 0 || ia >= t.NA {
		return
	}
	t.val[ir*t.NA+ia] = val
	t.num[ir*t.NA+ia] = num
}

// Bin returns the stored value and entry count at bin indices
// (ir, ia). Out-of-range indices return zeros.
func (t *Table) Bin(ir, ia int) (val, num float64) {
	if ir < 0 || ir >= t.NR || ia < 0 || ia >= t.NA {
		return 0, 0
	}
	i := ir*t.NA + ia
	return t.val[i], t.num[i]
}

// Lookup returns the value of the bin holding (r, lgA) and whether
// that bin has any entries. Queries outside the half-open axis
// domain are unavailable rather than extrapolated.
func (t *Table) Lookup(r, lgA float64) (float64, bool) {
	if r < t.RMin || r >= t.RMax || lgA < t.AMin || lgA >= t.AMax {
		return 0, false
	}
	i := t.bin(r, lgA)
	return t.val[i], t.num[i] > 0
}

// NormTables bundles the per-type lookup tables needed to scale image
// shapes and estimate energies. Any table may be nil when the
// corresponding lookup is unavailable for the type. The primary
// tables span (core distance, lg amplitude); the optional secondary
// tables span (width/length ratio, lg amplitude) and carry the mean
// and mean square of their estimate.
type NormTables struct {
	WidthMean  *Table
	WidthSig   *Table
	LengthMean *Table
	LengthSig  *Table
	EnergyMean *Table // true energy over image amplitude
	EnergySig  *Table // relative spread of the energy estimate

	CoreDistMean *Table
	CoreDistSq   *Table
	ImgDistMean  *Table
	ImgDistSq    *Table
}

// Norm is the outcome of normalizing one image against the lookup
// tables. Unavailable scaled values carry SentinelScaled and a false
// flag; an unavailable energy estimate is zero.
type Norm struct {
	ScaledWidth   float64 // ratio to the expected value
	ScaledLength  float64
	ReducedWidth  float64 // (value-mean)/spread
	ReducedLength float64
	WidthOK       bool // reduced width available
	LengthOK      bool

	Energy   float64 // [TeV]
	SigmaRel float64 // relative spread of Energy
	EnergyOK bool

	// Estimates from the width/length ratio, when the secondary
	// tables are loaded.
	CoreDist    float64 // [m]
	CoreDistSig float64
	CoreDistOK  bool
	ImgDist     float64 // [rad]
	ImgDistSig  float64
	ImgDistOK   bool
}

// ImageNorm scales an image's width and length against the expected
// values at its core distance and amplitude, and derives a per-image
// energy estimate. Reduced scaling needs both a mean and a positive
// spread; anything missing yields the sentinel.
func (nt *NormTables) ImageNorm(r, amp, width, length float64) Norm {
	n := Norm{
		ScaledWidth:   SentinelScaled,
		ScaledLength:  SentinelScaled,
		ReducedWidth:  SentinelScaled,
		ReducedLength: SentinelScaled,
		SigmaRel:      SentinelScaled,
	}
	if amp <= 0 {
		return n
	}
	lgA := math.Log10(amp)

	if m, ok := lookupVal(nt.WidthMean, r, lgA); ok && m > 0 {
		n.ScaledWidth = width / m
		if s, ok := lookupVal(nt.WidthSig, r, lgA); ok && s > 0 {
			n.ReducedWidth = (width - m) / s
			n.WidthOK = true
		}
	}
	if m, ok := lookupVal(nt.LengthMean, r, lgA); ok && m > 0 {
		n.ScaledLength = length / m
		if s, ok := lookupVal(nt.LengthSig, r, lgA); ok && s > 0 {
			n.ReducedLength = (length - m) / s
			n.LengthOK = true
		}
	}

	if nt.EnergyMean != nil && nt.EnergySig != nil {
		ratio, ok1 := nt.EnergyMean.Lookup(r, lgA)
		sig, ok2 := nt.EnergySig.Lookup(r, lgA)
		if ok1 && ok2 && ratio > 0 && sig > 0 {
			n.Energy = amp * ratio
			n.SigmaRel = sig
			n.EnergyOK = true
		}
	}

	if length > 0 {
		wol := width / length
		n.CoreDist, n.CoreDistSig, n.CoreDistOK =
			secondaryEstimate(nt.CoreDistMean, nt.CoreDistSq, wol, lgA)
		n.ImgDist, n.ImgDistSig, n.ImgDistOK =
			secondaryEstimate(nt.ImgDistMean, nt.ImgDistSq, wol, lgA)
	}
	return n
}

func lookupVal(t *Table, r, lgA float64) (float64, bool) {
	if t == nil {
		return 0, false
	}
	return t.Lookup(r, lgA)
}

// secondaryEstimate reads an estimate mean and its mean square and
// turns them into mean and spread.
func secondaryEstimate(mean, sq *Table, wol, lgA float64) (est, sig float64, ok bool) {
	if mean == nil || sq == nil {
		return 0, 0, false
	}
	m, ok1 := mean.Lookup(wol, lgA)
	s2, ok2 := sq.Lookup(wol, lgA)
	if !ok1 || !ok2 || s2 < m*m {
		return 0, 0, false
	}
	return m, math.Sqrt(s2 - m*m), true
}
