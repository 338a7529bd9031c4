package reco

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// scaledClamp bounds individual scaled shape values so that a single
// odd image, e.g. with afterpulsing pixels, cannot dominate the mean.
const scaledClamp = 10.0

// Accumulator gathers per-image contributions to the event-level
// shape, energy and shower-maximum estimates. Zero value is ready for
// use; it is not safe for concurrent use.
type Accumulator struct {
	shapeW  []float64 // per-image weights
	scrw    []float64
	scrw2   []float64
	scrl    []float64
	scrl2   []float64
	coreDst []float64
	disp    []float64

	eW   []float64 // energy weights 1/(0.01+sigRel^2)
	lnE  []float64
	lnE2 []float64

	hW  []float64 // shower-maximum weights
	hD  []float64 // per-image distance to maximum estimates
	hD2 []float64

	tgW    []float64 // timing-gradient weights
	tg     []float64
	nFlatG int // distant images with a flat gradient
}

// NumShape returns the number of images entered into the shape and
// energy estimates.
func (a *Accumulator) NumShape() int { return len(a.shapeW) }

// NumDepth returns the number of images entered into the
// shower-maximum estimate.
func (a *Accumulator) NumDepth() int { return len(a.hW) }

// AddShape enters one image's scaled shape values, its core distance
// and its width-over-length displacement term. Values beyond the
// clamp are bounded symmetrically.
func (a *Accumulator) AddShape(scaledW, scaledL, coreDist, widthOverLength float64) {
	if scaledW > scaledClamp {
		scaledW = scaledClamp
	}
	if scaledW < -scaledClamp {
		scaledW = -scaledClamp
	}
	if scaledL > scaledClamp {
		scaledL = scaledClamp
	}
	if scaledL < -scaledClamp {
		scaledL = -scaledClamp
	}
	a.shapeW = append(a.shapeW, 1)
	a.scrw = append(a.scrw, scaledW)
	a.scrw2 = append(a.scrw2, scaledW*scaledW)
	a.scrl = append(a.scrl, scaledL)
	a.scrl2 = append(a.scrl2, scaledL*scaledL)
	a.coreDst = append(a.coreDst, coreDist)
	a.disp = append(a.disp, 1-widthOverLength)
}

// AddEnergy enters one image's energy estimate [TeV] with its
// relative spread. The weighting absorbs telescope-to-telescope
// fluctuations through a small systematic floor.
func (a *Accumulator) AddEnergy(energy, sigRel float64) {
	if energy <= 0 {
		return
	}
	w := 1 / (0.01 + sigRel*sigRel)
	ln := math.Log(energy)
	a.eW = append(a.eW, w)
	a.lnE = append(a.lnE, ln)
	a.lnE2 = append(a.lnE2, ln*ln)
}

// AddDepth enters one image's contribution to the shower-maximum
// distance estimate. dirDist is the camera-plane distance [rad]
// between the image centroid and the projected shower direction;
// coreDist/dirDist approximates the distance to the emission maximum
// along the shower axis.
func (a *Accumulator) AddDepth(amp, length, coreDist, dirDist float64) {
	if amp <= 0 || length <= 0 || dirDist <= 0 || coreDist <= 0 {
		return
	}
	w := amp / (length * length) *
		dirDist * dirDist / ((0.01 + dirDist) * (0.01 + dirDist)) *
		coreDist / (125 + coreDist)
	d := coreDist / dirDist
	a.hW = append(a.hW, w)
	a.hD = append(a.hD, d)
	a.hD2 = append(a.hD2, d*d)
}

// AddTimeGradient enters one image's signed time gradient along the
// major axis [ns/deg] at its core distance. Images closer than 50 m
// carry no usable gradient; distant ones get a core-distance weight
// so that the mean stays comparable across impact points.
func (a *Accumulator) AddTimeGradient(slope, coreDist float64) {
	if coreDist > 200 && math.Abs(slope) < 1.5 {
		a.nFlatG++
	}
	if coreDist <= 50 {
		return
	}
	w := coreDist / (coreDist + 100)
	w *= w
	a.tgW = append(a.tgW, w)
	a.tg = append(a.tg, math.Pow(math.Abs(slope+4.82), 1.21)*(125/coreDist))
}

// TimeGradient returns the weighted mean rescaled time gradient and
// the count of distant images whose gradient stayed flat. The mean is
// zero when no image contributed.
func (a *Accumulator) TimeGradient() (float64, int) {
	if len(a.tgW) == 0 {
		return 0, a.nFlatG
	}
	return stat.Mean(a.tg, a.tgW), a.nFlatG
}

// ShapeStats is the event-level mean scaled shape outcome.
type ShapeStats struct {
	N          int
	MeanWidth  float64
	SigWidth   float64
	MeanLength float64
	SigLength  float64
	OK         bool
}

// biasFactor corrects the spread of small samples; it blows up for
// a single image, marking its spread as essentially unknown.
func biasFactor(n int) float64 {
	return math.Sqrt(float64(n) / (float64(n) - 0.9999))
}

// Shape finalizes the mean scaled width and length. The scaled style
// applies a multiplicity-dependent rescaling that keeps shape-cut
// efficiencies nearly energy-independent; the fixed-threshold styles
// use the plain means.
func (a *Accumulator) Shape(style int) ShapeStats {
	n := len(a.shapeW)
	s := ShapeStats{
		N:          n,
		MeanWidth:  SentinelScaled,
		SigWidth:   SentinelScaled,
		MeanLength: SentinelScaled,
		SigLength:  SentinelScaled,
	}
	if n == 0 {
		return s
	}
	bf := biasFactor(n)
	mw := stat.Mean(a.scrw, a.shapeW)
	ml := stat.Mean(a.scrl, a.shapeW)
	s.MeanWidth = mw
	s.SigWidth = math.Sqrt(math.Max(0, stat.Mean(a.scrw2, a.shapeW)-mw*mw)) * bf
	s.MeanLength = ml
	s.SigLength = math.Sqrt(math.Max(0, stat.Mean(a.scrl2, a.shapeW)-ml*ml)) * bf

	if style == StyleScaled {
		scw := math.Sqrt(0.45 + 0.55*float64(n))
		scl := math.Sqrt(0.57 + 0.43*float64(n))
		s.MeanWidth *= scw
		s.SigWidth *= scw
		s.MeanLength *= scl
		s.SigLength *= scl
	}
	s.OK = true
	return s
}

// EnergyStats is the event-level energy outcome. LogEnergyRaw is the
// estimate before the bias correction.
type EnergyStats struct {
	Energy       float64 // [TeV]
	LogEnergy    float64
	LogEnergyRaw float64
	Resolution   float64 // expected relative spread
	Consistency  float64 // weighted spread of per-image estimates
	OK           bool
}

// Energy finalizes the weighted mean log energy, optionally removing
// a reconstruction bias through the correction curve.
func (a *Accumulator) Energy(ebias *Curve) EnergyStats {
	es := EnergyStats{
		Energy:       SentinelLogEnergy,
		LogEnergy:    SentinelLogEnergy,
		LogEnergyRaw: SentinelLogEnergy,
		Resolution:   SentinelResolution,
		Consistency:  SentinelResolution,
	}
	if len(a.eW) == 0 {
		return es
	}
	wSum := 0.0
	for _, w := range a.eW {
		wSum += w
	}
	if wSum <= 0 {
		return es
	}
	m1 := stat.Mean(a.lnE, a.eW)
	es.Energy = math.Exp(m1)
	es.LogEnergyRaw = math.Log10(es.Energy)
	es.LogEnergy = es.LogEnergyRaw
	if ebias != nil {
		es.LogEnergy -= ebias.Eval(es.LogEnergyRaw)
	}
	es.Resolution = 1 / math.Sqrt(wSum)

	m2 := stat.Mean(a.lnE2, a.eW)
	n := a.NumShape()
	if n >= 1 {
		es.Consistency = (m2 - m1*m1) * float64(n) / (float64(n) - 0.9999)
	}
	es.OK = true
	return es
}

// DepthStats is the event-level shower-maximum outcome. Distance is
// measured along the shower axis from the observation level; Height
// is above sea level assuming a plane-parallel atmosphere.
type DepthStats struct {
	N          int
	Distance   float64 // [m]
	Height     float64 // [m a.s.l.]
	HeightErr  float64
	Xmax       float64 // [g/cm^2]
	XmaxErr    float64
	ConeRadius float64 // Cherenkov light cone radius at the ground [m]
	OK         bool
}

// kg/m^2 per g/cm^2, for reporting atmospheric depths in the
// customary unit.
const depthUnit = 10.0

// Depth finalizes the shower-maximum estimate. At least two
// contributing images are required.
func (a *Accumulator) Depth(atm Atmosphere, alt, obsHeight float64) DepthStats {
	ds := DepthStats{
		N:         len(a.hW),
		Distance:  -1,
		Height:    -1,
		HeightErr: SentinelHmaxErr,
		XmaxErr:   SentinelHmaxErr,
	}
	if ds.N < 2 {
		return ds
	}
	wSum := 0.0
	for _, w := range a.hW {
		wSum += w
	}
	if wSum <= 0 {
		return ds
	}
	s1 := stat.Mean(a.hD, a.hW)
	s2 := stat.Mean(a.hD2, a.hW)
	sinAlt := math.Sin(alt)

	ds.Distance = s1
	ds.Height = s1*sinAlt + obsHeight
	if sd := s2 - s1*s1; sd > 0 {
		ds.HeightErr = math.Sqrt(sd) * math.Sqrt(1/float64(ds.N-1)) * sinAlt
	}
	ds.Xmax = atm.Thickness(ds.Height) / depthUnit
	if ds.HeightErr < SentinelHmaxErr {
		ds.XmaxErr = 0.5 * (atm.Thickness(ds.Height-ds.HeightErr) -
			atm.Thickness(ds.Height+ds.HeightErr)) / depthUnit
	}
	n := 1 + atm.RefractIndexMinusOne(ds.Height)
	ds.ConeRadius = s1 * math.Sqrt(1-1/(n*n))
	ds.OK = true
	return ds
}

// MeanCoreDist returns the weighted mean core distance of the shape
// images, or the sentinel when none were entered.
func (a *Accumulator) MeanCoreDist() float64 {
	if len(a.shapeW) == 0 {
		return SentinelCoreDist
	}
	return stat.Mean(a.coreDst, a.shapeW)
}

// MeanDisp returns the weighted mean image displacement 1 - w/l.
func (a *Accumulator) MeanDisp() float64 {
	if len(a.shapeW) == 0 {
		return 0
	}
	return stat.Mean(a.disp, a.shapeW)
}
