package reco

import "math"

// NumThetaVariants is the number of alternative optimized angular cut
// curves carried alongside the fixed cut.
const NumThetaVariants = 7

const degToRad = math.Pi / 180

// ThetaCuts holds multiplicity-dependent angular cut limits [rad] for
// each optimized variant. Variants without their own curve inherit
// the previous one; slots left unset fall back to the fixed limit.
type ThetaCuts struct {
	cut [NumThetaVariants][]float64
}

// NewThetaCuts returns cuts with every variant at the fixed limit
// maxTheta*scale for multiplicities 0..maxMult.
func NewThetaCuts(p *Params, maxMult int) *ThetaCuts {
	tc := &ThetaCuts{}
	fixed := p.MaxThetaDeg * degToRad * p.ThetaScale
	for v := 0; v < NumThetaVariants; v++ {
		tc.cut[v] = make([]float64, maxMult+1)
		for i := range tc.cut[v] {
			tc.cut[v][i] = fixed
		}
	}
	return tc
}

// SetVariant installs one optimized curve, given in degrees per
// multiplicity. Values are scaled by the theta scale and bounded by
// the configured minimum and maximum limits; non-positive entries
// fall back to the fixed limit.
func (tc *ThetaCuts) SetVariant(v int, deg []float64, p *Params) {
	if v < 0 || v >= NumThetaVariants {
		return
	}
	lo := p.MinThetaDeg * degToRad * p.ThetaScale
	hi := p.MaxThetaDeg * degToRad * p.ThetaScale
	for i := 0; i < len(tc.cut[v]) && i < len(deg); i++ {
		c := deg[i] * degToRad * p.ThetaScale
		if hi > 0 && c > hi {
			c = hi
		}
		if c < lo {
			c = lo
		}
		if c <= 0 {
			c = hi
		}
		tc.cut[v][i] = c
	}
}

// CopyVariant duplicates variant src into dst, for variants whose own
// curve is unavailable.
func (tc *ThetaCuts) CopyVariant(dst, src int) {
	if dst < 0 || dst >= NumThetaVariants || src < 0 || src >= NumThetaVariants {
		return
	}
	copy(tc.cut[dst], tc.cut[src])
}

// Cut returns the limit [rad] for one variant at the given image
// multiplicity; out-of-range multiplicities clamp to the table edge.
func (tc *ThetaCuts) Cut(variant, mult int) float64 {
	if variant < 0 || variant >= NumThetaVariants {
		return 0
	}
	c := tc.cut[variant]
	if mult < 0 {
		mult = 0
	}
	if mult >= len(c) {
		mult = len(c) - 1
	}
	return c[mult]
}

// CutEvaluator applies the gamma-hadron cut chain to finalized event
// estimates. The optimized theta table is optional; without it only
// the fixed angular cut is decided and every variant fails.
type CutEvaluator struct {
	store *ParamStore
	theta *ThetaCuts
}

// NewCutEvaluator returns an evaluator over the given store and
// optional optimized theta cuts.
func NewCutEvaluator(store *ParamStore, theta *ThetaCuts) *CutEvaluator {
	return &CutEvaluator{store: store, theta: theta}
}

// ShapeOK decides the mean scaled shape cut. The preset styles use
// fixed windows; everything else evaluates the configured curves at
// the reconstructed energy.
func (e *CutEvaluator) ShapeOK(s ShapeStats, lgE float64) bool {
	if !s.OK {
		return false
	}
	p := e.store.Get(0)
	switch p.Style {
	case StyleStandard:
		return s.MeanWidth < 0.9 && s.MeanLength < 2.0 &&
			s.MeanWidth > -2.0 && s.MeanLength > -2.0
	case StyleHard:
		return s.MeanWidth < 0.7 && s.MeanLength < 2.0 &&
			s.MeanWidth > -2.0 && s.MeanLength > -2.0
	case StyleLoose:
		return s.MeanWidth < 1.2 && s.MeanLength < 2.0 &&
			s.MeanWidth > -2.0 && s.MeanLength > -2.0
	default:
		return s.MeanWidth < p.WidthMax.Eval(lgE) &&
			s.MeanLength < p.LengthMax.Eval(lgE) &&
			s.MeanWidth > p.WidthMin.Eval(lgE) &&
			s.MeanLength > p.LengthMin.Eval(lgE)
	}
}

// thetaEscale is the energy-dependent stretch of all angular limits.
func (e *CutEvaluator) thetaEscale(lgE float64) float64 {
	return e.store.Get(0).ThetaEscale.Eval(lgE)
}

// AngleOK decides the fixed angular cut for a reconstructed direction
// at angle theta [rad] from the source.
func (e *CutEvaluator) AngleOK(theta, lgE float64) bool {
	p := e.store.Get(0)
	return theta < p.MaxThetaDeg*degToRad*p.ThetaScale*e.thetaEscale(lgE)
}

// AngleVariants decides every optimized angular cut variant at the
// given image multiplicity.
func (e *CutEvaluator) AngleVariants(theta, lgE float64, mult int) [NumThetaVariants]bool {
	var ok [NumThetaVariants]bool
	if e.theta == nil {
		return ok
	}
	scale := e.thetaEscale(lgE)
	for v := 0; v < NumThetaVariants; v++ {
		ok[v] = theta < e.theta.Cut(v, mult)*scale
	}
	return ok
}

// EresOK decides the expected energy-resolution cut. The envelope
// tightens towards higher energies and loosens below 1 TeV.
func (e *CutEvaluator) EresOK(es EnergyStats) bool {
	if !es.OK || es.Energy <= 0 {
		return false
	}
	lgE := es.LogEnergy
	env := 0.20 - 0.09*func() float64 {
		if lgE < 0 {
			return lgE
		}
		return math.Tanh(lgE)
	}()
	return es.Resolution < e.store.Get(0).EresCut.Eval(lgE)*env
}

// DE2OK decides the energy-consistency cut on the weighted spread of
// per-image energy estimates.
func (e *CutEvaluator) DE2OK(es EnergyStats) bool {
	if !es.OK {
		return false
	}
	return es.Consistency < e.store.Get(0).DE2Cut.Eval(es.LogEnergy)
}

// DepthOK decides the shower-maximum cut: the reconstructed distance
// to maximum must sit in a window around the expectation expDist for
// the reconstructed energy.
func (e *CutEvaluator) DepthOK(ds DepthStats, expDist, lgE float64) bool {
	if !ds.OK {
		return false
	}
	h := e.store.Get(0).HmaxCut
	m := 1500 + 500*lgE
	if lgE > 0 {
		m += 300 * lgE
	}
	return ds.Distance > (1.0-0.1*h)*expDist-m &&
		ds.Distance < (1.1+0.2*h)*expDist+m
}

// Acceptance folds the individual cut decisions into the 0..5 ladder:
// 0 fails the shape cut, 1 passes shape only, 2 adds the first
// optimized angular cut, 3 adds energy resolution, 4 adds energy
// consistency, 5 adds the shower-maximum window. Each level requires
// the angular variant matching its depth in the ladder.
func Acceptance(shape bool, variants [NumThetaVariants]bool, eres, de2, depth bool) int {
	if !shape {
		return 0
	}
	acc := 1
	if variants[0] {
		acc = 2
		if eres && variants[1] {
			acc = 3
			if de2 && variants[2] {
				acc = 4
				if depth {
					acc = 5
				}
			}
		}
	}
	return acc
}
