package reco

import "log"

// MaxTelTypes is the number of concrete telescope-type slots. Slot 0
// holds global parameters (and acts as a last-resort fallback), slots
// 1..MaxTelTypes are concrete types, and one further slot keeps the
// compiled-in defaults untouched for reference.
const MaxTelTypes = 10

// Analysis style selected by the flags parameter.
const (
	// StyleScaled uses scaled-reduced shape parameters with
	// multiplicity-dependent rescaling and parametrized cut curves.
	StyleScaled = 0
	// StyleStandard, StyleHard and StyleLoose are fixed-threshold
	// presets without rescaling.
	StyleStandard = 1
	StyleHard     = 2
	StyleLoose    = 3
	// Styles >= 4 disable rescaling but keep user-defined curves.
)

// CutCurve is an energy-dependent cut parameter: value at 1 TeV,
// slope versus lg E, and the minimum and maximum the evaluated
// parameter is clamped to. A zero slope makes the curve constant.
type CutCurve [4]float64

// Eval evaluates the curve at the given lg E.
func (c CutCurve) Eval(lgE float64) float64 {
	v := c[0]
	if c[1] == 0 {
		return v
	}
	v += c[1] * lgE
	if v < c[2] {
		v = c[2]
	}
	if v > c[3] {
		v = c[3]
	}
	return v
}

// TypeMatch holds the optional matching criteria that assign physical
// telescopes to a type slot. Zero values mean "criterion not set".
type TypeMatch struct {
	MinTelID    int
	MaxTelID    int
	MirrorArea  float64 // [m^2]
	FocalLength float64 // [m]
	NumPixels   int
}

// Configured reports whether any matching criterion is set.
func (m TypeMatch) Configured() bool {
	return (m.MinTelID > 0 && m.MaxTelID > 0) ||
		m.MirrorArea > 0 || m.FocalLength > 0 || m.NumPixels > 0
}

// Params holds all tunable cut thresholds and selection criteria for
// one telescope-type slot.
type Params struct {
	// Style selects the analysis style and shape-cut policy; it is
	// global in effect but mirrored into every slot.
	Style int

	MinPix     int // minimum significant pixels in usable images
	RecoFlag   int
	MinTelImg  int // minimum usable images per event
	MaxTelImg  int
	RefPixel   int // which pixel amplitude serves as reference
	TrigReq    int // required trigger type bit pattern
	Integrator int // pulse integration scheme
	IntegParam [3]int
	IntegThr   [2]int // per-gain significance thresholds [ADC]
	NoRescale  int

	SourceOffsetDeg float64
	SpectralIndex   float64 // difference to the assumed source spectrum
	MinAmplitude    float64 // [p.e.]
	TailcutLow      float64
	TailcutHigh     float64
	MinFrac         float64

	MaxThetaDeg float64
	MinThetaDeg float64
	ThetaScale  float64
	ThetaEscale CutCurve // lg E dependent scaling of the theta limit

	WidthMin  CutCurve // scaled-reduced width/length cut curves
	WidthMax  CutCurve
	LengthMin CutCurve
	LengthMax CutCurve

	EresCut CutCurve // energy-resolution cut scaling
	DE2Cut  CutCurve // energy-consistency cut parameter
	HmaxCut float64  // shower-maximum cut scaling

	CameraClipDeg float64
	ClipAmp       float64
	CalibScale    float64
	FocalLength   float64

	NeighbourRadius [3]float64 // [pixel diameters]
	ExtensionRadius float64

	ImpactRange     [3]float64 // reconstructed core limits (global)
	TrueImpactRange [3]float64 // true core limits (global)
	MaxCoreDistance float64    // [m], 0 disables the limit
}

// DefaultParams returns the compiled-in defaults applied to every
// slot at store construction.
func DefaultParams() Params {
	return Params{
		MinPix:       2,
		MinTelImg:    2,
		MaxTelImg:    100,
		MinAmplitude: 80,
		TailcutLow:   5,
		TailcutHigh:  10,
		MaxThetaDeg:  0.2,
		MinThetaDeg:  0.2,
		ThetaScale:   1.0,
		ThetaEscale:  CutCurve{1, 0, 1, 1},
		WidthMin:     CutCurve{-2.0, 0, -2.0, -2.0},
		WidthMax:     CutCurve{0.6, 0, 0.6, 0.6},
		LengthMin:    CutCurve{-2.0, 0, -2.0, -2.0},
		LengthMax:    CutCurve{1.2, 0, 1.2, 1.2},
		EresCut:      CutCurve{1.0, 0, 1.0, 1.0},
		DE2Cut:       CutCurve{0.5, 0, 0.5, 0.5},
		HmaxCut:      1.0,
	}
}

// ParamStore holds the parameters for the global slot, all concrete
// type slots and the frozen compiled-defaults slot. Writes through a
// selector of 0 cascade into every concrete slot; writes through a
// concrete selector override just that slot. Fields that are not
// meaningful per-type always cascade. The store is initialized once
// and read-only during event processing.
type ParamStore struct {
	slots [MaxTelTypes + 2]Params
	match [MaxTelTypes]TypeMatch
}

// NewParamStore returns a store with every slot, including the
// compiled-defaults slot, at the default parameters.
func NewParamStore() *ParamStore {
	s := &ParamStore{}
	for i := range s.slots {
		s.slots[i] = DefaultParams()
	}
	return s
}

// Get returns the parameters for the given type. Out-of-range types
// fall back to the global slot.
func (s *ParamStore) Get(telType int) *Params {
	if telType >= 0 && telType <= MaxTelTypes {
		return &s.slots[telType]
	}
	return &s.slots[0]
}

// Defaults returns the frozen compiled-in defaults slot.
func (s *ParamStore) Defaults() *Params {
	return &s.slots[MaxTelTypes+1]
}

// Match returns the matching criteria for concrete type slots 1..N,
// or a zero value for any other selector.
func (s *ParamStore) Match(telType int) TypeMatch {
	if telType >= 1 && telType <= MaxTelTypes {
		return s.match[telType-1]
	}
	return TypeMatch{}
}

// SetMatch installs matching criteria for a concrete type slot.
// Selectors outside 1..MaxTelTypes are ignored.
func (s *ParamStore) SetMatch(telType int, m TypeMatch) {
	if telType < 1 || telType > MaxTelTypes {
		return
	}
	s.match[telType-1] = m
}

// apply runs fn against the selected slot; a selector of 0 applies it
// to the global slot and every concrete slot. Selectors outside
// [0, MaxTelTypes] are a no-op. The defaults slot is never touched.
func (s *ParamStore) apply(sel int, fn func(*Params)) {
	if sel < 0 || sel > MaxTelTypes {
		return
	}
	fn(&s.slots[sel])
	if sel == 0 {
		for i := 1; i <= MaxTelTypes; i++ {
			fn(&s.slots[i])
		}
	}
}

// applyAll runs fn on the global slot and every concrete slot,
// regardless of any type selector. Used for fields that cannot be
// telescope-type specific.
func (s *ParamStore) applyAll(fn func(*Params)) {
	for i := 0; i <= MaxTelTypes; i++ {
		fn(&s.slots[i])
	}
}

// SetStyle selects the analysis style for all slots. The preset
// styles zero the shape-cut curves since they use fixed thresholds.
func (s *ParamStore) SetStyle(style int) {
	s.applyAll(func(p *Params) {
		p.Style = style
		if style == StyleStandard || style == StyleHard || style == StyleLoose {
			p.WidthMin = CutCurve{}
			p.WidthMax = CutCurve{}
			p.LengthMin = CutCurve{}
			p.LengthMax = CutCurve{}
		}
	})
}

// SetSpectrum sets the difference between the generated and the
// assumed source spectral index (global).
func (s *ParamStore) SetSpectrum(di float64) {
	s.applyAll(func(p *Params) { p.SpectralIndex = di })
}

// SetImpactRange limits the reconstructed core position (global).
func (s *ParamStore) SetImpactRange(r [3]float64) {
	s.applyAll(func(p *Params) { p.ImpactRange = r })
}

// SetTrueImpactRange limits the true core position (global).
func (s *ParamStore) SetTrueImpactRange(r [3]float64) {
	s.applyAll(func(p *Params) { p.TrueImpactRange = r })
}

// SetMaxCoreDistance limits the core distance of telescopes used
// beyond geometric reconstruction.
func (s *ParamStore) SetMaxCoreDistance(sel int, rt float64) {
	s.apply(sel, func(p *Params) { p.MaxCoreDistance = rt })
}

// SetMinAmplitude sets the minimum usable image amplitude [p.e.].
func (s *ParamStore) SetMinAmplitude(sel int, a float64) {
	s.apply(sel, func(p *Params) { p.MinAmplitude = a })
}

// SetTailCuts sets the two-level tail-cut thresholds together with
// the reference pixel and minimum amplitude fraction. Swapped
// thresholds are put back in order.
func (s *ParamStore) SetTailCuts(sel int, low, high float64, refPixel int, minFrac float64) {
	if low > high {
		low, high = high, low
	}
	s.apply(sel, func(p *Params) {
		p.TailcutLow = low
		p.TailcutHigh = high
		p.RefPixel = refPixel
		p.MinFrac = minFrac
	})
}

// SetMinPixels sets the minimum number of significant pixels.
func (s *ParamStore) SetMinPixels(sel, n int) {
	s.apply(sel, func(p *Params) { p.MinPix = n })
}

// SetRecoFlag sets the reconstruction level flag (global).
func (s *ParamStore) SetRecoFlag(rf int) {
	s.applyAll(func(p *Params) { p.RecoFlag = rf })
}

// SetTelImg sets the minimum and maximum number of usable images. A
// concrete selector installs a per-type minimum used by the alternate
// selection; 0 sets the event-level requirement everywhere.
func (s *ParamStore) SetTelImg(sel, min, max int) {
	s.apply(sel, func(p *Params) {
		p.MinTelImg = min
		p.MaxTelImg = max
	})
}

// SetMaxTheta sets the angular cut limits (global). A non-positive
// maximum keeps the preset value implied by the analysis style.
func (s *ParamStore) SetMaxTheta(maxDeg, scale, minDeg float64) {
	s.applyAll(func(p *Params) {
		p.MinThetaDeg = minDeg
		switch {
		case maxDeg > 0:
			p.MaxThetaDeg = maxDeg
		case p.Style == StyleStandard:
			p.MaxThetaDeg = 0.1118 // sqrt(0.0125)
			p.MinThetaDeg = p.MaxThetaDeg
		case p.Style == StyleHard:
			p.MaxThetaDeg = 0.1
			p.MinThetaDeg = 0.1
		case p.Style == StyleLoose:
			p.MaxThetaDeg = 0.2
			p.MinThetaDeg = 0.2
		}
		p.ThetaScale = scale
	})
}

// SetThetaEscale sets the lg E dependent scaling of the theta limit
// (global).
func (s *ParamStore) SetThetaEscale(c CutCurve) {
	s.applyAll(func(p *Params) { p.ThetaEscale = c })
	if c[2] != 1 || c[3] != 1 {
		log.Printf("Theta limit made energy-dependent: %v", c)
	}
}

// SetEresCut sets the energy-resolution cut curve (global). Curves
// with a non-positive leading coefficient are ignored.
func (s *ParamStore) SetEresCut(c CutCurve) {
	if c[0] <= 0 {
		return
	}
	s.applyAll(func(p *Params) { p.EresCut = c })
}

// SetDE2Cut sets the energy-consistency cut curve (global). Curves
// with a non-positive leading coefficient are ignored.
func (s *ParamStore) SetDE2Cut(c CutCurve) {
	if c[0] <= 0 {
		return
	}
	s.applyAll(func(p *Params) { p.DE2Cut = c })
}

// SetHmaxCut sets the shower-maximum cut scaling (global); values
// below 1 tighten the cut. Non-positive values are ignored.
func (s *ParamStore) SetHmaxCut(h float64) {
	if h <= 0 {
		return
	}
	s.applyAll(func(p *Params) { p.HmaxCut = h })
}

// SetShapeCuts installs constant shape cuts (global), clearing any
// energy dependence.
func (s *ParamStore) SetShapeCuts(wmin, wmax, lmin, lmax float64) {
	s.applyAll(func(p *Params) {
		p.WidthMin = CutCurve{wmin, 0, p.WidthMin[2], p.WidthMin[3]}
		p.WidthMax = CutCurve{wmax, 0, p.WidthMax[2], p.WidthMax[3]}
		p.LengthMin = CutCurve{lmin, 0, p.LengthMin[2], p.LengthMin[3]}
		p.LengthMax = CutCurve{lmax, 0, p.LengthMax[2], p.LengthMax[3]}
	})
}

// SetWidthMaxCut sets the energy-dependent scaled width limit (global).
func (s *ParamStore) SetWidthMaxCut(c CutCurve) {
	s.applyAll(func(p *Params) { p.WidthMax = c })
}

// SetLengthMaxCut sets the energy-dependent scaled length limit (global).
func (s *ParamStore) SetLengthMaxCut(c CutCurve) {
	s.applyAll(func(p *Params) { p.LengthMax = c })
}

// SetSourceOffset sets the source offset to the nominal viewing
// direction (global, derived at initialization).
func (s *ParamStore) SetSourceOffset(deg float64) {
	s.applyAll(func(p *Params) { p.SourceOffsetDeg = deg })
}

// SetFocalLength sets the effective focal length.
func (s *ParamStore) SetFocalLength(sel int, f float64) {
	s.apply(sel, func(p *Params) { p.FocalLength = f })
}

// SetClipping sets the maximum usable camera radius [deg].
func (s *ParamStore) SetClipping(sel int, dc float64) {
	s.apply(sel, func(p *Params) { p.CameraClipDeg = dc })
}

// SetClipAmp sets the per-pixel amplitude clipping after calibration.
func (s *ParamStore) SetClipAmp(sel int, a float64) {
	s.apply(sel, func(p *Params) { p.ClipAmp = a })
}

// SetTrigReq sets the required trigger type bit pattern.
func (s *ParamStore) SetTrigReq(sel, req int) {
	s.apply(sel, func(p *Params) { p.TrigReq = req })
}

// SetIntegrator selects the pulse integration scheme.
func (s *ParamStore) SetIntegrator(sel, scheme int) {
	s.apply(sel, func(p *Params) { p.Integrator = scheme })
}

// SetIntegWindow sets the integration window width, offset and
// peak-sensing option.
func (s *ParamStore) SetIntegWindow(sel, nsum, noff, psOpt int) {
	s.apply(sel, func(p *Params) {
		p.IntegParam = [3]int{nsum, noff, psOpt}
	})
}

// SetIntegThreshold sets the per-gain significance thresholds.
func (s *ParamStore) SetIntegThreshold(sel, high, low int) {
	s.apply(sel, func(p *Params) { p.IntegThr = [2]int{high, low} })
}

// SetIntegNoRescale disables rescaling of small integration windows.
func (s *ParamStore) SetIntegNoRescale(sel, no int) {
	s.apply(sel, func(p *Params) { p.NoRescale = no })
}

// SetCalibScale sets the calibration scale from mean-p.e. units to
// experimental units.
func (s *ParamStore) SetCalibScale(sel int, scale float64) {
	s.apply(sel, func(p *Params) { p.CalibScale = scale })
}

// SetNeighbourRadius sets the neighbour pixel search radii.
func (s *ParamStore) SetNeighbourRadius(sel int, r [3]float64) {
	s.apply(sel, func(p *Params) { p.NeighbourRadius = r })
}

// SetExtensionRadius sets the significant-pixel extension radius used
// in image cleaning.
func (s *ParamStore) SetExtensionRadius(sel int, r float64) {
	s.apply(sel, func(p *Params) { p.ExtensionRadius = r })
}
