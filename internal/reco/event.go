package reco

import (
	"errors"
	"fmt"
	"log"
	"math"
)

// Event rejection reasons. Rejected events carry no aggregate and do
// not enter the cut statistics beyond the rejection counters.
var (
	ErrBadTrueEnergy   = errors.New("non-positive true energy")
	ErrOffAxis         = errors.New("true direction outside off-axis window")
	ErrTrueImpactRange = errors.New("true core outside configured range")
	ErrImpactRange     = errors.New("reconstructed core outside configured range")
)

// ArrayConfig describes the telescope array and observation setup an
// analyzer works against.
type ArrayConfig struct {
	Telescopes []TelescopeRecord
	ObsHeight  float64 // [m a.s.l.]

	NomAz, NomAlt float64 // nominal viewing direction [rad]
	SrcAz, SrcAlt float64 // assumed source direction [rad]

	// Diffuse treats every shower's true direction as its source and
	// gates on the off-axis angle window below [rad].
	Diffuse    bool
	OffAxisMin float64
	OffAxisMax float64
}

// Event carries one reconstructed shower with its per-telescope
// images. Images reference telescopes through TelIndex.
type Event struct {
	Run    int
	Number int
	True   TrueShower
	Shower ShowerEstimate
	Images []ImageRecord
}

// Analyzer evaluates events against the configured cuts and lookup
// tables. It is built once per run and is not safe for concurrent
// use; run one analyzer per worker instead.
type Analyzer struct {
	store      *ParamStore
	classifier *TypeClassifier
	filter     *QualityFilter
	altsel     *AltSelector
	cuts       *CutEvaluator
	array      ArrayConfig
	norms      map[int]*NormTables
	ebias      *Curve
	atm        Atmosphere
	stats      *SelectionStats
	verbose    int
}

// AnalyzerConfig collects the collaborators of an Analyzer. Norms
// maps telescope types to their lookup tables; a type without an
// entry has no normalization. A nil Atmosphere selects the built-in
// profile, and a nil ThetaCuts degrades every optimized angular cut
// variant to the fixed limit.
type AnalyzerConfig struct {
	Array      ArrayConfig
	Norms      map[int]*NormTables
	ThetaCuts  *ThetaCuts
	EbiasCurve *Curve
	Atmosphere Atmosphere

	// Verbose enables per-event log lines: 1 logs rejections, 2 also
	// logs every evaluated event.
	Verbose int
}

// NewAnalyzer wires an analyzer over the given parameter store.
func NewAnalyzer(store *ParamStore, cfg AnalyzerConfig) (*Analyzer, error) {
	if store == nil {
		return nil, errors.New("analyzer: nil parameter store")
	}
	for _, tel := range cfg.Array.Telescopes {
		if tel.Index < 0 || tel.Index >= len(cfg.Array.Telescopes) {
			return nil, fmt.Errorf("analyzer: telescope %d has index %d outside array of %d",
				tel.ID, tel.Index, len(cfg.Array.Telescopes))
		}
	}
	atm := cfg.Atmosphere
	if atm == nil {
		atm = StandardAtmosphere()
	}
	theta := cfg.ThetaCuts
	if theta == nil {
		theta = NewThetaCuts(store.Get(0), len(cfg.Array.Telescopes))
	}
	classifier := NewTypeClassifier(store)
	a := &Analyzer{
		store:      store,
		classifier: classifier,
		filter:     NewQualityFilter(store, classifier),
		altsel:     NewAltSelector(store),
		cuts:       NewCutEvaluator(store, theta),
		array:      cfg.Array,
		norms:      cfg.Norms,
		ebias:      cfg.EbiasCurve,
		atm:        atm,
		stats:      NewSelectionStats(),
		verbose:    cfg.Verbose,
	}
	return a, nil
}

// AddAltList registers an explicit alternate telescope selection.
func (a *Analyzer) AddAltList(minTel int, telIDs []int) {
	a.altsel.AddList(minTel, telIDs)
}

// Stats returns the analyzer's selection counters.
func (a *Analyzer) Stats() *SelectionStats { return a.stats }

// normFor returns the lookup tables for one telescope type. A type
// without stored tables has no normalization; its images never scale
// against another type's expectations.
func (a *Analyzer) normFor(telType int) *NormTables {
	return a.norms[telType]
}

// reject counts one rejected event and reports the reason.
func (a *Analyzer) reject(ev *Event, reason error) error {
	a.stats.countRejected()
	if a.verbose >= 1 {
		log.Printf("event %d/%d rejected: %v", ev.Run, ev.Number, reason)
	}
	return reason
}

// imageState is the per-telescope scratch of one evaluation pass.
type imageState struct {
	img      *ImageRecord
	tel      *TelescopeRecord
	telType  int
	trueDist float64 // distance from the true core [m]
	recDist  float64 // distance from the reconstructed core [m]
	dirDist  float64 // centroid to projected direction [rad]
	counted  bool    // amplitude and pixel minima passed
	geomOK   bool    // also clear of the camera edge
}

// EvaluateEvent runs the full selection chain on one event and
// returns its aggregate. A nil aggregate with one of the Err*
// rejection reasons means the event does not enter the analysis.
func (a *Analyzer) EvaluateEvent(ev *Event) (*EventAggregate, error) {
	a.stats.countSeen()
	if ev.True.Energy <= 0 {
		return nil, a.reject(ev, ErrBadTrueEnergy)
	}
	p0 := a.store.Get(0)
	lgETrue := math.Log10(ev.True.Energy)
	weight := math.Pow(ev.True.Energy, p0.SpectralIndex)

	if a.array.Diffuse {
		dn := angleBetween(a.array.NomAz, a.array.NomAlt, ev.True.Az, ev.True.Alt)
		if dn < a.array.OffAxisMin || dn > a.array.OffAxisMax {
			return nil, a.reject(ev, ErrOffAxis)
		}
	}

	// True core offset relative to the array centre, along the true
	// shower axis.
	cxT, cyT, czT := directionCosines(ev.True.Az, ev.True.Alt)
	rs := linePointDistance(ev.True.CoreX, ev.True.CoreY, 0, cxT, cyT, czT, 0, 0, 0)
	if r := p0.TrueImpactRange; (r[0] > 0 && rs > r[0]) ||
		(r[1] > 0 && math.Abs(ev.True.CoreX) > r[1]) ||
		(r[2] > 0 && math.Abs(ev.True.CoreY) > r[2]) {
		return nil, a.reject(ev, ErrTrueImpactRange)
	}

	agg := &EventAggregate{
		Run:                 ev.Run,
		Number:              ev.Number,
		LogETrue:            lgETrue,
		Weight:              weight,
		MeanScaledWidth:     SentinelScaled,
		MeanScaledWidthSig:  SentinelScaled,
		MeanScaledLength:    SentinelScaled,
		MeanScaledLengthSig: SentinelScaled,
		Energy:              SentinelLogEnergy,
		LogEnergy:           SentinelLogEnergy,
		Resolution:          SentinelResolution,
		Consistency:         SentinelResolution,
		HmaxDistance:        -1,
		Hmax:                -1,
		HmaxErr:             SentinelHmaxErr,
		XmaxErr:             SentinelHmaxErr,
		MeanCoreDist:        SentinelCoreDist,
		Theta:               -1,
	}

	recOK := ev.Shower.DirectionKnown && ev.Shower.CoreKnown
	var cxR, cyR, czR float64
	if recOK {
		cxR, cyR, czR = directionCosines(ev.Shower.Az, ev.Shower.Alt)
	}

	var acc Accumulator
	states := make([]imageState, 0, len(ev.Images))

	// First pass: grade images, count multiplicities, collect
	// shower-maximum contributions.
	for i := range ev.Images {
		img := &ev.Images[i]
		if img.TelIndex < 0 || img.TelIndex >= len(a.array.Telescopes) {
			continue
		}
		tel := &a.array.Telescopes[img.TelIndex]
		if !img.Known || img.Amplitude <= 0 {
			continue
		}
		st := imageState{
			img:     img,
			tel:     tel,
			telType: a.classifier.Classify(tel.Cam),
			recDist: SentinelCoreDist,
			dirDist: SentinelScaled,
		}
		st.trueDist = linePointDistance(ev.True.CoreX, ev.True.CoreY, 0,
			cxT, cyT, czT, tel.Pos[0], tel.Pos[1], tel.Pos[2])
		if recOK {
			st.recDist = linePointDistance(ev.Shower.CoreX, ev.Shower.CoreY, 0,
				cxR, cyR, czR, tel.Pos[0], tel.Pos[1], tel.Pos[2])
		}

		pt := a.store.Get(st.telType)
		grade := a.filter.Grade(img, tel.Cam)
		if grade >= GradeGeometry {
			st.counted = true
			agg.NAmp++
		}
		if grade >= GradeShape {
			if pt.MaxCoreDistance > 0 && st.recDist > pt.MaxCoreDistance {
				states = append(states, st)
				continue
			}
			st.geomOK = true
			agg.NGeom++
			if recOK {
				xr, yr := anglesToOffset(ev.Shower.Az, ev.Shower.Alt,
					img.TelAz, img.TelAlt, 1)
				st.dirDist = math.Hypot(xr-img.CogX, yr-img.CogY)
				acc.AddDepth(img.Amplitude, img.Length, st.recDist, st.dirDist)
				agg.NHmax++

				if img.TimeSlope != 0 || img.TimeResidual != 0 {
					// Head-tail: the gradient sign follows the image
					// orientation relative to the shower direction.
					slope := img.TimeSlope
					if (xr-img.CogX)*math.Cos(img.Phi)+(yr-img.CogY)*math.Sin(img.Phi) > 0 {
						slope = -slope
					}
					acc.AddTimeGradient(slope, st.recDist)
				}
			}
		}
		states = append(states, st)
	}

	// Shower maximum from the direction-weighted image estimates.
	depth := acc.Depth(a.atm, ev.Shower.Alt, a.array.ObsHeight)
	agg.HmaxDistance = depth.Distance
	agg.Hmax = depth.Height
	agg.HmaxErr = depth.HeightErr
	agg.Xmax = depth.Xmax
	agg.XmaxErr = depth.XmaxErr
	agg.LightConeRad = depth.ConeRadius

	// Second pass: scale shapes and estimate energies for images
	// that also pass the shape-quality requirements.
	var selected []SelectedTel
	for i := range states {
		st := &states[i]
		img := st.img
		if !st.geomOK || img.Length <= 0 || img.Width < 0 {
			continue
		}
		pt := a.store.Get(st.telType)
		if img.Amplitude <= pt.MinAmplitude {
			continue
		}
		nt := a.normFor(st.telType)
		if nt == nil {
			continue
		}
		n := nt.ImageNorm(st.recDist, img.Amplitude, img.Width, img.Length)
		if !n.WidthOK || !n.LengthOK {
			continue
		}
		acc.AddShape(n.ReducedWidth, n.ReducedLength, st.recDist, img.Width/img.Length)
		if n.EnergyOK {
			acc.AddEnergy(n.Energy, n.SigmaRel)
		}
		selected = append(selected, SelectedTel{TelID: st.tel.ID, TelType: st.telType})
	}
	agg.NShape = acc.NumShape()
	agg.AltSelected = a.altsel.Satisfied(selected)
	agg.MeanCoreDist = acc.MeanCoreDist()
	agg.MeanDisp = acc.MeanDisp()
	agg.TimeGradient, agg.NFlatGrad = acc.TimeGradient()

	multOK := (agg.NShape >= p0.MinTelImg || agg.AltSelected) &&
		agg.NShape <= p0.MaxTelImg
	agg.Multiplicity = multOK

	var shape ShapeStats
	var energy EnergyStats
	if multOK {
		shape = acc.Shape(p0.Style)
		agg.MeanScaledWidth = shape.MeanWidth
		agg.MeanScaledWidthSig = shape.SigWidth
		agg.MeanScaledLength = shape.MeanLength
		agg.MeanScaledLengthSig = shape.SigLength

		energy = acc.Energy(a.ebias)
		agg.Energy = energy.Energy
		agg.LogEnergy = energy.LogEnergy
		agg.Resolution = energy.Resolution
		agg.Consistency = energy.Consistency
	}

	agg.EresOK = a.cuts.EresOK(energy)
	agg.DE2OK = a.cuts.DE2OK(energy)
	if energy.OK {
		expDist := ExpectedMaxDistance(a.atm, energy.Energy, ev.Shower.Alt, a.array.ObsHeight)
		agg.HmaxOK = a.cuts.DepthOK(depth, expDist, energy.LogEnergy)
	}
	agg.ShapeOK = multOK && a.cuts.ShapeOK(shape, energy.LogEnergy)

	// Everything below needs a reconstructed direction and core.
	if !recOK {
		return a.finish(agg)
	}

	rr := linePointDistance(ev.Shower.CoreX, ev.Shower.CoreY, 0, cxR, cyR, czR, 0, 0, 0)
	if r := p0.ImpactRange; (r[0] > 0 && rr > r[0]) ||
		(r[1] > 0 && math.Abs(ev.Shower.CoreX) > r[1]) ||
		(r[2] > 0 && math.Abs(ev.Shower.CoreY) > r[2]) {
		return nil, a.reject(ev, ErrImpactRange)
	}

	srcAz, srcAlt := a.array.SrcAz, a.array.SrcAlt
	if a.array.Diffuse {
		srcAz, srcAlt = ev.True.Az, ev.True.Alt
	}
	agg.Theta = angleBetween(srcAz, srcAlt, ev.Shower.Az, ev.Shower.Alt)
	nf := 0.0
	if ev.Shower.NumImg >= 2 {
		nf = float64(ev.Shower.NumImg) - 1.9999
	}
	agg.ThetaSig = math.Sqrt((ev.Shower.ErrDir1*ev.Shower.ErrDir1 +
		ev.Shower.ErrDir2*ev.Shower.ErrDir2) * nf)

	agg.AngleOK = a.cuts.AngleOK(agg.Theta, energy.LogEnergy)
	agg.AngleVarOK = a.cuts.AngleVariants(agg.Theta, energy.LogEnergy, agg.NGeom)

	agg.Acceptance = Acceptance(agg.ShapeOK, agg.AngleVarOK, agg.EresOK, agg.DE2OK, agg.HmaxOK)
	return a.finish(agg)
}

// finish records the aggregate in the selection counters and hands it
// back to the caller.
func (a *Analyzer) finish(agg *EventAggregate) (*EventAggregate, error) {
	a.stats.record(agg)
	if a.verbose >= 2 {
		log.Printf("event %d/%d: n_amp=%d n_geom=%d n_shape=%d acceptance=%d",
			agg.Run, agg.Number, agg.NAmp, agg.NGeom, agg.NShape, agg.Acceptance)
	}
	return agg, nil
}
