// Package reco implements the per-event shower reconstruction and
// cut-evaluation engine: it turns a variable number of per-telescope
// calibrated image records into event-level estimates (mean scaled
// shape parameters, energy, shower-maximum height) and classifies the
// event through a cascading chain of quality cuts.
package reco

// Sentinel values used to signal "quantity unavailable" without ever
// raising an error inside the per-event hot path. Tests check for
// these explicitly; downstream cuts are written so that a sentinel
// never satisfies them.
const (
	// SentinelScaled marks an unavailable scaled or scaled-reduced
	// width/length and an unavailable relative energy fluctuation.
	SentinelScaled = 999.0
	// SentinelLogEnergy marks an unavailable energy estimate (the
	// estimate itself and its log10 share the value).
	SentinelLogEnergy = -10.0
	// SentinelResolution marks an unavailable energy resolution or
	// consistency statistic.
	SentinelResolution = 999.0
	// SentinelHmaxErr marks an unavailable shower-maximum error.
	SentinelHmaxErr = 99999.0
	// SentinelCoreDist marks an unknown core distance.
	SentinelCoreDist = 9999.0
)

// CameraSettings describes a telescope camera as reported by the
// configuration stream. It is the input to telescope-type matching.
type CameraSettings struct {
	TelID       int
	MirrorArea  float64 // [m^2]
	FocalLength float64 // [m]
	NumPixels   int
	// Radius is the reference camera radius [rad], used by the
	// edge-distance cuts.
	Radius float64
}

// TelescopeRecord holds the static per-telescope state: identity,
// position in array coordinates and the camera reference radius.
// The assigned type is cached by the classifier, not stored here.
type TelescopeRecord struct {
	ID    int
	Index int
	Pos   [3]float64 // [m], array coordinates
	Cam   CameraSettings
}

// ImageRecord is one telescope's view of one shower: the second-moment
// summary of the cleaned camera image plus the telescope pointing for
// this event. Timing fields are optional and zero when absent.
type ImageRecord struct {
	TelIndex  int
	Known     bool
	Amplitude float64 // image size [p.e.]
	Width     float64 // [rad]
	Length    float64 // [rad]
	CogX      float64 // image centroid in camera plane [rad]
	CogY      float64
	Phi       float64 // image major-axis orientation [rad]
	Pixels    int     // significant pixels after cleaning

	// Telescope pointing for this event (corrected if available).
	TelAz  float64
	TelAlt float64

	// Optional pulse-timing parameters; both zero when the image
	// carries no timing fit.
	TimeSlope    float64 // [ns/deg]
	TimeResidual float64 // [ns]
}

// ShowerEstimate is the geometric reconstruction result consumed by
// this engine (produced by the out-of-scope direction/core fitter).
type ShowerEstimate struct {
	DirectionKnown bool
	CoreKnown      bool
	Az             float64 // [rad]
	Alt            float64 // [rad]
	CoreX          float64 // [m]
	CoreY          float64 // [m]
	ErrDir1        float64
	ErrDir2        float64
	NumImg         int
}

// TrueShower carries the simulated shower parameters needed for
// event weighting and lookup filling.
type TrueShower struct {
	PrimaryID int
	Energy    float64 // [TeV]; <= 0 rejects the event
	Az        float64
	Alt       float64
	CoreX     float64
	CoreY     float64
}

// EventAggregate is the transient per-event result, rebuilt for every
// shower and owned by the caller. Sentinel values (see constants
// above) mark quantities that could not be determined.
type EventAggregate struct {
	Run    int
	Number int

	// True energy of the simulated shower, as log10(E/TeV).
	LogETrue float64

	// Image multiplicities at the successive usability tiers.
	NAmp   int // amplitude and pixel cuts passed
	NGeom  int // additionally away from the camera edge
	NHmax  int // additionally usable for the shower-maximum fit
	NShape int // shape/energy-usable (normalization available)

	// Mean scaled-reduced shape parameters and their spread.
	MeanScaledWidth     float64
	MeanScaledWidthSig  float64
	MeanScaledLength    float64
	MeanScaledLengthSig float64

	// Energy estimate.
	Energy      float64 // [TeV], SentinelLogEnergy when unavailable
	LogEnergy   float64 // log10(Energy) after bias correction
	Resolution  float64 // relative, 1/sqrt(sum of weights)
	Consistency float64 // weighted variance of per-telescope log energy

	// Shower maximum.
	HmaxDistance float64 // slant distance to shower maximum [m], -1 if unknown
	Hmax         float64 // height above sea level [m]
	HmaxErr      float64
	Xmax         float64 // atmospheric depth [g/cm^2]
	XmaxErr      float64
	LightConeRad float64 // Cherenkov light-cone radius at ground [m]

	// Angular separation between assumed source and reconstructed
	// direction, and its error estimate.
	Theta    float64
	ThetaSig float64

	// Event weight for the configured spectral re-weighting.
	Weight float64

	// Mean reconstructed core distance over shape-usable images and
	// mean (1 - width/length) "disp" parameter.
	MeanCoreDist float64
	MeanDisp     float64

	// Mean rescaled time gradient over images with pulse timing, and
	// the count of distant images whose gradient stayed flat.
	TimeGradient float64
	NFlatGrad    int

	// Cut verdicts.
	ShapeOK      bool
	AngleOK      bool
	AngleVarOK   [NumThetaVariants]bool
	EresOK       bool
	DE2OK        bool
	HmaxOK       bool
	AltSelected  bool // multiplicity met only via alternate selection
	Multiplicity bool // primary or alternate multiplicity requirement met

	// Acceptance is the cumulative cut level: 0 shape failed,
	// 1 shape, 2 +angle, 3 +energy resolution, 4 +energy
	// consistency, 5 +shower maximum.
	Acceptance int
}
