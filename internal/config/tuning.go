package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cta-observatory/showerrec/internal/reco"
)

// TuningConfig is the root configuration for the analysis cut
// parameters. All fields are optional pointers: anything omitted from
// the JSON keeps the compiled-in default, so partial configs are
// safe. Global fields cascade into every telescope type; per-type
// overrides are applied afterwards.
type TuningConfig struct {
	// Analysis style: 0 scaled cuts with rescaling, 1..3 fixed
	// standard/hard/loose presets, >= 4 scaled cuts without
	// rescaling.
	AnalysisStyle *int `json:"analysis_style,omitempty"`

	// Difference between generated and assumed spectral index, used
	// to re-weight events by E^diff.
	SpectralIndexDiff *float64 `json:"spectral_index_diff,omitempty"`

	// Image selection.
	MinAmplitude *float64 `json:"min_amplitude,omitempty"`
	MinPixels    *int     `json:"min_pixels,omitempty"`
	TailcutLow   *float64 `json:"tailcut_low,omitempty"`
	TailcutHigh  *float64 `json:"tailcut_high,omitempty"`
	MinTelImg    *int     `json:"min_tel_img,omitempty"`
	MaxTelImg    *int     `json:"max_tel_img,omitempty"`

	// Angular cut.
	MaxThetaDeg *float64    `json:"max_theta_deg,omitempty"`
	MinThetaDeg *float64    `json:"min_theta_deg,omitempty"`
	ThetaScale  *float64    `json:"theta_scale,omitempty"`
	ThetaEscale *[4]float64 `json:"theta_escale,omitempty"`

	// Shape cut curves: value at 1 TeV, slope vs lg E, minimum,
	// maximum.
	WidthMaxCut  *[4]float64 `json:"width_max_cut,omitempty"`
	LengthMaxCut *[4]float64 `json:"length_max_cut,omitempty"`

	// Energy and shower-maximum cuts.
	EresCut *[4]float64 `json:"eres_cut,omitempty"`
	DE2Cut  *[4]float64 `json:"de2_cut,omitempty"`
	HmaxCut *float64    `json:"hmax_cut,omitempty"`

	// Core position limits [m]: radial, |x|, |y|; zero disables.
	ImpactRange     *[3]float64 `json:"impact_range,omitempty"`
	TrueImpactRange *[3]float64 `json:"true_impact_range,omitempty"`

	// Observation setup.
	ObsHeight       *float64    `json:"obs_height,omitempty"`
	SourceOffsetDeg *float64    `json:"source_offset_deg,omitempty"`
	Diffuse         *bool       `json:"diffuse,omitempty"`
	OffAxisRangeDeg *[2]float64 `json:"off_axis_range_deg,omitempty"`

	// Lookup database path.
	LookupPath *string `json:"lookup_path,omitempty"`

	// Per-type overrides, applied after the global fields.
	Types []TypeOverride `json:"types,omitempty"`

	// Alternate telescope selections for low-multiplicity events.
	AltLists []AltListConfig `json:"alt_lists,omitempty"`
}

// TypeOverride configures one telescope-type slot: the matching
// criteria that assign telescopes to it and any threshold overrides.
type TypeOverride struct {
	Type int `json:"type"`

	// Matching criteria; zero values mean "criterion not set".
	MinTelID    *int     `json:"min_tel_id,omitempty"`
	MaxTelID    *int     `json:"max_tel_id,omitempty"`
	MirrorArea  *float64 `json:"mirror_area,omitempty"`
	FocalLength *float64 `json:"focal_length,omitempty"`
	NumPixels   *int     `json:"num_pixels,omitempty"`

	// Threshold overrides.
	MinAmplitude    *float64 `json:"min_amplitude,omitempty"`
	MinPixels       *int     `json:"min_pixels,omitempty"`
	MinTelImg       *int     `json:"min_tel_img,omitempty"`
	MaxCoreDistance *float64 `json:"max_core_distance,omitempty"`
	ClippingDeg     *float64 `json:"clipping_deg,omitempty"`
}

// AltListConfig is one explicit telescope subset with its own
// multiplicity requirement.
type AltListConfig struct {
	MinTel int   `json:"min_tel"`
	TelIDs []int `json:"tel_ids"`
}

// EmptyTuningConfig returns a TuningConfig with all fields nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is
// under the max file size. Omitted fields keep their defaults.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are consistent.
func (c *TuningConfig) Validate() error {
	if c.AnalysisStyle != nil && *c.AnalysisStyle < 0 {
		return fmt.Errorf("analysis_style must be non-negative, got %d", *c.AnalysisStyle)
	}
	if c.MinAmplitude != nil && *c.MinAmplitude < 0 {
		return fmt.Errorf("min_amplitude must be non-negative, got %f", *c.MinAmplitude)
	}
	if c.MinPixels != nil && *c.MinPixels < 0 {
		return fmt.Errorf("min_pixels must be non-negative, got %d", *c.MinPixels)
	}
	if c.MinTelImg != nil && c.MaxTelImg != nil && *c.MinTelImg > *c.MaxTelImg {
		return fmt.Errorf("min_tel_img %d exceeds max_tel_img %d", *c.MinTelImg, *c.MaxTelImg)
	}
	if c.ThetaScale != nil && *c.ThetaScale <= 0 {
		return fmt.Errorf("theta_scale must be positive, got %f", *c.ThetaScale)
	}
	if c.OffAxisRangeDeg != nil && c.OffAxisRangeDeg[0] > c.OffAxisRangeDeg[1] {
		return fmt.Errorf("off_axis_range_deg minimum %f exceeds maximum %f",
			c.OffAxisRangeDeg[0], c.OffAxisRangeDeg[1])
	}
	for i, t := range c.Types {
		if t.Type < 1 || t.Type > reco.MaxTelTypes {
			return fmt.Errorf("types[%d]: type %d outside 1..%d", i, t.Type, reco.MaxTelTypes)
		}
	}
	for i, l := range c.AltLists {
		if l.MinTel <= 0 || len(l.TelIDs) == 0 {
			return fmt.Errorf("alt_lists[%d]: needs tel_ids and a positive min_tel", i)
		}
	}
	return nil
}

// Apply pushes the configured values into a parameter store. Global
// fields cascade into every type slot; per-type overrides follow.
func (c *TuningConfig) Apply(store *reco.ParamStore) {
	if c.AnalysisStyle != nil {
		store.SetStyle(*c.AnalysisStyle)
	}
	if c.SpectralIndexDiff != nil {
		store.SetSpectrum(*c.SpectralIndexDiff)
	}
	if c.MinAmplitude != nil {
		store.SetMinAmplitude(0, *c.MinAmplitude)
	}
	if c.MinPixels != nil {
		store.SetMinPixels(0, *c.MinPixels)
	}
	if c.TailcutLow != nil || c.TailcutHigh != nil {
		def := reco.DefaultParams()
		low, high := def.TailcutLow, def.TailcutHigh
		if c.TailcutLow != nil {
			low = *c.TailcutLow
		}
		if c.TailcutHigh != nil {
			high = *c.TailcutHigh
		}
		store.SetTailCuts(0, low, high, def.RefPixel, def.MinFrac)
	}
	if c.MinTelImg != nil || c.MaxTelImg != nil {
		def := reco.DefaultParams()
		min, max := def.MinTelImg, def.MaxTelImg
		if c.MinTelImg != nil {
			min = *c.MinTelImg
		}
		if c.MaxTelImg != nil {
			max = *c.MaxTelImg
		}
		store.SetTelImg(0, min, max)
	}

	// SetMaxTheta also resolves the preset style limits, so call it
	// whenever any angular field or the style is configured.
	if c.MaxThetaDeg != nil || c.MinThetaDeg != nil || c.ThetaScale != nil || c.AnalysisStyle != nil {
		def := reco.DefaultParams()
		maxDeg := 0.0 // keep preset or current
		if c.MaxThetaDeg != nil {
			maxDeg = *c.MaxThetaDeg
		}
		minDeg := def.MinThetaDeg
		if c.MinThetaDeg != nil {
			minDeg = *c.MinThetaDeg
		}
		scale := def.ThetaScale
		if c.ThetaScale != nil {
			scale = *c.ThetaScale
		}
		store.SetMaxTheta(maxDeg, scale, minDeg)
	}
	if c.ThetaEscale != nil {
		store.SetThetaEscale(reco.CutCurve(*c.ThetaEscale))
	}
	if c.WidthMaxCut != nil {
		store.SetWidthMaxCut(reco.CutCurve(*c.WidthMaxCut))
	}
	if c.LengthMaxCut != nil {
		store.SetLengthMaxCut(reco.CutCurve(*c.LengthMaxCut))
	}
	if c.EresCut != nil {
		store.SetEresCut(reco.CutCurve(*c.EresCut))
	}
	if c.DE2Cut != nil {
		store.SetDE2Cut(reco.CutCurve(*c.DE2Cut))
	}
	if c.HmaxCut != nil {
		store.SetHmaxCut(*c.HmaxCut)
	}
	if c.ImpactRange != nil {
		store.SetImpactRange(*c.ImpactRange)
	}
	if c.TrueImpactRange != nil {
		store.SetTrueImpactRange(*c.TrueImpactRange)
	}
	if c.SourceOffsetDeg != nil {
		store.SetSourceOffset(*c.SourceOffsetDeg)
	}

	for _, t := range c.Types {
		m := store.Match(t.Type)
		if t.MinTelID != nil {
			m.MinTelID = *t.MinTelID
		}
		if t.MaxTelID != nil {
			m.MaxTelID = *t.MaxTelID
		}
		if t.MirrorArea != nil {
			m.MirrorArea = *t.MirrorArea
		}
		if t.FocalLength != nil {
			m.FocalLength = *t.FocalLength
		}
		if t.NumPixels != nil {
			m.NumPixels = *t.NumPixels
		}
		store.SetMatch(t.Type, m)

		if t.MinAmplitude != nil {
			store.SetMinAmplitude(t.Type, *t.MinAmplitude)
		}
		if t.MinPixels != nil {
			store.SetMinPixels(t.Type, *t.MinPixels)
		}
		if t.MinTelImg != nil {
			store.SetTelImg(t.Type, *t.MinTelImg, store.Get(t.Type).MaxTelImg)
		}
		if t.MaxCoreDistance != nil {
			store.SetMaxCoreDistance(t.Type, *t.MaxCoreDistance)
		}
		if t.ClippingDeg != nil {
			store.SetClipping(t.Type, *t.ClippingDeg)
		}
	}
}

// GetObsHeight returns the observation level or the default.
func (c *TuningConfig) GetObsHeight() float64 {
	if c.ObsHeight == nil {
		return 1800.0 // default
	}
	return *c.ObsHeight
}

// GetDiffuse returns the diffuse-mode flag or the default.
func (c *TuningConfig) GetDiffuse() bool {
	if c.Diffuse == nil {
		return false
	}
	return *c.Diffuse
}

// GetOffAxisRangeDeg returns the diffuse off-axis window or the
// default full range.
func (c *TuningConfig) GetOffAxisRangeDeg() [2]float64 {
	if c.OffAxisRangeDeg == nil {
		return [2]float64{0, 90}
	}
	return *c.OffAxisRangeDeg
}

// GetLookupPath returns the lookup database path or the default.
func (c *TuningConfig) GetLookupPath() string {
	if c.LookupPath == nil || *c.LookupPath == "" {
		return "lookups.db" // default
	}
	return *c.LookupPath
}
