package reco

import "math"

// Shower development constants for electromagnetic cascades in air.
const (
	radiationLength = 366.0   // [kg/m^2]
	criticalEnergy  = 81.0e-6 // [TeV]
)

// Atmosphere provides the density profile needed to translate shower
// development depths into heights. Implementations may wrap tabulated
// profiles; ExpAtmosphere is the built-in fallback.
type Atmosphere interface {
	// Thickness returns the vertical atmospheric overburden
	// [kg/m^2] above the given height [m a.s.l.].
	Thickness(height float64) float64
	// Height returns the height [m a.s.l.] at which the vertical
	// overburden equals the given thickness [kg/m^2].
	Height(thickness float64) float64
	// RefractIndexMinusOne returns n-1 at the given height [m].
	RefractIndexMinusOne(height float64) float64
}

// ExpAtmosphere is an isothermal exponential atmosphere with sea
// level density Rho0 [kg/m^3] and scale height Scale [m].
type ExpAtmosphere struct {
	Rho0  float64
	Scale float64
}

// StandardAtmosphere returns an exponential profile close to the
// terrestrial average.
func StandardAtmosphere() *ExpAtmosphere {
	return &ExpAtmosphere{Rho0: 1.2, Scale: 8300}
}

func (a *ExpAtmosphere) Thickness(height float64) float64 {
	return a.Rho0 * a.Scale * math.Exp(-height/a.Scale)
}

func (a *ExpAtmosphere) Height(thickness float64) float64 {
	if thickness <= 0 {
		return math.Inf(1)
	}
	return -a.Scale * math.Log(thickness/(a.Rho0*a.Scale))
}

func (a *ExpAtmosphere) RefractIndexMinusOne(height float64) float64 {
	return 2.83e-4 * math.Exp(-height/a.Scale)
}

// ExpectedMaxDepth returns the slant depth [kg/m^2] at which a gamma
// shower of the given energy [TeV] is expected to reach maximum.
func ExpectedMaxDepth(energy float64) float64 {
	if energy <= 0 {
		return 0
	}
	return radiationLength * math.Log(energy/criticalEnergy+0.5)
}

// ExpectedMaxHeight returns the expected height of shower maximum
// [m a.s.l.] for a gamma shower of the given energy [TeV] coming in
// at the given altitude angle [rad].
func ExpectedMaxHeight(atm Atmosphere, energy, alt float64) float64 {
	slant := ExpectedMaxDepth(energy)
	sinAlt := math.Sin(alt)
	if sinAlt <= 0 {
		sinAlt = 1
	}
	return atm.Height(slant * sinAlt)
}

// ExpectedMaxDistance returns the expected distance [m] from the
// observation level to shower maximum along the shower axis.
func ExpectedMaxDistance(atm Atmosphere, energy, alt, obsHeight float64) float64 {
	h := ExpectedMaxHeight(atm, energy, alt)
	sinAlt := math.Sin(alt)
	if sinAlt <= 0 {
		return h - obsHeight
	}
	return (h - obsHeight) / sinAlt
}
