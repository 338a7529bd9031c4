// Package units provides shared constants and validation for angle and
// energy units used in report output
package units

import "math"

// Angle unit constants
const (
	RAD  = "rad"
	DEG  = "deg"
	MRAD = "mrad"
)

// Energy unit constants
const (
	TEV = "tev"
	GEV = "gev"
	MEV = "mev"
)

// ValidAngleUnits contains all valid angle unit values
var ValidAngleUnits = []string{RAD, DEG, MRAD}

// ValidEnergyUnits contains all valid energy unit values
var ValidEnergyUnits = []string{TEV, GEV, MEV}

// IsValidAngle checks if the given unit is in the list of valid angle units
func IsValidAngle(unit string) bool {
	for _, validUnit := range ValidAngleUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// IsValidEnergy checks if the given unit is in the list of valid energy units
func IsValidEnergy(unit string) bool {
	for _, validUnit := range ValidEnergyUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidAngleUnitsString returns a comma-separated string of valid angle units for error messages
func GetValidAngleUnitsString() string {
	return "rad, deg, mrad"
}

// GetValidEnergyUnitsString returns a comma-separated string of valid energy units for error messages
func GetValidEnergyUnitsString() string {
	return "tev, gev, mev"
}

// ConvertAngle converts an angle from radians to the target units
// Reconstruction output carries angles in rad (radians)
func ConvertAngle(angleRad float64, targetUnits string) float64 {
	switch targetUnits {
	case DEG:
		return angleRad * 180 / math.Pi
	case MRAD:
		return angleRad * 1000
	case RAD:
		return angleRad // no conversion needed
	default:
		return angleRad // default to rad if unknown unit
	}
}

// ConvertEnergy converts an energy from TeV to the target units
// Reconstruction output carries energies in TeV
func ConvertEnergy(energyTeV float64, targetUnits string) float64 {
	switch targetUnits {
	case GEV:
		return energyTeV * 1e3
	case MEV:
		return energyTeV * 1e6
	case TEV:
		return energyTeV // no conversion needed
	default:
		return energyTeV // default to TeV if unknown unit
	}
}
