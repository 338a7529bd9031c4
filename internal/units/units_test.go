package units

import (
	"math"
	"testing"
)

func TestConvertAngle(t *testing.T) {
	tests := []struct {
		name     string
		angleRad float64
		units    string
		expected float64
	}{
		{"pi rad to deg", math.Pi, DEG, 180.0},
		{"0.1 rad to mrad", 0.1, MRAD, 100.0},
		{"0.5 rad to rad", 0.5, RAD, 0.5},
		{"unknown units default to rad", 0.5, "unknown", 0.5},
		{"0 rad to deg", 0.0, DEG, 0.0},
		{"typical theta cut 0.0035 rad to deg", 0.003490659, DEG, 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertAngle(tt.angleRad, tt.units)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("ConvertAngle(%f, %s) = %f, want %f", tt.angleRad, tt.units, result, tt.expected)
			}
		})
	}
}

func TestConvertEnergy(t *testing.T) {
	tests := []struct {
		name      string
		energyTeV float64
		units     string
		expected  float64
	}{
		{"1 TeV to GeV", 1.0, GEV, 1000.0},
		{"1 TeV to MeV", 1.0, MEV, 1e6},
		{"2.5 TeV to TeV", 2.5, TEV, 2.5},
		{"unknown units default to TeV", 2.5, "unknown", 2.5},
		{"threshold energy 0.02 TeV to GeV", 0.02, GEV, 20.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertEnergy(tt.energyTeV, tt.units)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("ConvertEnergy(%f, %s) = %f, want %f", tt.energyTeV, tt.units, result, tt.expected)
			}
		})
	}
}

func TestIsValidAngle(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid rad", RAD, true},
		{"valid deg", DEG, true},
		{"valid mrad", MRAD, true},
		{"invalid empty", "", false},
		{"invalid arcsec", "arcsec", false},
		{"invalid uppercase", "DEG", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidAngle(tt.unit); got != tt.expected {
				t.Errorf("IsValidAngle(%q) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}

func TestIsValidEnergy(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid tev", TEV, true},
		{"valid gev", GEV, true},
		{"valid mev", MEV, true},
		{"invalid erg", "erg", false},
		{"invalid empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidEnergy(tt.unit); got != tt.expected {
				t.Errorf("IsValidEnergy(%q) = %v, want %v", tt.unit, got, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsStrings(t *testing.T) {
	if got := GetValidAngleUnitsString(); got != "rad, deg, mrad" {
		t.Errorf("GetValidAngleUnitsString() = %q", got)
	}
	if got := GetValidEnergyUnitsString(); got != "tev, gev, mev" {
		t.Errorf("GetValidEnergyUnitsString() = %q", got)
	}
}
