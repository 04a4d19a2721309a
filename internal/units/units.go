// Package units holds the physical constants and conversion factors shared by
// every other package. All model math runs in SI; human-facing values (kpc,
// km/s, solar masses) are converted exactly once at the package boundary.
package units

import (
	"errors"

	"gonum.org/v1/gonum/unit/constant"
)

// ErrInvalidSystem indicates a unit system with a non-positive constant.
var ErrInvalidSystem = errors.New("units: invalid unit system")

const (
	// KpcInMeters is the kiloparsec length used throughout the project.
	KpcInMeters = 3.086e19
	// KmsInMs is one km/s expressed in m/s.
	KmsInMs = 1e3
	// SolarMassInKg is the nominal solar mass.
	SolarMassInKg = 1.988409870698051e30
)

// System is a set of constants passed explicitly to every component that
// needs them. The zero value is invalid; use SI.
type System struct {
	G         float64 // m^3 kg^-1 s^-2
	SolarMass float64 // kg
	Kpc       float64 // m
	Pc        float64 // m
	KmPerS    float64 // m/s
}

// SI returns the canonical unit system.
func SI() System {
	return System{
		G:         float64(constant.Gravitational),
		SolarMass: SolarMassInKg,
		Kpc:       KpcInMeters,
		Pc:        KpcInMeters / 1e3,
		KmPerS:    KmsInMs,
	}
}

func (s System) Validate() error {
	if s.G <= 0 || s.SolarMass <= 0 || s.Kpc <= 0 || s.Pc <= 0 || s.KmPerS <= 0 {
		return ErrInvalidSystem
	}
	return nil
}

func (s System) KpcToM(kpc float64) float64 { return kpc * s.Kpc }
func (s System) MToKpc(m float64) float64   { return m / s.Kpc }
func (s System) KmsToMs(v float64) float64  { return v * s.KmPerS }
func (s System) MsToKms(v float64) float64  { return v / s.KmPerS }
func (s System) MsunToKg(m float64) float64 { return m * s.SolarMass }

// DensityToSI converts a volume density in Msun/kpc^3 to kg/m^3.
func (s System) DensityToSI(rho float64) float64 {
	return rho * s.SolarMass / (s.Kpc * s.Kpc * s.Kpc)
}

// SurfaceDensityToSI converts a surface density in Msun/pc^2 to kg/m^2.
func (s System) SurfaceDensityToSI(sigma float64) float64 {
	return sigma * s.SolarMass / (s.Pc * s.Pc)
}

// KpcToMSlice converts every element into a fresh slice.
func (s System) KpcToMSlice(kpc []float64) []float64 {
	out := make([]float64, len(kpc))
	for i, v := range kpc {
		out[i] = v * s.Kpc
	}
	return out
}

func (s System) MToKpcSlice(m []float64) []float64 {
	out := make([]float64, len(m))
	for i, v := range m {
		out[i] = v / s.Kpc
	}
	return out
}

func (s System) MsToKmsSlice(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x / s.KmPerS
	}
	return out
}
