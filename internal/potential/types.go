package potential

import (
	"fmt"
	"math"
	"strings"
)

// Family tags a potential variant.
type Family string

const (
	NFW             Family = "nfw"
	NFWDensity      Family = "nfw_density"
	Hernquist       Family = "hernquist"
	Plummer         Family = "plummer"
	Jaffe           Family = "jaffe"
	Isothermal      Family = "isothermal"
	ExponentialDisk Family = "exponential_disk"
	Tabulated       Family = "tabulated"
)

// Families lists the analytic variants in display order.
func Families() []Family {
	return []Family{NFW, NFWDensity, Hernquist, Plummer, Jaffe, Isothermal, ExponentialDisk}
}

// HaloProfiles are the four mass-parametrized profiles that share a
// scale radius and total mass.
func HaloProfiles() []Family {
	return []Family{NFW, Hernquist, Plummer, Jaffe}
}

func ParseFamily(s string) (Family, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "-", "_")
	for _, f := range append(Families(), Tabulated) {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}

// Model is a potential evaluated on its grid.
type Model interface {
	Family() Family
	Grid() Grid
	// Potential returns Φ(r) in m^2/s^2, one value per grid radius.
	Potential() []float64
}

// Differentiable models provide dΦ/dr in closed form.
type Differentiable interface {
	Derivative() []float64
}

// ConstantVelocity models have a circular velocity (m/s) independent of radius.
type ConstantVelocity interface {
	CircularVelocity() float64
}

// MassProfile parametrizes NFW (mass form), Hernquist, Plummer and Jaffe.
type MassProfile struct {
	ScaleRadius float64 // kpc
	Mass        float64 // Msun
}

// DensityProfile parametrizes the density form of NFW.
type DensityProfile struct {
	ScaleRadius float64 // kpc
	Density     float64 // Msun/kpc^3
}

// DispersionProfile parametrizes the singular isothermal sphere.
type DispersionProfile struct {
	Dispersion float64 // km/s
}

// DiskProfile parametrizes the exponential disk.
type DiskProfile struct {
	ScaleLength    float64 // kpc
	SurfaceDensity float64 // Msun/pc^2
}

// Spec is the flattened parameter record used by configuration files and the
// registry. Only the fields relevant to Family are read.
type Spec struct {
	Family         Family  `yaml:"family" json:"family"`
	ScaleRadius    float64 `yaml:"scale_radius,omitempty" json:"scale_radius,omitempty"`
	Mass           float64 `yaml:"mass,omitempty" json:"mass,omitempty"`
	Density        float64 `yaml:"density,omitempty" json:"density,omitempty"`
	SurfaceDensity float64 `yaml:"surface_density,omitempty" json:"surface_density,omitempty"`
	Dispersion     float64 `yaml:"dispersion,omitempty" json:"dispersion,omitempty"`
}

func (s Spec) String() string {
	switch s.Family {
	case NFW, Hernquist, Plummer, Jaffe:
		return fmt.Sprintf("%s(a=%g kpc, M=%.3g Msun)", s.Family, s.ScaleRadius, s.Mass)
	case NFWDensity:
		return fmt.Sprintf("%s(r_s=%g kpc, rho_s=%.3g Msun/kpc^3)", s.Family, s.ScaleRadius, s.Density)
	case ExponentialDisk:
		return fmt.Sprintf("%s(r_d=%g kpc, sigma_0=%.3g Msun/pc^2)", s.Family, s.ScaleRadius, s.SurfaceDensity)
	case Isothermal:
		return fmt.Sprintf("%s(sigma=%g km/s)", s.Family, s.Dispersion)
	}
	return string(s.Family)
}

func positive(f Family, name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return &ParameterError{Family: f, Name: name, Value: v}
	}
	return nil
}

func nonNegative(f Family, name string, v float64) error {
	if !(v >= 0) || math.IsInf(v, 0) {
		return &ParameterError{Family: f, Name: name, Value: v}
	}
	return nil
}

// Set assigns the parameter called name. Accepted names are the yaml keys of
// Spec plus the short forms a, r_s, r_d, m, rho_s, sigma_0 and sigma.
func (s *Spec) Set(name string, v float64) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "scale_radius", "a", "r_s", "r_d", "b":
		s.ScaleRadius = v
	case "mass", "m":
		s.Mass = v
	case "density", "rho_s":
		s.Density = v
	case "surface_density", "sigma_0":
		s.SurfaceDensity = v
	case "dispersion", "sigma":
		s.Dispersion = v
	default:
		return fmt.Errorf("%w: unknown parameter %q", ErrInvalidParameter, name)
	}
	return nil
}
