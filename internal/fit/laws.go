package fit

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/rotcurve/internal/optim"
	"github.com/san-kum/rotcurve/internal/special"
	"github.com/san-kum/rotcurve/internal/units"
)

// Family names a fit velocity law.
type Family string

const (
	Plummer    Family = "plummer"
	Kuzmin     Family = "kuzmin"
	Freeman    Family = "freeman"
	NFW        Family = "nfw"
	Isothermal Family = "isothermal"
)

func Families() []Family {
	return []Family{Plummer, Kuzmin, Freeman, NFW, Isothermal}
}

func ParseFamily(s string) (Family, error) {
	name := Family(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := laws[name]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}

// paramDef describes one free parameter. Log parameters are fit as log10 of
// the physical value.
type paramDef struct {
	name string
	unit string
	log  bool
	seed []float64 // coarse grid in free space
}

// law is a closed-form circular velocity v(r) over SI parameters.
type law struct {
	params []paramDef
	// toSI converts the free vector to SI parameters; ok is false when the
	// vector is outside the physical domain.
	toSI     func(sys units.System, free []float64) (p []float64, ok bool)
	velocity func(sys units.System, p []float64, r float64) float64
}

func (lw *law) dim() int { return len(lw.params) }

var laws = map[Family]*law{
	Plummer: {
		params: []paramDef{
			{name: "mass", unit: "Msun", log: true, seed: optim.Linspace(9, 13, 9)},
			{name: "b", unit: "kpc", seed: optim.Linspace(0.5, 20, 9)},
		},
		toSI:     massRadiusSI,
		velocity: plummerVelocity,
	},
	Kuzmin: {
		params: []paramDef{
			{name: "mass", unit: "Msun", log: true, seed: optim.Linspace(9, 13, 9)},
			{name: "a", unit: "kpc", seed: optim.Linspace(0.5, 20, 9)},
		},
		toSI:     massRadiusSI,
		velocity: kuzminVelocity,
	},
	Freeman: {
		params: []paramDef{
			{name: "surface_density", unit: "Msun/pc^2", log: true, seed: optim.Linspace(1, 4, 7)},
			{name: "r_d", unit: "kpc", seed: optim.Linspace(0.5, 10, 9)},
		},
		toSI: func(sys units.System, free []float64) ([]float64, bool) {
			rd := free[1]
			if !(rd > 0) {
				return nil, false
			}
			return []float64{sys.SurfaceDensityToSI(math.Pow(10, free[0])), sys.KpcToM(rd)}, true
		},
		velocity: freemanVelocity,
	},
	NFW: {
		params: []paramDef{
			{name: "density", unit: "Msun/kpc^3", log: true, seed: optim.Linspace(5, 9, 9)},
			{name: "a", unit: "kpc", seed: optim.Linspace(1, 40, 9)},
		},
		toSI: func(sys units.System, free []float64) ([]float64, bool) {
			a := free[1]
			if !(a > 0) {
				return nil, false
			}
			return []float64{sys.DensityToSI(math.Pow(10, free[0])), sys.KpcToM(a)}, true
		},
		velocity: nfwVelocity,
	},
	Isothermal: {
		params: []paramDef{
			{name: "sigma", unit: "km/s", seed: optim.Linspace(10, 400, 40)},
		},
		toSI: func(sys units.System, free []float64) ([]float64, bool) {
			if !(free[0] >= 0) {
				return nil, false
			}
			return []float64{sys.KmsToMs(free[0])}, true
		},
		velocity: func(_ units.System, p []float64, _ float64) float64 {
			return math.Sqrt2 * p[0]
		},
	},
}

func massRadiusSI(sys units.System, free []float64) ([]float64, bool) {
	scale := free[1]
	if !(scale > 0) {
		return nil, false
	}
	return []float64{sys.MsunToKg(math.Pow(10, free[0])), sys.KpcToM(scale)}, true
}

// v(x) = sqrt(GM / (x²+b²)^1.5) · x
func plummerVelocity(sys units.System, p []float64, x float64) float64 {
	gm, b := sys.G*p[0], p[1]
	return math.Sqrt(gm/math.Pow(x*x+b*b, 1.5)) * x
}

// v(x) = sqrt(GM) / (x²+a²)^0.75 · x
func kuzminVelocity(sys units.System, p []float64, x float64) float64 {
	gm, a := sys.G*p[0], p[1]
	return math.Sqrt(gm) / math.Pow(x*x+a*a, 0.75) * x
}

// v² = πGΣx²/r_d · [I0(y)K0(y) - I1(y)K1(y)], y = x/(2r_d).
func freemanVelocity(sys units.System, p []float64, x float64) float64 {
	sigma, rd := p[0], p[1]
	y := x / (2 * rd)
	bessel := special.ProductDifference(y)
	return math.Sqrt(math.Pi * sys.G * sigma * x * x / rd * bessel)
}

// v² = -4πGρa³ (x - (a+x) ln(1+x/a)) / (x(a+x))
func nfwVelocity(sys units.System, p []float64, x float64) float64 {
	rho, a := p[0], p[1]
	num := x - (a+x)*math.Log1p(x/a)
	return math.Sqrt(-4 * math.Pi * sys.G * rho * a * a * a * num / (x * (a + x)))
}

// Predict evaluates the velocity law of family at radii (m) for a free
// parameter vector, returning m/s.
func Predict(sys units.System, family Family, free []float64, radii []float64) ([]float64, error) {
	lw, ok := laws[family]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
	if len(free) != lw.dim() {
		return nil, fmt.Errorf("%w: %s takes %d parameters, got %d", ErrInvalidGuess, family, lw.dim(), len(free))
	}
	p, ok := lw.toSI(sys, free)
	if !ok {
		return nil, fmt.Errorf("%w: %s%v", ErrInvalidParameter, family, free)
	}

	out := make([]float64, len(radii))
	for i, r := range radii {
		out[i] = lw.velocity(sys, p, r)
	}
	return out, nil
}

// ParamNames lists the free parameters of a family in vector order.
func ParamNames(family Family) []string {
	lw, ok := laws[family]
	if !ok {
		return nil
	}
	names := make([]string, lw.dim())
	for i, p := range lw.params {
		names[i] = p.name
	}
	return names
}
