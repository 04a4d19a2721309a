package potential

import (
	"fmt"
	"sort"

	"github.com/san-kum/rotcurve/internal/units"
)

// Constructor builds a model of one family from a flattened Spec.
type Constructor func(sys units.System, grid Grid, spec Spec) (Model, error)

// Registry dispatches a Spec to the constructor registered for its family.
type Registry struct {
	sys      units.System
	builders map[Family]Constructor
}

func NewRegistry(sys units.System) *Registry {
	r := &Registry{
		sys:      sys,
		builders: make(map[Family]Constructor),
	}

	r.builders[NFW] = func(sys units.System, g Grid, s Spec) (Model, error) {
		return model(NewNFW(sys, g, MassProfile{ScaleRadius: s.ScaleRadius, Mass: s.Mass}))
	}
	r.builders[NFWDensity] = func(sys units.System, g Grid, s Spec) (Model, error) {
		return model(NewNFWDensity(sys, g, DensityProfile{ScaleRadius: s.ScaleRadius, Density: s.Density}))
	}
	r.builders[Hernquist] = func(sys units.System, g Grid, s Spec) (Model, error) {
		return model(NewHernquist(sys, g, MassProfile{ScaleRadius: s.ScaleRadius, Mass: s.Mass}))
	}
	r.builders[Plummer] = func(sys units.System, g Grid, s Spec) (Model, error) {
		return model(NewPlummer(sys, g, MassProfile{ScaleRadius: s.ScaleRadius, Mass: s.Mass}))
	}
	r.builders[Jaffe] = func(sys units.System, g Grid, s Spec) (Model, error) {
		return model(NewJaffe(sys, g, MassProfile{ScaleRadius: s.ScaleRadius, Mass: s.Mass}))
	}
	r.builders[Isothermal] = func(sys units.System, g Grid, s Spec) (Model, error) {
		return model(NewIsothermal(sys, g, DispersionProfile{Dispersion: s.Dispersion}))
	}
	r.builders[ExponentialDisk] = func(sys units.System, g Grid, s Spec) (Model, error) {
		return model(NewExponentialDisk(sys, g, DiskProfile{ScaleLength: s.ScaleRadius, SurfaceDensity: s.SurfaceDensity}))
	}

	return r
}

// Register adds or replaces the constructor for a family.
func (r *Registry) Register(f Family, c Constructor) {
	r.builders[f] = c
}

func (r *Registry) Build(grid Grid, spec Spec) (Model, error) {
	fn, ok := r.builders[spec.Family]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, spec.Family)
	}
	if grid.IsZero() {
		return nil, &ParameterError{Family: spec.Family, Name: "grid length", Value: 0}
	}
	return fn(r.sys, grid, spec)
}

// BuildAll builds one model per spec, stopping at the first failure.
func (r *Registry) BuildAll(grid Grid, specs []Spec) ([]Model, error) {
	models := make([]Model, 0, len(specs))
	for i, s := range specs {
		m, err := r.Build(grid, s)
		if err != nil {
			return nil, fmt.Errorf("model %d (%s): %w", i, s.Family, err)
		}
		models = append(models, m)
	}
	return models, nil
}

func (r *Registry) Families() []Family {
	names := make([]Family, 0, len(r.builders))
	for f := range r.builders {
		names = append(names, f)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func (r *Registry) Units() units.System { return r.sys }

// model drops the typed nil a failed constructor returns.
func model[M Model](m M, err error) (Model, error) {
	if err != nil {
		return nil, err
	}
	return m, nil
}
