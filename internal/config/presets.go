package config

import (
	"sort"

	"github.com/san-kum/rotcurve/internal/potential"
)

var Presets = map[string]*Config{
	"milky_way": {
		Grid:   GridConfig{MinKpc: DefaultMinKpc, MaxKpc: DefaultMaxKpc, Points: DefaultPoints},
		Method: "auto",
		Models: haloSpecs(DefaultScaleRadius, DefaultMass),
	},
	"halo_shapes": {
		Grid:   GridConfig{MinKpc: DefaultMinKpc, MaxKpc: DefaultMaxKpc, Points: DefaultPoints},
		Method: "auto",
		Models: haloSpecs(20, DefaultMass),
	},
	"disk_halo": {
		Grid:   GridConfig{MinKpc: DefaultMinKpc, MaxKpc: DefaultMaxKpc, Points: 100},
		Method: "auto",
		Models: []potential.Spec{
			{Family: potential.NFWDensity, ScaleRadius: 11, Density: DefaultDensity},
			{Family: potential.ExponentialDisk, ScaleRadius: 1, SurfaceDensity: DefaultDiskDensity},
		},
	},
	"flat": {
		Grid:   GridConfig{MinKpc: DefaultMinKpc, MaxKpc: DefaultMaxKpc, Points: DefaultPoints},
		Method: "auto",
		Models: []potential.Spec{
			{Family: potential.Isothermal, Dispersion: DefaultDispersion},
		},
	},
}

// GetPreset returns a copy of the named preset with fit defaults filled in,
// or nil when it does not exist.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := p.Clone()
	cfg.Fit = DefaultConfig().Fit
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
