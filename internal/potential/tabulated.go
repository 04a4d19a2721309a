package potential

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/spf13/cast"

	"github.com/san-kum/rotcurve/internal/units"
)

// TabulatedModel is a potential sampled on a grid with no closed form; its
// rotation curve always goes through numerical differentiation.
type TabulatedModel struct {
	grid Grid
	phi  []float64
}

func NewTabulated(grid Grid, phi []float64) (*TabulatedModel, error) {
	if grid.Len() != len(phi) {
		return nil, fmt.Errorf("%w: %d values for %d radii", ErrDimensionMismatch, len(phi), grid.Len())
	}
	values := make([]float64, len(phi))
	copy(values, phi)
	return &TabulatedModel{grid: grid, phi: values}, nil
}

// Sample captures the potential of any model as a tabulated one.
func Sample(m Model) *TabulatedModel {
	return &TabulatedModel{grid: m.Grid(), phi: m.Potential()}
}

func (t *TabulatedModel) Family() Family { return Tabulated }
func (t *TabulatedModel) Grid() Grid     { return t.grid }

func (t *TabulatedModel) Potential() []float64 {
	out := make([]float64, len(t.phi))
	copy(out, t.phi)
	return out
}

// ReadTabulated parses rows of
//
//	radius_kpc phi_m2s2
//
// separated by whitespace, commas or semicolons. Blank lines and lines
// starting with '#' are skipped. Radii must be strictly increasing.
func ReadTabulated(sys units.System, r io.Reader) (*TabulatedModel, error) {
	var radii, phi []float64

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.FieldsFunc(text, func(c rune) bool {
			return c == ',' || c == ';' || unicode.IsSpace(c)
		})
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: line %d: expected 2 columns, got %d", ErrDimensionMismatch, line, len(fields))
		}

		rk, err := cast.ToFloat64E(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d radius: %v", ErrInvalidParameter, line, err)
		}
		v, err := cast.ToFloat64E(fields[1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d potential: %v", ErrInvalidParameter, line, err)
		}
		radii = append(radii, rk)
		phi = append(phi, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("potential: read table: %w", err)
	}

	grid, err := NewGrid(sys, radii)
	if err != nil {
		return nil, err
	}
	return NewTabulated(grid, phi)
}

func LoadTabulated(sys units.System, path string) (*TabulatedModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := ReadTabulated(sys, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
