package metrics

import "math"

type ChiSquare struct {
	name string
	sum  float64
}

func NewChiSquare() *ChiSquare {
	return &ChiSquare{name: "chi_square"}
}

func (c *ChiSquare) Name() string { return c.name }

// Observe adds ((o-p)/σ)². A zero σ makes the sum infinite.
func (c *ChiSquare) Observe(observed, predicted, sigma float64) {
	d := (observed - predicted) / sigma
	c.sum += d * d
}

func (c *ChiSquare) Value() float64 { return c.sum }

func (c *ChiSquare) Reset() { c.sum = 0 }

type RMS struct {
	name    string
	sumSq   float64
	samples int
}

func NewRMS() *RMS {
	return &RMS{name: "rms"}
}

func (r *RMS) Name() string { return r.name }

func (r *RMS) Observe(observed, predicted, _ float64) {
	d := observed - predicted
	r.sumSq += d * d
	r.samples++
}

func (r *RMS) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return math.Sqrt(r.sumSq / float64(r.samples))
}

func (r *RMS) Reset() {
	r.sumSq = 0
	r.samples = 0
}

type MaxResidual struct {
	name string
	max  float64
}

func NewMaxResidual() *MaxResidual {
	return &MaxResidual{name: "max_residual"}
}

func (m *MaxResidual) Name() string { return m.name }

func (m *MaxResidual) Observe(observed, predicted, _ float64) {
	m.max = math.Max(m.max, math.Abs(observed-predicted))
}

func (m *MaxResidual) Value() float64 { return m.max }

func (m *MaxResidual) Reset() { m.max = 0 }
