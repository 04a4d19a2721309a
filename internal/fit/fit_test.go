package fit_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rotcurve/internal/dataset"
	"github.com/san-kum/rotcurve/internal/fit"
	"github.com/san-kum/rotcurve/internal/optim"
	"github.com/san-kum/rotcurve/internal/potential"
	"github.com/san-kum/rotcurve/internal/units"
)

var (
	sys   = units.SI()
	sqrt2 = math.Sqrt2 // runtime value, not the exact constant
)

// synthetic builds a noise-free dataset from a family's own law.
func synthetic(family fit.Family, free []float64, sigmaKms float64) *dataset.Dataset {
	radiiKpc := optim.Linspace(0.5, 30, 20)
	v, err := fit.Predict(sys, family, free, sys.KpcToMSlice(radiiKpc))
	Expect(err).NotTo(HaveOccurred())

	records := make([]dataset.Record, len(radiiKpc))
	for i, r := range radiiKpc {
		records[i] = dataset.Record{
			RadiusKpc:     r,
			VelocityKms:   sys.MsToKms(v[i]),
			SigmaPlusKms:  sigmaKms,
			SigmaMinusKms: sigmaKms,
		}
	}
	ds, err := dataset.New(sys, records)
	Expect(err).NotTo(HaveOccurred())
	return ds
}

var _ = Describe("Velocity laws", func() {
	radii := sys.KpcToMSlice([]float64{1, 5, 20})

	It("treats Kuzmin and Plummer as the same law", func() {
		p, err := fit.Predict(sys, fit.Plummer, []float64{11, 4}, radii)
		Expect(err).NotTo(HaveOccurred())
		k, err := fit.Predict(sys, fit.Kuzmin, []float64{11, 4}, radii)
		Expect(err).NotTo(HaveOccurred())
		for i := range p {
			Expect(k[i]).To(BeNumerically("~", p[i], p[i]*1e-12))
		}
	})

	It("gives a constant isothermal curve", func() {
		v, err := fit.Predict(sys, fit.Isothermal, []float64{150}, radii)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(HaveEach(sqrt2 * 150e3))
	})

	It("gives a positive NFW curve", func() {
		v, err := fit.Predict(sys, fit.NFW, []float64{7, 10}, radii)
		Expect(err).NotTo(HaveOccurred())
		for _, x := range v {
			Expect(x).To(BeNumerically(">", 0))
			Expect(math.IsNaN(x)).To(BeFalse())
		}
	})

	It("approaches the Keplerian limit of the Freeman disk", func() {
		const logSigma, rdKpc = 2.9, 3.0
		x := sys.KpcToM(40 * rdKpc)

		v, err := fit.Predict(sys, fit.Freeman, []float64{logSigma, rdKpc}, []float64{x})
		Expect(err).NotTo(HaveOccurred())

		rd := sys.KpcToM(rdKpc)
		mass := 2 * math.Pi * sys.SurfaceDensityToSI(math.Pow(10, logSigma)) * rd * rd
		kepler := sys.G * mass / x
		Expect(v[0] * v[0]).To(BeNumerically("~", kepler, kepler*0.01))
	})

	It("stays Keplerian far outside a compact Freeman disk", func() {
		const logSigma, rdKpc = 2.9, 0.5
		rd := sys.KpcToM(rdKpc)
		mass := 2 * math.Pi * sys.SurfaceDensityToSI(math.Pow(10, logSigma)) * rd * rd

		for _, y := range []float64{50, 100, 400} {
			x := 2 * y * rd
			v, err := fit.Predict(sys, fit.Freeman, []float64{logSigma, rdKpc}, []float64{x})
			Expect(err).NotTo(HaveOccurred())

			// v² = GM/x · (1 + 9/(8y²) + ...)
			want := sys.G * mass / x * (1 + 9/(8*y*y))
			Expect(v[0]*v[0]).To(BeNumerically("~", want, want*1e-5))
		}
	})

	It("rejects unphysical parameters", func() {
		_, err := fit.Predict(sys, fit.Plummer, []float64{11, -1}, radii)
		Expect(err).To(MatchError(fit.ErrInvalidParameter))
		Expect(errors.Is(err, potential.ErrInvalidParameter)).To(BeTrue())

		_, err = fit.Predict(sys, fit.Isothermal, []float64{-5}, radii)
		Expect(err).To(MatchError(fit.ErrInvalidParameter))

		_, err = fit.Predict(sys, fit.NFW, []float64{7}, radii)
		Expect(err).To(MatchError(fit.ErrInvalidGuess))

		_, err = fit.Predict(sys, "burkert", []float64{7}, radii)
		Expect(err).To(MatchError(fit.ErrUnknownFamily))
	})

	It("parses family names", func() {
		f, err := fit.ParseFamily(" Freeman ")
		Expect(err).NotTo(HaveOccurred())
		Expect(f).To(Equal(fit.Freeman))
		Expect(fit.ParamNames(fit.NFW)).To(Equal([]string{"density", "a"}))
	})
})

var _ = Describe("Engine", func() {
	var (
		engine *fit.Engine
		ctx    context.Context
	)

	BeforeEach(func() {
		engine = fit.NewEngine(sys, nil)
		ctx = context.Background()
	})

	DescribeTable("recovers known parameters",
		func(family fit.Family, truth, guess []float64) {
			ds := synthetic(family, truth, 5)

			res, err := engine.Fit(ctx, family, ds, guess)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Family).To(Equal(family))
			Expect(res.Points).To(Equal(20))
			Expect(res.ChiSquare).To(BeNumerically("<", 1e-6))
			for i := range truth {
				Expect(res.Free[i]).To(BeNumerically("~", truth[i], 1e-3))
			}
		},
		Entry("plummer", fit.Plummer, []float64{11.5, 3}, []float64{11, 5}),
		Entry("kuzmin", fit.Kuzmin, []float64{11.2, 6}, []float64{11.6, 4}),
		Entry("freeman", fit.Freeman, []float64{2.9, 3}, []float64{2.5, 2}),
		Entry("nfw", fit.NFW, []float64{7, 10}, []float64{6.5, 15}),
		Entry("plummer seeded by grid search", fit.Plummer, []float64{11.5, 3}, nil),
	)

	It("reports parameters in physical units with standard errors", func() {
		ds := synthetic(fit.Plummer, []float64{11.5, 3}, 5)
		res, err := engine.Fit(ctx, fit.Plummer, ds, []float64{11, 5})
		Expect(err).NotTo(HaveOccurred())

		mass, ok := res.Param("mass")
		Expect(ok).To(BeTrue())
		Expect(mass.Log).To(BeTrue())
		Expect(mass.Unit).To(Equal("Msun"))
		Expect(mass.Value).To(BeNumerically("~", math.Pow(10, 11.5), math.Pow(10, 11.5)*1e-2))
		Expect(mass.StdErr).To(BeNumerically(">", 0))

		b, _ := res.Param("b")
		Expect(b.Value).To(BeNumerically("~", 3, 1e-3))

		Expect(res.DegreesOfFreedom()).To(Equal(18))

		spec, ok := res.Spec()
		Expect(ok).To(BeTrue())
		Expect(spec.Family).To(Equal(potential.Plummer))
		Expect(spec.ScaleRadius).To(Equal(b.Value))
	})

	It("fits the isothermal dispersion as the weighted mean velocity", func() {
		v := []float64{200, 215, 190, 205, 198, 230}
		s := []float64{5, 10, 4, 8, 6, 20}

		r := optim.Linspace(1, 20, len(v))
		ds, err := dataset.FromColumns(sys, r, v, s, s)
		Expect(err).NotTo(HaveOccurred())

		var num, den float64
		for i := range v {
			w := 1 / (s[i] * s[i])
			num += v[i] * w
			den += w
		}
		want := num / den / math.Sqrt2

		res, err := engine.Fit(ctx, fit.Isothermal, ds, []float64{100})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Params[0].Value).To(BeNumerically("~", want, want*1e-6))
		Expect(res.Points).To(Equal(6))
	})

	It("is idempotent", func() {
		ds := synthetic(fit.Freeman, []float64{2.9, 3}, 5)
		a, err := engine.Fit(ctx, fit.Freeman, ds, []float64{2.5, 2})
		Expect(err).NotTo(HaveOccurred())
		b, err := engine.Fit(ctx, fit.Freeman, ds, []float64{2.5, 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(b))
	})

	It("surfaces non-convergence with the last iterate", func() {
		s := optim.DefaultSettings()
		s.MaxIterations = 3
		engine = fit.NewEngine(sys, nil, fit.SettingsOption(s))

		ds := synthetic(fit.NFW, []float64{7, 10}, 5)
		res, err := engine.Fit(ctx, fit.NFW, ds, []float64{6, 30})
		Expect(res).To(BeNil())
		Expect(err).To(MatchError(fit.ErrNonConvergence))

		var nc *fit.NonConvergenceError
		Expect(errors.As(err, &nc)).To(BeTrue())
		Expect(nc.Last).NotTo(BeNil())
		Expect(nc.Last.Free).To(HaveLen(2))
		Expect(nc.Last.Iterations).To(BeNumerically("<=", 3))
		Expect(math.IsInf(nc.Last.ChiSquare, 0)).To(BeFalse())
	})

	It("rejects zero uncertainties before optimizing", func() {
		ds, err := dataset.FromColumns(sys, []float64{1, 2}, []float64{100, 110}, []float64{0, 5}, []float64{0, 5})
		Expect(err).NotTo(HaveOccurred())

		_, err = engine.Fit(ctx, fit.Isothermal, ds, []float64{80})
		Expect(err).To(MatchError(fit.ErrZeroUncertainty))
		Expect(errors.Is(err, dataset.ErrInvalidDataset)).To(BeTrue())
	})

	It("uses the selected sigma policy", func() {
		ds, err := dataset.FromColumns(sys, []float64{1, 2}, []float64{100, 110}, []float64{0, 5}, []float64{4, 5})
		Expect(err).NotTo(HaveOccurred())

		minus := fit.NewEngine(sys, nil, fit.SigmaPolicyOption(dataset.Minus))
		_, err = minus.Fit(ctx, fit.Isothermal, ds, []float64{80})
		Expect(err).NotTo(HaveOccurred())

		asym := fit.NewEngine(sys, nil, fit.SigmaPolicyOption(dataset.Asymmetric))
		_, err = asym.Fit(ctx, fit.Isothermal, ds, []float64{80})
		Expect(err).To(MatchError(fit.ErrZeroUncertainty))
	})

	It("rejects bad guesses and inputs", func() {
		ds := synthetic(fit.Plummer, []float64{11.5, 3}, 5)

		_, err := engine.Fit(ctx, fit.Plummer, ds, []float64{11})
		Expect(err).To(MatchError(fit.ErrInvalidGuess))

		_, err = engine.Fit(ctx, fit.Plummer, ds, []float64{11, -2})
		Expect(err).To(MatchError(fit.ErrInvalidGuess))

		_, err = engine.Fit(ctx, "burkert", ds, nil)
		Expect(err).To(MatchError(fit.ErrUnknownFamily))

		empty, err := dataset.New(sys, nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = engine.Fit(ctx, fit.Plummer, empty, nil)
		Expect(err).To(MatchError(dataset.ErrInvalidDataset))
	})

	It("fits several families at once", func() {
		ds := synthetic(fit.Plummer, []float64{11.5, 3}, 5)
		attempts := engine.FitAll(ctx, []fit.Family{fit.Plummer, fit.Isothermal}, ds)

		Expect(attempts).To(HaveLen(2))
		Expect(attempts[0].Family).To(Equal(fit.Plummer))
		Expect(attempts[0].Err).NotTo(HaveOccurred())
		Expect(attempts[1].Family).To(Equal(fit.Isothermal))
		Expect(attempts[1].Err).NotTo(HaveOccurred())
		Expect(attempts[0].Result.ChiSquare).To(BeNumerically("<", attempts[1].Result.ChiSquare))
	})
})
