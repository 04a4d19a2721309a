package optim_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/rotcurve/internal/optim"
)

func rosenbrock(x []float64) float64 {
	a, b := 1-x[0], x[1]-x[0]*x[0]
	return a*a + 100*b*b
}

func bowl(x []float64) float64 {
	return (x[0]-3)*(x[0]-3) + 2*(x[1]+1)*(x[1]+1)
}

var _ = Describe("Minimize", func() {
	It("finds the minimum of a quadratic bowl", func() {
		out, err := optim.Minimize(bowl, []float64{0, 0}, optim.DefaultSettings())
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Converged).To(BeTrue())
		Expect(out.X[0]).To(BeNumerically("~", 3, 1e-4))
		Expect(out.X[1]).To(BeNumerically("~", -1, 1e-4))
		Expect(out.F).To(BeNumerically("<", 1e-8))
	})

	It("solves the Rosenbrock valley", func() {
		out, err := optim.Minimize(rosenbrock, []float64{-1.2, 1}, optim.DefaultSettings())
		Expect(err).NotTo(HaveOccurred())
		Expect(out.X[0]).To(BeNumerically("~", 1, 1e-3))
		Expect(out.X[1]).To(BeNumerically("~", 1, 1e-3))
	})

	It("reports budget exhaustion without an error", func() {
		s := optim.DefaultSettings()
		s.MaxIterations = 3

		out, err := optim.Minimize(rosenbrock, []float64{-1.2, 1}, s)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Converged).To(BeFalse())
		Expect(out.Iterations).To(BeNumerically("<=", 3))
		Expect(out.X).To(HaveLen(2))
		Expect(math.IsInf(out.F, 0)).To(BeFalse())
	})

	It("has no wall-clock limit by default", func() {
		s := optim.DefaultSettings()
		Expect(s.Timeout).To(BeZero())
		Expect(s.MaxIterations).To(BeNumerically(">", 0))
		Expect(s.MaxEvaluations).To(BeNumerically(">", 0))
	})

	It("is deterministic", func() {
		a, err := optim.Minimize(rosenbrock, []float64{-1.2, 1}, optim.DefaultSettings())
		Expect(err).NotTo(HaveOccurred())
		b, err := optim.Minimize(rosenbrock, []float64{-1.2, 1}, optim.DefaultSettings())
		Expect(err).NotTo(HaveOccurred())
		Expect(a.X).To(Equal(b.X))
		Expect(a.F).To(Equal(b.F))
		Expect(a.Evaluations).To(Equal(b.Evaluations))
	})

	It("treats NaN as infeasible", func() {
		f := func(x []float64) float64 {
			if x[0] < 0 {
				return math.NaN()
			}
			return (x[0] - 2) * (x[0] - 2)
		}
		out, err := optim.Minimize(f, []float64{1}, optim.DefaultSettings())
		Expect(err).NotTo(HaveOccurred())
		Expect(out.X[0]).To(BeNumerically("~", 2, 1e-4))
	})

	It("rejects bad starting points", func() {
		_, err := optim.Minimize(bowl, nil, optim.DefaultSettings())
		Expect(err).To(MatchError(optim.ErrEmptyStart))

		inf := func([]float64) float64 { return math.Inf(1) }
		_, err = optim.Minimize(inf, []float64{1, 2}, optim.DefaultSettings())
		Expect(err).To(MatchError(optim.ErrInfeasibleStart))
	})
})

var _ = Describe("GridSearch", func() {
	It("returns the best lattice node", func() {
		g := optim.NewGridSearch([]string{"x", "y"}, [][]float64{
			optim.Linspace(0, 5, 6),
			optim.Linspace(-3, 3, 7),
		})

		best, err := g.Search(context.Background(), bowl)
		Expect(err).NotTo(HaveOccurred())
		Expect(best.X).To(Equal([]float64{3, -1}))
		Expect(best.F).To(BeNumerically("==", 0))
		Expect(best.Params).To(HaveKeyWithValue("x", 3.0))
		Expect(best.Params).To(HaveKeyWithValue("y", -1.0))
	})

	It("skips infeasible nodes", func() {
		g := optim.NewGridSearch([]string{"x"}, [][]float64{{-1, 0, 1, 2}})
		f := func(x []float64) float64 {
			if x[0] <= 0 {
				return math.Inf(1)
			}
			return x[0]
		}
		best, err := g.Search(context.Background(), f)
		Expect(err).NotTo(HaveOccurred())
		Expect(best.X).To(Equal([]float64{1}))
	})

	It("fails when nothing is feasible", func() {
		g := optim.NewGridSearch([]string{"x"}, [][]float64{{1, 2}})
		_, err := g.Search(context.Background(), func([]float64) float64 { return math.Inf(1) })
		Expect(err).To(MatchError(optim.ErrNoFeasiblePoint))
	})

	It("stops on a cancelled context", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		g := optim.NewGridSearch([]string{"x"}, [][]float64{{1, 2}})
		_, err := g.Search(ctx, bowl1D)
		Expect(err).To(MatchError(context.Canceled))
	})
})

func bowl1D(x []float64) float64 { return x[0] * x[0] }
