package optim

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"
)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Point is one evaluated lattice node.
type Point struct {
	X      []float64
	F      float64
	Params map[string]float64
}

// Search evaluates every combination of the ranges and returns the best one.
// Ties keep the first point visited.
func (g *GridSearch) Search(ctx context.Context, f Objective) (*Point, error) {
	best := &Point{F: math.Inf(1)}
	current := make([]float64, len(g.paramNames))

	if err := g.searchRecursive(ctx, 0, current, f, best); err != nil {
		return nil, err
	}
	if best.X == nil {
		return nil, ErrNoFeasiblePoint
	}

	best.Params = make(map[string]float64, len(g.paramNames))
	for i, name := range g.paramNames {
		best.Params[name] = best.X[i]
	}
	return best, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current []float64, f Objective, best *Point) error {
	if depth == len(g.paramNames) {
		if err := ctx.Err(); err != nil {
			return err
		}

		val := f(current)
		if val < best.F {
			best.F = val
			best.X = append(best.X[:0], current...)
		}
		return nil
	}

	for _, val := range g.ranges[depth] {
		current[depth] = val
		if err := g.searchRecursive(ctx, depth+1, current, f, best); err != nil {
			return err
		}
	}
	return nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}
