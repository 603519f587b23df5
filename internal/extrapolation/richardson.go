// Package extrapolation estimates mesh-converged values with Richardson
// extrapolation q(h) = q0 + C*h^p.
package extrapolation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"simflow/domain/core"
)

const (
	minOrder = 0.1
	maxOrder = 10.0
)

// Fit is one extrapolation q0 + C*h^Order
type Fit struct {
	Q0    float64
	C     float64
	Order float64
}

// At evaluates the fitted model
func (f Fit) At(h float64) float64 {
	return f.Q0 + f.C*math.Pow(h, f.Order)
}

// Result is the extrapolation of a refinement trajectory
type Result struct {
	Fit
	// Observed is false when the order is the theoretical fallback
	Observed bool
	// Folds holds the q0 of each leave-one-out fit, fold k omitting mesh k
	Folds []float64
}

// FixedOrder fits (q0, C) by linear least squares with the order fixed
func FixedOrder(h, q []float64, order float64) (Fit, error) {
	if len(h) != len(q) {
		return Fit{}, fmt.Errorf("%w: %d element sizes and %d values", core.ErrSizeMismatch, len(h), len(q))
	}
	if len(h) < 2 {
		return Fit{}, fmt.Errorf("%w: need at least 2 meshes, got %d", core.ErrInsufficientData, len(h))
	}
	a := mat.NewDense(len(h), 2, nil)
	for i, x := range h {
		a.Set(i, 0, 1)
		a.Set(i, 1, math.Pow(x, order))
	}
	b := mat.NewVecDense(len(q), append([]float64(nil), q...))
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return Fit{}, fmt.Errorf("least squares failed for order %g: %w", order, err)
	}
	return Fit{Q0: x.AtVec(0), C: x.AtVec(1), Order: order}, nil
}

func residual(f Fit, h, q []float64) float64 {
	var sum float64
	for i := range h {
		r := f.At(h[i]) - q[i]
		sum += r * r
	}
	return sum
}

// ObservedOrder fits the order together with (q0, C). The two linear
// coefficients are eliminated for each candidate order, leaving a
// one-dimensional problem solved by Nelder-Mead.
func ObservedOrder(h, q []float64, initial float64) (Fit, error) {
	if len(h) < 3 {
		return Fit{}, fmt.Errorf("%w: need at least 3 meshes to observe an order, got %d", core.ErrInsufficientData, len(h))
	}
	cost := func(x []float64) float64 {
		p := x[0]
		if p < minOrder || p > maxOrder {
			return math.Inf(1)
		}
		f, err := FixedOrder(h, q, p)
		if err != nil {
			return math.Inf(1)
		}
		return residual(f, h, q)
	}
	res, err := optimize.Minimize(optimize.Problem{Func: cost}, []float64{initial}, nil, &optimize.NelderMead{})
	if err != nil {
		return Fit{}, fmt.Errorf("order optimisation failed: %w", err)
	}
	order := res.X[0]
	if math.IsNaN(order) || order < minOrder || order > maxOrder {
		return Fit{}, fmt.Errorf("observed order %g out of [%g, %g]", order, minOrder, maxOrder)
	}
	return FixedOrder(h, q, order)
}

// Extrapolate computes the observed order of a trajectory, falling back to
// theoreticalOrder when it cannot be observed, and one leave-one-out fold
// per mesh with that order
func Extrapolate(h, q []float64, theoreticalOrder float64) (*Result, error) {
	if len(h) != len(q) {
		return nil, fmt.Errorf("%w: %d element sizes and %d values", core.ErrSizeMismatch, len(h), len(q))
	}
	if len(h) < 3 {
		return nil, fmt.Errorf("%w: cross-validation needs at least 3 meshes, got %d", core.ErrInsufficientData, len(h))
	}
	if theoreticalOrder <= 0 {
		return nil, fmt.Errorf("theoretical order must be positive, got %g", theoreticalOrder)
	}

	res := &Result{Observed: true}
	fit, err := ObservedOrder(h, q, theoreticalOrder)
	if err != nil {
		res.Observed = false
		if fit, err = FixedOrder(h, q, theoreticalOrder); err != nil {
			return nil, err
		}
	}
	res.Fit = fit

	res.Folds = make([]float64, len(h))
	for k := range h {
		hk := make([]float64, 0, len(h)-1)
		qk := make([]float64, 0, len(h)-1)
		for i := range h {
			if i != k {
				hk = append(hk, h[i])
				qk = append(qk, q[i])
			}
		}
		fold, err := FixedOrder(hk, qk, fit.Order)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", k, err)
		}
		res.Folds[k] = fold.Q0
	}
	return res, nil
}
