// Package curve holds x/y curves produced by simulations and the direct
// measures extracted from them.
package curve

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"simflow/domain/core"
)

// Curve is a sampled y(x) relation
type Curve struct {
	XName string    `json:"x_name"`
	YName string    `json:"y_name"`
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
}

// New builds a curve and checks that both axes have the same length
func New(xName, yName string, x, y []float64) (Curve, error) {
	if len(x) != len(y) {
		return Curve{}, fmt.Errorf("%w: curve %s(%s) has %d x values and %d y values",
			core.ErrSizeMismatch, yName, xName, len(x), len(y))
	}
	return Curve{XName: xName, YName: yName, X: x, Y: y}, nil
}

// Len returns the number of points
func (c Curve) Len() int {
	return len(c.X)
}

// SlopeMethod selects how a local slope is estimated
type SlopeMethod string

const (
	SlopeAverage    SlopeMethod = "average"
	SlopeRegression SlopeMethod = "regression"
)

// Window bounds the points used for a local slope. Unset bounds are open.
type Window struct {
	XMin, XMax *float64
	YMin, YMax *float64
}

func (w Window) contains(x, y float64) bool {
	return (w.XMin == nil || x >= *w.XMin) &&
		(w.XMax == nil || x <= *w.XMax) &&
		(w.YMin == nil || y >= *w.YMin) &&
		(w.YMax == nil || y <= *w.YMax)
}

// LocalSlope estimates dy/dx on the points of the curve inside the window.
// The average method averages the finite-difference slopes of consecutive
// points; the regression method fits a least-squares line.
func LocalSlope(c Curve, w Window, method SlopeMethod) (float64, error) {
	var xs, ys []float64
	for i := range c.X {
		if w.contains(c.X[i], c.Y[i]) {
			xs = append(xs, c.X[i])
			ys = append(ys, c.Y[i])
		}
	}
	if len(xs) < 2 {
		return 0, fmt.Errorf("%w: %d point(s) of %s in the slope window", core.ErrInsufficientData, len(xs), c.YName)
	}

	switch method {
	case SlopeAverage:
		slopes := make([]float64, 0, len(xs)-1)
		for i := 1; i < len(xs); i++ {
			dx := xs[i] - xs[i-1]
			if dx == 0 {
				continue
			}
			slopes = append(slopes, (ys[i]-ys[i-1])/dx)
		}
		if len(slopes) == 0 {
			return 0, fmt.Errorf("%w: no distinct x values in the slope window", core.ErrInsufficientData)
		}
		return stat.Mean(slopes, nil), nil
	case SlopeRegression:
		if floats.Max(xs) == floats.Min(xs) {
			return 0, fmt.Errorf("%w: no distinct x values in the slope window", core.ErrInsufficientData)
		}
		_, beta := stat.LinearRegression(xs, ys, nil, false)
		return beta, nil
	default:
		return 0, fmt.Errorf("unknown slope method %q", method)
	}
}

// MaxAbs returns the largest absolute y value
func (c Curve) MaxAbs() float64 {
	m := 0.0
	for _, y := range c.Y {
		m = math.Max(m, math.Abs(y))
	}
	return m
}
