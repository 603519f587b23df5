package curve

import (
	"fmt"
	"sort"

	"simflow/domain/core"
)

// Settings select the curve variables a measure reads and the name of the
// scalar it produces
type Settings struct {
	XName       string `json:"x_name" yaml:"x_name"`
	YName       string `json:"y_name" yaml:"y_name"`
	MeasureName string `json:"measure_name" yaml:"measure_name"`
}

// Measure computes one scalar from a curve
type Measure interface {
	Compute(c Curve) (float64, error)
}

// MeasureFunc adapts a function to Measure
type MeasureFunc func(c Curve) (float64, error)

func (f MeasureFunc) Compute(c Curve) (float64, error) { return f(c) }

// DummyModulusValue is returned by the DummyModulus measure
const DummyModulusValue = 2.1e5

var registry = map[string]Measure{
	// Modulus between 0.0005 and 0.0025 strain.
	"ModulusE005E025": MeasureFunc(func(c Curve) (float64, error) {
		lo, hi := 0.0005, 0.0025
		return LocalSlope(c, Window{XMin: &lo, XMax: &hi}, SlopeAverage)
	}),
	// Modulus between 10% and 50% of the maximum stress.
	"Modulus1050": MeasureFunc(func(c Curve) (float64, error) {
		m := c.MaxAbs()
		lo, hi := 0.10*m, 0.50*m
		return LocalSlope(c, Window{YMin: &lo, YMax: &hi}, SlopeRegression)
	}),
	// The last point is taken as the strength, as for force-displacement curves.
	"MaxStrength": MeasureFunc(func(c Curve) (float64, error) {
		if c.Len() == 0 {
			return 0, fmt.Errorf("%w: empty curve %s", core.ErrInsufficientData, c.YName)
		}
		return c.Y[c.Len()-1], nil
	}),
	"DummyModulus": MeasureFunc(func(Curve) (float64, error) {
		return DummyModulusValue, nil
	}),
}

// Get returns the measure registered under name
func Get(name string) (Measure, error) {
	m, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrMeasureNotFound, name)
	}
	return m, nil
}

// Names returns the registered measure names, sorted
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Evaluate reads the x and y variables named by the settings from data,
// computes the measure and returns it keyed by settings.MeasureName
func Evaluate(measureClass string, s Settings, data map[string][]float64) (map[string]float64, error) {
	m, err := Get(measureClass)
	if err != nil {
		return nil, err
	}
	x, ok := data[s.XName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrMissingInput, s.XName)
	}
	y, ok := data[s.YName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrMissingInput, s.YName)
	}
	c, err := New(s.XName, s.YName, x, y)
	if err != nil {
		return nil, err
	}
	v, err := m.Compute(c)
	if err != nil {
		return nil, fmt.Errorf("measure %s: %w", s.MeasureName, err)
	}
	return map[string]float64{s.MeasureName: v}, nil
}
