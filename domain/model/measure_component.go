package model

import (
	"context"

	"simflow/domain/curve"
)

// MeasureComponent is a post-processing discipline extracting a direct
// measure from an output curve
type MeasureComponent struct {
	measureClass string
	settings     curve.Settings
}

// NewMeasureComponent creates a component computing the registered measure
// measureClass on the curve named by the settings
func NewMeasureComponent(measureClass string, settings curve.Settings) (*MeasureComponent, error) {
	if _, err := curve.Get(measureClass); err != nil {
		return nil, err
	}
	return &MeasureComponent{measureClass: measureClass, settings: settings}, nil
}

func (c *MeasureComponent) Name() string { return c.measureClass }

func (c *MeasureComponent) InputNames() []string {
	return []string{c.settings.XName, c.settings.YName}
}

func (c *MeasureComponent) OutputNames() []string {
	return []string{c.settings.MeasureName}
}

func (c *MeasureComponent) Execute(_ context.Context, in Data) (Data, error) {
	values, err := curve.Evaluate(c.measureClass, c.settings, in)
	if err != nil {
		return nil, err
	}
	out := Data{}
	for name, v := range values {
		out[name] = []float64{v}
	}
	return out, nil
}
