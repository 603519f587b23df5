// Package model composes simulation disciplines into integrated models.
package model

import (
	"context"
	"fmt"
	"sort"
	"time"

	"simflow/domain/core"
)

// Reserved output names written by every integrated model
const (
	CPUTimeOutput   = "cpu_time"
	ErrorCodeOutput = "error_code"
)

// Error codes
const (
	ErrorCodeSuccess = 0
	ErrorCodeFailure = 1
)

// Data maps variable names to their values
type Data map[string][]float64

// Copy returns a deep copy
func (d Data) Copy() Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = append([]float64(nil), v...)
	}
	return out
}

// Update overwrites d with the entries of other
func (d Data) Update(other Data) {
	for k, v := range other {
		d[k] = append([]float64(nil), v...)
	}
}

// Subset returns the entries of d named by names
func (d Data) Subset(names []string) (Data, error) {
	out := make(Data, len(names))
	for _, name := range names {
		v, ok := d[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", core.ErrMissingInput, name)
		}
		out[name] = v
	}
	return out, nil
}

// Scalar returns the first component of a variable
func (d Data) Scalar(name string) (float64, bool) {
	v, ok := d[name]
	if !ok || len(v) == 0 {
		return 0, false
	}
	return v[0], true
}

// Names returns the variable names, sorted
func (d Data) Names() []string {
	names := make([]string, 0, len(d))
	for k := range d {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Discipline is one executable step of a model: an analytic relation, a
// solver run, a post-processing measure
type Discipline interface {
	Name() string
	InputNames() []string
	OutputNames() []string
	Execute(ctx context.Context, in Data) (Data, error)
}

// CurveSpec names the x and y variables of an output curve
type CurveSpec struct {
	X string
	Y string
}

// IntegratedModel executes an ordered chain of disciplines on a load case.
// Each discipline receives the data accumulated by the previous ones.
type IntegratedModel struct {
	name            string
	loadCase        string
	loadCaseDomain  string
	chain           []Discipline
	defaults        Data
	checkSubprocess bool
	curves          []CurveSpec
}

// Option configures an IntegratedModel
type Option func(*IntegratedModel)

// WithName sets the model name; it defaults to the load case name
func WithName(name string) Option {
	return func(m *IntegratedModel) { m.name = name }
}

// WithDefaults sets default input values
func WithDefaults(d Data) Option {
	return func(m *IntegratedModel) { m.defaults = d.Copy() }
}

// WithCheckSubprocess makes discipline failures abort the execution with an
// error instead of being reported through the error_code output
func WithCheckSubprocess(check bool) Option {
	return func(m *IntegratedModel) { m.checkSubprocess = check }
}

// WithCurves declares the output curves of the model
func WithCurves(curves ...CurveSpec) Option {
	return func(m *IntegratedModel) { m.curves = append([]CurveSpec(nil), curves...) }
}

// WithLoadCaseDomain sets the domain prefixed to composed load case names
func WithLoadCaseDomain(domain string) Option {
	return func(m *IntegratedModel) { m.loadCaseDomain = domain }
}

// NewIntegratedModel creates a model from its chain of disciplines
func NewIntegratedModel(loadCase string, chain []Discipline, opts ...Option) *IntegratedModel {
	m := &IntegratedModel{
		name:     loadCase,
		loadCase: loadCase,
		chain:    append([]Discipline(nil), chain...),
		defaults: Data{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *IntegratedModel) Name() string           { return m.name }
func (m *IntegratedModel) LoadCase() string       { return m.loadCase }
func (m *IntegratedModel) LoadCaseDomain() string { return m.loadCaseDomain }
func (m *IntegratedModel) Curves() []CurveSpec    { return append([]CurveSpec(nil), m.curves...) }
func (m *IntegratedModel) Chain() []Discipline    { return append([]Discipline(nil), m.chain...) }
func (m *IntegratedModel) Defaults() Data         { return m.defaults.Copy() }

// InputNames returns the chain inputs not produced by an upstream discipline
func (m *IntegratedModel) InputNames() []string {
	produced := map[string]bool{}
	seen := map[string]bool{}
	var names []string
	for _, d := range m.chain {
		for _, in := range d.InputNames() {
			if !produced[in] && !seen[in] {
				seen[in] = true
				names = append(names, in)
			}
		}
		for _, out := range d.OutputNames() {
			produced[out] = true
		}
	}
	sort.Strings(names)
	return names
}

// OutputNames returns every name produced by the chain plus the reserved outputs
func (m *IntegratedModel) OutputNames() []string {
	seen := map[string]bool{CPUTimeOutput: true, ErrorCodeOutput: true}
	names := []string{CPUTimeOutput, ErrorCodeOutput}
	for _, d := range m.chain {
		for _, out := range d.OutputNames() {
			if !seen[out] {
				seen[out] = true
				names = append(names, out)
			}
		}
	}
	sort.Strings(names)
	return names
}

// Execute runs the chain. The returned data holds the inputs, every
// discipline output, the CPU time in seconds and the error code.
func (m *IntegratedModel) Execute(ctx context.Context, in Data) (Data, error) {
	data := m.defaults.Copy()
	data.Update(in)

	start := time.Now()
	errorCode := ErrorCodeSuccess
	for _, d := range m.chain {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := m.executeDiscipline(ctx, d, data)
		if err == nil {
			if code, ok := out.Scalar(ErrorCodeOutput); ok && code != ErrorCodeSuccess {
				err = fmt.Errorf("error code %v", code)
			}
		}
		if err != nil {
			if m.checkSubprocess {
				return nil, fmt.Errorf("model %s: discipline %s failed: %w", m.name, d.Name(), err)
			}
			errorCode = ErrorCodeFailure
			break
		}
		data.Update(out)
	}
	data[CPUTimeOutput] = []float64{time.Since(start).Seconds()}
	data[ErrorCodeOutput] = []float64{float64(errorCode)}
	return data, nil
}

func (m *IntegratedModel) executeDiscipline(ctx context.Context, d Discipline, data Data) (Data, error) {
	in, err := data.Subset(d.InputNames())
	if err != nil {
		return nil, err
	}
	return d.Execute(ctx, in)
}

// NewModelComposition wraps a base model followed by post-processing
// components. The composed load case is prefixed with the base model's load
// case domain when it has one.
func NewModelComposition(loadCase string, base *IntegratedModel, post []Discipline, opts ...Option) (*IntegratedModel, error) {
	if base == nil {
		return nil, core.ErrMissingBaseModel
	}
	fullLoadCase := loadCase
	if base.loadCaseDomain != "" {
		fullLoadCase = base.loadCaseDomain + "_" + loadCase
	}
	chain := append([]Discipline{base}, post...)
	all := append([]Option{
		WithName(base.name),
		WithLoadCaseDomain(base.loadCaseDomain),
		WithCurves(base.curves...),
		WithDefaults(base.defaults),
	}, opts...)
	return NewIntegratedModel(fullLoadCase, chain, all...), nil
}
