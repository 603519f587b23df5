package app

import (
	"context"
	"fmt"

	"simflow/domain/convergence"
	"simflow/domain/core"
	"simflow/domain/model"
	"simflow/domain/verification"
	"simflow/internal"
	"simflow/internal/extrapolation"
)

// Defaults of SolutionVerificationSettings
const (
	DefaultElementSizeVariableName = "element_size"
	DefaultTheoreticalOrder        = 2.0
)

// SolutionVerificationSettings configures the verification of one model
// output along a refinement trajectory
type SolutionVerificationSettings struct {
	Experiment              string     `yaml:"experiment" json:"experiment"`
	ElementSizeVariableName string     `yaml:"element_size_variable_name" json:"element_size_variable_name"`
	ElementSizes            []float64  `yaml:"element_sizes" json:"element_sizes"`
	OutputName              string     `yaml:"output_name" json:"output_name"`
	TheoreticalOrder        float64    `yaml:"theoretical_order" json:"theoretical_order"`
	Reference               *float64   `yaml:"reference" json:"reference"`
	Inputs                  model.Data `yaml:"inputs" json:"inputs"`
}

func (s *SolutionVerificationSettings) applyDefaults() {
	if s.ElementSizeVariableName == "" {
		s.ElementSizeVariableName = DefaultElementSizeVariableName
	}
	if s.TheoreticalOrder == 0 {
		s.TheoreticalOrder = DefaultTheoreticalOrder
	}
	if s.Experiment == "" {
		s.Experiment = "solution_verification"
	}
}

// SolutionVerification runs a model on successively refined meshes and
// extrapolates the output of interest to zero element size
type SolutionVerification struct {
	runner *ModelRunner
	logger *internal.Logger
}

// NewSolutionVerification creates the tool over a model runner
func NewSolutionVerification(runner *ModelRunner, logger *internal.Logger) *SolutionVerification {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SolutionVerification{runner: runner, logger: logger.With("solution-verification")}
}

// Execute produces a verification result with the variables element size,
// output, Ref[output] and cpu_time, and one cross-validation fold per mesh.
// Without a reference value, the extrapolated value is used.
func (v *SolutionVerification) Execute(ctx context.Context, m *model.IntegratedModel, s SolutionVerificationSettings) (*verification.VerificationResult, error) {
	s.applyDefaults()
	if s.OutputName == "" {
		return nil, fmt.Errorf("%w: output name", core.ErrMissingInput)
	}
	if len(s.ElementSizes) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 element sizes, got %d", core.ErrInsufficientData, len(s.ElementSizes))
	}

	h := make([]float64, 0, len(s.ElementSizes))
	q := make([]float64, 0, len(s.ElementSizes))
	cpu := make([]float64, 0, len(s.ElementSizes))
	for _, size := range s.ElementSizes {
		inputs := s.Inputs.Copy()
		if inputs == nil {
			inputs = model.Data{}
		}
		inputs[s.ElementSizeVariableName] = []float64{size}

		result, outputs, err := v.runner.Run(ctx, m, core.Experiment(s.Experiment), inputs)
		if err != nil {
			return nil, err
		}
		if !result.Succeeded() {
			return nil, fmt.Errorf("model %s failed for %s=%g", m.Name(), s.ElementSizeVariableName, size)
		}
		value, ok := outputs.Scalar(s.OutputName)
		if !ok {
			return nil, fmt.Errorf("%w: model %s has no output %s", core.ErrMissingInput, m.Name(), s.OutputName)
		}
		h = append(h, size)
		q = append(q, value)
		cpu = append(cpu, result.CPUTime)
	}

	ext, err := extrapolation.Extrapolate(h, q, s.TheoreticalOrder)
	if err != nil {
		return nil, err
	}
	if !ext.Observed {
		v.logger.Warn("Could not observe the convergence order of %s, using %g", s.OutputName, s.TheoreticalOrder)
	}
	reference := ext.Q0
	if s.Reference != nil {
		reference = *s.Reference
	}
	refs := make([]float64, len(h))
	for i := range refs {
		refs[i] = reference
	}

	folds := make(verification.Folds, len(ext.Folds))
	for k, q0 := range ext.Folds {
		folds[k] = verification.Fold{Name: fmt.Sprintf("fold_%d", k), QExtrap: verification.Sample{q0}}
	}
	refName := convergence.ReferenceColumn(s.OutputName)
	names := []string{s.ElementSizeVariableName, s.OutputName, refName, convergence.CPUTimeColumn}

	v.logger.Info("%s: observed order %.3g, extrapolated value %g", s.OutputName, ext.Order, ext.Q0)
	return &verification.VerificationResult{
		Metadata: verification.Metadata{
			Settings: map[string]any{
				verification.KeyOutputName: s.OutputName,
				"model":                    m.Name(),
				"load_case":                m.LoadCase(),
				"theoretical_order":        s.TheoreticalOrder,
			},
			Misc: map[string]any{
				verification.KeyElementSizeVariableName: s.ElementSizeVariableName,
				"observed_order":                        ext.Order,
				"order_observed":                        ext.Observed,
				"extrapolated_value":                    ext.Q0,
			},
		},
		SimulationAndReference: verification.NewDataset(names, map[string][]float64{
			s.ElementSizeVariableName: h,
			s.OutputName:              q,
			refName:                   refs,
			convergence.CPUTimeColumn: cpu,
		}),
		CrossValidation: folds,
	}, nil
}
