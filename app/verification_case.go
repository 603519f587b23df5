package app

import (
	"fmt"
	"slices"

	"simflow/domain/convergence"
	"simflow/domain/core"
	"simflow/domain/figure"
	"simflow/domain/verification"
	"simflow/internal"
	"simflow/ports"
)

// Figure keys returned by PlotResults
const (
	FigureConvergence       = "convergence"
	FigureCPUTimeCompromise = "cpu_time_compromise"
)

// SolutionVerificationCase compares several solution verifications of a
// model by aggregating their convergence data into one table
type SolutionVerificationCase struct {
	workingDirectory string
	viewer           ports.FigureViewer
	logger           *internal.Logger
	result           *verification.SolutionVerificationCaseResult
}

// NewSolutionVerificationCase creates a case writing its figures to workingDirectory
func NewSolutionVerificationCase(workingDirectory string, viewer ports.FigureViewer, logger *internal.Logger) *SolutionVerificationCase {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SolutionVerificationCase{
		workingDirectory: workingDirectory,
		viewer:           viewer,
		logger:           logger.With("verification-case"),
	}
}

// Result returns the result of the last execution, nil before the first one
func (c *SolutionVerificationCase) Result() *verification.SolutionVerificationCaseResult {
	return c.result
}

// Execute aggregates the results into one convergence table. Column
// extrapolated_values_folds holds the extrapolation of every fold, result
// after result; each variable column holds the flattened samples of every
// result in the same order.
func (c *SolutionVerificationCase) Execute(results []verification.VerificationResult) (*verification.SolutionVerificationCaseResult, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: a solution verification case needs at least one result", core.ErrEmptyResults)
	}

	first := results[0]
	meta := verification.CaseMetadata{
		Settings:                map[string]any{},
		ElementSizeVariableName: first.Metadata.ElementSizeVariableName(),
		OutputName:              first.Metadata.OutputName(),
		NbMeshes:                first.SimulationAndReference.Len(),
		VariableNames:           first.SimulationAndReference.VariableNames(),
	}
	for k, v := range first.Metadata.Misc {
		meta.Settings[k] = v
	}
	for k, v := range first.Metadata.Settings {
		meta.Settings[k] = v
	}

	var extrapolated []float64
	variables := make(map[string][]float64, len(meta.VariableNames))
	for i, r := range results {
		if err := checkHomogeneous(i, r, meta); err != nil {
			return nil, err
		}
		folds := r.CrossValidation.Extrapolated()
		for _, v := range r.SimulationAndReference.Variables {
			values := v.Flatten()
			if len(values) != len(folds) {
				return nil, core.NewSizeMismatchError(i, v.Name, len(values), len(folds))
			}
			variables[v.Name] = append(variables[v.Name], values...)
		}
		extrapolated = append(extrapolated, folds...)
	}

	table := convergence.NewTable()
	if err := table.AddColumn(convergence.ExtrapolatedValuesColumn, extrapolated); err != nil {
		return nil, err
	}
	for _, name := range meta.VariableNames {
		if err := table.AddColumn(name, variables[name]); err != nil {
			return nil, err
		}
	}

	c.result = &verification.SolutionVerificationCaseResult{Metadata: meta, ConvergenceData: table}
	c.logger.Info("Aggregated %d verification results into %d rows (%d meshes per trajectory)",
		len(results), table.Len(), meta.NbMeshes)
	return c.result, nil
}

func checkHomogeneous(i int, r verification.VerificationResult, meta verification.CaseMetadata) error {
	if name := r.Metadata.ElementSizeVariableName(); name != meta.ElementSizeVariableName {
		return fmt.Errorf("%w: result %d uses element size variable %q instead of %q",
			core.ErrHeterogeneousResults, i, name, meta.ElementSizeVariableName)
	}
	if names := r.SimulationAndReference.VariableNames(); !slices.Equal(names, meta.VariableNames) {
		return fmt.Errorf("%w: result %d has variables %v instead of %v",
			core.ErrHeterogeneousResults, i, names, meta.VariableNames)
	}
	if n := r.SimulationAndReference.Len(); n != meta.NbMeshes {
		return fmt.Errorf("%w: result %d has %d meshes instead of %d",
			core.ErrHeterogeneousResults, i, n, meta.NbMeshes)
	}
	return nil
}

// PlotResults renders the convergence and CPU time compromise figures of a
// case result. The output name and hovering variables default to the
// result metadata.
func (c *SolutionVerificationCase) PlotResults(result *verification.SolutionVerificationCaseResult, opts PlotOptions) (map[string]*figure.Figure, error) {
	if result == nil {
		result = c.result
	}
	if result == nil {
		return nil, fmt.Errorf("%w: no case result to plot", core.ErrEmptyResults)
	}
	if opts.Directory == "" {
		opts.Directory = c.workingDirectory
	}

	conv, err := NewConvergenceCase(c.viewer, c.logger).Execute(result, opts)
	if err != nil {
		return nil, err
	}
	cpu, err := NewCPUTimeCompromiseCase(c.viewer, c.logger).Execute(result, opts)
	if err != nil {
		return nil, err
	}
	return map[string]*figure.Figure{
		FigureConvergence:       conv,
		FigureCPUTimeCompromise: cpu,
	}, nil
}
