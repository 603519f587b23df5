package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simflow/adapters/analytic"
	"simflow/domain/core"
	"simflow/domain/model"
	"simflow/domain/run"
	"simflow/domain/verification"
	"simflow/internal/scratch"
	"simflow/ports"
)

type memoryArchive struct {
	results []*run.Result
}

func (a *memoryArchive) Save(_ context.Context, r *run.Result) error {
	a.results = append(a.results, r)
	return nil
}

func (a *memoryArchive) Get(_ context.Context, id core.ResultID) (*run.Result, error) {
	for _, r := range a.results {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, core.ErrResultNotFound
}

func (a *memoryArchive) ListByExperiment(_ context.Context, e core.Experiment, _ ports.ResultFilters) ([]*run.Result, error) {
	var out []*run.Result
	for _, r := range a.results {
		if r.Experiment == e {
			out = append(out, r)
		}
	}
	return out, nil
}

func (a *memoryArchive) ListExperiments(context.Context) ([]ports.ExperimentSummary, error) {
	return nil, nil
}

func (a *memoryArchive) ListModels(context.Context) ([]string, error) {
	return nil, nil
}

func TestModelRunnerKeepsFaultyJobs(t *testing.T) {
	root := t.TempDir()
	archive := &memoryArchive{}
	runner := NewModelRunner(archive, scratch.Settings{Root: root}, nil)

	m, err := analytic.CreateModel("BendingTestFiniteDifference", "Cantilever")
	require.NoError(t, err)

	ok, _, err := runner.Run(context.Background(), m, "exp", model.Data{analytic.VarElementSize: {50}})
	require.NoError(t, err)
	assert.True(t, ok.Succeeded())
	assert.Empty(t, ok.JobDirectory)

	failed, _, err := runner.Run(context.Background(), m, "exp", model.Data{analytic.VarElementSize: {-1}})
	require.NoError(t, err)
	assert.False(t, failed.Succeeded())
	require.NotEmpty(t, failed.JobDirectory)
	_, err = os.Stat(filepath.Join(failed.JobDirectory, "outputs.json"))
	assert.NoError(t, err)

	assert.Len(t, archive.results, 2)
}

func TestSolutionVerificationFeedsCase(t *testing.T) {
	runner := NewModelRunner(nil, scratch.Settings{Root: t.TempDir()}, nil)
	tool := NewSolutionVerification(runner, nil)

	m, err := analytic.CreateModel("BendingTestFiniteDifference", "Cantilever")
	require.NoError(t, err)

	var results []verification.VerificationResult
	for _, force := range []float64{100, 200} {
		res, err := tool.Execute(context.Background(), m, SolutionVerificationSettings{
			ElementSizes: []float64{100, 50, 25},
			OutputName:   analytic.VarDplt,
			Inputs:       model.Data{analytic.VarForce: {force}},
		})
		require.NoError(t, err)
		results = append(results, *res)
	}

	inertia := 40.0 * 125 / 12
	exact := analytic.CantileverDeflection(200, 600, 210000, inertia)
	assert.InDelta(t, exact, results[1].Metadata.Misc["extrapolated_value"].(float64), 1e-5*exact)
	assert.InDelta(t, 2.0, results[1].Metadata.Misc["observed_order"].(float64), 1e-2)
	assert.Len(t, results[1].CrossValidation, 3)

	svc := NewSolutionVerificationCase(t.TempDir(), nil, nil)
	caseResult, err := svc.Execute(results)
	require.NoError(t, err)
	assert.Equal(t, analytic.VarElementSize, caseResult.Metadata.ElementSizeVariableName)
	assert.Equal(t, analytic.VarDplt, caseResult.Metadata.OutputName)

	count, err := caseResult.TrajectoryCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	figs, err := svc.PlotResults(caseResult, PlotOptions{})
	require.NoError(t, err)
	assert.Len(t, figs, 2)
}

func TestSolutionVerificationErrors(t *testing.T) {
	tool := NewSolutionVerification(NewModelRunner(nil, scratch.Settings{Root: t.TempDir()}, nil), nil)
	m, err := analytic.CreateModel("BendingTestFiniteDifference", "Cantilever")
	require.NoError(t, err)

	_, err = tool.Execute(context.Background(), m, SolutionVerificationSettings{
		ElementSizes: []float64{100, 50},
		OutputName:   analytic.VarDplt,
	})
	assert.True(t, errors.Is(err, core.ErrInsufficientData))

	_, err = tool.Execute(context.Background(), m, SolutionVerificationSettings{ElementSizes: []float64{1, 2, 3}})
	assert.True(t, errors.Is(err, core.ErrMissingInput))

	_, err = tool.Execute(context.Background(), m, SolutionVerificationSettings{
		ElementSizes: []float64{100, 50, 25},
		OutputName:   "unknown",
	})
	assert.True(t, errors.Is(err, core.ErrMissingInput))
}
