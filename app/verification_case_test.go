package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simflow/domain/convergence"
	"simflow/domain/core"
	"simflow/domain/figure"
	"simflow/domain/verification"
)

func trajectoryResult(y, folds []float64) verification.VerificationResult {
	names := []string{"h", "y", "Ref[y]", "cpu_time"}
	ds := verification.NewDataset(names, map[string][]float64{
		"h":        {1, 0.5, 0.25},
		"y":        y,
		"Ref[y]":   {6, 6, 6},
		"cpu_time": {1, 2, 4},
	})
	var cv verification.Folds
	for i, q := range folds {
		cv = append(cv, verification.Fold{Name: string(rune('a' + i)), QExtrap: verification.Sample{q}})
	}
	return verification.VerificationResult{
		Metadata: verification.Metadata{
			Settings: map[string]any{"output_name": "y"},
			Misc:     map[string]any{"element_size_variable_name": "h"},
		},
		SimulationAndReference: ds,
		CrossValidation:        cv,
	}
}

func twoTrajectories() []verification.VerificationResult {
	return []verification.VerificationResult{
		trajectoryResult([]float64{10, 8, 7}, []float64{6.1, 5.9, 6.0}),
		trajectoryResult([]float64{12, 9, 7.5}, []float64{6.2, 5.8, 6.05}),
	}
}

func TestExecuteAggregatesResults(t *testing.T) {
	svc := NewSolutionVerificationCase(t.TempDir(), nil, nil)
	res, err := svc.Execute(twoTrajectories())
	require.NoError(t, err)

	table := res.ConvergenceData
	assert.Equal(t, []string{"extrapolated_values_folds", "h", "y", "Ref[y]", "cpu_time"}, table.Names())
	assert.Equal(t, 6, table.Len())

	ext, err := table.Column(convergence.ExtrapolatedValuesColumn)
	require.NoError(t, err)
	assert.Equal(t, []float64{6.1, 5.9, 6.0, 6.2, 5.8, 6.05}, ext)

	y, err := table.Column("y")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 8, 7, 12, 9, 7.5}, y)

	assert.Equal(t, "h", res.Metadata.ElementSizeVariableName)
	assert.Equal(t, "y", res.Metadata.OutputName)
	assert.Equal(t, 3, res.Metadata.NbMeshes)
	assert.Equal(t, "h", res.Metadata.Settings["element_size_variable_name"])
	assert.Equal(t, "y", res.Metadata.Settings["output_name"])

	count, err := res.TrajectoryCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Same(t, res, svc.Result())
}

func TestExecuteErrors(t *testing.T) {
	svc := NewSolutionVerificationCase(t.TempDir(), nil, nil)

	_, err := svc.Execute(nil)
	assert.True(t, errors.Is(err, core.ErrEmptyResults))

	short := trajectoryResult([]float64{10, 8, 7}, []float64{6.1, 5.9})
	_, err = svc.Execute([]verification.VerificationResult{short})
	assert.True(t, errors.Is(err, core.ErrSizeMismatch))
	assert.True(t, core.IsValidationError(err))

	other := trajectoryResult([]float64{10, 8, 7}, []float64{6.1, 5.9, 6.0})
	other.Metadata.Misc = map[string]any{"element_size_variable_name": "dx"}
	_, err = svc.Execute([]verification.VerificationResult{twoTrajectories()[0], other})
	assert.True(t, errors.Is(err, core.ErrHeterogeneousResults))
}

func TestExecuteFromJSON(t *testing.T) {
	doc := `[{
		"metadata": {"settings": {"output_name": "y"}, "misc": {"element_size_variable_name": "h"}},
		"simulation_and_reference": {"columns": [
			{"name": "h", "values": [1, 0.5]},
			{"name": "y", "values": [10, 8]}
		]},
		"cross_validation": {"fold_1": {"q_extrap": [6.5]}, "fold_0": {"q_extrap": 7.5}}
	}]`
	results, err := verification.ReadResults(strings.NewReader(doc))
	require.NoError(t, err)

	res, err := NewSolutionVerificationCase("", nil, nil).Execute(results)
	require.NoError(t, err)
	ext, _ := res.ConvergenceData.Column(convergence.ExtrapolatedValuesColumn)
	assert.Equal(t, []float64{6.5, 7.5}, ext)
}

func TestConvergenceFigure(t *testing.T) {
	res, err := NewSolutionVerificationCase("", nil, nil).Execute(twoTrajectories())
	require.NoError(t, err)

	fig, err := NewConvergenceCase(nil, nil).Execute(res, PlotOptions{})
	require.NoError(t, err)

	assert.Equal(t, "convergence_case_h_y", fig.Name)
	assert.Equal(t, 700, fig.Height)
	assert.True(t, fig.Dark)
	require.NotNil(t, fig.XAxis.Min)
	assert.Equal(t, 0.0, *fig.XAxis.Min)

	for i, want := range []figure.Color{figure.Palette[0], figure.Palette[11]} {
		dashed := fig.TracesOf(i, figure.ModeLines, figure.DashDash)
		require.Len(t, dashed, 2)
		assert.Equal(t, []float64{1, 0.5, 0.25}, dashed[0].X)
		assert.Equal(t, want, dashed[0].Color)

		markers := fig.TracesOf(i, figure.ModeMarkers, "")
		require.Len(t, markers, 1)
		assert.Len(t, markers[0].Hover, 3)

		assert.Len(t, fig.TracesOf(i, figure.ModeLines, figure.DashDot), 3)
	}

	ref := fig.TracesOf(0, figure.ModeLines, figure.DashDash)[1]
	assert.Equal(t, []float64{0, 0.25}, ref.X)
	assert.Equal(t, []float64{6, 7}, ref.Y)

	dotted := fig.TracesOf(1, figure.ModeLines, figure.DashDot)
	assert.Equal(t, []float64{6.2, 7.5}, dotted[0].Y)

	markers := fig.TracesOf(0, figure.ModeMarkers, "")[0]
	assert.Equal(t, "h: 0.5, y: 8, Ref[y]: 6, cpu_time: 2", markers.Hover[1])

	require.Len(t, fig.Annotations, 1)
	assert.Equal(t, "y", fig.Annotations[0].Text)
	assert.Nil(t, fig.Annotations[0].Y)
}

func TestConvergenceFigureNormalized(t *testing.T) {
	res, err := NewSolutionVerificationCase("", nil, nil).Execute(twoTrajectories())
	require.NoError(t, err)

	zero := 0
	fig, err := NewConvergenceCase(nil, nil).Execute(res, PlotOptions{
		NormalizeIndexOutput: &zero,
		YMaxLimit:            figure.Float(1.2),
	})
	require.NoError(t, err)

	dashed := fig.TracesOf(0, figure.ModeLines, figure.DashDash)
	assert.InDeltaSlice(t, []float64{1, 0.8, 0.7}, dashed[0].Y, 1e-12)
	assert.InDeltaSlice(t, []float64{0.6, 0.7}, dashed[1].Y, 1e-12)

	assert.Equal(t, "Normalized y", fig.Annotations[0].Text)
	require.NotNil(t, fig.Annotations[0].Y)
	assert.Equal(t, 1.2, *fig.Annotations[0].Y)
	assert.Equal(t, 1.2, *fig.YAxis.Max)
}

func TestCPUTimeCompromiseFigure(t *testing.T) {
	res, err := NewSolutionVerificationCase("", nil, nil).Execute(twoTrajectories())
	require.NoError(t, err)

	last := 2
	fig, err := NewCPUTimeCompromiseCase(nil, nil).Execute(res, PlotOptions{
		NormalizeIndexCPUTime: &last,
		HoveringVariables:     []string{"y"},
	})
	require.NoError(t, err)

	assert.Equal(t, "cpu_time_compromise_y", fig.Name)
	assert.Equal(t, "CPU time(s)", fig.XAxis.Title)
	assert.Nil(t, fig.XAxis.Min)

	markers := fig.TracesOf(1, figure.ModeMarkers, "")
	require.Len(t, markers, 1)
	assert.Equal(t, []float64{0.25, 0.5, 1}, markers[0].X)
	assert.Equal(t, []float64{12, 9, 7.5}, markers[0].Y)
	assert.Equal(t, "y: 12, h: 1", markers[0].Hover[0])
}

func TestPlotErrors(t *testing.T) {
	res, err := NewSolutionVerificationCase("", nil, nil).Execute(twoTrajectories())
	require.NoError(t, err)
	plot := NewConvergenceCase(nil, nil)

	_, err = plot.Execute(res, PlotOptions{OutputName: "z"})
	assert.True(t, errors.Is(err, core.ErrColumnNotFound))

	five := 5
	_, err = plot.Execute(res, PlotOptions{NormalizeIndexOutput: &five})
	assert.True(t, errors.Is(err, core.ErrIndexOutOfRange))

	_, err = plot.Execute(res, PlotOptions{FileFormat: "pdf", Save: true})
	assert.True(t, errors.Is(err, core.ErrUnsupportedFileFormat))

	table := convergence.NewTable()
	require.NoError(t, table.AddColumn("y", []float64{1, 2, 3, 4, 5, 6, 7}))
	require.NoError(t, table.AddColumn("h", []float64{1, 2, 3, 4, 5, 6, 7}))
	bad := &verification.SolutionVerificationCaseResult{
		Metadata:        verification.CaseMetadata{ElementSizeVariableName: "h", OutputName: "y", NbMeshes: 3, VariableNames: []string{"h", "y"}},
		ConvergenceData: table,
	}
	_, err = NewCPUTimeCompromiseCase(nil, nil).Execute(bad, PlotOptions{})
	assert.True(t, errors.Is(err, core.ErrColumnNotFound))

	require.NoError(t, table.AddColumn("cpu_time", []float64{1, 2, 3, 4, 5, 6, 7}))
	_, err = NewCPUTimeCompromiseCase(nil, nil).Execute(bad, PlotOptions{})
	assert.True(t, errors.Is(err, core.ErrNotMultiple))
	assert.Contains(t, err.Error(), "7")
	assert.Contains(t, err.Error(), "3")
}

type recordingViewer struct{ shown []string }

func (v *recordingViewer) Show(path string) error {
	v.shown = append(v.shown, path)
	return nil
}

func TestPlotResultsSavesAndShows(t *testing.T) {
	dir := t.TempDir()
	viewer := &recordingViewer{}
	svc := NewSolutionVerificationCase(dir, viewer, nil)
	_, err := svc.Execute(twoTrajectories())
	require.NoError(t, err)

	figs, err := svc.PlotResults(nil, PlotOptions{Save: true, Show: true})
	require.NoError(t, err)
	assert.Contains(t, figs, FigureConvergence)
	assert.Contains(t, figs, FigureCPUTimeCompromise)

	for _, name := range []string{"convergence_case_h_y.html", "cpu_time_compromise_y.html"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	assert.Len(t, viewer.shown, 2)
}

func TestPlotResultsWithoutResult(t *testing.T) {
	_, err := NewSolutionVerificationCase("", nil, nil).PlotResults(nil, PlotOptions{})
	assert.True(t, errors.Is(err, core.ErrEmptyResults))
}
