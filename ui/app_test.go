package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simflow/adapters/archive"
	"simflow/domain/core"
	"simflow/domain/curve"
	"simflow/domain/run"
	"simflow/internal/config"
)

func newTestApp(t *testing.T) (*App, *run.Result) {
	t.Helper()
	cfg := &config.Config{ArchiveManager: "sqlite", Database: config.DatabaseConfig{URL: ":memory:"}}
	db, err := archive.Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := archive.NewRepository(db)

	var first *run.Result
	for i, force := range []float64{100, 200, 300} {
		r := &run.Result{
			ID:         core.NewResultID(),
			Experiment: "sweep",
			Model:      "BendingTestAnalytical",
			LoadCase:   "Cantilever",
			Date:       time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
			Scalars: map[string]float64{
				"force":                  force,
				"dplt_at_force_location": force / 50,
			},
			Curves: map[string]curve.Curve{
				"reaction_forces_vs_imposed_dplt": {
					XName: "imposed_dplt", YName: "reaction_forces",
					X: []float64{0, 1, 2}, Y: []float64{0, force / 2, force},
				},
			},
		}
		require.NoError(t, repo.Save(context.Background(), r))
		if first == nil {
			first = r
		}
	}

	app, err := NewApp(repo, Config{}, nil)
	require.NoError(t, err)
	return app, first
}

func get(t *testing.T, app *App, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestIndexListsModelsAndExperiments(t *testing.T) {
	app, _ := newTestApp(t)
	w := get(t, app, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "BendingTestAnalytical")
	assert.Contains(t, body, `href="/experiments/sweep?`)
}

func TestExperimentPage(t *testing.T) {
	app, first := newTestApp(t)

	w := get(t, app, "/experiments/sweep")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, first.ID.String())
	assert.Contains(t, body, "<th>dplt_at_force_location</th>")
	assert.Contains(t, body, "/experiments/sweep/charts/scatter?")
	assert.Contains(t, body, "/experiments/sweep/charts/curves?")

	w = get(t, app, "/experiments/sweep?scalars=force")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<th>dplt_at_force_location</th>")

	w = get(t, app, "/experiments/sweep?scalars=stress")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(t, app, "/experiments/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCharts(t *testing.T) {
	app, first := newTestApp(t)

	w := get(t, app, "/experiments/sweep/charts/scatter?x=force&y=dplt_at_force_location")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "echarts")

	w = get(t, app, "/experiments/sweep/charts/scatter?x=force&y=stress")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = get(t, app, "/experiments/sweep/charts/curves?curve=reaction_forces_vs_imposed_dplt&runs="+first.ID.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), first.ID.String())

	w = get(t, app, "/experiments/sweep/charts/curves?curve=nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFigures(t *testing.T) {
	results := []*run.Result{
		{ID: "a", Scalars: map[string]float64{"x": 1, "y": 2}},
		{ID: "b", Scalars: map[string]float64{"x": 3}},
		{ID: "c", Scalars: map[string]float64{"x": 4, "y": 5},
			Curves: map[string]curve.Curve{"f_vs_u": {XName: "u", YName: "f", X: []float64{0}, Y: []float64{1}}}},
	}

	fig := scatterFigure("e", results, "x", "y")
	require.Len(t, fig.Traces, 1)
	assert.Equal(t, []float64{1, 4}, fig.Traces[0].X)
	assert.Equal(t, []float64{2, 5}, fig.Traces[0].Y)

	fig = curveFigure("e", results, "f_vs_u", nil)
	require.Len(t, fig.Traces, 1)
	assert.Equal(t, "c", fig.Traces[0].Name)
	assert.Equal(t, "u", fig.XAxis.Title)

	fig = curveFigure("e", results, "f_vs_u", []string{"a"})
	assert.Empty(t, fig.Traces)

	assert.Equal(t, []string{"x", "y"}, scalarNames(results))
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b"))
}
