package ui

import (
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"github.com/go-chi/chi/v5"

	"simflow/domain/core"
	"simflow/domain/figure"
	"simflow/domain/run"
	"simflow/ports"
)

type indexView struct {
	Models      []string
	Experiments []ports.ExperimentSummary
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	models, err := a.archive.ListModels(r.Context())
	if err != nil {
		a.renderError(w, err)
		return
	}
	experiments, err := a.archive.ListExperiments(r.Context())
	if err != nil {
		a.renderError(w, err)
		return
	}
	a.renderTemplate(w, "index.html", indexView{Models: models, Experiments: experiments})
}

func (a *App) experimentResults(r *http.Request) (string, []*run.Result, error) {
	name := chi.URLParam(r, "name")
	filters := ports.ResultFilters{
		Model:    r.URL.Query().Get("model"),
		LoadCase: r.URL.Query().Get("load_case"),
	}
	results, err := a.archive.ListByExperiment(r.Context(), core.Experiment(name), filters)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return "", nil, fmt.Errorf("%w: experiment %s has no results", core.ErrResultNotFound, name)
	}
	return name, results, nil
}

func (a *App) handleExperiment(w http.ResponseWriter, r *http.Request) {
	name, results, err := a.experimentResults(r)
	if err != nil {
		a.renderError(w, err)
		return
	}
	query := r.URL.Query()
	selected, err := selectScalars(scalarNames(results), splitList(query.Get("scalars")))
	if err != nil {
		a.renderError(w, err)
		return
	}

	view := newExperimentView(name, results, selected)
	view.X, view.Y = query.Get("x"), query.Get("y")
	if view.X == "" && len(view.Scalars) > 0 {
		view.X = view.Scalars[0]
	}
	if view.Y == "" && len(view.Scalars) > 1 {
		view.Y = view.Scalars[1]
	}
	if view.X != "" && view.Y != "" {
		view.ScatterURL = fmt.Sprintf("/experiments/%s/charts/scatter?%s", url.PathEscape(name),
			url.Values{"x": {view.X}, "y": {view.Y}}.Encode())
	}
	view.Curve = query.Get("curve")
	if view.Curve == "" && len(view.CurveKeys) > 0 {
		view.Curve = view.CurveKeys[0]
	}
	if view.Curve != "" {
		view.CurveURL = fmt.Sprintf("/experiments/%s/charts/curves?%s", url.PathEscape(name),
			url.Values{"curve": {view.Curve}, "runs": {query.Get("runs")}}.Encode())
	}
	a.renderTemplate(w, "experiment.html", view)
}

func (a *App) handleScatterChart(w http.ResponseWriter, r *http.Request) {
	name, results, err := a.experimentResults(r)
	if err != nil {
		a.renderError(w, err)
		return
	}
	x, y := r.URL.Query().Get("x"), r.URL.Query().Get("y")
	available := scalarNames(results)
	for _, s := range []string{x, y} {
		if !slices.Contains(available, s) {
			a.renderError(w, core.NewColumnNotFoundError(s))
			return
		}
	}
	a.renderChart(w, scatterFigure(name, results, x, y))
}

func (a *App) handleCurveChart(w http.ResponseWriter, r *http.Request) {
	name, results, err := a.experimentResults(r)
	if err != nil {
		a.renderError(w, err)
		return
	}
	key := r.URL.Query().Get("curve")
	if !slices.Contains(curveKeys(results), key) {
		a.renderError(w, fmt.Errorf("%w: curve %q", core.ErrNotFound, key))
		return
	}
	a.renderChart(w, curveFigure(name, results, key, splitList(r.URL.Query().Get("runs"))))
}

func (a *App) renderChart(w http.ResponseWriter, fig *figure.Figure) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.charts.Export(w, fig); err != nil {
		a.logger.Error("chart %s failed: %v", fig.Name, err)
	}
}
