package ui

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"simflow/domain/core"
	"simflow/domain/figure"
	"simflow/domain/run"
)

// experimentView is the data of the experiment page
type experimentView struct {
	Name        string
	Scalars     []string
	Selected    []string
	CurveKeys   []string
	Rows        []resultRow
	X, Y        string
	Curve       string
	ScatterURL  string
	CurveURL    string
	ResultCount int
}

type resultRow struct {
	ID        string
	Model     string
	LoadCase  string
	Date      string
	ErrorCode int
	Values    []float64
	Present   []bool
}

// scalarNames returns the sorted union of the scalar names of the results
func scalarNames(results []*run.Result) []string {
	seen := map[string]bool{}
	for _, r := range results {
		for name := range r.Scalars {
			seen[name] = true
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// curveKeys returns the sorted union of the curve keys of the results
func curveKeys(results []*run.Result) []string {
	seen := map[string]bool{}
	for _, r := range results {
		for key := range r.Curves {
			seen[key] = true
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// splitList parses a comma separated query value
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// selectScalars keeps the requested scalars that exist, all of them when
// none is requested
func selectScalars(available, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return available, nil
	}
	for _, name := range requested {
		if !slices.Contains(available, name) {
			return nil, core.NewColumnNotFoundError(name)
		}
	}
	return requested, nil
}

func newExperimentView(name string, results []*run.Result, selected []string) experimentView {
	view := experimentView{
		Name:        name,
		Scalars:     scalarNames(results),
		Selected:    selected,
		CurveKeys:   curveKeys(results),
		ResultCount: len(results),
	}
	for _, r := range results {
		row := resultRow{
			ID:        r.ID.String(),
			Model:     r.Model,
			LoadCase:  r.LoadCase,
			Date:      r.Date.Format("2006-01-02 15:04:05"),
			ErrorCode: r.ErrorCode,
		}
		for _, s := range selected {
			v, ok := r.Scalars[s]
			row.Values = append(row.Values, v)
			row.Present = append(row.Present, ok)
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// scatterFigure plots scalar y against scalar x, one point per result that
// has both
func scatterFigure(experiment string, results []*run.Result, x, y string) *figure.Figure {
	fig := &figure.Figure{
		Name:  fmt.Sprintf("%s_%s_vs_%s", experiment, y, x),
		Title: fmt.Sprintf("%s: %s vs %s", experiment, y, x),
		XAxis: figure.Axis{Title: x},
		YAxis: figure.Axis{Title: y},
	}
	tr := figure.Trace{
		Name:  y,
		Mode:  figure.ModeMarkers,
		Color: figure.Palette[4],
	}
	for _, r := range results {
		xv, okX := r.Scalars[x]
		yv, okY := r.Scalars[y]
		if !okX || !okY {
			continue
		}
		tr.X = append(tr.X, xv)
		tr.Y = append(tr.Y, yv)
		tr.Hover = append(tr.Hover, fmt.Sprintf("%s: %s=%g, %s=%g", r.ID, x, xv, y, yv))
	}
	fig.AddTrace(tr)
	return fig
}

// curveFigure overlays one curve of the selected results. An empty
// selection keeps every result carrying the curve.
func curveFigure(experiment string, results []*run.Result, key string, ids []string) *figure.Figure {
	fig := &figure.Figure{
		Name:  fmt.Sprintf("%s_%s", experiment, key),
		Title: fmt.Sprintf("%s: %s", experiment, key),
	}
	var selected []*run.Result
	for _, r := range results {
		if _, ok := r.Curves[key]; !ok {
			continue
		}
		if len(ids) > 0 && !slices.Contains(ids, r.ID.String()) {
			continue
		}
		selected = append(selected, r)
	}
	for i, r := range selected {
		c := r.Curves[key]
		fig.XAxis.Title = c.XName
		fig.YAxis.Title = c.YName
		fig.AddTrace(figure.Trace{
			Name:  r.ID.String(),
			Group: i,
			Mode:  figure.ModeLines,
			Dash:  figure.DashSolid,
			Color: figure.TrajectoryColor(i, len(selected)),
			X:     c.X,
			Y:     c.Y,
		})
	}
	return fig
}
