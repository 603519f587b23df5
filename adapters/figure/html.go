package figure

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"simflow/domain/figure"
)

// HTMLExporter renders interactive figures with go-echarts
type HTMLExporter struct {
	Width string
}

func (HTMLExporter) Format() string { return FormatHTML }

// Export writes a standalone HTML page. Line traces become line series and
// marker traces become an overlapped scatter chart carrying the hover text.
func (e HTMLExporter) Export(w io.Writer, fig *figure.Figure) error {
	width := e.Width
	if width == "" {
		width = "1200px"
	}
	init := opts.Initialization{
		PageTitle: fig.Title,
		Width:     width,
		Height:    fmt.Sprintf("%dpx", height(fig)),
	}
	if fig.Dark {
		init.Theme = types.ThemeChalk
	}

	xAxis := opts.XAxis{Name: fig.XAxis.Title, Type: "value"}
	if fig.XAxis.Min != nil {
		xAxis.Min = *fig.XAxis.Min
	}
	if fig.XAxis.Max != nil {
		xAxis.Max = *fig.XAxis.Max
	}
	yAxis := opts.YAxis{Name: fig.YAxis.Title, Type: "value"}
	if fig.YAxis.Min != nil {
		yAxis.Min = *fig.YAxis.Min
	}
	if fig.YAxis.Max != nil {
		yAxis.Max = *fig.YAxis.Max
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(init),
		charts.WithTitleOpts(opts.Title{Title: fig.Title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "item", Formatter: "{b}"}),
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(yAxis),
	)

	var annotations []charts.SeriesOpts
	for _, a := range fig.Annotations {
		if a.Y != nil {
			annotations = append(annotations,
				charts.WithMarkLineNameYAxisItemOpts(opts.MarkLineNameYAxisItem{Name: a.Text, YAxis: *a.Y}))
		}
	}

	scatter := charts.NewScatter()
	markers, lines := 0, 0
	for _, tr := range fig.Traces {
		color := tr.Color.String()
		if tr.Mode == figure.ModeMarkers {
			scatter.AddSeries(tr.Name, scatterData(tr),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
			)
			markers++
			continue
		}
		series := []charts.SeriesOpts{
			charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 2, Type: lineType(tr.Dash)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
			charts.WithLineChartOpts(opts.LineChart{Symbol: "none"}),
		}
		if lines == 0 {
			series = append(series, annotations...)
		}
		line.AddSeries(tr.Name, lineData(tr), series...)
		lines++
	}
	if markers > 0 {
		line.Overlap(scatter)
	}
	return line.Render(w)
}

func lineData(tr figure.Trace) []opts.LineData {
	data := make([]opts.LineData, len(tr.X))
	for i := range tr.X {
		data[i] = opts.LineData{Name: hover(tr, i), Value: []interface{}{tr.X[i], tr.Y[i]}}
	}
	return data
}

func scatterData(tr figure.Trace) []opts.ScatterData {
	size := tr.MarkerSize
	if size == 0 {
		size = figure.MarkerSize
	}
	data := make([]opts.ScatterData, len(tr.X))
	for i := range tr.X {
		data[i] = opts.ScatterData{
			Name:       hover(tr, i),
			Value:      []interface{}{tr.X[i], tr.Y[i]},
			SymbolSize: size,
		}
	}
	return data
}

func hover(tr figure.Trace, i int) string {
	if i < len(tr.Hover) {
		return tr.Hover[i]
	}
	return tr.Name
}

func lineType(d figure.Dash) string {
	switch d {
	case figure.DashDash:
		return "dashed"
	case figure.DashDot:
		return "dotted"
	default:
		return "solid"
	}
}

func height(fig *figure.Figure) int {
	if fig.Height > 0 {
		return fig.Height
	}
	return 600
}
