package figure

import (
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"

	"simflow/domain/figure"
)

// ImageExporter renders static figures with go-chart
type ImageExporter struct {
	format string
	Width  int
}

// NewPNGExporter creates a png exporter
func NewPNGExporter() *ImageExporter { return &ImageExporter{format: FormatPNG} }

// NewSVGExporter creates an svg exporter
func NewSVGExporter() *ImageExporter { return &ImageExporter{format: FormatSVG} }

func (e *ImageExporter) Format() string { return e.format }

// Export draws every trace as a continuous series. Hover text has no static
// equivalent and is dropped.
func (e *ImageExporter) Export(w io.Writer, fig *figure.Figure) error {
	width := e.Width
	if width == 0 {
		width = 1200
	}
	graph := chart.Chart{
		Title:  fig.Title,
		Width:  width,
		Height: height(fig),
		XAxis: chart.XAxis{
			Name:  fig.XAxis.Title,
			Range: axisRange(fig, func(tr figure.Trace) []float64 { return tr.X }, fig.XAxis),
		},
		YAxis: chart.YAxis{
			Name:  fig.YAxis.Title,
			Range: axisRange(fig, func(tr figure.Trace) []float64 { return tr.Y }, fig.YAxis),
		},
	}
	if fig.Dark {
		graph.Background = chart.Style{FillColor: drawing.ColorFromHex("111111")}
		graph.Canvas = chart.Style{FillColor: drawing.ColorFromHex("222222")}
	}

	for _, tr := range fig.Traces {
		if len(tr.X) == 0 {
			continue
		}
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    tr.Name,
			XValues: tr.X,
			YValues: tr.Y,
			Style:   traceStyle(tr),
		})
	}

	var notes []chart.Value2
	for _, a := range fig.Annotations {
		if a.Y == nil {
			continue
		}
		r := graph.XAxis.Range.(*chart.ContinuousRange)
		notes = append(notes, chart.Value2{
			XValue: r.Min + a.XPaper*(r.Max-r.Min),
			YValue: *a.Y,
			Label:  a.Text,
		})
	}
	if len(notes) > 0 {
		graph.Series = append(graph.Series, chart.AnnotationSeries{Annotations: notes})
	}

	if e.format == FormatSVG {
		return graph.Render(chart.SVG, w)
	}
	return graph.Render(chart.PNG, w)
}

func traceStyle(tr figure.Trace) chart.Style {
	color := drawing.Color{R: tr.Color.R, G: tr.Color.G, B: tr.Color.B, A: 255}
	if tr.Mode == figure.ModeMarkers {
		size := tr.MarkerSize
		if size == 0 {
			size = figure.MarkerSize
		}
		return chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    float64(size) / 3,
			DotColor:    color,
		}
	}
	style := chart.Style{StrokeColor: color, StrokeWidth: 2}
	switch tr.Dash {
	case figure.DashDash:
		style.StrokeDashArray = []float64{8, 4}
	case figure.DashDot:
		style.StrokeDashArray = []float64{2, 3}
	}
	return style
}

// axisRange spans every trace, honouring explicit bounds and padding
// degenerate ranges so that go-chart accepts them
func axisRange(fig *figure.Figure, values func(figure.Trace) []float64, axis figure.Axis) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, tr := range fig.Traces {
		v := values(tr)
		if len(v) == 0 {
			continue
		}
		lo = math.Min(lo, floats.Min(v))
		hi = math.Max(hi, floats.Max(v))
	}
	if math.IsInf(lo, 0) {
		lo, hi = 0, 1
	}
	if axis.Min != nil {
		lo = *axis.Min
	}
	if axis.Max != nil {
		hi = *axis.Max
	}
	if hi <= lo {
		pad := math.Max(math.Abs(lo)*0.1, 1)
		hi = lo + pad
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
