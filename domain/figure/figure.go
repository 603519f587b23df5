// Package figure describes charts independently of the library that renders them.
package figure

import "fmt"

// Mode selects how a trace is drawn
type Mode string

const (
	ModeLines   Mode = "lines"
	ModeMarkers Mode = "markers"
)

// Dash is the stroke pattern of a line trace
type Dash string

const (
	DashSolid Dash = "solid"
	DashDash  Dash = "dash"
	DashDot   Dash = "dot"
)

// MarkerSize is the default marker size of point traces
const MarkerSize = 15

// Color is an opaque RGB colour
type Color struct {
	R, G, B uint8
}

func (c Color) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Palette is the sequential colour map used to tell trajectories apart
var Palette = [...]Color{
	{230, 240, 240},
	{191, 221, 229},
	{156, 201, 226},
	{129, 180, 227},
	{115, 154, 228},
	{117, 127, 221},
	{120, 100, 202},
	{119, 74, 175},
	{113, 50, 141},
	{100, 31, 104},
	{80, 20, 66},
	{54, 14, 36},
}

// PaletteIndex spreads n trajectories over the palette. The step
// (len-1)/(n-1) is truncated before multiplying by i. A single trajectory
// uses the first colour.
func PaletteIndex(i, n int) int {
	if n <= 1 {
		return 0
	}
	step := (len(Palette) - 1) / (n - 1)
	return i * step
}

// TrajectoryColor returns the palette colour of trajectory i out of n
func TrajectoryColor(i, n int) Color {
	return Palette[PaletteIndex(i, n)]
}

// Trace is one drawn series
type Trace struct {
	Name       string
	Group      int
	Mode       Mode
	Dash       Dash
	Color      Color
	MarkerSize int
	X          []float64
	Y          []float64
	Hover      []string
}

// Axis holds an axis title and optional bounds
type Axis struct {
	Title string
	Min   *float64
	Max   *float64
}

// Annotation is a text placed at a paper-relative x and a data y
type Annotation struct {
	Text   string
	XPaper float64
	Y      *float64
}

// Figure is a complete chart
type Figure struct {
	Name        string
	Title       string
	Height      int
	Dark        bool
	XAxis       Axis
	YAxis       Axis
	Traces      []Trace
	Annotations []Annotation
}

// AddTrace appends a trace
func (f *Figure) AddTrace(tr Trace) {
	f.Traces = append(f.Traces, tr)
}

// TracesOf returns the traces of one group with the given mode and dash
func (f *Figure) TracesOf(group int, mode Mode, dash Dash) []Trace {
	var out []Trace
	for _, tr := range f.Traces {
		if tr.Group == group && tr.Mode == mode && tr.Dash == dash {
			out = append(out, tr)
		}
	}
	return out
}

// FileName returns the file name of the figure for a format such as "html"
func (f *Figure) FileName(format string) string {
	return f.Name + "." + format
}

// Float returns a pointer to v, for optional axis bounds and annotations
func Float(v float64) *float64 {
	return &v
}
