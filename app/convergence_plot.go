package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	adapterfigure "simflow/adapters/figure"
	"simflow/domain/convergence"
	"simflow/domain/core"
	"simflow/domain/figure"
	"simflow/domain/verification"
	"simflow/internal"
	"simflow/ports"
)

const (
	plotHeight       = 700
	annotationXPaper = 0.03
	normalizedPrefix = "Normalized "
	cpuTimeAxisTitle = "CPU time(s)"
)

// PlotOptions controls the rendering of a verification case
type PlotOptions struct {
	OutputName            string   `yaml:"output_name" json:"output_name"`
	NormalizeIndexOutput  *int     `yaml:"normalize_index_output" json:"normalize_index_output"`
	NormalizeIndexCPUTime *int     `yaml:"normalize_index_cpu_time" json:"normalize_index_cpu_time"`
	YMaxLimit             *float64 `yaml:"y_max_limit" json:"y_max_limit"`
	HoveringVariables     []string `yaml:"hovering_variables" json:"hovering_variables"`
	FileFormat            string   `yaml:"file_format" json:"file_format"`
	Directory             string   `yaml:"directory" json:"directory"`
	Save                  bool     `yaml:"save" json:"save"`
	Show                  bool     `yaml:"show" json:"show"`
}

func (o PlotOptions) prefix() string {
	if o.NormalizeIndexOutput == nil {
		return ""
	}
	return normalizedPrefix
}

// caseInput is the validated view of a case result shared by both renderers
type caseInput struct {
	trajectories []*convergence.Table
	elementSize  string
	output       string
	hovering     []string
}

func prepare(result *verification.SolutionVerificationCaseResult, opts PlotOptions, extraHover ...string) (*caseInput, error) {
	if result == nil || result.ConvergenceData == nil {
		return nil, fmt.Errorf("%w: no convergence data", core.ErrEmptyResults)
	}
	in := &caseInput{
		elementSize: result.Metadata.ElementSizeVariableName,
		output:      opts.OutputName,
		hovering:    opts.HoveringVariables,
	}
	if in.output == "" {
		in.output = result.Metadata.OutputName
	}
	if in.output == "" {
		return nil, fmt.Errorf("%w: output name", core.ErrMissingInput)
	}
	if len(in.hovering) == 0 {
		in.hovering = result.Metadata.VariableNames
	}
	in.hovering = append(append([]string(nil), in.hovering...), extraHover...)

	table := result.ConvergenceData
	required := append([]string{in.output}, in.hovering...)
	for _, name := range required {
		if !table.HasColumn(name) {
			return nil, core.NewColumnNotFoundError(name)
		}
	}
	return in, nil
}

// split checks the extra columns a renderer needs, then cuts the table into
// its trajectories
func (in *caseInput) split(result *verification.SolutionVerificationCaseResult, columns ...string) error {
	for _, name := range columns {
		if !result.ConvergenceData.HasColumn(name) {
			return core.NewColumnNotFoundError(name)
		}
	}
	trajectories, err := result.ConvergenceData.Trajectories(result.Metadata.NbMeshes)
	if err != nil {
		return err
	}
	in.trajectories = trajectories
	return nil
}

// hoverTexts formats "name: value" pairs for every row of a trajectory
func hoverTexts(traj *convergence.Table, names []string) ([]string, error) {
	texts := make([]string, traj.Len())
	for row := range texts {
		parts := make([]string, len(names))
		for k, name := range names {
			v, err := traj.Value(name, row)
			if err != nil {
				return nil, err
			}
			parts[k] = name + ": " + strconv.FormatFloat(v, 'g', -1, 64)
		}
		texts[row] = strings.Join(parts, ", ")
	}
	return texts, nil
}

// addPointTraces draws the dashed polyline joining consecutive points and
// one marker per point
func addPointTraces(fig *figure.Figure, i int, color figure.Color, x, y []float64, hover []string) {
	fig.AddTrace(figure.Trace{
		Name:  strconv.Itoa(i),
		Group: i,
		Mode:  figure.ModeLines,
		Dash:  figure.DashDash,
		Color: color,
		X:     x,
		Y:     y,
	})
	fig.AddTrace(figure.Trace{
		Name:       strconv.Itoa(i),
		Group:      i,
		Mode:       figure.ModeMarkers,
		Color:      color,
		MarkerSize: figure.MarkerSize,
		X:          x,
		Y:          y,
		Hover:      hover,
	})
}

func annotate(fig *figure.Figure, opts PlotOptions, output string) {
	text := opts.prefix() + output
	fig.Annotations = append(fig.Annotations, figure.Annotation{
		Text:   text,
		XPaper: annotationXPaper,
		Y:      opts.YMaxLimit,
	})
	if opts.YMaxLimit != nil {
		fig.YAxis.Max = figure.Float(*opts.YMaxLimit)
	}
}

// renderer holds the output side shared by both case plots
type renderer struct {
	viewer ports.FigureViewer
	logger *internal.Logger
}

// finish saves and shows a figure according to the options
func (r renderer) finish(fig *figure.Figure, opts PlotOptions) error {
	format := opts.FileFormat
	if format == "" {
		format = adapterfigure.FormatHTML
	}
	exporter, err := adapterfigure.ExporterFor(format)
	if err != nil {
		return err
	}
	if !opts.Save && !opts.Show {
		return nil
	}

	dir := opts.Directory
	if !opts.Save {
		dir = os.TempDir()
	}
	path, err := adapterfigure.Save(dir, fig, exporter)
	if err != nil {
		return err
	}
	if opts.Save {
		r.logger.Info("Saved figure %s", path)
	}
	if opts.Show && r.viewer != nil {
		if err := r.viewer.Show(path); err != nil {
			r.logger.Warn("Failed to show figure %s: %v", path, err)
		}
	}
	return nil
}

// ConvergenceCase plots the convergence trajectories of an output against
// the element size, with the reference and extrapolated values reached at
// zero element size
type ConvergenceCase struct {
	renderer
}

// NewConvergenceCase creates the convergence renderer
func NewConvergenceCase(viewer ports.FigureViewer, logger *internal.Logger) *ConvergenceCase {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ConvergenceCase{renderer{viewer: viewer, logger: logger.With("convergence-case")}}
}

// Execute builds the figure, then saves and shows it as requested
func (p *ConvergenceCase) Execute(result *verification.SolutionVerificationCaseResult, opts PlotOptions) (*figure.Figure, error) {
	in, err := prepare(result, opts)
	if err != nil {
		return nil, err
	}
	reference := convergence.ReferenceColumn(in.output)
	if err := in.split(result, in.elementSize, reference, convergence.ExtrapolatedValuesColumn); err != nil {
		return nil, err
	}

	fig := &figure.Figure{
		Name:   fmt.Sprintf("convergence_case_%s_%s", in.elementSize, in.output),
		Height: plotHeight,
		Dark:   true,
		XAxis:  figure.Axis{Title: in.elementSize, Min: figure.Float(0)},
	}

	n := len(in.trajectories)
	for i, traj := range in.trajectories {
		color := figure.TrajectoryColor(i, n)
		h, _ := traj.Column(in.elementSize)
		raw, _ := traj.Column(in.output)
		refs, _ := traj.Column(reference)
		extrapolated, _ := traj.Column(convergence.ExtrapolatedValuesColumn)

		divisor, err := convergence.Divisor(raw, opts.NormalizeIndexOutput)
		if err != nil {
			return nil, err
		}
		y := convergence.DivideBy(raw, divisor)
		hover, err := hoverTexts(traj, in.hovering)
		if err != nil {
			return nil, err
		}
		addPointTraces(fig, i, color, h, y, hover)

		last := len(h) - 1
		end := []float64{0, h[last]}
		fig.AddTrace(figure.Trace{
			Name:  strconv.Itoa(i),
			Group: i,
			Mode:  figure.ModeLines,
			Dash:  figure.DashDash,
			Color: color,
			X:     end,
			Y:     []float64{refs[0] / divisor, raw[last] / divisor},
		})
		for _, q := range extrapolated {
			fig.AddTrace(figure.Trace{
				Name:  strconv.Itoa(i),
				Group: i,
				Mode:  figure.ModeLines,
				Dash:  figure.DashDot,
				Color: color,
				X:     end,
				Y:     []float64{q / divisor, raw[last] / divisor},
			})
		}
	}
	annotate(fig, opts, in.output)
	fig.Title = opts.prefix() + in.output

	p.logger.Debug("Built convergence figure with %d trajectories", n)
	if err := p.finish(fig, opts); err != nil {
		return nil, err
	}
	return fig, nil
}

// CPUTimeCompromiseCase plots the output of each trajectory against the CPU
// time spent on each mesh
type CPUTimeCompromiseCase struct {
	renderer
}

// NewCPUTimeCompromiseCase creates the CPU time compromise renderer
func NewCPUTimeCompromiseCase(viewer ports.FigureViewer, logger *internal.Logger) *CPUTimeCompromiseCase {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &CPUTimeCompromiseCase{renderer{viewer: viewer, logger: logger.With("cpu-time-compromise")}}
}

// Execute builds the figure, then saves and shows it as requested. The
// element size variable is appended to the hovering variables.
func (p *CPUTimeCompromiseCase) Execute(result *verification.SolutionVerificationCaseResult, opts PlotOptions) (*figure.Figure, error) {
	if result == nil {
		return nil, fmt.Errorf("%w: no case result", core.ErrEmptyResults)
	}
	in, err := prepare(result, opts, result.Metadata.ElementSizeVariableName)
	if err != nil {
		return nil, err
	}
	if err := in.split(result, convergence.CPUTimeColumn); err != nil {
		return nil, err
	}

	fig := &figure.Figure{
		Name:   "cpu_time_compromise_" + in.output,
		Height: plotHeight,
		Dark:   true,
		XAxis:  figure.Axis{Title: opts.prefix() + cpuTimeAxisTitle},
	}

	n := len(in.trajectories)
	for i, traj := range in.trajectories {
		color := figure.TrajectoryColor(i, n)
		cpu, _ := traj.Column(convergence.CPUTimeColumn)
		raw, _ := traj.Column(in.output)

		y, err := convergence.Normalize(raw, opts.NormalizeIndexOutput)
		if err != nil {
			return nil, err
		}
		x, err := convergence.Normalize(cpu, opts.NormalizeIndexCPUTime)
		if err != nil {
			return nil, err
		}
		hover, err := hoverTexts(traj, in.hovering)
		if err != nil {
			return nil, err
		}
		addPointTraces(fig, i, color, x, y, hover)
	}
	annotate(fig, opts, in.output)
	fig.Title = opts.prefix() + in.output

	p.logger.Debug("Built CPU time compromise figure with %d trajectories", n)
	if err := p.finish(fig, opts); err != nil {
		return nil, err
	}
	return fig, nil
}
