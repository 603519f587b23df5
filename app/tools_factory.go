package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"simflow/adapters/analytic"
	"simflow/domain/core"
	"simflow/domain/curve"
	"simflow/domain/verification"
	"simflow/internal"
	"simflow/ports"
)

// Tool class names
const (
	ToolSolutionVerification     = "SolutionVerification"
	ToolSolutionVerificationCase = "SolutionVerificationCase"
	ToolDirectMeasure            = "DirectMeasure"
)

// ToolsFactory creates analysis tools by class name
type ToolsFactory struct {
	runner           *ModelRunner
	workingDirectory string
	viewer           ports.FigureViewer
	logger           *internal.Logger
}

// NewToolsFactory creates a factory sharing one runner and working directory
func NewToolsFactory(runner *ModelRunner, workingDirectory string, viewer ports.FigureViewer, logger *internal.Logger) *ToolsFactory {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ToolsFactory{runner: runner, workingDirectory: workingDirectory, viewer: viewer, logger: logger}
}

// ClassNames returns the available tool class names, sorted
func (f *ToolsFactory) ClassNames() []string {
	names := []string{ToolSolutionVerification, ToolSolutionVerificationCase, ToolDirectMeasure}
	sort.Strings(names)
	return names
}

// IsAvailable reports whether a tool class exists
func (f *ToolsFactory) IsAvailable(name string) bool {
	_, err := f.Create(name)
	return err == nil
}

// Create returns a new tool of the given class
func (f *ToolsFactory) Create(name string) (ports.Tool, error) {
	switch strings.TrimSpace(name) {
	case ToolSolutionVerification:
		return &solutionVerificationTool{NewSolutionVerification(f.runner, f.logger)}, nil
	case ToolSolutionVerificationCase:
		return &verificationCaseTool{NewSolutionVerificationCase(f.workingDirectory, f.viewer, f.logger)}, nil
	case ToolDirectMeasure:
		return directMeasureTool{}, nil
	}
	return nil, fmt.Errorf("%w: %s, available tools are %v", core.ErrToolNotFound, name, f.ClassNames())
}

// decodeSettings maps loosely typed settings onto a settings struct
// through its yaml tags
func decodeSettings(settings map[string]any, out any) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid tool settings: %w", err)
	}
	return nil
}

type solutionVerificationTool struct {
	tool *SolutionVerification
}

type solutionVerificationToolSettings struct {
	Model                        string `yaml:"model"`
	LoadCase                     string `yaml:"load_case"`
	SolutionVerificationSettings `yaml:",inline"`
}

func (t *solutionVerificationTool) Name() string { return ToolSolutionVerification }

func (t *solutionVerificationTool) Execute(ctx context.Context, settings map[string]any) (any, error) {
	var s solutionVerificationToolSettings
	if err := decodeSettings(settings, &s); err != nil {
		return nil, err
	}
	m, err := analytic.CreateModel(s.Model, s.LoadCase)
	if err != nil {
		return nil, err
	}
	return t.tool.Execute(ctx, m, s.SolutionVerificationSettings)
}

type verificationCaseTool struct {
	tool *SolutionVerificationCase
}

type verificationCaseToolSettings struct {
	ResultsFile string `yaml:"results_file"`
}

func (t *verificationCaseTool) Name() string { return ToolSolutionVerificationCase }

func (t *verificationCaseTool) Execute(_ context.Context, settings map[string]any) (any, error) {
	var s verificationCaseToolSettings
	if err := decodeSettings(settings, &s); err != nil {
		return nil, err
	}
	f, err := os.Open(s.ResultsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open results: %w", err)
	}
	defer f.Close()
	results, err := verification.ReadResults(f)
	if err != nil {
		return nil, err
	}
	return t.tool.Execute(results)
}

type directMeasureTool struct{}

type directMeasureSettings struct {
	MeasureClass   string `yaml:"measure_class"`
	curve.Settings `yaml:",inline"`
	Data           map[string][]float64 `yaml:"data"`
}

func (directMeasureTool) Name() string { return ToolDirectMeasure }

func (directMeasureTool) Execute(_ context.Context, settings map[string]any) (any, error) {
	var s directMeasureSettings
	if err := decodeSettings(settings, &s); err != nil {
		return nil, err
	}
	return curve.Evaluate(s.MeasureClass, s.Settings, s.Data)
}
