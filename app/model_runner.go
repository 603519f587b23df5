package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"simflow/domain/core"
	"simflow/domain/model"
	"simflow/domain/run"
	"simflow/internal"
	"simflow/internal/scratch"
	"simflow/ports"
)

const outputsFile = "outputs.json"

// ModelRunner executes integrated models in scratch job directories and
// archives their results
type ModelRunner struct {
	archive ports.ArchiveRepository
	scratch scratch.Settings
	logger  *internal.Logger
}

// NewModelRunner creates a runner. A nil archive disables archiving.
func NewModelRunner(archive ports.ArchiveRepository, settings scratch.Settings, logger *internal.Logger) *ModelRunner {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ModelRunner{
		archive: archive,
		scratch: settings,
		logger:  logger.With("runner"),
	}
}

// Run executes the model once. The outputs are written to the job directory
// before the persistency policy is enforced.
func (r *ModelRunner) Run(ctx context.Context, m *model.IntegratedModel, experiment core.Experiment, inputs model.Data) (*run.Result, model.Data, error) {
	s, err := scratch.New(r.scratch, m.Name(), m.LoadCase())
	if err != nil {
		return nil, nil, err
	}
	jobDir, err := s.CreateJobDirectory()
	if err != nil {
		return nil, nil, err
	}

	outputs, err := m.Execute(ctx, inputs)
	if err != nil {
		return nil, nil, fmt.Errorf("model %s failed: %w", m.Name(), err)
	}
	if err := writeOutputs(jobDir, outputs); err != nil {
		r.logger.Warn("Failed to write outputs of %s: %v", jobDir, err)
	}

	result := run.NewResult(experiment, m, inputs, outputs, jobDir)
	r.logger.Debug("Executed %s/%s in %s (error code %d, %.3gs)",
		m.Name(), m.LoadCase(), jobDir, result.ErrorCode, result.CPUTime)

	deleted, err := s.EnforcePersistencyPolicy(result.ErrorCode)
	if err != nil {
		r.logger.Warn("Failed to enforce scratch persistency on %s: %v", jobDir, err)
	}
	if deleted {
		result.JobDirectory = ""
	}

	if r.archive != nil {
		if err := r.archive.Save(ctx, result); err != nil {
			return nil, nil, err
		}
	}
	return result, outputs, nil
}

func writeOutputs(dir string, outputs model.Data) error {
	data, err := json.MarshalIndent(outputs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, outputsFile), data, 0o644)
}
