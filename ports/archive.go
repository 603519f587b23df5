package ports

import (
	"context"

	"simflow/domain/core"
	"simflow/domain/run"
)

// ArchiveRepository stores model execution results
type ArchiveRepository interface {
	Save(ctx context.Context, result *run.Result) error
	Get(ctx context.Context, id core.ResultID) (*run.Result, error)
	ListByExperiment(ctx context.Context, experiment core.Experiment, filters ResultFilters) ([]*run.Result, error)
	ListExperiments(ctx context.Context) ([]ExperimentSummary, error)
	ListModels(ctx context.Context) ([]string, error)
}

// ResultFilters narrows archive queries
type ResultFilters struct {
	Model    string
	LoadCase string
	Limit    int
	Offset   int
}

// ExperimentSummary describes one experiment of the archive
type ExperimentSummary struct {
	Name        core.Experiment `json:"name" db:"experiment"`
	Model       string          `json:"model" db:"model"`
	LoadCase    string          `json:"load_case" db:"load_case"`
	ResultCount int             `json:"result_count" db:"result_count"`
}
