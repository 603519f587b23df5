// Package archive stores model execution results in a SQL database.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"simflow/domain/core"
	"simflow/domain/curve"
	"simflow/domain/model"
	"simflow/domain/run"
	"simflow/ports"
)

// resultRow mirrors the results table
type resultRow struct {
	ID           string    `db:"id"`
	Experiment   string    `db:"experiment"`
	Model        string    `db:"model"`
	LoadCase     string    `db:"load_case"`
	Date         time.Time `db:"date"`
	ErrorCode    int       `db:"error_code"`
	CPUTime      float64   `db:"cpu_time"`
	JobDirectory string    `db:"job_directory"`
	Fingerprint  string    `db:"fingerprint"`
	Inputs       string    `db:"inputs"`
	Scalars      string    `db:"scalars"`
	Curves       string    `db:"curves"`
}

const selectResults = `SELECT
	id, experiment, model, load_case, date, error_code, cpu_time,
	job_directory, fingerprint, inputs, scalars, curves
FROM results`

// resultRepository implements ports.ArchiveRepository
type resultRepository struct {
	db *sqlx.DB
}

// NewRepository creates a repository over an opened, migrated database
func NewRepository(db *sqlx.DB) ports.ArchiveRepository {
	return &resultRepository{db: db}
}

// Save inserts a result
func (r *resultRepository) Save(ctx context.Context, result *run.Result) error {
	row, err := toRow(result)
	if err != nil {
		return err
	}
	query := r.db.Rebind(`INSERT INTO results (
		id, experiment, model, load_case, date, error_code, cpu_time,
		job_directory, fingerprint, inputs, scalars, curves
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = r.db.ExecContext(ctx, query,
		row.ID, row.Experiment, row.Model, row.LoadCase, row.Date, row.ErrorCode,
		row.CPUTime, row.JobDirectory, row.Fingerprint, row.Inputs, row.Scalars, row.Curves,
	)
	if err != nil {
		return fmt.Errorf("failed to save result %s: %w", result.ID, err)
	}
	return nil
}

// Get retrieves a result by its ID
func (r *resultRepository) Get(ctx context.Context, id core.ResultID) (*run.Result, error) {
	var row resultRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(selectResults+" WHERE id = ?"), id.String())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", core.ErrResultNotFound, id)
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return fromRow(row)
}

// ListByExperiment returns the results of an experiment, oldest first
func (r *resultRepository) ListByExperiment(ctx context.Context, experiment core.Experiment, filters ports.ResultFilters) ([]*run.Result, error) {
	query := selectResults + " WHERE experiment = ?"
	args := []interface{}{experiment.String()}
	if filters.Model != "" {
		query += " AND model = ?"
		args = append(args, filters.Model)
	}
	if filters.LoadCase != "" {
		query += " AND load_case = ?"
		args = append(args, filters.LoadCase)
	}
	query += " ORDER BY date, id"
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filters.Limit, filters.Offset)
	}

	var rows []resultRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	results := make([]*run.Result, 0, len(rows))
	for _, row := range rows {
		res, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ListExperiments summarises the experiments per model and load case
func (r *resultRepository) ListExperiments(ctx context.Context) ([]ports.ExperimentSummary, error) {
	summaries := make([]ports.ExperimentSummary, 0)
	err := r.db.SelectContext(ctx, &summaries, `SELECT
		experiment, model, load_case, COUNT(*) AS result_count
	FROM results
	GROUP BY experiment, model, load_case
	ORDER BY experiment, model, load_case`)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	return summaries, nil
}

// ListModels returns the distinct archived model names
func (r *resultRepository) ListModels(ctx context.Context) ([]string, error) {
	models := make([]string, 0)
	if err := r.db.SelectContext(ctx, &models, "SELECT DISTINCT model FROM results ORDER BY model"); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return models, nil
}

func toRow(res *run.Result) (resultRow, error) {
	inputs, err := json.Marshal(res.Inputs)
	if err != nil {
		return resultRow{}, fmt.Errorf("failed to marshal inputs: %w", err)
	}
	scalars, err := json.Marshal(res.Scalars)
	if err != nil {
		return resultRow{}, fmt.Errorf("failed to marshal scalars: %w", err)
	}
	curves, err := json.Marshal(res.Curves)
	if err != nil {
		return resultRow{}, fmt.Errorf("failed to marshal curves: %w", err)
	}
	return resultRow{
		ID:           res.ID.String(),
		Experiment:   res.Experiment.String(),
		Model:        res.Model,
		LoadCase:     res.LoadCase,
		Date:         res.Date.UTC(),
		ErrorCode:    res.ErrorCode,
		CPUTime:      res.CPUTime,
		JobDirectory: res.JobDirectory,
		Fingerprint:  res.Fingerprint,
		Inputs:       string(inputs),
		Scalars:      string(scalars),
		Curves:       string(curves),
	}, nil
}

func fromRow(row resultRow) (*run.Result, error) {
	res := &run.Result{
		ID:           core.ResultID(row.ID),
		Experiment:   core.Experiment(row.Experiment),
		Model:        row.Model,
		LoadCase:     row.LoadCase,
		Date:         row.Date.UTC(),
		ErrorCode:    row.ErrorCode,
		CPUTime:      row.CPUTime,
		JobDirectory: row.JobDirectory,
		Fingerprint:  row.Fingerprint,
		Inputs:       model.Data{},
		Scalars:      map[string]float64{},
		Curves:       map[string]curve.Curve{},
	}
	if err := json.Unmarshal([]byte(row.Inputs), &res.Inputs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal inputs: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Scalars), &res.Scalars); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scalars: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Curves), &res.Curves); err != nil {
		return nil, fmt.Errorf("failed to unmarshal curves: %w", err)
	}
	return res, nil
}
