package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simflow/domain/core"
	"simflow/domain/curve"
	"simflow/domain/model"
	"simflow/domain/run"
	"simflow/internal/config"
	"simflow/ports"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	cfg := &config.Config{ArchiveManager: "sqlite", Database: config.DatabaseConfig{URL: ":memory:"}}
	db, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newResult(experiment, modelName string, dplt float64) *run.Result {
	return &run.Result{
		ID:          core.NewResultID(),
		Experiment:  core.Experiment(experiment),
		Model:       modelName,
		LoadCase:    "Cantilever",
		Date:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		CPUTime:     0.5,
		Fingerprint: run.Fingerprint(modelName, "Cantilever", model.Data{"force": {dplt}}),
		Inputs:      model.Data{"force": {dplt}},
		Scalars:     map[string]float64{"dplt_at_force_location": dplt},
		Curves: map[string]curve.Curve{
			"f_vs_u": {XName: "u", YName: "f", X: []float64{0, 1}, Y: []float64{0, 2}},
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	saved := newResult("exp", "BendingTestAnalytical", 1.5)
	require.NoError(t, repo.Save(ctx, saved))

	got, err := repo.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, saved.Scalars, got.Scalars)
	assert.Equal(t, saved.Curves, got.Curves)
	assert.Equal(t, saved.Inputs, got.Inputs)
	assert.True(t, saved.Date.Equal(got.Date))

	_, err = repo.Get(ctx, core.NewResultID())
	assert.True(t, errors.Is(err, core.ErrResultNotFound))
	assert.True(t, core.IsNotFoundError(err))
}

func TestListings(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newResult("exp_a", "BendingTestAnalytical", 1)))
	require.NoError(t, repo.Save(ctx, newResult("exp_a", "BendingTestAnalytical", 2)))
	require.NoError(t, repo.Save(ctx, newResult("exp_a", "BendingTestFiniteDifference", 3)))
	require.NoError(t, repo.Save(ctx, newResult("exp_b", "BendingTestAnalytical", 4)))

	results, err := repo.ListByExperiment(ctx, "exp_a", ports.ResultFilters{})
	require.NoError(t, err)
	assert.Len(t, results, 3)

	results, err = repo.ListByExperiment(ctx, "exp_a", ports.ResultFilters{Model: "BendingTestFiniteDifference"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 3.0, results[0].Scalars["dplt_at_force_location"])

	results, err = repo.ListByExperiment(ctx, "exp_a", ports.ResultFilters{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, results, 1)

	experiments, err := repo.ListExperiments(ctx)
	require.NoError(t, err)
	require.Len(t, experiments, 3)
	assert.Equal(t, core.Experiment("exp_a"), experiments[0].Name)
	assert.Equal(t, 2, experiments[0].ResultCount)

	models, err := repo.ListModels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BendingTestAnalytical", "BendingTestFiniteDifference"}, models)
}
