package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simflow/adapters/archive"
	"simflow/domain/core"
	"simflow/domain/run"
	"simflow/domain/verification"
	"simflow/internal/config"
	"simflow/ports"
)

func newTestRouter(t *testing.T) (*gin.Engine, ports.ArchiveRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{ArchiveManager: "sqlite", Database: config.DatabaseConfig{URL: ":memory:"}}
	db, err := archive.Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := archive.NewRepository(db)
	return NewRouter(NewHandler(repo, nil)), repo
}

func saveResult(t *testing.T, repo ports.ArchiveRepository, experiment string, dplt float64) *run.Result {
	t.Helper()
	r := &run.Result{
		ID:         core.NewResultID(),
		Experiment: core.Experiment(experiment),
		Model:      "BendingTestAnalytical",
		LoadCase:   "Cantilever",
		Date:       time.Now().UTC(),
		Scalars:    map[string]float64{"dplt_at_force_location": dplt},
	}
	require.NoError(t, repo.Save(context.Background(), r))
	return r
}

func do(router http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListExperimentsAndResults(t *testing.T) {
	router, repo := newTestRouter(t)
	saveResult(t, repo, "sweep", 1)
	saveResult(t, repo, "sweep", 2)
	saved := saveResult(t, repo, "other", 3)

	w := do(router, http.MethodGet, "/api/experiments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var experiments struct {
		Experiments []ports.ExperimentSummary `json:"experiments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &experiments))
	assert.Len(t, experiments.Experiments, 2)

	w = do(router, http.MethodGet, "/api/experiments/sweep/results?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Count   int           `json:"count"`
		Results []*run.Result `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Equal(t, 1, listed.Count)

	w = do(router, http.MethodGet, "/api/results/"+saved.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got run.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 3.0, got.Scalars["dplt_at_force_location"])

	w = do(router, http.MethodGet, "/api/models", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "BendingTestAnalytical")
}

func TestErrorStatuses(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/results/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(router, http.MethodGet, "/api/experiments/sweep/results?limit=-2", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(router, http.MethodPost, "/api/verification/cases", []byte("[]"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(router, http.MethodPost, "/api/verification/cases", []byte("{not json"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCreateVerificationCase(t *testing.T) {
	router, _ := newTestRouter(t)

	result := func(y []float64) verification.VerificationResult {
		return verification.VerificationResult{
			Metadata: verification.Metadata{
				Settings: map[string]any{"output_name": "y"},
				Misc:     map[string]any{"element_size_variable_name": "h"},
			},
			SimulationAndReference: verification.NewDataset([]string{"h", "y"}, map[string][]float64{
				"h": {1, 0.5, 0.25},
				"y": y,
			}),
			CrossValidation: verification.Folds{
				{Name: "fold_0", QExtrap: verification.Sample{6}},
				{Name: "fold_1", QExtrap: verification.Sample{6.1}},
				{Name: "fold_2", QExtrap: verification.Sample{5.9}},
			},
		}
	}
	body, err := json.Marshal([]verification.VerificationResult{
		result([]float64{10, 8, 7}),
		result([]float64{12, 9, 7.5}),
	})
	require.NoError(t, err)

	w := do(router, http.MethodPost, "/api/verification/cases", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Trajectories int                                         `json:"trajectories"`
		Result       verification.SolutionVerificationCaseResult `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, 2, created.Trajectories)
	assert.Equal(t, 3, created.Result.Metadata.NbMeshes)
	y, err := created.Result.ConvergenceData.Column("y")
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 8, 7, 12, 9, 7.5}, y)
}
