package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simflow/adapters/archive"
	"simflow/domain/core"
	"simflow/domain/model"
	"simflow/domain/verification"
	"simflow/internal"
	"simflow/internal/config"
	"simflow/internal/scratch"
	"simflow/ports"
)

func TestExpandSweep(t *testing.T) {
	combos := expandSweep(model.Data{"force": {100}}, map[string][]float64{
		"width":        {10, 20},
		"element_size": {1, 2, 3},
	})
	require.Len(t, combos, 6)
	assert.Equal(t, model.Data{"force": {100}, "element_size": {1}, "width": {10}}, combos[0])
	assert.Equal(t, model.Data{"force": {100}, "element_size": {1}, "width": {20}}, combos[1])
	assert.Equal(t, model.Data{"force": {100}, "element_size": {3}, "width": {20}}, combos[5])

	assert.Len(t, expandSweep(model.Data{}, nil), 1)
}

func TestParseAssignments(t *testing.T) {
	out := map[string][]float64{}
	require.NoError(t, parseAssignments([]string{"force=100", "load_fraction=0.5, 1"}, out))
	assert.Equal(t, []float64{100}, out["force"])
	assert.Equal(t, []float64{0.5, 1}, out["load_fraction"])

	assert.Error(t, parseAssignments([]string{"force"}, out))
	assert.Error(t, parseAssignments([]string{"force=abc"}, out))
}

func TestMergeScratch(t *testing.T) {
	base := scratch.Settings{Root: "a", Persistency: scratch.DeleteIfSuccessful}
	merged := mergeScratch(base, scratch.Settings{Persistency: scratch.Keep, Naming: scratch.UUID})
	assert.Equal(t, scratch.Settings{Root: "a", Persistency: scratch.Keep, Naming: scratch.UUID}, merged)
}

// testEnv points the archive and the scratch root to a temporary directory
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SIMFLOW_DATABASE__URL", filepath.Join(dir, "archive.db"))
	t.Setenv("SIMFLOW_SCRATCH__ROOT", filepath.Join(dir, "scratch"))
	t.Setenv("SIMFLOW_WORKING_DIRECTORY", dir)
	t.Setenv("SIMFLOW_LOG_LEVEL", "ERROR")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "run", "--model", "BendingTestAnalytical", "--experiment", "forces", "--sweep", "force=100,200")
	require.NoError(t, err)
	assert.Contains(t, out, "2 runs archived in experiment forces")
	assert.Contains(t, out, "dplt_at_force_location")

	_, err = execute(t, "run", "--model", "Unknown")
	assert.Error(t, err)
}

func TestConfigShow(t *testing.T) {
	dir := testEnv(t)
	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "SIMFLOW_DATABASE__URL="+filepath.Join(dir, "archive.db"))
	assert.Contains(t, out, "SIMFLOW_ARCHIVE_MANAGER=sqlite")
}

// extrapolatedResults writes the verification results of a finite
// difference beam to dir/results.json
func extrapolatedResults(t *testing.T, dir string) []verification.VerificationResult {
	t.Helper()
	settingsFile := filepath.Join(dir, "verification.yaml")
	require.NoError(t, os.WriteFile(settingsFile, []byte(`
model: BendingTestFiniteDifference
load_case: Cantilever
output_name: dplt_at_force_location
element_sizes: [50, 25, 12.5]
inputs:
  force: [100]
`), 0o644))
	resultsFile := filepath.Join(dir, "results.json")
	_, err := execute(t, "verify", "extrapolate", settingsFile, "-o", resultsFile)
	require.NoError(t, err)

	raw, err := os.ReadFile(resultsFile)
	require.NoError(t, err)
	results, err := verification.ReadResults(bytes.NewReader(raw))
	require.NoError(t, err)
	return results
}

func TestVerifyExtrapolateThenCase(t *testing.T) {
	dir := testEnv(t)

	results := extrapolatedResults(t, dir)
	require.Len(t, results, 1)
	assert.Len(t, results[0].CrossValidation, 3)

	caseFile := filepath.Join(dir, "case.yaml")
	require.NoError(t, os.WriteFile(caseFile, []byte(`
results_files: [results.json, results.json]
working_directory: out
plot:
  file_format: svg
  save: true
export: out/table.csv
report: true
`), 0o644))
	out, err := execute(t, "verify", "case", caseFile)
	require.NoError(t, err)
	assert.Contains(t, out, "2 trajectories")

	for _, name := range []string{
		"convergence_case_element_size_dplt_at_force_location.svg",
		"cpu_time_compromise_dplt_at_force_location.svg",
		"verification_case_report.html",
		"table.csv",
	} {
		assert.FileExists(t, filepath.Join(dir, "out", name))
	}
}

func TestVerifyCasesUseSeparateDirectories(t *testing.T) {
	dir := testEnv(t)
	extrapolatedResults(t, dir)

	var files []string
	for _, name := range []string{"a.yaml", "b.yaml"} {
		f := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(f, []byte(`
results_files: [results.json]
plot:
  file_format: svg
  save: true
report: true
`), 0o644))
		files = append(files, f)
	}
	out, err := execute(t, append([]string{"verify", "case"}, files...)...)
	require.NoError(t, err)

	first := filepath.Join(dir, "verification_case", "1")
	second := filepath.Join(dir, "verification_case", "2")
	for _, d := range []string{first, second} {
		assert.FileExists(t, filepath.Join(d, "verification_case_report.html"))
		assert.FileExists(t, filepath.Join(d, "cpu_time_compromise_dplt_at_force_location.svg"))
		assert.Contains(t, out, filepath.Join(d, "verification_case_report.html"))
	}
	assert.NoDirExists(t, filepath.Join(dir, "verification_case", "3"))
}

func TestVerifyCaseRejectsInvalidSettings(t *testing.T) {
	dir := testEnv(t)
	caseFile := filepath.Join(dir, "case.yaml")
	require.NoError(t, os.WriteFile(caseFile, []byte("results_files: [r.json]\nplot: {file_format: gif}\n"), 0o644))
	_, err := execute(t, "verify", "case", caseFile)
	assert.Error(t, err)
}

func TestMeasureCommand(t *testing.T) {
	dir := testEnv(t)
	data := filepath.Join(dir, "curve.json")
	raw, err := json.Marshal(map[string][]float64{"u": {0, 1, 2}, "f": {0, 5, 9}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(data, raw, 0o644))

	out, err := execute(t, "measure", "MaxStrength", "--data", data, "--x-name", "u", "--y-name", "f")
	require.NoError(t, err)
	assert.Contains(t, out, "MaxStrength")
	assert.Contains(t, out, "9")

	_, err = execute(t, "measure", "MaxStrength")
	assert.Error(t, err)
}

func TestMeasureArchivedCurve(t *testing.T) {
	testEnv(t)
	_, err := execute(t, "run", "--model", "BendingTestAnalytical", "--experiment", "curves",
		"--input", "force=100", "--input", "load_fraction=0,0.5,1")
	require.NoError(t, err)

	cfg, err := config.LoadDefault()
	require.NoError(t, err)
	db, err := archive.Open(context.Background(), cfg, internal.NewLogger(internal.LogLevelError))
	require.NoError(t, err)
	stored, err := archive.NewRepository(db).ListByExperiment(context.Background(), "curves", ports.ResultFilters{})
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.Len(t, stored, 1)
	id := stored[0].ID.String()

	out, err := execute(t, "measure", "MaxStrength", "--result", id, "--curve", "reaction_forces_vs_imposed_dplt")
	require.NoError(t, err)
	assert.Regexp(t, `MaxStrength\s+100\n`, out)

	_, err = execute(t, "measure", "MaxStrength", "--result", id, "--curve", "missing_vs_x")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
