package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simflow/app"
	"simflow/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		WorkingDirectory: dir,
		LogLevel:         "ERROR",
		MaxWorkers:       1,
		ArchiveManager:   "sqlite",
		Database:         config.DatabaseConfig{URL: filepath.Join(dir, "archive.db"), Mode: "Local"},
		Scratch:          config.ScratchConfig{Root: filepath.Join(dir, "scratch"), Persistency: "Keep"},
	}
}

func TestInitWithDatabase(t *testing.T) {
	c, err := New(testConfig(t), nil)
	require.NoError(t, err)
	require.NoError(t, c.InitWithDatabase(context.Background()))
	defer c.Shutdown()

	assert.NotNil(t, c.Archive)
	assert.True(t, c.Tools.IsAvailable(app.ToolSolutionVerification))

	models, err := c.Archive.ListModels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, models)

	require.NoError(t, c.Shutdown())
	assert.Nil(t, c.DB)
}

func TestInitErrors(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Scratch.Persistency = "Sometimes"
	c, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Error(t, c.InitWithoutDatabase())
}
