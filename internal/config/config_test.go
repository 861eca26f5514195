package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "insights.db", cfg.Store.SQLitePath)
	assert.Equal(t, "https://maps.googleapis.com/maps/api", cfg.Google.BaseURL)
	assert.Equal(t, 10.0, cfg.Google.RequestsPerSecond)
	assert.Equal(t, 3, cfg.Google.MaxPages)
	assert.Equal(t, 2200, cfg.Google.PageTokenWaitMS)
	assert.Equal(t, 40000.0, cfg.Discovery.TileRadiusMeters)
	assert.Equal(t, 4, cfg.Discovery.TileConcurrency)
	assert.Equal(t, 8, cfg.Reviews.Concurrency)
	assert.Equal(t, 0.30, cfg.Analytics.HighNegativeShare)
	assert.Equal(t, 5, cfg.Analytics.HighNegativeFloor)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/insights
google:
  key: file-key
  max_pages: 2
discovery:
  tile_radius_meters: 25000
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/insights", cfg.Store.DatabaseURL)
	assert.Equal(t, "file-key", cfg.Google.Key)
	assert.Equal(t, 2, cfg.Google.MaxPages)
	assert.Equal(t, 25000.0, cfg.Discovery.TileRadiusMeters)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, 2200, cfg.Google.PageTokenWaitMS)
}

func TestLoadFromEnvironment(t *testing.T) {
	inTempDir(t)
	t.Setenv("INSIGHTS_GOOGLE_KEY", "env-key")
	t.Setenv("INSIGHTS_STORE_DRIVER", "postgres")
	t.Setenv("INSIGHTS_REVIEWS_CONCURRENCY", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Google.Key)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 2, cfg.Reviews.Concurrency)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "nonsense", Format: "json"}))
}
