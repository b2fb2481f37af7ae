package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "*BEGINSECTION_", cfg.Analysis.SectionMarker)
	require.Equal(t, 50, cfg.Analysis.TopWords)
	require.Equal(t, 20, cfg.Analysis.SectionTopWords)
	require.False(t, cfg.Postgres.Enabled)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
analysis:
  sectionMarker: "#CHAPTER_"
  topWords: 10
redis:
  enabled: true
  cacheTTL: 30s
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("TA_REDIS_ADDR", "cache:6380")
	t.Setenv("TA_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "#CHAPTER_", cfg.Analysis.SectionMarker)
	require.Equal(t, 10, cfg.Analysis.TopWords)
	require.Equal(t, 20, cfg.Analysis.SectionTopWords)
	require.True(t, cfg.Redis.Enabled)
	require.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	require.Equal(t, "cache:6380", cfg.Redis.Addr)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsEmptyMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis:\n  sectionMarker: \"\"\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestShippedConfigsLoad(t *testing.T) {
	for _, name := range []string{"development.yaml", "worker.yaml"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(filepath.Join("..", "..", "configs", name))
			require.NoError(t, err)
			require.True(t, cfg.Kafka.Enabled)
			require.Equal(t, "analysis-completed", cfg.Kafka.Topics.AnalysisCompleted)
			require.Positive(t, cfg.Cache.MemoryEntries)
		})
	}
}

func TestLoadRejectsNonPositiveCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  memoryEntries: 0\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
