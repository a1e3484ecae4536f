package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tendermatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", "")

	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
backend: postgres
database_url: postgres://scorer@db/tenders
batch_size: 250
keyword_policy: no_matches
embedding:
  model: nomic-embed-text
  workers: 2
  retry_delay: 250ms
`)

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.Backend)
	assert.Equal(t, "postgres://scorer@db/tenders", cfg.DatabaseURL)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.Equal(t, "no_matches", cfg.KeywordPolicy)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 2, cfg.Embedding.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Embedding.RetryDelay)
	// untouched nested defaults survive
	assert.Equal(t, 100, cfg.Embedding.BatchSize)
	assert.Equal(t, 10, cfg.TopK)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "batch_size: 250\ntop_k: 5\n")
	t.Setenv(EnvPrefix+"CONFIG", path)
	t.Setenv(EnvPrefix+"BATCH_SIZE", "50")
	t.Setenv(EnvPrefix+"EMBEDDING_WORKERS", "8")
	t.Setenv(EnvPrefix+"EMBEDDING_DIMENSIONS", "768")
	t.Setenv(EnvPrefix+"SCORE_CAP", "95.5")

	cfg, err := Load(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 5, cfg.TopK)
	assert.Equal(t, 8, cfg.Embedding.Workers)
	assert.Equal(t, 768, cfg.EmbeddingDimensions)
	assert.Equal(t, 95.5, cfg.ScoreCap)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvPrefix+"CONFIG", "")

	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadConfig)

	_, err = Load(context.Background(), writeConfig(t, "batch_size: [1, 2\n"))
	assert.ErrorIs(t, err, ErrLoadConfig)

	_, err = Load(context.Background(), writeConfig(t, "backend: mongo\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Load(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"TENDERMATCH_BATCH_SIZE":           "batch_size",
		"TENDERMATCH_EMBEDDING_BATCH_SIZE": "embedding.batch_size",
		"TENDERMATCH_EMBEDDING_HOST":       "embedding.host",
		"TENDERMATCH_EMBEDDING_DIMENSIONS": "embedding_dimensions",
		"TENDERMATCH_DATABASE_URL":         "database_url",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}
