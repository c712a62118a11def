package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AIRIA_PIPELINE_URL", "AIRIA_PROMPT_PIPELINE_URL", "AIRIA_API_KEY", "AIRIA_USER_ID",
		"FREEPIK_API_KEY", "CLICKHOUSE_URL", "CLICKHOUSE_USER", "CLICKHOUSE_PASSWORD",
		"CLICKHOUSE_DATABASE", "CLICKHOUSE_TABLE",
		"YOUTUBE_CLIENT_ID", "YOUTUBE_CLIENT_SECRET", "YOUTUBE_REFRESH_TOKEN",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "minimax-hailuo-02-768p", cfg.Freepik.Model)
	assert.Equal(t, 6, cfg.Freepik.Duration)
	assert.Equal(t, 3*time.Second, cfg.Freepik.PollInterval)
	assert.Equal(t, 600*time.Second, cfg.Freepik.Timeout)
	assert.Equal(t, "default", cfg.ClickHouse.Database)
	assert.Equal(t, "dreampulse_dreams", cfg.ClickHouse.Table)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
airia:
  pipeline_url: https://yaml.example/pipeline
  prompt_timeout: 15s
freepik:
  model: kling-v2
  duration: 10
  poll_interval: 500ms
clickhouse:
  table: dreams_yaml
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0644))
	t.Setenv("AIRIA_PIPELINE_URL", "https://env.example/pipeline")
	t.Setenv("CLICKHOUSE_TABLE", "dreams_env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://env.example/pipeline", cfg.Airia.PipelineURL)
	assert.Equal(t, 15*time.Second, cfg.Airia.PromptTimeout)
	assert.Equal(t, "kling-v2", cfg.Freepik.Model)
	assert.Equal(t, 10, cfg.Freepik.Duration)
	assert.Equal(t, 500*time.Millisecond, cfg.Freepik.PollInterval)
	assert.Equal(t, "dreams_env", cfg.ClickHouse.Table)
	assert.Equal(t, "default", cfg.ClickHouse.Database)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("freepik: [unclosed"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.EqualError(t, cfg.Validate(false, false), "AIRIA_PIPELINE_URL and AIRIA_API_KEY must be set")

	cfg.Airia.PipelineURL = "https://airia.example"
	cfg.Airia.APIKey = "k"
	assert.EqualError(t, cfg.Validate(false, false), "FREEPIK_API_KEY must be set")

	cfg.Freepik.APIKey = "f"
	assert.NoError(t, cfg.Validate(false, false))

	cfg.Freepik.Duration = 7
	assert.Error(t, cfg.Validate(false, false))
	cfg.Freepik.Duration = 10

	assert.ErrorContains(t, cfg.Validate(true, false), "--store-clickhouse")
	cfg.ClickHouse.URL, cfg.ClickHouse.User, cfg.ClickHouse.Password = "http://ch", "u", "p"
	assert.NoError(t, cfg.Validate(true, false))

	assert.ErrorContains(t, cfg.Validate(false, true), "--upload-youtube")
}
