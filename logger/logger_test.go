package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{
		"api_key", "abc",
		"prompt", "a surreal forest",
		"CLICKHOUSE_PASSWORD", "hunter2",
		"dangling",
	})
	assert.Equal(t, []interface{}{
		"api_key", "[REDACTED]",
		"prompt", "a surreal forest",
		"CLICKHOUSE_PASSWORD", "[REDACTED]",
		"dangling",
	}, got)
}

func TestNopLogger(t *testing.T) {
	l := Nop()
	l.With("run_id", "x").Info("ignored", "k", "v")
	l.Sync()
}
