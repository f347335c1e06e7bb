package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ZAPZAP_LLM_API_KEY", "test-llm-key")
	t.Setenv("ZAPZAP_WHISPER_API_KEY", "test-whisper-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Logger.JSON)

	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 0.001)
	assert.Equal(t, 400, cfg.LLM.MaxTokens)
	assert.Equal(t, "test-llm-key", cfg.LLM.APIKey)
	assert.NotEmpty(t, cfg.LLM.SystemPrompt)

	assert.Equal(t, "whisper-large-v3", cfg.Whisper.Model)
	assert.Equal(t, "pt", cfg.Whisper.Language)

	assert.Equal(t, 10, cfg.Assistant.HistoryLimit)
	assert.Equal(t, 800, cfg.Assistant.ChunkMaxRunes)
	assert.Equal(t, 20, cfg.Assistant.TypingMsPerRune)
	assert.Equal(t, 2*time.Second, cfg.Assistant.TypingMaxDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.Assistant.FollowupDelay)
	assert.Equal(t, "ffmpeg", cfg.Assistant.FFmpegPath)

	assert.Equal(t, ":3000", cfg.HTTP.Addr)

	require.Contains(t, cfg.Scheduler.Tasks, "sql_maintenance")
	require.Contains(t, cfg.Scheduler.Tasks, "pause_sweep")
	assert.True(t, cfg.Scheduler.Tasks["sql_maintenance"].Enabled)
}

func TestLoadMissingAPIKeyFails(t *testing.T) {
	t.Setenv("ZAPZAP_LLM_API_KEY", "")
	t.Setenv("ZAPZAP_WHISPER_API_KEY", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logger:
  level: debug
  json: false
llm:
  provider: gemini
  model: gemini-2.0-flash
assistant:
  history_limit: 25
  chunk_max_runes: 500
http:
  addr: ":8090"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.False(t, cfg.Logger.JSON)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.Equal(t, 25, cfg.Assistant.HistoryLimit)
	assert.Equal(t, 500, cfg.Assistant.ChunkMaxRunes)
	assert.Equal(t, ":8090", cfg.HTTP.Addr)

	// Untouched keys keep their defaults.
	assert.Equal(t, 400, cfg.LLM.MaxTokens)
	assert.Equal(t, "pt", cfg.Whisper.Language)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	setRequiredEnv(t)

	cases := map[string]string{
		"bad log level":    "logger:\n  level: verbose\n",
		"bad provider":     "llm:\n  provider: openai\n",
		"chunk too small":  "assistant:\n  chunk_max_runes: 10\n",
		"temperature high": "llm:\n  temperature: 3.5\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
