// Package config provides configuration loading, validation, and defaults
// for the zapzap-assist application. Values come from defaults, a YAML file,
// and ZAPZAP_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration parameters for all components
// of the zapzap-assist system: logging, storage, LLM backend, transcription,
// the assistant pipeline, the control surface, and scheduled tasks.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Whisper   WhisperConfig   `mapstructure:"whisper"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LoggerConfig controls log level and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig holds storage settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// LLMConfig holds the completion-backend settings. Provider selects between
// the Groq (OpenAI-compatible) and Gemini clients.
type LLMConfig struct {
	Provider     string        `mapstructure:"provider"      validate:"oneof=groq gemini"`
	APIKey       string        `mapstructure:"api_key"       validate:"required"`
	BaseURL      string        `mapstructure:"base_url"      validate:"omitempty,url"`
	Model        string        `mapstructure:"model"         validate:"required"`
	Temperature  float32       `mapstructure:"temperature"   validate:"min=0,max=2"`
	MaxTokens    int           `mapstructure:"max_tokens"    validate:"min=1,max=32768"`
	Timeout      time.Duration `mapstructure:"timeout"       validate:"min=1s,max=10m"`
	MaxRetries   int           `mapstructure:"max_retries"   validate:"min=0,max=10"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"   validate:"min=0"`
	SystemPrompt string        `mapstructure:"system_prompt" validate:"required"`
}

// WhisperConfig holds the speech-to-text backend settings.
type WhisperConfig struct {
	BaseURL  string        `mapstructure:"base_url" validate:"required,url"`
	APIKey   string        `mapstructure:"api_key"  validate:"required"`
	Model    string        `mapstructure:"model"    validate:"required"`
	Language string        `mapstructure:"language" validate:"required"`
	Timeout  time.Duration `mapstructure:"timeout"  validate:"min=1s,max=10m"`
}

// AssistantConfig holds conversation-pipeline tunables.
type AssistantConfig struct {
	HistoryLimit      int           `mapstructure:"history_limit"       validate:"min=1,max=100"`
	ChunkMaxRunes     int           `mapstructure:"chunk_max_runes"     validate:"min=100,max=4096"`
	TypingMsPerRune   int           `mapstructure:"typing_ms_per_rune"  validate:"min=0,max=1000"`
	TypingMaxDelay    time.Duration `mapstructure:"typing_max_delay"    validate:"min=0"`
	FollowupDelay     time.Duration `mapstructure:"followup_delay"      validate:"min=0"`
	MediaDir          string        `mapstructure:"media_dir"           validate:"required"`
	FFmpegPath        string        `mapstructure:"ffmpeg_path"         validate:"required"`
	AudioReplyEnabled bool          `mapstructure:"audio_reply_enabled"`
}

// HTTPConfig holds control-surface settings.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// SchedulerConfig holds the scheduled-task table, keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables a single scheduled task and sets its cron schedule.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// Load reads configuration from the given path (missing file is tolerated),
// applies defaults, overlays ZAPZAP_* environment variables, and validates
// the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("ZAPZAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		slog.Info("configuration file not found, using defaults and environment", "path", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	slog.Info("configuration loaded",
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model,
		"db_path", cfg.Database.Path,
		"http_addr", cfg.HTTP.Addr)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", true)

	v.SetDefault("database.path", "storage.db")

	v.SetDefault("llm.provider", "groq")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.model", "llama-3.3-70b-versatile")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 400)
	v.SetDefault("llm.timeout", 2*time.Minute)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_delay", 2*time.Second)
	v.SetDefault("llm.system_prompt", DefaultSystemPrompt)

	v.SetDefault("whisper.api_key", "")
	v.SetDefault("whisper.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("whisper.model", "whisper-large-v3")
	v.SetDefault("whisper.language", "pt")
	v.SetDefault("whisper.timeout", 2*time.Minute)

	v.SetDefault("assistant.history_limit", 10)
	v.SetDefault("assistant.chunk_max_runes", 800)
	v.SetDefault("assistant.typing_ms_per_rune", 20)
	v.SetDefault("assistant.typing_max_delay", 2*time.Second)
	v.SetDefault("assistant.followup_delay", 500*time.Millisecond)
	v.SetDefault("assistant.media_dir", "public/media")
	v.SetDefault("assistant.ffmpeg_path", "ffmpeg")
	v.SetDefault("assistant.audio_reply_enabled", true)

	v.SetDefault("http.addr", ":3000")

	v.SetDefault("scheduler.tasks.sql_maintenance.enabled", true)
	v.SetDefault("scheduler.tasks.sql_maintenance.schedule", "0 0 4 * * *")
	v.SetDefault("scheduler.tasks.pause_sweep.enabled", true)
	v.SetDefault("scheduler.tasks.pause_sweep.schedule", "0 */5 * * * *")
}
