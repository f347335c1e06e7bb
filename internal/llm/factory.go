package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zapzap/zapzap-assist/internal/config"
)

// New constructs the Completer selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig, log *slog.Logger) (Completer, error) {
	switch cfg.Provider {
	case "groq":
		return NewGroqClient(cfg, log)
	case "gemini":
		return NewGeminiClient(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
