package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/zapzap/zapzap-assist/internal/config"
)

type groqClient struct {
	baseURL      string
	apiKey       string
	model        string
	temperature  float32
	maxTokens    int
	systemPrompt string
	maxRetries   int
	retryDelay   time.Duration
	httpClient   *http.Client
	log          *slog.Logger
}

// NewGroqClient creates a Completer backed by the Groq OpenAI-compatible
// chat-completions API.
func NewGroqClient(cfg config.LLMConfig, log *slog.Logger) (Completer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("groq API key is required")
	}
	if log == nil {
		log = slog.Default()
	}

	logger := log.With("component", "groq_client")
	logger.Info("Groq client initialized successfully", "model", cfg.Model)

	return &groqClient{
		baseURL:      cfg.BaseURL,
		apiKey:       cfg.APIKey,
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: cfg.SystemPrompt,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		log:          logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends the system prompt, prior turns, and the current prompt to
// the chat-completions endpoint, retrying on retriable upstream failures.
func (c *groqClient) Complete(ctx context.Context, history []Turn, prompt string) (string, error) {
	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{Role: "system", Content: c.systemPrompt})
	for _, t := range history {
		messages = append(messages, chatMessage{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, chatMessage{Role: RoleUser, Content: prompt})

	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	c.log.DebugContext(ctx, "Generating reply", "history_turns", len(history), "prompt_len", len(prompt))

	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		text, status, err := c.doRequest(ctx, payload)
		if err == nil {
			return normalizeNewlines(text), nil
		}
		lastErr = err

		c.log.WarnContext(ctx, "Groq API call failed, checking for retry",
			"attempt", i+1, "max_retries", c.maxRetries, "status", status, "error", err)

		if (status == http.StatusInternalServerError || status == http.StatusServiceUnavailable) && i < c.maxRetries {
			c.log.InfoContext(ctx, "Retrying Groq API call", "delay", c.retryDelay, "status", status)
			select {
			case <-time.After(c.retryDelay):
				continue
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		c.log.ErrorContext(ctx, "Groq API call failed with non-retriable error", "error", err)
		return "", fmt.Errorf("groq API call failed: %w", err)
	}

	return "", fmt.Errorf("groq API call failed after %d retries: %w", c.maxRetries, lastErr)
}

// doRequest performs one HTTP round trip. The returned status is zero when
// the request never reached the server.
func (c *groqClient) doRequest(ctx context.Context, payload []byte) (string, int, error) {
	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("chat completion request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WarnContext(ctx, "Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", resp.StatusCode, fmt.Errorf("chat completion error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return "", resp.StatusCode, fmt.Errorf("chat completion error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", resp.StatusCode, fmt.Errorf("chat completion returned empty content")
	}

	return parsed.Choices[0].Message.Content, resp.StatusCode, nil
}
