// Package whisper provides speech-to-text transcription through an
// OpenAI-compatible Whisper API endpoint.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sync"

	"github.com/zapzap/zapzap-assist/internal/config"
)

// Transcriber converts audio bytes to text. The recognition language is fixed
// at construction and translation to another language is never requested.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Client posts multipart audio uploads to the /audio/transcriptions endpoint.
// The HTTP client is initialized lazily on first use and reused across calls.
type Client struct {
	cfg config.WhisperConfig
	log *slog.Logger

	once       sync.Once
	httpClient *http.Client
}

// NewClient creates a Whisper transcription client. No connection is opened
// until the first Transcribe call.
func NewClient(cfg config.WhisperConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		cfg: cfg,
		log: log.With("component", "whisper_client"),
	}
}

func (c *Client) client() *http.Client {
	c.once.Do(func() {
		c.log.Info("Initializing Whisper client", "model", c.cfg.Model, "language", c.cfg.Language)
		c.httpClient = &http.Client{Timeout: c.cfg.Timeout}
	})
	return c.httpClient
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe converts audio data to text. filename must carry the extension
// the server uses to sniff the container format (e.g. "audio.wav").
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("copy audio data: %w", err)
	}

	_ = writer.WriteField("model", c.cfg.Model)
	_ = writer.WriteField("response_format", "json")
	// Force recognition in the configured language; never translate.
	_ = writer.WriteField("language", c.cfg.Language)
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart form: %w", err)
	}

	url := c.cfg.BaseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper API request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.log.WarnContext(ctx, "Failed to close response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("whisper API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode whisper response: %w", err)
	}

	c.log.InfoContext(ctx, "Transcription complete", "text_len", len(result.Text), "language", c.cfg.Language)
	return result.Text, nil
}
