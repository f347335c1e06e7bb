// Package llm provides the completion backend for the assistant. Two
// providers are available: the Groq OpenAI-compatible API (default, plain
// HTTP) and Google Gemini through the genai SDK. Both are constructed with a
// fixed system prompt; the conversation history and the current prompt are
// supplied per call.
package llm

import (
	"context"
	"strings"
)

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one prior conversation turn, in chronological order when handed to
// Complete.
type Turn struct {
	Role    string
	Content string
}

// Completer generates a reply to the user prompt given the prior turns.
type Completer interface {
	Complete(ctx context.Context, history []Turn, prompt string) (string, error)
}

// normalizeNewlines repairs the line-break conventions models are loose
// about: literal backslash-n sequences and CR variants all become real
// newlines.
func normalizeNewlines(s string) string {
	r := strings.NewReplacer(
		"\\r\\n", "\n",
		"\\n", "\n",
		"\r\n", "\n",
		"\r", "\n",
	)
	return r.Replace(s)
}
