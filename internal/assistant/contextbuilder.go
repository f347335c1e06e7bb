package assistant

import (
	"context"
	"log/slog"

	"github.com/zapzap/zapzap-assist/internal/database"
	"github.com/zapzap/zapzap-assist/internal/llm"
)

// ContextBuilder assembles the bounded chat history for a model call.
type ContextBuilder struct {
	store database.Store
	limit int
	log   *slog.Logger
}

// NewContextBuilder creates a builder returning at most limit turns.
func NewContextBuilder(store database.Store, limit int, log *slog.Logger) *ContextBuilder {
	if log == nil {
		log = slog.Default()
	}
	return &ContextBuilder{
		store: store,
		limit: limit,
		log:   log.With("component", "context_builder"),
	}
}

// Build returns the contact's recent turns in chronological order, mapping
// inbound messages to the user role and outbound messages to the assistant
// role. A store failure degrades to an empty context so the reply is not
// blocked on history.
func (b *ContextBuilder) Build(ctx context.Context, jid string) []llm.Turn {
	messages, err := b.store.GetRecentMessages(ctx, jid, b.limit)
	if err != nil {
		b.log.WarnContext(ctx, "Failed to load conversation history, replying without context", "jid", jid, "error", err)
		return nil
	}

	// The store returns newest first; the model needs oldest first.
	turns := make([]llm.Turn, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		role := llm.RoleUser
		if messages[i].Direction == database.DirectionOutbound {
			role = llm.RoleAssistant
		}
		turns = append(turns, llm.Turn{Role: role, Content: messages[i].Body})
	}
	return turns
}
