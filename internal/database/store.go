package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// SaveMessage inserts a new message record.
	SaveMessage(ctx context.Context, message *Message) error

	// GetRecentMessages retrieves the most recent 'limit' messages for a
	// contact, in reverse-chronological order (newest first).
	GetRecentMessages(ctx context.Context, contactJID string, limit int) ([]Message, error)

	// GetAssistantState retrieves the gating state for a contact.
	// Returns nil, nil if the contact has no stored state.
	GetAssistantState(ctx context.Context, jid string) (*AssistantState, error)

	// UpsertAssistantState writes the gating state for a contact, creating
	// the contact row if needed. pausedUntil must be valid exactly when
	// mode is ModePaused.
	UpsertAssistantState(ctx context.Context, jid, mode string, pausedUntil sql.NullTime) error

	// ResumeIfPaused flips a contact from paused back to active with a
	// guarded update. Returns true if a row was actually transitioned, so
	// concurrent resume attempts are a no-op on the losing side.
	ResumeIfPaused(ctx context.Context, jid string) (bool, error)

	// ResumeExpiredPauses resumes every contact whose pause has expired as
	// of 'now'. Returns the number of contacts resumed.
	ResumeExpiredPauses(ctx context.Context, now time.Time) (int64, error)

	// UpsertContactInfo writes contact metadata (push name, profile picture)
	// without touching the gating state of an existing row.
	UpsertContactInfo(ctx context.Context, jid, name string, profilePicURL sql.NullString) error

	// SetTypingIndicator upserts the persisted typing flag for a chat.
	SetTypingIndicator(ctx context.Context, chatJID string, typing bool) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveMessage inserts a new message record.
func (s *sqlxStore) SaveMessage(ctx context.Context, message *Message) error {
	if message == nil {
		return fmt.Errorf("cannot save nil message")
	}
	if message.ContactJID == "" {
		return fmt.Errorf("message must have a non-empty contact_jid")
	}
	if message.Body == "" {
		return fmt.Errorf("message must have non-empty body")
	}
	if message.Direction != DirectionInbound && message.Direction != DirectionOutbound {
		return fmt.Errorf("invalid message direction %q", message.Direction)
	}

	if message.Kind == "" {
		message.Kind = KindText
	}
	if message.Status == "" {
		// Inbound messages have by definition reached us already.
		if message.Direction == DirectionInbound {
			message.Status = "delivered"
		} else {
			message.Status = "sent"
		}
	}
	if message.ReceivedAt.IsZero() {
		message.ReceivedAt = time.Now().UTC()
	}
	message.CreatedAt = time.Now().UTC()

	query := `
        INSERT INTO messages (contact_jid, body, direction, kind, media_url, status, received_at, created_at)
        VALUES (:contact_jid, :body, :direction, :kind, :media_url, :status, :received_at, :created_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, message)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving message",
			"contact_jid", message.ContactJID, "direction", message.Direction, "error", err)
		return fmt.Errorf("failed to save %s message for %s: %w", message.Direction, message.ContactJID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		//nolint:gosec // integer overflow conversion is acceptable here
		message.ID = uint(id)
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving message",
			"contact_jid", message.ContactJID, "error", err)
	}

	s.logger.DebugContext(ctx, "Message saved successfully",
		"contact_jid", message.ContactJID, "direction", message.Direction, "message_id", message.ID)
	return nil
}

// GetRecentMessages retrieves the most recent 'limit' messages for a contact.
// Results come back newest first; callers that need chronological order must
// reverse them.
func (s *sqlxStore) GetRecentMessages(ctx context.Context, contactJID string, limit int) ([]Message, error) {
	if contactJID == "" {
		return nil, fmt.Errorf("contact_jid cannot be empty")
	}

	if limit <= 0 {
		limit = 10
		s.logger.DebugContext(ctx, "Invalid limit provided, using default", "contact_jid", contactJID, "default_limit", limit)
	} else if limit > 100 {
		limit = 100
		s.logger.DebugContext(ctx, "Limit exceeded maximum value, capping", "contact_jid", contactJID, "capped_limit", limit)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var messages []Message
	query := `
        SELECT id, contact_jid, body, direction, kind, media_url, status, received_at, created_at
        FROM messages
        WHERE contact_jid = ?
        ORDER BY received_at DESC, id DESC
        LIMIT ?;
    `

	err := s.db.SelectContext(ctx, &messages, query, contactJID, limit)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching messages",
			"contact_jid", contactJID, "error", err)
		return nil, err
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting recent messages", "contact_jid", contactJID, "limit", limit, "error", err)
		return nil, fmt.Errorf("failed to get recent messages for %s: %w", contactJID, err)
	}

	s.logger.DebugContext(ctx, "Fetched recent messages successfully", "contact_jid", contactJID, "count", len(messages))
	return messages, nil
}

// GetAssistantState retrieves the gating state for a contact.
// Returns nil, nil if the contact has no stored state.
func (s *sqlxStore) GetAssistantState(ctx context.Context, jid string) (*AssistantState, error) {
	if jid == "" {
		return nil, fmt.Errorf("jid cannot be empty")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var contact Contact
	query := `SELECT jid, name, profile_pic_url, assistant_mode, paused_until, created_at, updated_at
	          FROM contacts WHERE jid = ?`

	err := s.db.GetContext(ctx, &contact, query, jid)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Absence of a stored state is equivalent to active; callers decide.
		s.logger.DebugContext(ctx, "No stored assistant state for contact", "jid", jid)
		return nil, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching assistant state",
			"jid", jid, "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting assistant state", "jid", jid, "error", err)
		return nil, fmt.Errorf("failed to get assistant state for %s: %w", jid, err)
	}

	return &AssistantState{Mode: contact.AssistantMode, PausedUntil: contact.PausedUntil}, nil
}

// UpsertAssistantState writes the gating state for a contact.
func (s *sqlxStore) UpsertAssistantState(ctx context.Context, jid, mode string, pausedUntil sql.NullTime) error {
	if jid == "" {
		return fmt.Errorf("jid cannot be empty")
	}
	if mode != ModeActive && mode != ModeDisabled && mode != ModePaused {
		return fmt.Errorf("invalid assistant mode %q", mode)
	}
	if (mode == ModePaused) != pausedUntil.Valid {
		return fmt.Errorf("paused_until must be set if and only if mode is paused")
	}

	now := time.Now().UTC()
	query := `
        INSERT INTO contacts (jid, name, assistant_mode, paused_until, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT (jid) DO UPDATE SET
            assistant_mode = excluded.assistant_mode,
            paused_until = excluded.paused_until,
            updated_at = excluded.updated_at;
    `

	if _, err := s.db.ExecContext(ctx, query, jid, jid, mode, pausedUntil, now, now); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting assistant state", "jid", jid, "mode", mode, "error", err)
		return fmt.Errorf("failed to upsert assistant state for %s: %w", jid, err)
	}

	s.logger.DebugContext(ctx, "Assistant state saved", "jid", jid, "mode", mode, "paused_until", pausedUntil.Time)
	return nil
}

// ResumeIfPaused flips a contact from paused back to active. The WHERE guard
// makes concurrent resume attempts idempotent: only one of them observes an
// affected row.
func (s *sqlxStore) ResumeIfPaused(ctx context.Context, jid string) (bool, error) {
	if jid == "" {
		return false, fmt.Errorf("jid cannot be empty")
	}

	query := `
        UPDATE contacts
        SET assistant_mode = ?, paused_until = NULL, updated_at = ?
        WHERE jid = ? AND assistant_mode = ?;
    `

	result, err := s.db.ExecContext(ctx, query, ModeActive, time.Now().UTC(), jid, ModePaused)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error resuming paused contact", "jid", jid, "error", err)
		return false, fmt.Errorf("failed to resume contact %s: %w", jid, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count for resume", "jid", jid, "error", err)
		return false, nil
	}

	return affected > 0, nil
}

// ResumeExpiredPauses resumes every contact whose pause expired as of 'now'.
func (s *sqlxStore) ResumeExpiredPauses(ctx context.Context, now time.Time) (int64, error) {
	query := `
        UPDATE contacts
        SET assistant_mode = ?, paused_until = NULL, updated_at = ?
        WHERE assistant_mode = ? AND paused_until IS NOT NULL AND paused_until <= ?;
    `

	result, err := s.db.ExecContext(ctx, query, ModeActive, now.UTC(), ModePaused, now.UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "Error resuming expired pauses", "error", err)
		return 0, fmt.Errorf("failed to resume expired pauses: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count for pause sweep", "error", err)
		return 0, nil
	}

	if count > 0 {
		s.logger.InfoContext(ctx, "Resumed contacts with expired pauses", "count", count)
	}
	return count, nil
}

// UpsertContactInfo writes contact metadata without touching gating state.
func (s *sqlxStore) UpsertContactInfo(ctx context.Context, jid, name string, profilePicURL sql.NullString) error {
	if jid == "" {
		return fmt.Errorf("jid cannot be empty")
	}
	if name == "" {
		name = jid
	}

	now := time.Now().UTC()
	query := `
        INSERT INTO contacts (jid, name, profile_pic_url, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT (jid) DO UPDATE SET
            name = excluded.name,
            profile_pic_url = excluded.profile_pic_url,
            updated_at = excluded.updated_at;
    `

	if _, err := s.db.ExecContext(ctx, query, jid, name, profilePicURL, now, now); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting contact info", "jid", jid, "error", err)
		return fmt.Errorf("failed to upsert contact info for %s: %w", jid, err)
	}

	s.logger.DebugContext(ctx, "Contact info saved", "jid", jid, "has_pic", profilePicURL.Valid)
	return nil
}

// SetTypingIndicator upserts the persisted typing flag for a chat.
func (s *sqlxStore) SetTypingIndicator(ctx context.Context, chatJID string, typing bool) error {
	if chatJID == "" {
		return fmt.Errorf("chat_jid cannot be empty")
	}

	query := `
        INSERT INTO typing_status (chat_jid, is_typing, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT (chat_jid) DO UPDATE SET
            is_typing = excluded.is_typing,
            updated_at = excluded.updated_at;
    `

	if _, err := s.db.ExecContext(ctx, query, chatJID, typing, time.Now().UTC()); err != nil {
		s.logger.WarnContext(ctx, "Failed to update typing status", "chat_jid", chatJID, "typing", typing, "error", err)
		return fmt.Errorf("failed to set typing status for %s: %w", chatJID, err)
	}

	return nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
