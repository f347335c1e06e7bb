package database

import (
	"database/sql"
	"time"
)

// Message direction values.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Message kind values.
const (
	KindText  = "text"
	KindAudio = "audio"
	KindImage = "image"
)

// Assistant gating modes. PausedUntil on a Contact is non-NULL exactly when
// the mode is ModePaused.
const (
	ModeActive   = "active"
	ModeDisabled = "disabled"
	ModePaused   = "paused"
)

// Message represents one direct-chat message, inbound or outbound. Inbound
// rows are persisted with status "delivered", outbound rows default to "sent".
type Message struct {
	ID         uint           `db:"id"`
	ContactJID string         `db:"contact_jid"`
	Body       string         `db:"body"`
	Direction  string         `db:"direction"`
	Kind       string         `db:"kind"`
	MediaURL   sql.NullString `db:"media_url"`
	Status     string         `db:"status"`
	ReceivedAt time.Time      `db:"received_at"`
	CreatedAt  time.Time      `db:"created_at"`
}

// Contact stores per-contact metadata and the assistant gating state.
// Rows are created lazily on first sighting or first control-surface write
// and are never deleted, only overwritten.
type Contact struct {
	JID           string         `db:"jid"`
	Name          string         `db:"name"`
	ProfilePicURL sql.NullString `db:"profile_pic_url"`
	AssistantMode string         `db:"assistant_mode"`
	PausedUntil   sql.NullTime   `db:"paused_until"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

// AssistantState is the gating view of a contact.
type AssistantState struct {
	Mode        string
	PausedUntil sql.NullTime
}
