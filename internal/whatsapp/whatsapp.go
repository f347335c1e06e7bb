// Package whatsapp defines the transport contract the assistant core
// consumes: the inbound event model, the Session interface for sending and
// presence, and chat-identifier classification helpers.
//
// The wire-level connection lifecycle (pairing, credential persistence,
// reconnection) lives behind the Session interface in the deployment's
// transport adapter; nothing in this module constructs a socket.
package whatsapp

import (
	"context"
	"strings"
	"time"
)

// Presence states shown to the remote party while composing a reply.
type Presence string

const (
	PresenceComposing Presence = "composing"
	PresencePaused    Presence = "paused"
)

// EventKind classifies the payload of an inbound event.
type EventKind int

const (
	KindOther EventKind = iota
	KindText
	KindAudio
)

// Event is one inbound transport event. It is ephemeral: only derived fields
// are ever persisted.
type Event struct {
	SenderJID string
	FromSelf  bool
	PushName  string
	Kind      EventKind
	// Text carries the plain-conversation body, with the extended-text body
	// already applied as fallback by the transport edge.
	Text string
	// AudioPath points at the downloaded voice-note file for KindAudio events.
	AudioPath string
	Timestamp time.Time
}

// Session is the narrow handle the core uses to talk back through the
// transport. A single session object is owned by the orchestrator and handed
// to every component that needs it; it is never reconstructed implicitly.
type Session interface {
	// SendText delivers one text message to a chat.
	SendText(ctx context.Context, jid, text string) error

	// SetPresence signals a composing/paused presence. Best effort: callers
	// treat failures as cosmetic.
	SetPresence(ctx context.Context, jid string, state Presence) error

	// ProfilePictureURL returns the contact's profile picture URL, or empty
	// if the picture is private or unset.
	ProfilePictureURL(ctx context.Context, jid string) (string, error)

	// Connected reports whether the session currently holds a live link.
	Connected() bool

	// Logout tears the session down and invalidates stored credentials.
	Logout(ctx context.Context) error
}

const (
	directSuffix     = "@s.whatsapp.net"
	statusBroadcast  = "status@broadcast"
	groupSuffix      = "@g.us"
	newsletterSuffix = "@newsletter"
)

// IsDirectChat reports whether a JID identifies a one-to-one conversation.
// Group, broadcast, and newsletter identifiers are not direct chats.
func IsDirectChat(jid string) bool {
	return strings.HasSuffix(jid, directSuffix)
}

// IsStatusBroadcast reports whether a JID targets the broadcast-status channel.
func IsStatusBroadcast(jid string) bool {
	return jid == statusBroadcast
}

// IsGroupChat reports whether a JID identifies a group conversation.
func IsGroupChat(jid string) bool {
	return strings.HasSuffix(jid, groupSuffix)
}

// IsNewsletter reports whether a JID identifies a newsletter channel.
func IsNewsletter(jid string) bool {
	return strings.HasSuffix(jid, newsletterSuffix)
}
