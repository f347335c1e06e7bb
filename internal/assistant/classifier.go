package assistant

import (
	"context"
	"log/slog"
	"strings"

	"github.com/zapzap/zapzap-assist/internal/whatsapp"
)

// Disposition is the handling decision for an incoming event.
type Disposition int

const (
	// DispositionIgnore drops the event without any persistence or reply.
	DispositionIgnore Disposition = iota
	// DispositionText routes the event through the text reply flow.
	DispositionText
	// DispositionAudio routes the event through the transcription flow.
	DispositionAudio
)

// Classify decides how an event is handled. Rules apply in order: own
// messages, status broadcasts, group and newsletter chats, and anything
// not addressed to a direct chat are dropped; then audio wins over text;
// events with neither usable text nor audio are dropped.
func Classify(ctx context.Context, log *slog.Logger, ev whatsapp.Event) Disposition {
	if ev.FromSelf || ev.SenderJID == "" {
		return DispositionIgnore
	}
	if whatsapp.IsStatusBroadcast(ev.SenderJID) {
		return DispositionIgnore
	}
	if !whatsapp.IsDirectChat(ev.SenderJID) {
		if log != nil {
			log.DebugContext(ctx, "Ignoring non-direct chat", "jid", ev.SenderJID, "kind", ev.Kind)
		}
		return DispositionIgnore
	}

	if ev.Kind == whatsapp.KindAudio && ev.AudioPath != "" {
		return DispositionAudio
	}
	if strings.TrimSpace(ev.Text) != "" {
		return DispositionText
	}
	return DispositionIgnore
}
