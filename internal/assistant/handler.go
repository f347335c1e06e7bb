package assistant

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/zapzap/zapzap-assist/internal/audio"
	"github.com/zapzap/zapzap-assist/internal/config"
	"github.com/zapzap/zapzap-assist/internal/database"
	"github.com/zapzap/zapzap-assist/internal/llm"
	"github.com/zapzap/zapzap-assist/internal/whatsapp"
)

// User-facing fallback texts, in the assistant's language.
const (
	completionFallbackReply = "Desculpe, estou com problemas técnicos no momento. Tente novamente em alguns instantes."
	audioFallbackReply      = "⚠️ Não entendi o áudio. Pode repetir ou mandar por texto?"
	audioInboundBody        = "[Mensagem de áudio]"
)

// AudioProcessor turns a downloaded voice note into a transcription result.
// Satisfied by audio.Pipeline.
type AudioProcessor interface {
	Process(ctx context.Context, audioPath string) audio.Result
}

// HandlerDeps bundles the collaborators the event handler needs.
type HandlerDeps struct {
	Store      database.Store
	Session    whatsapp.Session
	Completer  llm.Completer
	Pipeline   AudioProcessor
	GateKeeper *GateKeeper
	Builder    *ContextBuilder
	Sequencer  *Sequencer
	Background *Background
	Config     config.AssistantConfig
	Logger     *slog.Logger
}

// Handler routes inbound transport events through classification, gating,
// context assembly, completion and sequenced delivery.
type Handler struct {
	deps HandlerDeps
	log  *slog.Logger
}

// NewHandler validates the dependency set and returns a Handler.
func NewHandler(deps HandlerDeps) (*Handler, error) {
	switch {
	case deps.Store == nil:
		return nil, fmt.Errorf("handler requires a store")
	case deps.Session == nil:
		return nil, fmt.Errorf("handler requires a session")
	case deps.Completer == nil:
		return nil, fmt.Errorf("handler requires a completer")
	case deps.Pipeline == nil:
		return nil, fmt.Errorf("handler requires an audio pipeline")
	case deps.GateKeeper == nil || deps.Builder == nil || deps.Sequencer == nil:
		return nil, fmt.Errorf("handler requires gatekeeper, context builder and sequencer")
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	if deps.Background == nil {
		deps.Background = NewBackground(0, log)
	}
	return &Handler{deps: deps, log: log.With("component", "handler")}, nil
}

// HandleBatch processes one delivered batch of events strictly sequentially.
// An event is fully handled, including its reply sequencing, before the next
// one starts, so two messages in the same batch never interleave.
func (h *Handler) HandleBatch(ctx context.Context, events []whatsapp.Event) {
	for _, ev := range events {
		h.HandleEvent(ctx, ev)
	}
}

// HandleEvent classifies and dispatches a single event. It never returns an
// error: every failure inside the reply flow is logged or converted into a
// user-visible fallback reply.
func (h *Handler) HandleEvent(ctx context.Context, ev whatsapp.Event) {
	switch Classify(ctx, h.log, ev) {
	case DispositionText:
		h.handleText(ctx, ev)
	case DispositionAudio:
		h.handleAudio(ctx, ev)
	}
}

func (h *Handler) handleText(ctx context.Context, ev whatsapp.Event) {
	jid := ev.SenderJID
	h.log.InfoContext(ctx, "Text message received", "jid", jid)

	h.refreshContactDetached(ctx, jid, ev.PushName)

	// History is assembled before the inbound write so the current message
	// appears once, as the prompt, not duplicated as the newest turn.
	history := h.deps.Builder.Build(ctx, jid)

	h.persistInbound(ctx, jid, ev.Text, database.KindText, "")

	if !h.deps.GateKeeper.Allow(ctx, jid) {
		h.log.InfoContext(ctx, "Assistant gated off for contact, message stored only", "jid", jid)
		return
	}

	reply, err := h.deps.Completer.Complete(ctx, history, ev.Text)
	if err != nil {
		h.log.ErrorContext(ctx, "Completion failed, sending fallback reply", "jid", jid, "error", err)
		reply = completionFallbackReply
	}

	h.deliver(ctx, jid, reply)
}

func (h *Handler) handleAudio(ctx context.Context, ev whatsapp.Event) {
	jid := ev.SenderJID
	h.log.InfoContext(ctx, "Audio message received", "jid", jid, "path", ev.AudioPath)

	h.refreshContactDetached(ctx, jid, ev.PushName)

	history := h.deps.Builder.Build(ctx, jid)

	h.persistInbound(ctx, jid, audioInboundBody, database.KindAudio, ev.AudioPath)

	if !h.deps.GateKeeper.Allow(ctx, jid) {
		h.log.InfoContext(ctx, "Assistant gated off for contact, audio stored only", "jid", jid)
		return
	}

	// Transcription and the follow-up reply run detached so a long ffmpeg or
	// model call never stalls the rest of the batch.
	bg := context.WithoutCancel(ctx)
	h.deps.Background.Launch("audio_reply", func() error {
		return h.processAudioReply(bg, jid, ev.AudioPath, history)
	})
}

func (h *Handler) processAudioReply(ctx context.Context, jid, audioPath string, history []llm.Turn) error {
	result := h.deps.Pipeline.Process(ctx, audioPath)
	if !result.OK() {
		h.log.WarnContext(ctx, "Audio transcription failed", "jid", jid,
			"kind", result.Failure.Kind, "detail", result.Failure.Detail)
		return h.deliver(ctx, jid, audioFallbackReply)
	}

	h.log.InfoContext(ctx, "Audio transcribed", "jid", jid, "chars", len(result.Text))

	if h.deps.Config.AudioReplyEnabled {
		echo := fmt.Sprintf("🗣️ Ouvido: \"%s\"", result.Text)
		if err := h.deps.Session.SendText(ctx, jid, echo); err != nil {
			h.log.WarnContext(ctx, "Failed to send transcription echo", "jid", jid, "error", err)
		}
	}

	reply, err := h.deps.Completer.Complete(ctx, history, result.Text)
	if err != nil {
		h.log.ErrorContext(ctx, "Completion failed for transcribed audio", "jid", jid, "error", err)
		reply = completionFallbackReply
	}

	return h.deliver(ctx, jid, reply)
}

// deliver formats and sequences a reply. Delivery failures are logged; the
// returned error only feeds background-task accounting.
func (h *Handler) deliver(ctx context.Context, jid, reply string) error {
	formatted := FormatReply(reply)
	if formatted == "" {
		h.log.WarnContext(ctx, "Empty reply after formatting, nothing to send", "jid", jid)
		return nil
	}
	if err := h.deps.Sequencer.Deliver(ctx, jid, formatted); err != nil {
		h.log.ErrorContext(ctx, "Reply delivery failed", "jid", jid, "error", err)
		return err
	}
	return nil
}

func (h *Handler) persistInbound(ctx context.Context, jid, body, kind, mediaURL string) {
	msg := &database.Message{
		ContactJID: jid,
		Body:       body,
		Direction:  database.DirectionInbound,
		Kind:       kind,
	}
	if mediaURL != "" {
		msg.MediaURL = sql.NullString{String: mediaURL, Valid: true}
	}
	if err := h.deps.Store.SaveMessage(ctx, msg); err != nil {
		h.log.ErrorContext(ctx, "Failed to persist inbound message", "jid", jid, "error", err)
	}
}

func (h *Handler) refreshContactDetached(ctx context.Context, jid, pushName string) {
	bg := context.WithoutCancel(ctx)
	h.deps.Background.Launch("contact_refresh", func() error {
		return RefreshContact(bg, h.deps.Store, h.deps.Session, h.log, jid, pushName)
	})
}
