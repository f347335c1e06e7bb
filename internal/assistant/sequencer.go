package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/zapzap/zapzap-assist/internal/config"
	"github.com/zapzap/zapzap-assist/internal/database"
	"github.com/zapzap/zapzap-assist/internal/whatsapp"
)

// Sequencer delivers a formatted reply as one or more chunks with human-like
// pacing: a persisted typing indicator and a composing presence around each
// chunk, a delay proportional to the reply length before the first chunk,
// and a short fixed delay before each continuation chunk.
//
// One in-flight reply sequence per contact is assumed; batch-sequential
// processing guarantees that within this process.
type Sequencer struct {
	store   database.Store
	session whatsapp.Session
	cfg     config.AssistantConfig
	log     *slog.Logger

	// sleep is swappable so tests can observe the delay schedule.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSequencer creates a Sequencer bound to a session and store.
func NewSequencer(store database.Store, session whatsapp.Session, cfg config.AssistantConfig, log *slog.Logger) *Sequencer {
	if log == nil {
		log = slog.Default()
	}
	return &Sequencer{
		store:   store,
		session: session,
		cfg:     cfg,
		log:     log.With("component", "sequencer"),
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SplitMessage chunks formatted text for delivery. Text at or under the
// maximum is returned whole. Longer text splits on double-line-break section
// boundaries, greedily packing sections into chunks; a single section larger
// than the maximum is emitted as its own oversized chunk rather than split
// further.
func SplitMessage(text string, maxRunes int) []string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= maxRunes {
		return []string{text}
	}

	sections := strings.Split(text, "\n\n")
	var parts []string
	var current string

	for _, section := range sections {
		if current != "" && utf8.RuneCountInString(current+"\n\n"+section) > maxRunes {
			parts = append(parts, strings.TrimSpace(current))
			current = section
			continue
		}
		if current == "" {
			current = section
		} else {
			current += "\n\n" + section
		}
	}
	if current != "" {
		parts = append(parts, strings.TrimSpace(current))
	}

	if len(parts) == 0 {
		return []string{text}
	}
	return parts
}

// Deliver sequences the formatted reply to a contact and persists it as a
// single outbound record once sequencing completes. A transport send failure
// aborts the remaining chunks; typing-status and presence failures are
// logged and ignored.
func (s *Sequencer) Deliver(ctx context.Context, jid, formatted string) error {
	chunks := SplitMessage(formatted, s.cfg.ChunkMaxRunes)
	totalRunes := utf8.RuneCountInString(formatted)
	sent := 0

	for i, chunk := range chunks {
		s.setTyping(ctx, jid, true)

		if err := s.session.SetPresence(ctx, jid, whatsapp.PresenceComposing); err != nil {
			s.log.WarnContext(ctx, "Failed to send composing presence", "jid", jid, "error", err)
		}

		if err := s.sleep(ctx, s.chunkDelay(i, totalRunes)); err != nil {
			s.setTyping(ctx, jid, false)
			if sent > 0 {
				s.persistOutbound(ctx, jid, formatted)
			}
			return fmt.Errorf("delivery cancelled while pacing chunk %d: %w", i+1, err)
		}

		s.setTyping(ctx, jid, false)

		if err := s.session.SendText(ctx, jid, chunk); err != nil {
			// Fail fast: once a send fails the session is likely gone and
			// continuing would deliver a gap-riddled reply.
			s.log.ErrorContext(ctx, "Failed to send reply chunk, aborting sequence",
				"jid", jid, "chunk", i+1, "total", len(chunks), "error", err)
			if sent > 0 {
				s.persistOutbound(ctx, jid, formatted)
			}
			return fmt.Errorf("failed to send chunk %d of %d: %w", i+1, len(chunks), err)
		}

		sent++
		s.log.InfoContext(ctx, "Reply chunk sent", "jid", jid, "chunk", i+1, "total", len(chunks))
	}

	if err := s.session.SetPresence(ctx, jid, whatsapp.PresencePaused); err != nil {
		s.log.WarnContext(ctx, "Failed to send paused presence", "jid", jid, "error", err)
	}

	s.persistOutbound(ctx, jid, formatted)
	return nil
}

// chunkDelay computes the pre-send pause for chunk index i. The first chunk
// scales with the whole reply's length, capped; continuation chunks use a
// short fixed delay.
func (s *Sequencer) chunkDelay(i, totalRunes int) time.Duration {
	if i > 0 {
		return s.cfg.FollowupDelay
	}
	d := time.Duration(totalRunes*s.cfg.TypingMsPerRune) * time.Millisecond
	if d > s.cfg.TypingMaxDelay {
		d = s.cfg.TypingMaxDelay
	}
	return d
}

func (s *Sequencer) setTyping(ctx context.Context, jid string, typing bool) {
	if err := s.store.SetTypingIndicator(ctx, jid, typing); err != nil {
		s.log.WarnContext(ctx, "Failed to persist typing indicator", "jid", jid, "typing", typing, "error", err)
	}
}

func (s *Sequencer) persistOutbound(ctx context.Context, jid, body string) {
	msg := &database.Message{
		ContactJID: jid,
		Body:       body,
		Direction:  database.DirectionOutbound,
		Kind:       database.KindText,
	}
	if err := s.store.SaveMessage(ctx, msg); err != nil {
		s.log.ErrorContext(ctx, "Failed to persist outbound reply", "jid", jid, "error", err)
	}
}
