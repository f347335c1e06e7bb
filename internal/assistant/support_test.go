package assistant

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/zapzap/zapzap-assist/internal/audio"
	"github.com/zapzap/zapzap-assist/internal/config"
	"github.com/zapzap/zapzap-assist/internal/database"
	"github.com/zapzap/zapzap-assist/internal/llm"
	"github.com/zapzap/zapzap-assist/internal/whatsapp"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is an in-memory database.Store.
type fakeStore struct {
	mu       sync.Mutex
	messages []database.Message
	states   map[string]*database.AssistantState
	typing   []bool

	failRecent bool
	failSave   bool
	failState  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[string]*database.AssistantState)}
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) SaveMessage(ctx context.Context, message *database.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errors.New("save failed")
	}
	m := *message
	m.ReceivedAt = time.Now()
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeStore) GetRecentMessages(ctx context.Context, contactJID string, limit int) ([]database.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRecent {
		return nil, errors.New("store unavailable")
	}
	var out []database.Message
	for i := len(f.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if f.messages[i].ContactJID == contactJID {
			out = append(out, f.messages[i])
		}
	}
	return out, nil
}

func (f *fakeStore) GetAssistantState(ctx context.Context, jid string) (*database.AssistantState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failState {
		return nil, errors.New("store unavailable")
	}
	state, ok := f.states[jid]
	if !ok {
		return nil, nil
	}
	copied := *state
	return &copied, nil
}

func (f *fakeStore) UpsertAssistantState(ctx context.Context, jid, mode string, pausedUntil sql.NullTime) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[jid] = &database.AssistantState{Mode: mode, PausedUntil: pausedUntil}
	return nil
}

func (f *fakeStore) ResumeIfPaused(ctx context.Context, jid string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[jid]
	if !ok || state.Mode != database.ModePaused {
		return false, nil
	}
	f.states[jid] = &database.AssistantState{Mode: database.ModeActive}
	return true, nil
}

func (f *fakeStore) ResumeExpiredPauses(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for jid, state := range f.states {
		if state.Mode == database.ModePaused && state.PausedUntil.Valid && !now.Before(state.PausedUntil.Time) {
			f.states[jid] = &database.AssistantState{Mode: database.ModeActive}
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) UpsertContactInfo(ctx context.Context, jid, name string, profilePicURL sql.NullString) error {
	return nil
}

func (f *fakeStore) SetTypingIndicator(ctx context.Context, chatJID string, typing bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, typing)
	return nil
}

func (f *fakeStore) RunSQLMaintenance(ctx context.Context) error { return nil }

func (f *fakeStore) savedMessages() []database.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]database.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

// fakeSession records sends and presence changes; sends can be made to fail
// from a given call number onward.
type fakeSession struct {
	mu        sync.Mutex
	sends     []string
	presences []whatsapp.Presence

	failSendFrom int // 1-based send index; 0 disables
}

func (f *fakeSession) SendText(ctx context.Context, jid, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSendFrom > 0 && len(f.sends)+1 >= f.failSendFrom {
		return errors.New("link down")
	}
	f.sends = append(f.sends, text)
	return nil
}

func (f *fakeSession) SetPresence(ctx context.Context, jid string, state whatsapp.Presence) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presences = append(f.presences, state)
	return nil
}

func (f *fakeSession) ProfilePictureURL(ctx context.Context, jid string) (string, error) {
	return "", nil
}

func (f *fakeSession) Connected() bool { return true }

func (f *fakeSession) Logout(ctx context.Context) error { return nil }

func (f *fakeSession) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sends))
	copy(out, f.sends)
	return out
}

// fakeCompleter returns a canned reply and records what it was asked.
type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	history []llm.Turn
	prompt  string
	calls   int
}

func (f *fakeCompleter) Complete(ctx context.Context, history []llm.Turn, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.history = history
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeProcessor returns a canned transcription result.
type fakeProcessor struct {
	result audio.Result
}

func (f *fakeProcessor) Process(ctx context.Context, audioPath string) audio.Result {
	return f.result
}

func testAssistantConfig() config.AssistantConfig {
	return config.AssistantConfig{
		HistoryLimit:      10,
		ChunkMaxRunes:     800,
		TypingMsPerRune:   20,
		TypingMaxDelay:    2 * time.Second,
		FollowupDelay:     500 * time.Millisecond,
		MediaDir:          "/tmp",
		FFmpegPath:        "ffmpeg",
		AudioReplyEnabled: false,
	}
}

// newTestSequencer builds a sequencer with instant sleeps that records the
// requested delays.
func newTestSequencer(store database.Store, session whatsapp.Session, cfg config.AssistantConfig) (*Sequencer, *[]time.Duration) {
	seq := NewSequencer(store, session, cfg, testLogger())
	delays := &[]time.Duration{}
	var mu sync.Mutex
	seq.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		*delays = append(*delays, d)
		return nil
	}
	return seq, delays
}
