package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapzap/zapzap-assist/internal/config"
	"github.com/zapzap/zapzap-assist/internal/whatsapp"
)

func TestAppRunStopsCleanlyAfterLogout(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	session := whatsapp.NewSimSession(testLogger())
	background := NewBackground(0, testLogger())
	cfg := testAssistantConfig()
	seq, _ := newTestSequencer(store, session, cfg)

	handler, err := NewHandler(HandlerDeps{
		Store:      store,
		Session:    session,
		Completer:  &fakeCompleter{reply: "ok"},
		Pipeline:   &fakeProcessor{},
		GateKeeper: NewGateKeeper(store, testLogger()),
		Builder:    NewContextBuilder(store, cfg.HistoryLimit, testLogger()),
		Sequencer:  seq,
		Background: background,
		Config:     cfg,
		Logger:     testLogger(),
	})
	require.NoError(t, err)

	scheduler, err := NewScheduler(testLogger(), &config.SchedulerConfig{}, nil)
	require.NoError(t, err)

	app := NewApp(testLogger(), handler, session, scheduler, nil, background)

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	// Logout tears the session down and closes the event stream; the
	// orchestrator must treat that as a clean stop.
	require.NoError(t, session.Logout(context.Background()))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("orchestrator did not stop after logout")
	}
}
