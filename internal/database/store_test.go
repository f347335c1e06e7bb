package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapzap/zapzap-assist/migrations"

	_ "modernc.org/sqlite"
)

const testJID = "5511999990000@s.whatsapp.net"

func newTestStore(t *testing.T) Store {
	t.Helper()

	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := migrations.FS.ReadFile("0001_init.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	return NewStore(db, nil)
}

func TestSaveAndGetRecentMessages(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	bodies := []string{"primeira", "segunda", "terceira"}
	for i, body := range bodies {
		direction := DirectionInbound
		if i%2 == 1 {
			direction = DirectionOutbound
		}
		require.NoError(t, store.SaveMessage(ctx, &Message{
			ContactJID: testJID,
			Body:       body,
			Direction:  direction,
			Kind:       KindText,
			ReceivedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	msgs, err := store.GetRecentMessages(ctx, testJID, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	// Newest first.
	assert.Equal(t, "terceira", msgs[0].Body)
	assert.Equal(t, "segunda", msgs[1].Body)
}

func TestGetRecentMessagesScopedToContact(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveMessage(ctx, &Message{
		ContactJID: testJID, Body: "minha", Direction: DirectionInbound, Kind: KindText, ReceivedAt: time.Now(),
	}))
	require.NoError(t, store.SaveMessage(ctx, &Message{
		ContactJID: "other@s.whatsapp.net", Body: "alheia", Direction: DirectionInbound, Kind: KindText, ReceivedAt: time.Now(),
	}))

	msgs, err := store.GetRecentMessages(ctx, testJID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "minha", msgs[0].Body)
}

func TestAssistantStateLifecycle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	// Unknown contact has no state.
	state, err := store.GetAssistantState(ctx, testJID)
	require.NoError(t, err)
	assert.Nil(t, state)

	until := sql.NullTime{Time: time.Now().Add(time.Hour).UTC(), Valid: true}
	require.NoError(t, store.UpsertAssistantState(ctx, testJID, ModePaused, until))

	state, err = store.GetAssistantState(ctx, testJID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, ModePaused, state.Mode)
	assert.True(t, state.PausedUntil.Valid)

	// Moving back to active clears the deadline.
	require.NoError(t, store.UpsertAssistantState(ctx, testJID, ModeActive, sql.NullTime{}))
	state, err = store.GetAssistantState(ctx, testJID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, ModeActive, state.Mode)
	assert.False(t, state.PausedUntil.Valid)
}

func TestUpsertAssistantStateRejectsInconsistentPause(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	// Paused without a deadline.
	assert.Error(t, store.UpsertAssistantState(ctx, testJID, ModePaused, sql.NullTime{}))

	// A deadline without paused mode.
	until := sql.NullTime{Time: time.Now().Add(time.Hour), Valid: true}
	assert.Error(t, store.UpsertAssistantState(ctx, testJID, ModeActive, until))
}

func TestResumeIfPausedIsGuarded(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	until := sql.NullTime{Time: time.Now().Add(-time.Minute).UTC(), Valid: true}
	require.NoError(t, store.UpsertAssistantState(ctx, testJID, ModePaused, until))

	resumed, err := store.ResumeIfPaused(ctx, testJID)
	require.NoError(t, err)
	assert.True(t, resumed)

	// A second attempt finds nothing to transition.
	resumed, err = store.ResumeIfPaused(ctx, testJID)
	require.NoError(t, err)
	assert.False(t, resumed)

	// Non-paused contacts are never touched.
	resumed, err = store.ResumeIfPaused(ctx, "unknown@s.whatsapp.net")
	require.NoError(t, err)
	assert.False(t, resumed)

	state, err := store.GetAssistantState(ctx, testJID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, ModeActive, state.Mode)
	assert.False(t, state.PausedUntil.Valid)
}

func TestResumeExpiredPauses(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := sql.NullTime{Time: now.Add(-time.Minute), Valid: true}
	pending := sql.NullTime{Time: now.Add(time.Hour), Valid: true}
	require.NoError(t, store.UpsertAssistantState(ctx, "a@s.whatsapp.net", ModePaused, expired))
	require.NoError(t, store.UpsertAssistantState(ctx, "b@s.whatsapp.net", ModePaused, pending))

	n, err := store.ResumeExpiredPauses(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	state, err := store.GetAssistantState(ctx, "a@s.whatsapp.net")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, ModeActive, state.Mode)

	state, err = store.GetAssistantState(ctx, "b@s.whatsapp.net")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, ModePaused, state.Mode)
}

func TestUpsertContactInfoKeepsGatingState(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	until := sql.NullTime{Time: time.Now().Add(time.Hour).UTC(), Valid: true}
	require.NoError(t, store.UpsertAssistantState(ctx, testJID, ModePaused, until))

	pic := sql.NullString{String: "https://example.com/pic.jpg", Valid: true}
	require.NoError(t, store.UpsertContactInfo(ctx, testJID, "Maria", pic))

	state, err := store.GetAssistantState(ctx, testJID)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, ModePaused, state.Mode)
	assert.True(t, state.PausedUntil.Valid)
}

func TestSetTypingIndicatorUpserts(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetTypingIndicator(ctx, testJID, true))
	require.NoError(t, store.SetTypingIndicator(ctx, testJID, false))
	require.NoError(t, store.SetTypingIndicator(ctx, testJID, true))
}
