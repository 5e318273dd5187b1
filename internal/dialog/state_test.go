package dialog

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*StateStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStateStore(client), mr
}

func TestStateStoreGetMissingUser(t *testing.T) {
	store, _ := newTestStore(t)

	st, err := store.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, PhaseStart, st.Phase)
	assert.Empty(t, st.DNI)
	assert.True(t, st.LastTurnAt.IsZero())
}

func TestStateStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	err := store.SetFields(ctx, "u1", map[string]string{
		fieldPhase:  string(PhaseConfirmID),
		fieldDNI:    "12345678",
		fieldAction: string(ActionComplaint),
		fieldName:   "Ana Pérez",
	})
	require.NoError(t, err)

	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	require.NoError(t, store.Touch(ctx, "u1", now))

	st, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, PhaseConfirmID, st.Phase)
	assert.Equal(t, "12345678", st.DNI)
	assert.Equal(t, ActionComplaint, st.Action)
	assert.Equal(t, "Ana Pérez", st.Name)
	assert.True(t, now.Equal(st.LastTurnAt))
}

func TestStateStoreUnknownPhaseDefaultsToStart(t *testing.T) {
	store, mr := newTestStore(t)

	mr.HSet("user:u1:state", fieldPhase, "fase_inexistente")

	st, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, PhaseStart, st.Phase)
}

func TestStateStoreClearSlots(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetFields(ctx, "u1", map[string]string{
		fieldPhase:      string(PhaseConfirmUpdate),
		fieldDNI:        "11223344",
		fieldAction:     string(ActionUpdate),
		fieldName:       "Ana",
		fieldUpdateSlot: string(FieldPhone),
	}))
	require.NoError(t, store.Touch(ctx, "u1", time.Now()))

	require.NoError(t, store.ClearSlots(ctx, "u1"))

	st, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, PhaseStart, st.Phase)
	assert.Empty(t, st.DNI)
	assert.Empty(t, string(st.Action))
	assert.Empty(t, st.Name)
	assert.Empty(t, string(st.Field))
	// The timestamp survives a reset.
	assert.False(t, st.LastTurnAt.IsZero())
	assert.True(t, mr.Exists("user:u1:state"))
}

func TestStateStoreDeleteField(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetFields(ctx, "u1", map[string]string{
		fieldDNI:  "12345678",
		fieldName: "Ana",
	}))
	require.NoError(t, store.DeleteField(ctx, "u1", fieldDNI))

	st, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, st.DNI)
	assert.Equal(t, "Ana", st.Name)
}

func TestStateStoreDelete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetFields(ctx, "u1", map[string]string{fieldDNI: "1"}))
	require.NoError(t, store.AppendLog(ctx, "u1", speakerUser, "hola"))

	require.NoError(t, store.Delete(ctx, "u1"))
	assert.False(t, mr.Exists("user:u1:state"))
	assert.False(t, mr.Exists("user:u1:log"))
}

func TestStateStoreRecordTTL(t *testing.T) {
	store, mr := newTestStore(t)
	store = store.WithTTL(time.Hour)
	ctx := context.Background()

	require.NoError(t, store.SetFields(ctx, "u1", map[string]string{fieldDNI: "1"}))
	assert.Equal(t, time.Hour, mr.TTL("user:u1:state"))

	require.NoError(t, store.AppendLog(ctx, "u1", speakerUser, "hola"))
	assert.Equal(t, time.Hour, mr.TTL("user:u1:log"))
}

func TestAppendLogKeepsOnlyRecentLines(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 8; i++ {
		require.NoError(t, store.AppendLog(ctx, "u1", speakerUser, fmt.Sprintf("mensaje %d", i)))
	}

	lines, err := store.Lines(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lines, defaultHistoryDepth)
	assert.Equal(t, "Usuario: mensaje 4", lines[0])
	assert.Equal(t, "Usuario: mensaje 8", lines[len(lines)-1])
}

func TestHistoryJoinsLines(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendLog(ctx, "u1", speakerUser, "hola"))
	require.NoError(t, store.AppendLog(ctx, "u1", speakerBot, "¿en qué te ayudo?"))

	history, err := store.History(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Usuario: hola | DECSA: ¿en qué te ayudo?", history)
}

func TestHistoryEmptyForNewUser(t *testing.T) {
	store, _ := newTestStore(t)

	history, err := store.History(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, history)
}
