package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/velmie/sagabox"
	"github.com/velmie/sagabox/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "sagabox.db")
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := sqlite.NewStore(db, sqlite.WithInitSchema())
	require.NoError(t, err)

	return store
}

func pendingRow(instanceID string) sagabox.PendingCommand {
	return sagabox.PendingCommand{
		InstanceID:    instanceID,
		MessageID:     uuid.New(),
		CorrelationID: "corr",
		Payload:       []byte(`{"ok":true}`),
	}
}

func TestNewStoreValidation(t *testing.T) {
	_, err := sqlite.NewStore(nil)
	require.ErrorIs(t, err, sqlite.ErrDBRequired)

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "v.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = sqlite.NewStore(db, sqlite.WithPrefix("bad;prefix"))
	require.ErrorIs(t, err, sqlite.ErrInvalidPrefix)
}

func TestSaveListDeleteRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state := sagabox.InstanceState{ID: "pm-1", Kind: "order", State: []byte(`{"s":1}`)}
	rows := []sagabox.PendingCommand{pendingRow("pm-1"), pendingRow("pm-1"), pendingRow("pm-1")}
	require.NoError(t, store.Save(ctx, state, rows, nil))

	listed, err := store.ListCommands(ctx, "pm-1")
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for i := 1; i < len(listed); i++ {
		require.Greater(t, listed[i].Seq, listed[i-1].Seq)
	}
	require.Equal(t, rows[0].MessageID, listed[0].MessageID)
	require.Equal(t, "corr", listed[0].CorrelationID)
	require.JSONEq(t, `{"ok":true}`, string(listed[0].Payload))

	outcome, err := store.DeleteCommand(ctx, listed[0].Seq)
	require.NoError(t, err)
	require.Equal(t, sagabox.Deleted, outcome)

	outcome, err = store.DeleteCommand(ctx, listed[0].Seq)
	require.NoError(t, err)
	require.Equal(t, sagabox.AlreadyGone, outcome)

	remaining, err := store.ListCommands(ctx, "pm-1")
	require.NoError(t, err)
	require.Len(t, remaining, 2)
}

func TestScheduledRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	releaseAt := time.Now().Add(time.Hour).UTC().Truncate(time.Microsecond)
	scheduled := []sagabox.PendingScheduledCommand{{
		PendingCommand: pendingRow("pm-1"),
		ScheduledAt:    releaseAt,
	}}
	state := sagabox.InstanceState{ID: "pm-1", Kind: "order"}
	require.NoError(t, store.Save(ctx, state, nil, scheduled))

	listed, err := store.ListScheduled(ctx, "pm-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.True(t, listed[0].ScheduledAt.Equal(releaseAt), "got %v want %v", listed[0].ScheduledAt, releaseAt)

	outcome, err := store.DeleteScheduled(ctx, listed[0].Seq)
	require.NoError(t, err)
	require.Equal(t, sagabox.Deleted, outcome)
}

func TestRevisionConflicts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state := sagabox.InstanceState{ID: "pm-1", Kind: "order", State: []byte(`{}`)}
	require.NoError(t, store.Save(ctx, state, nil, nil))

	// Stale revision conflicts.
	err := store.Save(ctx, state, nil, nil)
	require.ErrorIs(t, err, sagabox.ErrConcurrencyConflict)

	// Nonzero revision for an unknown instance conflicts.
	err = store.Save(ctx, sagabox.InstanceState{ID: "pm-2", Kind: "order", Revision: 4}, nil, nil)
	require.ErrorIs(t, err, sagabox.ErrConcurrencyConflict)

	// Fresh revision advances.
	state.Revision = 1
	require.NoError(t, store.Save(ctx, state, nil, nil))
}

func TestConflictRollsBackRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	state := sagabox.InstanceState{ID: "pm-1", Kind: "order"}
	require.NoError(t, store.Save(ctx, state, nil, nil))

	// The conflicting save must not leak its pending rows.
	err := store.Save(ctx, state, []sagabox.PendingCommand{pendingRow("pm-1")}, nil)
	require.ErrorIs(t, err, sagabox.ErrConcurrencyConflict)

	commands, scheduled, err := store.BacklogCount(ctx)
	require.NoError(t, err)
	require.Zero(t, commands)
	require.Zero(t, scheduled)
}

func TestOwnersProbe(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"pm-1", "pm-2", "pm-3"} {
		state := sagabox.InstanceState{ID: id, Kind: "order"}
		rows := []sagabox.PendingCommand{pendingRow(id), pendingRow(id)}
		require.NoError(t, store.Save(ctx, state, rows, nil))
	}

	owners, err := store.CommandOwners(ctx, 1)
	require.NoError(t, err)
	require.Len(t, owners, 1)

	owners, err = store.CommandOwners(ctx, 10)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"pm-1", "pm-2", "pm-3"}, owners)

	owners, err = store.ScheduledOwners(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, owners)
}

func TestSchemaRejectsBadPrefix(t *testing.T) {
	_, err := sqlite.Schema("")
	require.ErrorIs(t, err, sqlite.ErrPrefixRequired)

	_, err = sqlite.Schema("drop table")
	require.ErrorIs(t, err, sqlite.ErrInvalidPrefix)

	ddl, err := sqlite.Schema("billing")
	require.NoError(t, err)
	require.Contains(t, ddl, "billing_commands")
	require.Contains(t, ddl, "billing_scheduled_commands")
	require.Contains(t, ddl, "billing_instances")
}
