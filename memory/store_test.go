package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/velmie/sagabox"
)

func save(t *testing.T, store *Store, state sagabox.InstanceState, commands []sagabox.PendingCommand, scheduled []sagabox.PendingScheduledCommand) {
	t.Helper()
	if err := store.Save(context.Background(), state, commands, scheduled); err != nil {
		t.Fatalf("save failed: %v", err)
	}
}

func TestSaveAssignsAscendingSeq(t *testing.T) {
	store := New()
	rows := []sagabox.PendingCommand{
		{InstanceID: "a", MessageID: uuid.New(), Payload: []byte(`{}`)},
		{InstanceID: "a", MessageID: uuid.New(), Payload: []byte(`{}`)},
		{InstanceID: "a", MessageID: uuid.New(), Payload: []byte(`{}`)},
	}
	save(t, store, sagabox.InstanceState{ID: "a", Kind: "k"}, rows, nil)

	listed, err := store.ListCommands(context.Background(), "a")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(listed))
	}
	for i := 1; i < len(listed); i++ {
		if listed[i].Seq <= listed[i-1].Seq {
			t.Fatalf("seq not ascending: %d after %d", listed[i].Seq, listed[i-1].Seq)
		}
	}
}

func TestSaveRevisionConflicts(t *testing.T) {
	store := New()
	save(t, store, sagabox.InstanceState{ID: "a", Kind: "k"}, nil, nil)

	// Stale revision.
	err := store.Save(context.Background(), sagabox.InstanceState{ID: "a", Kind: "k", Revision: 0}, nil, nil)
	if !errors.Is(err, sagabox.ErrConcurrencyConflict) {
		t.Fatalf("expected conflict on stale revision, got %v", err)
	}

	// Unknown instance with nonzero revision.
	err = store.Save(context.Background(), sagabox.InstanceState{ID: "b", Kind: "k", Revision: 3}, nil, nil)
	if !errors.Is(err, sagabox.ErrConcurrencyConflict) {
		t.Fatalf("expected conflict on unknown instance, got %v", err)
	}

	// Matching revision advances.
	save(t, store, sagabox.InstanceState{ID: "a", Kind: "k", Revision: 1}, nil, nil)
	state, err := store.LoadState(context.Background(), "a")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if state.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", state.Revision)
	}
}

func TestDeleteOutcomes(t *testing.T) {
	store := New()
	rows := []sagabox.PendingCommand{{InstanceID: "a", MessageID: uuid.New(), Payload: []byte(`{}`)}}
	save(t, store, sagabox.InstanceState{ID: "a", Kind: "k"}, rows, nil)

	listed, err := store.ListCommands(context.Background(), "a")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	outcome, err := store.DeleteCommand(context.Background(), listed[0].Seq)
	if err != nil || outcome != sagabox.Deleted {
		t.Fatalf("expected Deleted, got %v %v", outcome, err)
	}

	outcome, err = store.DeleteCommand(context.Background(), listed[0].Seq)
	if err != nil || outcome != sagabox.AlreadyGone {
		t.Fatalf("expected AlreadyGone on repeat delete, got %v %v", outcome, err)
	}
}

func TestOwnersDistinctAndLimited(t *testing.T) {
	store := New()
	for _, id := range []string{"a", "b", "c"} {
		rows := []sagabox.PendingCommand{
			{InstanceID: id, MessageID: uuid.New(), Payload: []byte(`{}`)},
			{InstanceID: id, MessageID: uuid.New(), Payload: []byte(`{}`)},
		}
		save(t, store, sagabox.InstanceState{ID: id, Kind: "k"}, rows, nil)
	}

	owners, err := store.CommandOwners(context.Background(), 2)
	if err != nil {
		t.Fatalf("owners failed: %v", err)
	}
	if len(owners) != 2 {
		t.Fatalf("expected limit of 2 owners, got %d", len(owners))
	}
	if owners[0] == owners[1] {
		t.Fatalf("owners not distinct: %v", owners)
	}

	all, err := store.CommandOwners(context.Background(), 10)
	if err != nil {
		t.Fatalf("owners failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 owners, got %d", len(all))
	}
}

func TestBacklogCount(t *testing.T) {
	store := New()
	rows := []sagabox.PendingCommand{{InstanceID: "a", MessageID: uuid.New(), Payload: []byte(`{}`)}}
	scheduled := []sagabox.PendingScheduledCommand{{
		PendingCommand: sagabox.PendingCommand{InstanceID: "a", MessageID: uuid.New(), Payload: []byte(`{}`)},
		ScheduledAt:    time.Now().Add(time.Hour),
	}}
	save(t, store, sagabox.InstanceState{ID: "a", Kind: "k"}, rows, scheduled)

	commands, sched, err := store.BacklogCount(context.Background())
	if err != nil {
		t.Fatalf("backlog failed: %v", err)
	}
	if commands != 1 || sched != 1 {
		t.Fatalf("expected 1/1, got %d/%d", commands, sched)
	}
}
