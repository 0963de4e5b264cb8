package sagabox_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/velmie/sagabox"
	"github.com/velmie/sagabox/memory"
)

type captureSender struct {
	mu      sync.Mutex
	batches [][]sagabox.Envelope
	err     error
}

func (s *captureSender) Send(_ context.Context, envelopes []sagabox.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	batch := make([]sagabox.Envelope, len(envelopes))
	copy(batch, envelopes)
	s.batches = append(s.batches, batch)

	return nil
}

func (s *captureSender) sent() [][]sagabox.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.batches
}

type scheduledSend struct {
	envelope  sagabox.Envelope
	releaseAt time.Time
}

type captureScheduledSender struct {
	mu    sync.Mutex
	sends []scheduledSend
	failN int
}

func (s *captureScheduledSender) Send(_ context.Context, envelope sagabox.Envelope, releaseAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failN > 0 && len(s.sends)+1 == s.failN {
		return errors.New("scheduled channel down")
	}
	s.sends = append(s.sends, scheduledSend{envelope: envelope, releaseAt: releaseAt})

	return nil
}

// spyStore fails the test on any access; used to prove fast-fail paths do no I/O.
type spyStore struct {
	t     *testing.T
	calls int
}

func (s *spyStore) touch() {
	s.calls++
	s.t.Helper()
	s.t.Fatal("unexpected store access")
}

func (s *spyStore) Save(context.Context, sagabox.InstanceState, []sagabox.PendingCommand, []sagabox.PendingScheduledCommand) error {
	s.touch()

	return nil
}

func (s *spyStore) ListCommands(context.Context, string) ([]sagabox.PendingCommand, error) {
	s.touch()

	return nil, nil
}

func (s *spyStore) ListScheduled(context.Context, string) ([]sagabox.PendingScheduledCommand, error) {
	s.touch()

	return nil, nil
}

func (s *spyStore) DeleteCommand(context.Context, int64) (sagabox.DeleteOutcome, error) {
	s.touch()

	return sagabox.Deleted, nil
}

func (s *spyStore) DeleteScheduled(context.Context, int64) (sagabox.DeleteOutcome, error) {
	s.touch()

	return sagabox.Deleted, nil
}

func (s *spyStore) CommandOwners(context.Context, int) ([]string, error) {
	s.touch()

	return nil, nil
}

func (s *spyStore) ScheduledOwners(context.Context, int) ([]string, error) {
	s.touch()

	return nil, nil
}

func seedCommands(t *testing.T, store *memory.Store, instanceID string, n int) []sagabox.PendingCommand {
	t.Helper()

	rows := make([]sagabox.PendingCommand, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, sagabox.PendingCommand{
			InstanceID:    instanceID,
			MessageID:     uuid.New(),
			CorrelationID: "corr-1",
			Payload:       json.RawMessage(fmt.Sprintf(`{"n":%d}`, i)),
		})
	}
	state := sagabox.InstanceState{ID: instanceID, Kind: "test", State: []byte(`{}`)}
	if err := store.Save(context.Background(), state, rows, nil); err != nil {
		t.Fatalf("seed save failed: %v", err)
	}

	listed, err := store.ListCommands(context.Background(), instanceID)
	if err != nil {
		t.Fatalf("seed list failed: %v", err)
	}

	return listed
}

func backlog(t *testing.T, store *memory.Store) (int, int) {
	t.Helper()

	commands, scheduled, err := store.BacklogCount(context.Background())
	if err != nil {
		t.Fatalf("backlog count failed: %v", err)
	}

	return commands, scheduled
}

func TestFlushDeliversBatchInProducedOrder(t *testing.T) {
	store := memory.New()
	sender := &captureSender{}
	flusher := sagabox.NewFlusher(store, sagabox.RawJSON{}, sender, nil)

	seeded := seedCommands(t, store, "pm-1", 5)

	if err := flusher.Flush(context.Background(), "pm-1"); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	batches := sender.sent()
	if len(batches) != 1 {
		t.Fatalf("expected a single batch send, got %d", len(batches))
	}
	if len(batches[0]) != len(seeded) {
		t.Fatalf("expected %d envelopes, got %d", len(seeded), len(batches[0]))
	}
	for i, envelope := range batches[0] {
		if envelope.MessageID != seeded[i].MessageID {
			t.Fatalf("envelope %d out of order: got %s, want %s", i, envelope.MessageID, seeded[i].MessageID)
		}
		if envelope.CorrelationID != "corr-1" {
			t.Fatalf("envelope %d lost correlation id: %q", i, envelope.CorrelationID)
		}
	}

	if commands, _ := backlog(t, store); commands != 0 {
		t.Fatalf("expected empty store after flush, %d rows remain", commands)
	}
}

func TestFlushEmptyInstanceIDDoesNoIO(t *testing.T) {
	spy := &spyStore{t: t}
	flusher := sagabox.NewFlusher(spy, sagabox.RawJSON{}, &captureSender{}, nil)

	err := flusher.Flush(context.Background(), "")
	if !errors.Is(err, sagabox.ErrInstanceIDRequired) {
		t.Fatalf("expected ErrInstanceIDRequired, got %v", err)
	}
	if spy.calls != 0 {
		t.Fatalf("expected no store access, got %d calls", spy.calls)
	}
}

func TestFlushConcurrentFlushesConverge(t *testing.T) {
	store := memory.New()
	sender := &captureSender{}
	flusher := sagabox.NewFlusher(store, sagabox.RawJSON{}, sender, nil)

	seedCommands(t, store, "pm-1", 10)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = flusher.Flush(context.Background(), "pm-1")
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("flush %d failed on delete race: %v", i, err)
		}
	}
	if commands, _ := backlog(t, store); commands != 0 {
		t.Fatalf("expected empty store after concurrent flushes, %d rows remain", commands)
	}
}

func TestFlushDeliveryFailureRetainsRows(t *testing.T) {
	store := memory.New()
	sendErr := errors.New("channel down")
	sender := &captureSender{err: sendErr}
	flusher := sagabox.NewFlusher(store, sagabox.RawJSON{}, sender, nil)

	seeded := seedCommands(t, store, "pm-1", 4)

	err := flusher.Flush(context.Background(), "pm-1")
	if !errors.Is(err, sendErr) {
		t.Fatalf("expected delivery error to propagate, got %v", err)
	}
	if commands, _ := backlog(t, store); commands != len(seeded) {
		t.Fatalf("expected all %d rows retained, got %d", len(seeded), commands)
	}

	// A retry after the channel recovers delivers only the retained rows.
	sender.err = nil
	if err := flusher.Flush(context.Background(), "pm-1"); err != nil {
		t.Fatalf("retry flush failed: %v", err)
	}
	batches := sender.sent()
	if len(batches) != 1 || len(batches[0]) != len(seeded) {
		t.Fatalf("expected one retry batch of %d, got %v batches", len(seeded), len(batches))
	}
	if commands, _ := backlog(t, store); commands != 0 {
		t.Fatalf("expected empty store after retry, %d rows remain", commands)
	}
}

func TestFlushScheduledSendsPerItem(t *testing.T) {
	store := memory.New()
	scheduledSender := &captureScheduledSender{}
	flusher := sagabox.NewFlusher(store, sagabox.RawJSON{}, &captureSender{}, scheduledSender)

	releaseAt := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Microsecond)
	rows := []sagabox.PendingScheduledCommand{
		{
			PendingCommand: sagabox.PendingCommand{
				InstanceID: "pm-1",
				MessageID:  uuid.New(),
				Payload:    json.RawMessage(`{"n":0}`),
			},
			ScheduledAt: releaseAt,
		},
		{
			PendingCommand: sagabox.PendingCommand{
				InstanceID: "pm-1",
				MessageID:  uuid.New(),
				Payload:    json.RawMessage(`{"n":1}`),
			},
			ScheduledAt: releaseAt.Add(time.Minute),
		},
	}
	state := sagabox.InstanceState{ID: "pm-1", Kind: "test"}
	if err := store.Save(context.Background(), state, nil, rows); err != nil {
		t.Fatalf("seed save failed: %v", err)
	}

	if err := flusher.Flush(context.Background(), "pm-1"); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	if len(scheduledSender.sends) != 2 {
		t.Fatalf("expected 2 scheduled sends, got %d", len(scheduledSender.sends))
	}
	if !scheduledSender.sends[0].releaseAt.Equal(releaseAt) {
		t.Fatalf("release time not preserved: %v", scheduledSender.sends[0].releaseAt)
	}
	if _, scheduled := backlog(t, store); scheduled != 0 {
		t.Fatalf("expected empty scheduled store, %d rows remain", scheduled)
	}
}

func TestFlushScheduledFailureRetainsRemainder(t *testing.T) {
	store := memory.New()
	scheduledSender := &captureScheduledSender{failN: 2}
	flusher := sagabox.NewFlusher(store, sagabox.RawJSON{}, &captureSender{}, scheduledSender)

	releaseAt := time.Now().Add(time.Hour)
	rows := make([]sagabox.PendingScheduledCommand, 3)
	for i := range rows {
		rows[i] = sagabox.PendingScheduledCommand{
			PendingCommand: sagabox.PendingCommand{
				InstanceID: "pm-1",
				MessageID:  uuid.New(),
				Payload:    json.RawMessage(fmt.Sprintf(`{"n":%d}`, i)),
			},
			ScheduledAt: releaseAt,
		}
	}
	state := sagabox.InstanceState{ID: "pm-1", Kind: "test"}
	if err := store.Save(context.Background(), state, nil, rows); err != nil {
		t.Fatalf("seed save failed: %v", err)
	}

	if err := flusher.Flush(context.Background(), "pm-1"); err == nil {
		t.Fatal("expected scheduled delivery error")
	}

	// The first item was sent and deleted; the failed one and the rest remain.
	if _, scheduled := backlog(t, store); scheduled != 2 {
		t.Fatalf("expected 2 scheduled rows retained, got %d", scheduled)
	}
}

func TestFlushScheduledWithoutSender(t *testing.T) {
	store := memory.New()
	flusher := sagabox.NewFlusher(store, sagabox.RawJSON{}, &captureSender{}, nil)

	rows := []sagabox.PendingScheduledCommand{{
		PendingCommand: sagabox.PendingCommand{
			InstanceID: "pm-1",
			MessageID:  uuid.New(),
			Payload:    json.RawMessage(`{}`),
		},
		ScheduledAt: time.Now().Add(time.Hour),
	}}
	state := sagabox.InstanceState{ID: "pm-1", Kind: "test"}
	if err := store.Save(context.Background(), state, nil, rows); err != nil {
		t.Fatalf("seed save failed: %v", err)
	}

	err := flusher.Flush(context.Background(), "pm-1")
	if !errors.Is(err, sagabox.ErrScheduledSenderRequired) {
		t.Fatalf("expected ErrScheduledSenderRequired, got %v", err)
	}
}
