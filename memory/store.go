// Package memory provides a goroutine-safe in-memory sagabox.Store,
// useful for tests and as the reference backend semantics.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/velmie/sagabox"
)

// ErrInstanceNotFound is returned by LoadState for unknown instances.
var ErrInstanceNotFound = errors.New("sagabox memory: instance not found")

// Store is an in-memory implementation of sagabox.Store backed by maps and
// slices. Rows keep insertion order, which is also Seq order.
type Store struct {
	mu        sync.RWMutex
	seq       int64
	instances map[string]sagabox.InstanceState
	commands  []sagabox.PendingCommand
	scheduled []sagabox.PendingScheduledCommand
}

var _ sagabox.Store = (*Store)(nil)
var _ sagabox.BacklogCounter = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		instances: make(map[string]sagabox.InstanceState),
	}
}

// Save implements sagabox.Store. The whole write happens under one lock, so
// state and rows commit atomically.
func (s *Store) Save(ctx context.Context, state sagabox.InstanceState, commands []sagabox.PendingCommand, scheduled []sagabox.PendingScheduledCommand) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.instances[state.ID]
	switch {
	case !exists && state.Revision != 0:
		return sagabox.ErrConcurrencyConflict
	case exists && current.Revision != state.Revision:
		return sagabox.ErrConcurrencyConflict
	}

	saved := state
	saved.Revision = state.Revision + 1
	s.instances[state.ID] = saved

	for _, row := range commands {
		s.seq++
		row.Seq = s.seq
		s.commands = append(s.commands, row)
	}
	for _, row := range scheduled {
		s.seq++
		row.Seq = s.seq
		s.scheduled = append(s.scheduled, row)
	}

	return nil
}

// LoadState returns the stored snapshot for an instance.
func (s *Store) LoadState(ctx context.Context, instanceID string) (sagabox.InstanceState, error) {
	if err := ctx.Err(); err != nil {
		return sagabox.InstanceState{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.instances[instanceID]
	if !ok {
		return sagabox.InstanceState{}, ErrInstanceNotFound
	}

	return state, nil
}

// ListCommands implements sagabox.Store.
func (s *Store) ListCommands(ctx context.Context, instanceID string) ([]sagabox.PendingCommand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []sagabox.PendingCommand
	for _, row := range s.commands {
		if row.InstanceID == instanceID {
			out = append(out, row)
		}
	}

	return out, nil
}

// ListScheduled implements sagabox.Store.
func (s *Store) ListScheduled(ctx context.Context, instanceID string) ([]sagabox.PendingScheduledCommand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []sagabox.PendingScheduledCommand
	for _, row := range s.scheduled {
		if row.InstanceID == instanceID {
			out = append(out, row)
		}
	}

	return out, nil
}

// DeleteCommand implements sagabox.Store.
func (s *Store) DeleteCommand(ctx context.Context, seq int64) (sagabox.DeleteOutcome, error) {
	if err := ctx.Err(); err != nil {
		return sagabox.AlreadyGone, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, row := range s.commands {
		if row.Seq == seq {
			s.commands = append(s.commands[:i], s.commands[i+1:]...)

			return sagabox.Deleted, nil
		}
	}

	return sagabox.AlreadyGone, nil
}

// DeleteScheduled implements sagabox.Store.
func (s *Store) DeleteScheduled(ctx context.Context, seq int64) (sagabox.DeleteOutcome, error) {
	if err := ctx.Err(); err != nil {
		return sagabox.AlreadyGone, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, row := range s.scheduled {
		if row.Seq == seq {
			s.scheduled = append(s.scheduled[:i], s.scheduled[i+1:]...)

			return sagabox.Deleted, nil
		}
	}

	return sagabox.AlreadyGone, nil
}

// CommandOwners implements sagabox.Store.
func (s *Store) CommandOwners(ctx context.Context, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return distinctOwners(s.commands, limit), nil
}

// ScheduledOwners implements sagabox.Store.
func (s *Store) ScheduledOwners(ctx context.Context, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	owners := make([]string, 0, len(s.scheduled))
	for _, row := range s.scheduled {
		owners = append(owners, row.InstanceID)
	}

	return dedupe(owners, limit), nil
}

// BacklogCount implements sagabox.BacklogCounter.
func (s *Store) BacklogCount(ctx context.Context) (int, int, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.commands), len(s.scheduled), nil
}

func distinctOwners(rows []sagabox.PendingCommand, limit int) []string {
	owners := make([]string, 0, len(rows))
	for _, row := range rows {
		owners = append(owners, row.InstanceID)
	}

	return dedupe(owners, limit)
}

func dedupe(ids []string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, limit)
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}

	return out
}
