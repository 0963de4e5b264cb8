package sagabox

import "context"

// DeleteOutcome reports how a pending-row delete resolved.
type DeleteOutcome int

const (
	// Deleted indicates the row existed and was removed.
	Deleted DeleteOutcome = iota
	// AlreadyGone indicates the row was removed by a concurrent flush.
	// Callers treat this as success.
	AlreadyGone
)

// Store is the persistence boundary for process manager state and pending
// command rows. Rows are write-once, delete-once: created by Save, read by
// the flusher in Seq order, and removed after a successful handoff.
type Store interface {
	// Save atomically persists the instance state and appends the pending
	// rows in one transaction. It returns ErrConcurrencyConflict when the
	// stored revision does not match state.Revision.
	Save(ctx context.Context, state InstanceState, commands []PendingCommand, scheduled []PendingScheduledCommand) error
	// ListCommands returns the pending immediate rows for an instance in
	// ascending Seq order.
	ListCommands(ctx context.Context, instanceID string) ([]PendingCommand, error)
	// ListScheduled returns the pending scheduled rows for an instance in
	// ascending Seq order.
	ListScheduled(ctx context.Context, instanceID string) ([]PendingScheduledCommand, error)
	// DeleteCommand removes one immediate row. Losing a delete race is not an
	// error: the store reports AlreadyGone.
	DeleteCommand(ctx context.Context, seq int64) (DeleteOutcome, error)
	// DeleteScheduled removes one scheduled row with the same race semantics.
	DeleteScheduled(ctx context.Context, seq int64) (DeleteOutcome, error)
	// CommandOwners returns up to limit distinct instance ids that have at
	// least one outstanding immediate row.
	CommandOwners(ctx context.Context, limit int) ([]string, error)
	// ScheduledOwners returns up to limit distinct instance ids that have at
	// least one outstanding scheduled row.
	ScheduledOwners(ctx context.Context, limit int) ([]string, error)
}

// BacklogCounter optionally reports the total pending backlog of a store.
type BacklogCounter interface {
	// BacklogCount returns the current number of pending immediate and
	// scheduled rows across all instances.
	BacklogCount(ctx context.Context) (commands, scheduled int, err error)
}
