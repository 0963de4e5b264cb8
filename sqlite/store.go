package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/velmie/sagabox"
)

// Store implements sagabox.Store on a SQLite database.
type Store struct {
	db      *sql.DB
	cfg     Config
	queries queries
}

var _ sagabox.Store = (*Store)(nil)
var _ sagabox.BacklogCounter = (*Store)(nil)

// NewStore constructs a SQLite store with validated configuration.
func NewStore(db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, ErrDBRequired
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	prefix, err := sanitizePrefix(cfg.Prefix)
	if err != nil {
		return nil, err
	}

	store := &Store{
		db:      db,
		cfg:     cfg,
		queries: newQueries(prefix),
	}
	if cfg.InitSchema {
		if err := store.initSchema(prefix); err != nil {
			return nil, err
		}
	}

	return store, nil
}

func (s *Store) initSchema(prefix string) error {
	ddl, err := Schema(prefix)
	if err != nil {
		return err
	}
	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("sagabox sqlite: init schema failed: %w", err)
		}
	}

	return nil
}

// Save implements sagabox.Store: the state upsert and all row inserts commit
// in one transaction, or not at all.
func (s *Store) Save(ctx context.Context, state sagabox.InstanceState, commands []sagabox.PendingCommand, scheduled []sagabox.PendingScheduledCommand) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sagabox sqlite: begin tx failed: %w", err)
	}

	if err := s.saveTx(ctx, tx, state, commands, scheduled); err != nil {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			return errors.Join(err, fmt.Errorf("sagabox sqlite: rollback failed: %w", rollbackErr))
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sagabox sqlite: commit failed: %w", err)
	}

	return nil
}

func (s *Store) saveTx(ctx context.Context, tx *sql.Tx, state sagabox.InstanceState, commands []sagabox.PendingCommand, scheduled []sagabox.PendingScheduledCommand) error {
	if err := s.upsertState(ctx, tx, state); err != nil {
		return err
	}

	for _, row := range commands {
		if _, err := tx.ExecContext(
			ctx,
			s.queries.insertCommand,
			row.InstanceID,
			row.MessageID.String(),
			row.CorrelationID,
			[]byte(row.Payload),
		); err != nil {
			return fmt.Errorf("sagabox sqlite: insert command failed: %w", err)
		}
	}

	for _, row := range scheduled {
		if _, err := tx.ExecContext(
			ctx,
			s.queries.insertScheduled,
			row.InstanceID,
			row.MessageID.String(),
			row.CorrelationID,
			[]byte(row.Payload),
			row.ScheduledAt.UTC().UnixMicro(),
		); err != nil {
			return fmt.Errorf("sagabox sqlite: insert scheduled failed: %w", err)
		}
	}

	return nil
}

func (s *Store) upsertState(ctx context.Context, tx *sql.Tx, state sagabox.InstanceState) error {
	res, err := tx.ExecContext(ctx, s.queries.updateState, state.Kind, state.State, state.ID, state.Revision)
	if err != nil {
		return fmt.Errorf("sagabox sqlite: update state failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sagabox sqlite: rows affected failed: %w", err)
	}
	if affected > 0 {
		return nil
	}
	if state.Revision != 0 {
		return sagabox.ErrConcurrencyConflict
	}

	if _, err := tx.ExecContext(ctx, s.queries.insertState, state.ID, state.Kind, state.State); err != nil {
		if isUniqueViolation(err) {
			return sagabox.ErrConcurrencyConflict
		}

		return fmt.Errorf("sagabox sqlite: insert state failed: %w", err)
	}

	return nil
}

// ListCommands implements sagabox.Store.
func (s *Store) ListCommands(ctx context.Context, instanceID string) ([]sagabox.PendingCommand, error) {
	rows, err := s.db.QueryContext(ctx, s.queries.listCommands, instanceID)
	if err != nil {
		return nil, fmt.Errorf("sagabox sqlite: select commands failed: %w", err)
	}
	defer rows.Close()

	var out []sagabox.PendingCommand
	for rows.Next() {
		row, err := scanCommand(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sagabox sqlite: rows failed: %w", err)
	}

	return out, nil
}

// ListScheduled implements sagabox.Store.
func (s *Store) ListScheduled(ctx context.Context, instanceID string) ([]sagabox.PendingScheduledCommand, error) {
	rows, err := s.db.QueryContext(ctx, s.queries.listScheduled, instanceID)
	if err != nil {
		return nil, fmt.Errorf("sagabox sqlite: select scheduled failed: %w", err)
	}
	defer rows.Close()

	var out []sagabox.PendingScheduledCommand
	for rows.Next() {
		var (
			seq         int64
			instID      string
			messageID   string
			correlation string
			payload     []byte
			releaseUs   int64
		)
		if err := rows.Scan(&seq, &instID, &messageID, &correlation, &payload, &releaseUs); err != nil {
			return nil, fmt.Errorf("sagabox sqlite: scan scheduled failed: %w", err)
		}
		parsed, err := uuid.Parse(messageID)
		if err != nil {
			return nil, fmt.Errorf("sagabox sqlite: parse message id failed: %w", err)
		}
		out = append(out, sagabox.PendingScheduledCommand{
			PendingCommand: sagabox.PendingCommand{
				Seq:           seq,
				InstanceID:    instID,
				MessageID:     parsed,
				CorrelationID: correlation,
				Payload:       payload,
			},
			ScheduledAt: time.UnixMicro(releaseUs).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sagabox sqlite: rows failed: %w", err)
	}

	return out, nil
}

// DeleteCommand implements sagabox.Store. Deleting a row that is already gone
// reports AlreadyGone rather than an error.
func (s *Store) DeleteCommand(ctx context.Context, seq int64) (sagabox.DeleteOutcome, error) {
	return s.deleteRow(ctx, s.queries.deleteCommand, seq)
}

// DeleteScheduled implements sagabox.Store.
func (s *Store) DeleteScheduled(ctx context.Context, seq int64) (sagabox.DeleteOutcome, error) {
	return s.deleteRow(ctx, s.queries.deleteScheduled, seq)
}

func (s *Store) deleteRow(ctx context.Context, query string, seq int64) (sagabox.DeleteOutcome, error) {
	res, err := s.db.ExecContext(ctx, query, seq)
	if err != nil {
		return sagabox.AlreadyGone, fmt.Errorf("sagabox sqlite: delete failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return sagabox.AlreadyGone, fmt.Errorf("sagabox sqlite: rows affected failed: %w", err)
	}
	if affected == 0 {
		return sagabox.AlreadyGone, nil
	}

	return sagabox.Deleted, nil
}

// CommandOwners implements sagabox.Store.
func (s *Store) CommandOwners(ctx context.Context, limit int) ([]string, error) {
	return s.owners(ctx, s.queries.commandOwners, limit)
}

// ScheduledOwners implements sagabox.Store.
func (s *Store) ScheduledOwners(ctx context.Context, limit int) ([]string, error) {
	return s.owners(ctx, s.queries.scheduledOwners, limit)
}

func (s *Store) owners(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("sagabox sqlite: select owners failed: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sagabox sqlite: scan owner failed: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sagabox sqlite: rows failed: %w", err)
	}

	return out, nil
}

// BacklogCount implements sagabox.BacklogCounter.
func (s *Store) BacklogCount(ctx context.Context) (int, int, error) {
	var commands, scheduled int
	if err := s.db.QueryRowContext(ctx, s.queries.countCommands).Scan(&commands); err != nil {
		return 0, 0, fmt.Errorf("sagabox sqlite: count commands failed: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, s.queries.countScheduled).Scan(&scheduled); err != nil {
		return 0, 0, fmt.Errorf("sagabox sqlite: count scheduled failed: %w", err)
	}

	return commands, scheduled, nil
}

func scanCommand(rows *sql.Rows) (sagabox.PendingCommand, error) {
	var (
		seq         int64
		instID      string
		messageID   string
		correlation string
		payload     []byte
	)
	if err := rows.Scan(&seq, &instID, &messageID, &correlation, &payload); err != nil {
		return sagabox.PendingCommand{}, fmt.Errorf("sagabox sqlite: scan command failed: %w", err)
	}
	parsed, err := uuid.Parse(messageID)
	if err != nil {
		return sagabox.PendingCommand{}, fmt.Errorf("sagabox sqlite: parse message id failed: %w", err)
	}

	return sagabox.PendingCommand{
		Seq:           seq,
		InstanceID:    instID,
		MessageID:     parsed,
		CorrelationID: correlation,
		Payload:       payload,
	}, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
