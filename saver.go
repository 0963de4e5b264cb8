package sagabox

import (
	"context"
	"fmt"
)

// Saver is the transactional boundary of save-and-publish: it persists a
// process manager's new state together with its freshly drained commands in
// one atomic store write, then triggers a flush for the instance.
type Saver struct {
	store      Store
	serializer Serializer
	flusher    *Flusher
	cfg        SaverConfig
}

// NewSaver constructs a Saver with defaults and optional settings.
func NewSaver(store Store, serializer Serializer, flusher *Flusher, opts ...SaverOption) *Saver {
	if store == nil {
		panic("sagabox: nil Store")
	}
	if serializer == nil {
		panic("sagabox: nil Serializer")
	}
	if flusher == nil {
		panic("sagabox: nil Flusher")
	}

	var cfg SaverConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	return &Saver{
		store:      store,
		serializer: serializer,
		flusher:    flusher,
		cfg:        cfg,
	}
}

// SaveAndPublish drains the instance's command buffer, wraps each command in
// a fresh message id plus the supplied correlation id, and commits state and
// pending rows atomically. A commit failure (including
// ErrConcurrencyConflict) aborts the whole operation and no flush is
// attempted; the caller retries the transition from fresh state.
//
// After a successful commit the instance is flushed. A flush failure never
// undoes the commit: it is routed through the configured FailureHandler, and
// unless the handler returns Handled the original error propagates. Either
// way the commands stay durable and a later flush or sweep delivers them.
func (s *Saver) SaveAndPublish(ctx context.Context, instance Instance, correlationID string) error {
	if instance == nil {
		return ErrInstanceRequired
	}
	instanceID := instance.ID()
	if instanceID == "" {
		return ErrInstanceIDRequired
	}

	stateBytes, err := instance.State()
	if err != nil {
		return fmt.Errorf("sagabox: instance state failed: %w", err)
	}
	state := InstanceState{
		ID:       instanceID,
		Kind:     instance.Kind(),
		Revision: instance.Revision(),
		State:    stateBytes,
	}

	commands, scheduled, err := s.wrap(instanceID, correlationID, instance.DrainCommands())
	if err != nil {
		return err
	}

	if err := s.store.Save(ctx, state, commands, scheduled); err != nil {
		return fmt.Errorf("sagabox: save failed: %w", err)
	}
	s.cfg.Logger.Debug("instance saved",
		"instance", instanceID, "commands", len(commands), "scheduled", len(scheduled))

	if err := s.flusher.Flush(ctx, instanceID); err != nil {
		return s.onFlushFailure(ctx, instance, err)
	}

	return nil
}

func (s *Saver) wrap(instanceID, correlationID string, drained []Command) ([]PendingCommand, []PendingScheduledCommand, error) {
	var (
		commands  []PendingCommand
		scheduled []PendingScheduledCommand
	)
	for _, cmd := range drained {
		if cmd.Body == nil {
			return nil, nil, ErrBodyRequired
		}

		payload, err := s.serializer.Serialize(cmd.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("sagabox: serialize command failed: %w", err)
		}

		messageID, err := s.cfg.Generator.New()
		if err != nil {
			return nil, nil, err
		}

		row := PendingCommand{
			InstanceID:    instanceID,
			MessageID:     messageID,
			CorrelationID: correlationID,
			Payload:       payload,
		}
		if cmd.Scheduled() {
			scheduled = append(scheduled, PendingScheduledCommand{
				PendingCommand: row,
				ScheduledAt:    cmd.ScheduleAt.UTC(),
			})

			continue
		}
		commands = append(commands, row)
	}

	return commands, scheduled, nil
}

func (s *Saver) onFlushFailure(ctx context.Context, instance Instance, flushErr error) error {
	failure := FailureContext{
		InstanceKind: instance.Kind(),
		InstanceID:   instance.ID(),
		Err:          flushErr,
	}

	decision, handlerErr := s.handleSafely(ctx, failure)
	if handlerErr != nil {
		s.cfg.Logger.Error("flush failure handler failed",
			"instance", failure.InstanceID, "handler_err", handlerErr, "err", flushErr)

		return flushErr
	}
	if decision == Handled {
		s.cfg.Logger.Warn("flush failure handled, delivery deferred to a later sweep",
			"instance", failure.InstanceID, "err", flushErr)

		return nil
	}

	return flushErr
}

func (s *Saver) handleSafely(ctx context.Context, failure FailureContext) (decision FailureDecision, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			decision = Propagate
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, rec)
		}
	}()

	return s.cfg.Handler.Handle(ctx, failure)
}
