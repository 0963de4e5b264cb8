package sagabox

import (
	"context"
	"fmt"
)

// Flusher drains the pending rows of one process manager instance to the
// delivery channels. Multiple flushes of the same instance may run
// concurrently; they converge through the store's idempotent deletes.
type Flusher struct {
	store           Store
	serializer      Serializer
	sender          Sender
	scheduledSender ScheduledSender
	cfg             FlusherConfig
}

// NewFlusher constructs a Flusher with defaults and optional settings.
// scheduledSender may be nil when no instance produces scheduled commands;
// Flush fails with ErrScheduledSenderRequired if scheduled rows show up.
func NewFlusher(store Store, serializer Serializer, sender Sender, scheduledSender ScheduledSender, opts ...FlusherOption) *Flusher {
	if store == nil {
		panic("sagabox: nil Store")
	}
	if serializer == nil {
		panic("sagabox: nil Serializer")
	}
	if sender == nil {
		panic("sagabox: nil Sender")
	}

	var cfg FlusherConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.withDefaults()

	return &Flusher{
		store:           store,
		serializer:      serializer,
		sender:          sender,
		scheduledSender: scheduledSender,
		cfg:             cfg,
	}
}

// Flush loads all pending rows for the instance, hands them to the delivery
// channels, and removes them. Immediate rows go out as one ordered batch;
// scheduled rows go out one by one. On success, every row that existed at
// load time has been submitted; rows inserted concurrently after the load may
// remain and are picked up by a later flush or sweep.
//
// A delivery rejection propagates to the caller. Rows already removed in this
// pass stay removed; unprocessed rows remain durable for retry, so delivery
// is at-least-once.
func (f *Flusher) Flush(ctx context.Context, instanceID string) error {
	if instanceID == "" {
		return ErrInstanceIDRequired
	}

	start := f.cfg.Clock.Now()
	defer func() {
		f.cfg.Metrics.ObserveFlushDuration(f.cfg.Clock.Now().Sub(start))
	}()

	if err := f.flushImmediate(ctx, instanceID); err != nil {
		return err
	}

	return f.flushScheduled(ctx, instanceID)
}

func (f *Flusher) flushImmediate(ctx context.Context, instanceID string) error {
	rows, err := f.store.ListCommands(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("sagabox: list commands failed: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	envelopes := make([]Envelope, 0, len(rows))
	for _, row := range rows {
		envelope, err := f.openEnvelope(row)
		if err != nil {
			return err
		}
		envelopes = append(envelopes, envelope)
	}

	if err := f.sender.Send(ctx, envelopes); err != nil {
		f.cfg.Metrics.AddDeliveryErrors(len(envelopes))

		return fmt.Errorf("sagabox: send batch failed: %w", err)
	}

	for _, row := range rows {
		outcome, err := f.store.DeleteCommand(ctx, row.Seq)
		if err != nil {
			return fmt.Errorf("sagabox: delete command failed: %w", err)
		}
		f.logOutcome(outcome, row)
	}

	f.cfg.Metrics.AddDelivered(len(rows))

	return nil
}

func (f *Flusher) flushScheduled(ctx context.Context, instanceID string) error {
	rows, err := f.store.ListScheduled(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("sagabox: list scheduled failed: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	if f.scheduledSender == nil {
		return ErrScheduledSenderRequired
	}

	for _, row := range rows {
		envelope, err := f.openEnvelope(row.PendingCommand)
		if err != nil {
			return err
		}

		if err := f.scheduledSender.Send(ctx, envelope, row.ScheduledAt); err != nil {
			f.cfg.Metrics.AddDeliveryErrors(1)

			return fmt.Errorf("sagabox: send scheduled failed: %w", err)
		}

		outcome, err := f.store.DeleteScheduled(ctx, row.Seq)
		if err != nil {
			return fmt.Errorf("sagabox: delete scheduled failed: %w", err)
		}
		f.logOutcome(outcome, row.PendingCommand)
		f.cfg.Metrics.AddScheduled(1)
	}

	return nil
}

func (f *Flusher) openEnvelope(row PendingCommand) (Envelope, error) {
	command, err := f.serializer.Deserialize(row.Payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("sagabox: deserialize command %s failed: %w", row.MessageID, err)
	}

	return Envelope{
		MessageID:     row.MessageID,
		CorrelationID: row.CorrelationID,
		Command:       command,
	}, nil
}

func (f *Flusher) logOutcome(outcome DeleteOutcome, row PendingCommand) {
	if outcome != AlreadyGone {
		return
	}
	f.cfg.Logger.Debug("pending command removed by a concurrent flush",
		"instance", row.InstanceID, "seq", row.Seq)
}
