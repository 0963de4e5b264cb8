package sagabox

import (
	"context"
	"time"
)

// Sender is the immediate delivery channel. Send receives the whole ordered
// batch for one instance in a single call so the channel can batch or
// transact if it supports it.
type Sender interface {
	// Send hands an ordered batch of envelopes to the channel.
	Send(ctx context.Context, envelopes []Envelope) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, envelopes []Envelope) error

// Send implements Sender.
func (fn SenderFunc) Send(ctx context.Context, envelopes []Envelope) error {
	return fn(ctx, envelopes)
}

// ScheduledSender is the scheduled delivery channel, called once per item.
// The channel is responsible for honoring releaseAt.
type ScheduledSender interface {
	// Send hands one envelope and its earliest release time to the channel.
	Send(ctx context.Context, envelope Envelope, releaseAt time.Time) error
}

// ScheduledSenderFunc adapts a function to ScheduledSender.
type ScheduledSenderFunc func(ctx context.Context, envelope Envelope, releaseAt time.Time) error

// Send implements ScheduledSender.
func (fn ScheduledSenderFunc) Send(ctx context.Context, envelope Envelope, releaseAt time.Time) error {
	return fn(ctx, envelope, releaseAt)
}
