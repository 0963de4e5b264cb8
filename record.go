package sagabox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PendingCommand is a durably recorded command awaiting immediate delivery.
// Seq is assigned by the store at insert time and is strictly ascending per
// owner; replaying rows in Seq order reproduces produced order.
type PendingCommand struct {
	Seq           int64
	InstanceID    string
	MessageID     uuid.UUID
	CorrelationID string
	Payload       json.RawMessage
}

// PendingScheduledCommand is a pending command with an earliest release time.
// The core hands ScheduledAt to the scheduled delivery channel; it does not
// enforce the delay itself.
type PendingScheduledCommand struct {
	PendingCommand
	ScheduledAt time.Time
}

// Envelope is a deliverable reconstructed from a pending row at flush time.
type Envelope struct {
	MessageID     uuid.UUID
	CorrelationID string
	Command       any
}
