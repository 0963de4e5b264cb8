package sagabox

import (
	"fmt"

	"github.com/google/uuid"
)

// IDGenerator mints message identifiers for outgoing commands.
type IDGenerator interface {
	// New returns a new identifier.
	New() (uuid.UUID, error)
}

// UUIDv7Generator produces time-ordered UUID v7 message ids.
type UUIDv7Generator struct{}

// New creates a new UUID v7 identifier.
func (UUIDv7Generator) New() (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("sagabox: generate uuid v7: %w", err)
	}

	return id, nil
}
