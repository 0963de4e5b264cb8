package sagabox

import "errors"

var (
	// ErrInstanceRequired is returned when a nil process manager instance is provided.
	ErrInstanceRequired = errors.New("sagabox: instance is required")
	// ErrInstanceIDRequired is returned when an operation receives an empty instance id.
	ErrInstanceIDRequired = errors.New("sagabox: instance id is required")
	// ErrBodyRequired is returned when a drained command has no body.
	ErrBodyRequired = errors.New("sagabox: command body is required")
	// ErrInvalidPayload is returned when a payload is not valid JSON.
	ErrInvalidPayload = errors.New("sagabox: command payload must be valid JSON")
	// ErrConcurrencyConflict is reported by stores when the instance state row
	// changed since it was read. The transition must be recomputed and retried.
	ErrConcurrencyConflict = errors.New("sagabox: concurrent state modification")
	// ErrScheduledSenderRequired is returned when scheduled rows exist but no
	// scheduled delivery channel was configured.
	ErrScheduledSenderRequired = errors.New("sagabox: scheduled sender is required")
	// ErrHandlerPanic indicates a flush failure handler panic.
	ErrHandlerPanic = errors.New("sagabox: failure handler panic")
)
