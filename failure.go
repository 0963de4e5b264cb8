package sagabox

import "context"

// FailureDecision tells the Saver what to do with a flush failure.
type FailureDecision int

const (
	// Propagate surfaces the original flush error to the caller.
	Propagate FailureDecision = iota
	// Handled swallows the flush error; the saved commands stay durable and
	// rely on a later flush or sweep for delivery.
	Handled
)

// FailureContext describes a flush failure after a successful save.
type FailureContext struct {
	InstanceKind string
	InstanceID   string
	Err          error
}

// FailureHandler decides whether a flush failure is surfaced to the caller of
// SaveAndPublish. The save itself is already committed when the handler runs.
type FailureHandler interface {
	// Handle inspects the failure and returns a decision. A handler error is
	// recorded and treated as Propagate.
	Handle(ctx context.Context, failure FailureContext) (FailureDecision, error)
}

// FailureHandlerFunc adapts a function to FailureHandler.
type FailureHandlerFunc func(ctx context.Context, failure FailureContext) (FailureDecision, error)

// Handle implements FailureHandler.
func (fn FailureHandlerFunc) Handle(ctx context.Context, failure FailureContext) (FailureDecision, error) {
	return fn(ctx, failure)
}

func defaultFailureHandler(context.Context, FailureContext) (FailureDecision, error) {
	return Propagate, nil
}
