package sagabox

// Instance is the boundary to a process manager taking part in
// save-and-publish. The core reads its identity and drains its freshly
// produced commands; everything else about the instance is owned by the
// business layer.
type Instance interface {
	// ID returns the unique instance identifier.
	ID() string
	// Kind names the instance type (e.g., "order-fulfillment").
	Kind() string
	// Revision returns the optimistic concurrency token the state was loaded at.
	// Zero means the instance has never been persisted.
	Revision() int64
	// State returns the serialized durable state of the instance.
	State() ([]byte, error)
	// DrainCommands returns all commands produced since the last drain and
	// clears that accumulation.
	DrainCommands() []Command
}

// InstanceState is the durable snapshot of a process manager instance.
// Stores persist it with Revision+1 and report ErrConcurrencyConflict when
// the stored revision no longer matches Revision.
type InstanceState struct {
	ID       string
	Kind     string
	Revision int64
	State    []byte
}
