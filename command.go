package sagabox

import (
	"sync"
	"time"
)

// Command is a single outgoing command produced by a process manager
// transition. A zero ScheduleAt means immediate delivery; otherwise the
// command is released to the scheduled channel no earlier than ScheduleAt.
type Command struct {
	Body       any
	ScheduleAt time.Time
}

// Scheduled reports whether the command carries a release time.
func (c Command) Scheduled() bool {
	return !c.ScheduleAt.IsZero()
}

// CommandBuffer accumulates commands produced during a transition and hands
// them out exactly once via Drain. Business process manager types embed it to
// satisfy the Instance drain contract.
type CommandBuffer struct {
	mu   sync.Mutex
	cmds []Command
}

// Append buffers an immediate command.
func (b *CommandBuffer) Append(body any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cmds = append(b.cmds, Command{Body: body})
}

// AppendAt buffers a command to be released no earlier than at.
func (b *CommandBuffer) AppendAt(body any, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cmds = append(b.cmds, Command{Body: body, ScheduleAt: at})
}

// Len returns the number of buffered commands.
func (b *CommandBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.cmds)
}

// DrainCommands returns everything buffered since the last drain, in produced
// order, and clears the buffer.
func (b *CommandBuffer) DrainCommands() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()

	cmds := b.cmds
	b.cmds = nil

	return cmds
}
