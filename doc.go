// Package sagabox implements a transactional outbox for long-lived process
// managers (sagas) whose state transitions emit commands to external consumers.
//
// Typical flow:
//  1. A transition mutates a process manager instance and buffers commands.
//  2. Saver.SaveAndPublish persists the instance state together with the
//     buffered commands in one atomic store write, then flushes them.
//  3. Flusher.Flush drains the pending rows for one instance to the delivery
//     channels and removes them; concurrent flushes converge through
//     idempotent deletes instead of locks.
//  4. Sweeper.Sweep recovers commands left behind by crashes between persist
//     and flush, typically at startup or on a schedule.
//
// Delivery is at-least-once in produced order per instance; downstream
// consumers must be idempotent. Storage backends live in the memory, sqlite,
// and mysql subpackages.
package sagabox
