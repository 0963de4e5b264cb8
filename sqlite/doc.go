// Package sqlite implements the sagabox persistence boundary on SQLite.
//
// It expects an *sql.DB opened with a SQLite driver; the pure-Go
// "modernc.org/sqlite" driver is used by the tests and needs no cgo:
//
//	import _ "modernc.org/sqlite"
//
// Three tables are used, named by a configurable prefix: instance state with
// a revision token, pending commands, and pending scheduled commands. The
// command tables use AUTOINCREMENT sequence keys so rows replay in produced
// order per instance.
package sqlite
