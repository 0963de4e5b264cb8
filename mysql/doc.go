// Package mysql implements the sagabox persistence boundary on MySQL.
//
// It expects an *sql.DB opened with "github.com/go-sql-driver/mysql". Three
// tables are used, named by a configurable prefix (optionally schema
// qualified, e.g. "billing.sagabox"): instance state with a revision token,
// pending commands, and pending scheduled commands. AUTO_INCREMENT sequence
// keys preserve produced order per instance; deletes are idempotent so
// concurrent flushes of the same instance converge without locks.
package mysql
