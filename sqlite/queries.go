package sqlite

import "fmt"

type queries struct {
	updateState     string
	insertState     string
	insertCommand   string
	insertScheduled string
	listCommands    string
	listScheduled   string
	deleteCommand   string
	deleteScheduled string
	commandOwners   string
	scheduledOwners string
	countCommands   string
	countScheduled  string
}

func newQueries(prefix string) queries {
	instances := prefix + "_instances"
	commands := prefix + "_commands"
	scheduled := prefix + "_scheduled_commands"

	return queries{
		updateState: fmt.Sprintf(
			"UPDATE %s SET kind = ?, revision = revision + 1, state = ? WHERE id = ? AND revision = ?",
			instances,
		),
		insertState: fmt.Sprintf(
			"INSERT INTO %s (id, kind, revision, state) VALUES (?, ?, 1, ?)",
			instances,
		),
		insertCommand: fmt.Sprintf(
			"INSERT INTO %s (instance_id, message_id, correlation_id, payload) VALUES (?, ?, ?, ?)",
			commands,
		),
		insertScheduled: fmt.Sprintf(
			"INSERT INTO %s (instance_id, message_id, correlation_id, payload, scheduled_at) VALUES (?, ?, ?, ?, ?)",
			scheduled,
		),
		listCommands: fmt.Sprintf(
			"SELECT seq, instance_id, message_id, correlation_id, payload FROM %s WHERE instance_id = ? ORDER BY seq ASC",
			commands,
		),
		listScheduled: fmt.Sprintf(
			"SELECT seq, instance_id, message_id, correlation_id, payload, scheduled_at FROM %s WHERE instance_id = ? ORDER BY seq ASC",
			scheduled,
		),
		deleteCommand:   fmt.Sprintf("DELETE FROM %s WHERE seq = ?", commands),
		deleteScheduled: fmt.Sprintf("DELETE FROM %s WHERE seq = ?", scheduled),
		commandOwners:   fmt.Sprintf("SELECT DISTINCT instance_id FROM %s LIMIT ?", commands),
		scheduledOwners: fmt.Sprintf("SELECT DISTINCT instance_id FROM %s LIMIT ?", scheduled),
		countCommands:   fmt.Sprintf("SELECT COUNT(*) FROM %s", commands),
		countScheduled:  fmt.Sprintf("SELECT COUNT(*) FROM %s", scheduled),
	}
}
