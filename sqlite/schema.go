package sqlite

import "fmt"

const schemaTemplate = `CREATE TABLE IF NOT EXISTS %[1]s_instances (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	revision INTEGER NOT NULL,
	state BLOB
);
CREATE TABLE IF NOT EXISTS %[1]s_commands (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	instance_id TEXT NOT NULL,
	message_id TEXT NOT NULL,
	correlation_id TEXT NOT NULL DEFAULT '',
	payload BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_commands_instance ON %[1]s_commands (instance_id, seq);
CREATE TABLE IF NOT EXISTS %[1]s_scheduled_commands (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	instance_id TEXT NOT NULL,
	message_id TEXT NOT NULL,
	correlation_id TEXT NOT NULL DEFAULT '',
	payload BLOB NOT NULL,
	scheduled_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_scheduled_instance ON %[1]s_scheduled_commands (instance_id, seq);`

// Schema returns the DDL for the three sagabox tables under the given prefix.
func Schema(prefix string) (string, error) {
	clean, err := sanitizePrefix(prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(schemaTemplate, clean), nil
}
