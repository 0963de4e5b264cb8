package mysql

import "fmt"

const (
	instancesSchemaTemplate = `CREATE TABLE IF NOT EXISTS %s_instances (
	id VARCHAR(128) NOT NULL,
	kind VARCHAR(128) NOT NULL,
	revision BIGINT NOT NULL,
	state LONGBLOB NULL,
	PRIMARY KEY (id)
);`
	commandsSchemaTemplate = `CREATE TABLE IF NOT EXISTS %s_commands (
	seq BIGINT NOT NULL AUTO_INCREMENT,
	instance_id VARCHAR(128) NOT NULL,
	message_id CHAR(36) NOT NULL,
	correlation_id VARCHAR(128) NOT NULL DEFAULT '',
	payload LONGBLOB NOT NULL,
	PRIMARY KEY (seq),
	INDEX idx_instance_seq (instance_id, seq)
);`
	scheduledSchemaTemplate = `CREATE TABLE IF NOT EXISTS %s_scheduled_commands (
	seq BIGINT NOT NULL AUTO_INCREMENT,
	instance_id VARCHAR(128) NOT NULL,
	message_id CHAR(36) NOT NULL,
	correlation_id VARCHAR(128) NOT NULL DEFAULT '',
	payload LONGBLOB NOT NULL,
	scheduled_at BIGINT NOT NULL,
	PRIMARY KEY (seq),
	INDEX idx_instance_seq (instance_id, seq)
);`
)

// Schema returns the DDL statements for the three sagabox tables under the
// given prefix, one statement per element.
func Schema(prefix string) ([]string, error) {
	clean, err := sanitizePrefix(prefix)
	if err != nil {
		return nil, err
	}

	return []string{
		fmt.Sprintf(instancesSchemaTemplate, clean),
		fmt.Sprintf(commandsSchemaTemplate, clean),
		fmt.Sprintf(scheduledSchemaTemplate, clean),
	}, nil
}
