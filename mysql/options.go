package mysql

const defaultPrefix = "sagabox"

// Config defines MySQL store behavior.
type Config struct {
	// Prefix names the tables: <prefix>_instances, <prefix>_commands,
	// <prefix>_scheduled_commands. A schema qualifier is allowed
	// ("billing.sagabox").
	Prefix string
	// InitSchema creates the tables on NewStore when true.
	InitSchema bool
}

func (c Config) withDefaults() Config {
	if c.Prefix == "" {
		c.Prefix = defaultPrefix
	}

	return c
}

// Option configures the store.
type Option func(*Config)

// WithPrefix sets the table name prefix.
func WithPrefix(prefix string) Option {
	return func(c *Config) {
		c.Prefix = prefix
	}
}

// WithInitSchema creates the tables during NewStore.
func WithInitSchema() Option {
	return func(c *Config) {
		c.InitSchema = true
	}
}
