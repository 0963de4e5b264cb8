package sagabox

const defaultProbeLimit = 1

// FlusherConfig defines how the Flusher drains and delivers pending rows.
type FlusherConfig struct {
	Logger  Logger
	Metrics Metrics
	Clock   Clock
}

func (c FlusherConfig) withDefaults() FlusherConfig {
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
	if c.Metrics == nil {
		c.Metrics = NopMetrics{}
	}
	if c.Clock == nil {
		c.Clock = SystemClock{}
	}

	return c
}

// FlusherOption configures Flusher behavior.
type FlusherOption func(*FlusherConfig)

// WithFlusherLogger sets the flusher logger.
func WithFlusherLogger(logger Logger) FlusherOption {
	return func(c *FlusherConfig) {
		c.Logger = logger
	}
}

// WithFlusherMetrics sets the flusher metrics recorder.
func WithFlusherMetrics(metrics Metrics) FlusherOption {
	return func(c *FlusherConfig) {
		c.Metrics = metrics
	}
}

// WithFlusherClock sets the flusher clock.
func WithFlusherClock(clock Clock) FlusherOption {
	return func(c *FlusherConfig) {
		c.Clock = clock
	}
}

// SweeperConfig defines how the Sweeper probes and recovers instances.
type SweeperConfig struct {
	// ProbeLimit caps the number of owner ids fetched per category per pass.
	// Small values bound per-iteration work; larger values converge faster
	// when many instances have a backlog.
	ProbeLimit int
	Logger     Logger
	Metrics    Metrics
}

func (c SweeperConfig) withDefaults() SweeperConfig {
	if c.ProbeLimit <= 0 {
		c.ProbeLimit = defaultProbeLimit
	}
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
	if c.Metrics == nil {
		c.Metrics = NopMetrics{}
	}

	return c
}

// SweeperOption configures Sweeper behavior.
type SweeperOption func(*SweeperConfig)

// WithProbeLimit sets how many owner ids are probed per category per pass.
func WithProbeLimit(limit int) SweeperOption {
	return func(c *SweeperConfig) {
		c.ProbeLimit = limit
	}
}

// WithSweeperLogger sets the sweeper logger.
func WithSweeperLogger(logger Logger) SweeperOption {
	return func(c *SweeperConfig) {
		c.Logger = logger
	}
}

// WithSweeperMetrics sets the sweeper metrics recorder.
func WithSweeperMetrics(metrics Metrics) SweeperOption {
	return func(c *SweeperConfig) {
		c.Metrics = metrics
	}
}

// SaverConfig defines how the Saver persists and publishes transitions.
type SaverConfig struct {
	Handler   FailureHandler
	Logger    Logger
	Generator IDGenerator
}

func (c SaverConfig) withDefaults() SaverConfig {
	if c.Handler == nil {
		c.Handler = FailureHandlerFunc(defaultFailureHandler)
	}
	if c.Logger == nil {
		c.Logger = NopLogger{}
	}
	if c.Generator == nil {
		c.Generator = UUIDv7Generator{}
	}

	return c
}

// SaverOption configures Saver behavior.
type SaverOption func(*SaverConfig)

// WithFailureHandler sets the pluggable flush failure handler.
// The default propagates every failure.
func WithFailureHandler(handler FailureHandler) SaverOption {
	return func(c *SaverConfig) {
		c.Handler = handler
	}
}

// WithSaverLogger sets the saver logger.
func WithSaverLogger(logger Logger) SaverOption {
	return func(c *SaverConfig) {
		c.Logger = logger
	}
}

// WithIDGenerator sets the message id generator.
func WithIDGenerator(generator IDGenerator) SaverOption {
	return func(c *SaverConfig) {
		c.Generator = generator
	}
}
