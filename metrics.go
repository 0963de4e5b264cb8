package sagabox

import "time"

// Metrics captures flush and sweep telemetry.
type Metrics interface {
	// ObserveFlushDuration records the time to flush one instance.
	ObserveFlushDuration(duration time.Duration)
	// AddDelivered increments the count of immediate commands handed to the channel.
	AddDelivered(count int)
	// AddScheduled increments the count of scheduled commands handed to the channel.
	AddScheduled(count int)
	// AddDeliveryErrors increments the count of rejected sends.
	AddDeliveryErrors(count int)
	// AddSweepPasses increments the count of completed sweep passes.
	AddSweepPasses(count int)
}

// NopMetrics is a no-op metrics recorder.
type NopMetrics struct{}

// ObserveFlushDuration implements Metrics.
func (NopMetrics) ObserveFlushDuration(time.Duration) {}

// AddDelivered implements Metrics.
func (NopMetrics) AddDelivered(int) {}

// AddScheduled implements Metrics.
func (NopMetrics) AddScheduled(int) {}

// AddDeliveryErrors implements Metrics.
func (NopMetrics) AddDeliveryErrors(int) {}

// AddSweepPasses implements Metrics.
func (NopMetrics) AddSweepPasses(int) {}
