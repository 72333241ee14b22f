// Package metrics defines the sink contract used to record allocation
// outcomes for observability purposes.
package metrics

import "time"

// AllocationResult represents one allocation decision to be recorded.
type AllocationResult struct {
	VehicleID string
	Depot     string
	Track     int
	Placed    bool
	// FromWaiting is true when the placement admitted a waiting vehicle.
	FromWaiting bool
	// Wait is the completed waiting duration, zero for immediate placements.
	Wait time.Duration
	Time time.Time
}

// QueueDepthEvent is a gauge sample of a depot's waiting queue.
type QueueDepthEvent struct {
	Depot   string
	Waiting int
	Time    time.Time
}

// OptimizerEvent captures data about one optimization pass.
type OptimizerEvent struct {
	Modifications   int
	WaitingBefore   int
	WaitingAfter    int
	BudgetExhausted bool
	Adopted         bool
	Time            time.Time
}

// Sink records allocation results for observability purposes.
type Sink interface {
	RecordAllocation(results []AllocationResult) error
}

// QueueDepthRecorder records waiting queue depth samples.
type QueueDepthRecorder interface {
	RecordQueueDepth(ev QueueDepthEvent) error
}

// OptimizerRecorder records optimization passes.
type OptimizerRecorder interface {
	RecordOptimizer(ev OptimizerEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordAllocation([]AllocationResult) error { return nil }

func (NopSink) RecordQueueDepth(QueueDepthEvent) error { return nil }

func (NopSink) RecordOptimizer(OptimizerEvent) error { return nil }

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = ":2112"
	}
}
