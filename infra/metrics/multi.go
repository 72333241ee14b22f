package metrics

import coremetrics "github.com/kilianp07/depotplan/core/metrics"

// MultiSink fans allocation results out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordAllocation forwards the results to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordAllocation(res []coremetrics.AllocationResult) error {
	for _, s := range m.Sinks {
		if err := s.RecordAllocation(res); err != nil {
			return err
		}
	}
	return nil
}

// RecordQueueDepth forwards queue samples.
func (m *MultiSink) RecordQueueDepth(ev coremetrics.QueueDepthEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.QueueDepthRecorder); ok {
			if err := rec.RecordQueueDepth(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordOptimizer forwards optimizer passes.
func (m *MultiSink) RecordOptimizer(ev coremetrics.OptimizerEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.OptimizerRecorder); ok {
			if err := rec.RecordOptimizer(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
