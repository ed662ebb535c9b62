package wallet

import "time"

// MetricsCollector is the observability port for the balance engine.
type MetricsCollector interface {
	RecordMutation(flow string, duration time.Duration)
	RecordMutationError(flow, errKind string)
	RecordConsistencyFailure(walletID string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordMutation(string, time.Duration) {}
func (n *NoopMetricsCollector) RecordMutationError(string, string)  {}
func (n *NoopMetricsCollector) RecordConsistencyFailure(string)     {}
