package metrics

import "sync/atomic"

// MonitorMetrics counts what happened during one monitoring run.
type MonitorMetrics struct {
	ProbedCount     atomic.Int32
	FailedProbes    atomic.Int32
	FilteredOut     atomic.Int32
	DuplicateCount  atomic.Int32
	MalformedCount  atomic.Int32
	SavedFeedbacks  atomic.Int32
	FeedbackLookups atomic.Int32
}
