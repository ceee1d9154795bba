package domain

import "time"

// ChangeEventKind tags a filesystem event observed by the watcher.
type ChangeEventKind string

const (
	ChangeCreated  ChangeEventKind = "created"
	ChangeModified ChangeEventKind = "modified"
	ChangeDeleted  ChangeEventKind = "deleted"
)

// ChangeEvent is one debounced filesystem event queued for analysis.
type ChangeEvent struct {
	Path      string          `json:"path"`
	Kind      ChangeEventKind `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
}

// WatchStats is a by-value snapshot of watcher counters.
type WatchStats struct {
	ChangesDetected int
	QueueLength     int
	DroppedEvents   int
	ThrottleCount   int
	Active          bool
}

// PerfSnapshot is the performance monitor's smoothed utilization reading.
type PerfSnapshot struct {
	CPUPercent float64
	RAMPercent float64
	Samples    int
	Throttling bool
}
