package database

import (
	"time"
)

// Run is one aggregation request as recorded in aggregation_runs.
type Run struct {
	ID          int64
	StartedAt   time.Time
	Duration    time.Duration
	FeedsTotal  int
	FeedsFailed int
	Fetched     int
	Excluded    int
	Duplicates  int
	Returned    int
	Error       string // empty on success
}

type Summary struct {
	TotalRuns       int
	FailedRuns      int
	AverageDuration time.Duration
	LastRun         *Run
}
