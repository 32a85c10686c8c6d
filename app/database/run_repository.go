package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RunRepository handles database operations for aggregation runs
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Record stores a finished aggregation run
func (r *RunRepository) Record(ctx context.Context, run Run) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO aggregation_runs (
			started_at, duration_ms, feeds_total, feeds_failed,
			items_fetched, items_excluded, items_duplicates, items_returned, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.StartedAt.UnixMilli(), run.Duration.Milliseconds(), run.FeedsTotal, run.FeedsFailed,
		run.Fetched, run.Excluded, run.Duplicates, run.Returned, run.Error)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	return nil
}

// Summary aggregates all recorded runs
func (r *RunRepository) Summary(ctx context.Context) (*Summary, error) {
	var summary Summary
	var averageMillis float64

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN error != '' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(duration_ms), 0)
		FROM aggregation_runs
	`).Scan(&summary.TotalRuns, &summary.FailedRuns, &averageMillis)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize runs: %w", err)
	}
	summary.AverageDuration = time.Duration(averageMillis * float64(time.Millisecond))

	lastRun, err := r.LastRun(ctx)
	if err != nil {
		return nil, err
	}
	summary.LastRun = lastRun

	return &summary, nil
}

// LastRun returns the most recent run, or nil when none was recorded
func (r *RunRepository) LastRun(ctx context.Context) (*Run, error) {
	var run Run
	var startedAt, durationMillis int64

	err := r.db.QueryRowContext(ctx, `
		SELECT id, started_at, duration_ms, feeds_total, feeds_failed,
			items_fetched, items_excluded, items_duplicates, items_returned, error
		FROM aggregation_runs
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&run.ID, &startedAt, &durationMillis, &run.FeedsTotal, &run.FeedsFailed,
		&run.Fetched, &run.Excluded, &run.Duplicates, &run.Returned, &run.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last run: %w", err)
	}

	run.StartedAt = time.UnixMilli(startedAt)
	run.Duration = time.Duration(durationMillis) * time.Millisecond

	return &run, nil
}
