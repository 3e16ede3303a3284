package repository

import "context"

// ProcessedUpdateRepository is the append-only dedup set for inbound updates.
type ProcessedUpdateRepository interface {
	// TryMark inserts the id and returns true on first sight. A duplicate
	// insert is expected control flow, not an error.
	TryMark(ctx context.Context, updateID int64) (bool, error)

	// Purge deletes entries older than the retention window and returns the
	// number of rows removed.
	Purge(ctx context.Context, olderThanDays int) (int64, error)
}
