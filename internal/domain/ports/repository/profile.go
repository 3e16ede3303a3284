package repository

import (
	"context"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
)

// ScanDirection selects which side of the pivot a range scan covers.
type ScanDirection int

const (
	// ScanForward selects id >= pivot ordered ascending.
	ScanForward ScanDirection = iota
	// ScanWrap selects id < pivot ordered descending (wrap-around attempt).
	ScanWrap
)

// ProfileRepository owns the profiles table and the per-user seen marks.
type ProfileRepository interface {
	// Bounds returns the min/max profile id for a gender. A zero-valued
	// result means the gender has no profiles.
	Bounds(ctx context.Context, gender model.Gender) (model.Bounds, error)

	// SelectUnseenRange returns up to limit profiles of the gender on one
	// side of the pivot, excluding everything the user has already seen.
	// Each call is a bounded index range scan regardless of table size.
	SelectUnseenRange(ctx context.Context, userID int64, gender model.Gender, pivot int64, limit int, dir ScanDirection) ([]model.Profile, error)

	// MarkShown is an idempotent upsert into the seen-mark table.
	MarkShown(ctx context.Context, userID, profileID int64) error

	// ClearShown removes all seen marks for the user so an exhausted pool
	// can be replayed.
	ClearShown(ctx context.Context, userID int64) error

	// CreateIfNotExists imports a profile, idempotent on (file, gender).
	// Returns the profile id and whether a new row was created.
	CreateIfNotExists(ctx context.Context, file string, gender model.Gender) (int64, bool, error)
}

// BoundsCache is an advisory accelerator for Bounds. A miss or stale entry
// only narrows the pivot draw; it never causes duplicate deliveries.
type BoundsCache interface {
	Get(ctx context.Context, gender model.Gender) (model.Bounds, bool)
	Set(ctx context.Context, gender model.Gender, b model.Bounds)
	Invalidate(ctx context.Context, gender model.Gender)
}
