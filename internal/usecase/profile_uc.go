package usecase

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/logging"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/infra/metrics"
)

// Compile-time check
var _ ProfileUseCase = (*profileUC)(nil)

// ProfileUseCase is the discovery engine: randomized unseen selection plus
// the seen-mark bookkeeping around it.
type ProfileUseCase interface {
	// UnseenBatch returns up to limit profiles of the gender the user has
	// not seen, drawn around a random pivot. Read-only; callers mark
	// profiles seen after successful delivery.
	UnseenBatch(ctx context.Context, userID int64, gender model.Gender, limit int) ([]model.Profile, error)

	// NextUnseen returns one profile for interactive browsing, using the
	// pending-batch cache and resetting the seen pool once on exhaustion.
	// Returns nil when the gender has no profiles at all.
	NextUnseen(ctx context.Context, userID int64, gender model.Gender) (*model.Profile, error)

	MarkShown(ctx context.Context, userID, profileID int64) error
	ClearShown(ctx context.Context, userID int64) error

	// ImportDir scans dir/{men,women} and registers every file as a profile,
	// idempotent on (file, gender).
	ImportDir(ctx context.Context, dir string) (ImportStats, error)
}

// BatchCache keeps the unreturned remainder of a browse batch per user.
// Purely an accelerator; the selector works the same without it.
type BatchCache interface {
	Pop(ctx context.Context, userID int64, gender model.Gender) (*model.Profile, bool)
	Put(ctx context.Context, userID int64, gender model.Gender, batch []model.Profile)
}

type ImportStats struct {
	Total   int
	Created int
	Existed int
}

const (
	maxBatchLimit   = 100
	browseBatchSize = 10
)

type profileUC struct {
	profiles repository.ProfileRepository
	batches  BatchCache
	log      *zerolog.Logger

	// pivot draws a uniform id in [min, max]; overridden in tests.
	pivot func(min, max int64) int64
}

func NewProfileUseCase(profiles repository.ProfileRepository, batches BatchCache, logger *zerolog.Logger) *profileUC {
	return &profileUC{
		profiles: profiles,
		batches:  batches,
		log:      logging.Component(logger, "ProfileUC"),
		pivot: func(min, max int64) int64 {
			return min + rand.Int63n(max-min+1)
		},
	}
}

// UnseenBatch runs the two-phase pivot scan. Attempt 1 walks forward from
// the pivot; a wrap-around attempt 2 covers the lower half, so every unseen
// profile is reachable from any pivot while each query stays a bounded
// index range scan.
func (u *profileUC) UnseenBatch(ctx context.Context, userID int64, gender model.Gender, limit int) ([]model.Profile, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > maxBatchLimit {
		limit = maxBatchLimit
	}

	bounds, err := u.profiles.Bounds(ctx, gender)
	if err != nil {
		return nil, err
	}
	if !bounds.Valid() {
		return nil, nil
	}

	pivot := u.pivot(bounds.Min, bounds.Max)
	batch, err := u.profiles.SelectUnseenRange(ctx, userID, gender, pivot, limit, repository.ScanForward)
	if err != nil {
		return nil, err
	}
	if len(batch) < limit {
		rest, err := u.profiles.SelectUnseenRange(ctx, userID, gender, pivot, limit-len(batch), repository.ScanWrap)
		if err != nil {
			return nil, err
		}
		batch = append(batch, rest...)
	}
	return batch, nil
}

func (u *profileUC) NextUnseen(ctx context.Context, userID int64, gender model.Gender) (*model.Profile, error) {
	if p, ok := u.batches.Pop(ctx, userID, gender); ok {
		return p, nil
	}

	batch, err := u.UnseenBatch(ctx, userID, gender, browseBatchSize)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		// Pool exhausted: reset once and replay previously shown profiles.
		if err := u.ClearShown(ctx, userID); err != nil {
			return nil, err
		}
		metrics.IncSelectorReset()
		if batch, err = u.UnseenBatch(ctx, userID, gender, browseBatchSize); err != nil {
			return nil, err
		}
	}
	if len(batch) == 0 {
		return nil, nil
	}
	u.batches.Put(ctx, userID, gender, batch[1:])
	return &batch[0], nil
}

func (u *profileUC) MarkShown(ctx context.Context, userID, profileID int64) error {
	return u.profiles.MarkShown(ctx, userID, profileID)
}

func (u *profileUC) ClearShown(ctx context.Context, userID int64) error {
	return u.profiles.ClearShown(ctx, userID)
}

func (u *profileUC) ImportDir(ctx context.Context, dir string) (ImportStats, error) {
	var stats ImportStats
	folders := map[string]model.Gender{
		"men":   model.GenderMan,
		"women": model.GenderWoman,
	}
	for folder, gender := range folders {
		path := filepath.Join(dir, folder)
		entries, err := os.ReadDir(path)
		if err != nil {
			u.log.Warn().Str("path", path).Err(err).Msg("profiles folder not readable, skipping")
			continue
		}
		for _, e := range entries {
			if e.IsDir() || e.Name() == ".gitignore" {
				continue
			}
			stats.Total++
			_, created, err := u.profiles.CreateIfNotExists(ctx, e.Name(), gender)
			if err != nil {
				return stats, err
			}
			if created {
				stats.Created++
			} else {
				stats.Existed++
			}
		}
	}
	return stats, nil
}
