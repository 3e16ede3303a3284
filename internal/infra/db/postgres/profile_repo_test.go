//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
)

func TestProfileRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewProfileRepo(testPool)
	ctx := context.Background()

	seed := func(t *testing.T, files []string, gender model.Gender) []int64 {
		t.Helper()
		ids := make([]int64, 0, len(files))
		for _, f := range files {
			id, created, err := repo.CreateIfNotExists(ctx, f, gender)
			if err != nil {
				t.Fatalf("CreateIfNotExists(%s) failed: %v", f, err)
			}
			if !created {
				t.Fatalf("expected %s to be created", f)
			}
			ids = append(ids, id)
		}
		return ids
	}

	t.Run("bounds are zero for an empty gender", func(t *testing.T) {
		cleanup(t)

		b, err := repo.Bounds(ctx, model.GenderWoman)
		if err != nil {
			t.Fatalf("Bounds failed: %v", err)
		}
		if b.Valid() {
			t.Errorf("expected invalid bounds for empty pool, got %+v", b)
		}
	})

	t.Run("create is idempotent per file and gender", func(t *testing.T) {
		cleanup(t)

		id1, created, err := repo.CreateIfNotExists(ctx, "a.jpg", model.GenderWoman)
		if err != nil || !created {
			t.Fatalf("first create failed: created=%v err=%v", created, err)
		}
		id2, created, err := repo.CreateIfNotExists(ctx, "a.jpg", model.GenderWoman)
		if err != nil {
			t.Fatalf("second create failed: %v", err)
		}
		if created || id2 != id1 {
			t.Errorf("expected existing id %d back, got id=%d created=%v", id1, id2, created)
		}

		// Same file under the other gender is a distinct profile.
		_, created, err = repo.CreateIfNotExists(ctx, "a.jpg", model.GenderMan)
		if err != nil || !created {
			t.Errorf("expected distinct profile for other gender, created=%v err=%v", created, err)
		}
	})

	t.Run("range scan skips seen profiles and wraps", func(t *testing.T) {
		cleanup(t)

		ids := seed(t, []string{"w1.jpg", "w2.jpg", "w3.jpg"}, model.GenderWoman)
		seed(t, []string{"m1.jpg"}, model.GenderMan)

		const userID = 1
		if err := repo.MarkShown(ctx, userID, ids[0]); err != nil {
			t.Fatalf("MarkShown failed: %v", err)
		}
		if err := repo.MarkShown(ctx, userID, ids[1]); err != nil {
			t.Fatalf("MarkShown failed: %v", err)
		}

		// Pivot between the seen profiles and the unseen one: the forward
		// scan must return only the unseen id.
		pivot := ids[1] + 1
		got, err := repo.SelectUnseenRange(ctx, userID, model.GenderWoman, pivot, 10, repository.ScanForward)
		if err != nil {
			t.Fatalf("SelectUnseenRange forward failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != ids[2] {
			t.Fatalf("expected only unseen profile %d, got %+v", ids[2], got)
		}

		// With the pivot above every id, the forward scan is empty and the
		// wrap scan picks up the remainder in descending order.
		got, err = repo.SelectUnseenRange(ctx, userID, model.GenderWoman, ids[2]+1, 10, repository.ScanForward)
		if err != nil {
			t.Fatalf("SelectUnseenRange forward failed: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty forward scan, got %+v", got)
		}
		got, err = repo.SelectUnseenRange(ctx, userID, model.GenderWoman, ids[2]+1, 10, repository.ScanWrap)
		if err != nil {
			t.Fatalf("SelectUnseenRange wrap failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != ids[2] {
			t.Fatalf("expected wrap scan to find %d, got %+v", ids[2], got)
		}

		// Seen marks are per user.
		other, err := repo.SelectUnseenRange(ctx, 2, model.GenderWoman, ids[0], 10, repository.ScanForward)
		if err != nil {
			t.Fatalf("SelectUnseenRange for other user failed: %v", err)
		}
		if len(other) != 3 {
			t.Errorf("expected all 3 profiles unseen for another user, got %d", len(other))
		}
	})

	t.Run("clear shown reopens the pool", func(t *testing.T) {
		cleanup(t)

		ids := seed(t, []string{"w1.jpg", "w2.jpg"}, model.GenderWoman)
		const userID = 5
		for _, id := range ids {
			if err := repo.MarkShown(ctx, userID, id); err != nil {
				t.Fatalf("MarkShown failed: %v", err)
			}
		}

		got, err := repo.SelectUnseenRange(ctx, userID, model.GenderWoman, ids[0], 10, repository.ScanForward)
		if err != nil {
			t.Fatalf("SelectUnseenRange failed: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected exhausted pool, got %+v", got)
		}

		if err := repo.ClearShown(ctx, userID); err != nil {
			t.Fatalf("ClearShown failed: %v", err)
		}
		got, err = repo.SelectUnseenRange(ctx, userID, model.GenderWoman, ids[0], 10, repository.ScanForward)
		if err != nil {
			t.Fatalf("SelectUnseenRange failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected pool reopened with 2 profiles, got %d", len(got))
		}
	})
}

func TestProcessedUpdatesRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewProcessedUpdatesRepo(testPool)
	ctx := context.Background()

	t.Run("first mark wins, duplicates lose", func(t *testing.T) {
		cleanup(t)

		first, err := repo.TryMark(ctx, 777)
		if err != nil || !first {
			t.Fatalf("first TryMark should win, got %v err=%v", first, err)
		}
		again, err := repo.TryMark(ctx, 777)
		if err != nil {
			t.Fatalf("TryMark failed: %v", err)
		}
		if again {
			t.Error("duplicate update_id must not win")
		}
	})

	t.Run("purge drops only old records", func(t *testing.T) {
		cleanup(t)

		if _, err := repo.TryMark(ctx, 1); err != nil {
			t.Fatalf("TryMark failed: %v", err)
		}
		if _, err := testPool.Exec(ctx,
			`INSERT INTO telegram_processed_updates (update_id, created_at) VALUES (2, now() - interval '5 days');`,
		); err != nil {
			t.Fatalf("seed old record failed: %v", err)
		}

		deleted, err := repo.Purge(ctx, 2)
		if err != nil {
			t.Fatalf("Purge failed: %v", err)
		}
		if deleted != 1 {
			t.Errorf("expected 1 old record deleted, got %d", deleted)
		}

		fresh, err := repo.TryMark(ctx, 1)
		if err != nil {
			t.Fatalf("TryMark failed: %v", err)
		}
		if fresh {
			t.Error("recent record must survive the purge")
		}
	})
}
