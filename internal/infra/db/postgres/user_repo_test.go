//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
)

func TestUserRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewUserRepo(testPool)
	ctx := context.Background()

	t.Run("register is idempotent and updates language", func(t *testing.T) {
		cleanup(t)

		if err := repo.Register(ctx, 100, "en"); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if err := repo.Register(ctx, 100, "ru"); err != nil {
			t.Fatalf("second Register failed: %v", err)
		}

		registered, err := repo.IsRegistered(ctx, 100)
		if err != nil || !registered {
			t.Fatalf("expected user registered, got %v err=%v", registered, err)
		}
		lang, err := repo.GetLanguage(ctx, 100)
		if err != nil {
			t.Fatalf("GetLanguage failed: %v", err)
		}
		if lang != "ru" {
			t.Errorf("expected language updated to ru, got %q", lang)
		}
	})

	t.Run("preference round trip", func(t *testing.T) {
		cleanup(t)

		if err := repo.Register(ctx, 101, "en"); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		pref, err := repo.GetPreference(ctx, 101)
		if err != nil {
			t.Fatalf("GetPreference failed: %v", err)
		}
		if pref != nil {
			t.Fatalf("expected no preference, got %v", *pref)
		}

		if err := repo.SetPreference(ctx, 101, model.GenderWoman); err != nil {
			t.Fatalf("SetPreference failed: %v", err)
		}
		pref, err = repo.GetPreference(ctx, 101)
		if err != nil {
			t.Fatalf("GetPreference failed: %v", err)
		}
		if pref == nil || *pref != model.GenderWoman {
			t.Errorf("expected woman preference, got %v", pref)
		}
	})

	t.Run("gate caps concurrent enqueues", func(t *testing.T) {
		cleanup(t)

		if err := repo.Register(ctx, 102, "en"); err != nil {
			t.Fatalf("Register failed: %v", err)
		}

		// The cooldown is zero so only the daily cap limits successes.
		const cap = 5
		const attempts = 30
		now := time.Now().UTC()

		var mu sync.Mutex
		var wg sync.WaitGroup
		successes := 0
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.TryMarkPushEnqueued(ctx, 102, now, cap, 0)
				if err != nil {
					t.Errorf("TryMarkPushEnqueued failed: %v", err)
					return
				}
				if ok {
					mu.Lock()
					successes++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if successes != cap {
			t.Errorf("expected exactly %d successful claims, got %d", cap, successes)
		}
	})

	t.Run("gate respects cooldown and status", func(t *testing.T) {
		cleanup(t)

		if err := repo.Register(ctx, 103, "en"); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		now := time.Now().UTC()

		ok, err := repo.TryMarkPushEnqueued(ctx, 103, now, 5, time.Hour)
		if err != nil || !ok {
			t.Fatalf("first claim should succeed, got ok=%v err=%v", ok, err)
		}
		ok, err = repo.TryMarkPushEnqueued(ctx, 103, now.Add(time.Minute), 5, time.Hour)
		if err != nil {
			t.Fatalf("TryMarkPushEnqueued failed: %v", err)
		}
		if ok {
			t.Error("claim inside the cooldown must fail")
		}
		ok, err = repo.TryMarkPushEnqueued(ctx, 103, now.Add(2*time.Hour), 5, time.Hour)
		if err != nil || !ok {
			t.Fatalf("claim after the cooldown should succeed, got ok=%v err=%v", ok, err)
		}

		if err := repo.Deactivate(ctx, 103); err != nil {
			t.Fatalf("Deactivate failed: %v", err)
		}
		ok, err = repo.TryMarkPushEnqueued(ctx, 103, now.Add(5*time.Hour), 5, time.Hour)
		if err != nil {
			t.Fatalf("TryMarkPushEnqueued failed: %v", err)
		}
		if ok {
			t.Error("inactive users must never be claimed")
		}
	})

	t.Run("find due orders by staleness and reset reopens the day", func(t *testing.T) {
		cleanup(t)

		now := time.Now().UTC()
		for id, lastPush := range map[int64]*time.Time{
			201: nil, // never pushed
			202: ptrTime(now.Add(-3 * time.Hour)),
			203: ptrTime(now.Add(-10 * time.Minute)), // inside cooldown
		} {
			if err := repo.Register(ctx, id, "en"); err != nil {
				t.Fatalf("Register failed: %v", err)
			}
			if lastPush != nil {
				if err := repo.TouchLastPush(ctx, id, *lastPush); err != nil {
					t.Fatalf("TouchLastPush failed: %v", err)
				}
			}
		}

		due, err := repo.FindDue(ctx, now, 5, time.Hour, 10)
		if err != nil {
			t.Fatalf("FindDue failed: %v", err)
		}
		if len(due) != 2 {
			t.Fatalf("expected 2 due users, got %d: %+v", len(due), due)
		}
		if due[0].ID != 201 || due[1].ID != 202 {
			t.Errorf("expected never-pushed first, got %+v", due)
		}

		// Exhaust 201's day, then reset.
		for i := 0; i < 5; i++ {
			if _, err := repo.TryMarkPushEnqueued(ctx, 201, now.Add(time.Duration(i+1)*2*time.Hour), 5, time.Hour); err != nil {
				t.Fatalf("TryMarkPushEnqueued failed: %v", err)
			}
		}
		ok, err := repo.TryMarkPushEnqueued(ctx, 201, now.Add(24*time.Hour), 5, time.Hour)
		if err != nil {
			t.Fatalf("TryMarkPushEnqueued failed: %v", err)
		}
		if ok {
			t.Fatal("claim past the daily cap must fail")
		}

		affected, err := repo.ResetDailyCounters(ctx)
		if err != nil {
			t.Fatalf("ResetDailyCounters failed: %v", err)
		}
		if affected == 0 {
			t.Error("expected at least one counter reset")
		}
		ok, err = repo.TryMarkPushEnqueued(ctx, 201, now.Add(24*time.Hour), 5, time.Hour)
		if err != nil || !ok {
			t.Fatalf("claim after reset should succeed, got ok=%v err=%v", ok, err)
		}
	})
}

func ptrTime(t time.Time) *time.Time { return &t }
