package postgres

import (
	"context"
	"testing"

	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/model"
	"github.com/beekboff/client-1-datingbot-mainbot/internal/domain/ports/repository"
)

type stubProfileRepo struct {
	repository.ProfileRepository

	boundsCalls int
	bounds      model.Bounds
	createdID   int64
	created     bool
}

func (s *stubProfileRepo) Bounds(context.Context, model.Gender) (model.Bounds, error) {
	s.boundsCalls++
	return s.bounds, nil
}

func (s *stubProfileRepo) CreateIfNotExists(context.Context, string, model.Gender) (int64, bool, error) {
	return s.createdID, s.created, nil
}

type memBoundsCache struct {
	entries map[model.Gender]model.Bounds
}

func newMemBoundsCache() *memBoundsCache {
	return &memBoundsCache{entries: make(map[model.Gender]model.Bounds)}
}

func (c *memBoundsCache) Get(_ context.Context, gender model.Gender) (model.Bounds, bool) {
	b, ok := c.entries[gender]
	return b, ok
}

func (c *memBoundsCache) Set(_ context.Context, gender model.Gender, b model.Bounds) {
	c.entries[gender] = b
}

func (c *memBoundsCache) Invalidate(_ context.Context, gender model.Gender) {
	delete(c.entries, gender)
}

func TestBoundsDecoratorCachesValidBounds(t *testing.T) {
	inner := &stubProfileRepo{bounds: model.Bounds{Min: 3, Max: 90}}
	cache := newMemBoundsCache()
	repo := NewProfileRepoCacheDecorator(inner, cache)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		b, err := repo.Bounds(ctx, model.GenderWoman)
		if err != nil {
			t.Fatalf("Bounds failed: %v", err)
		}
		if b.Min != 3 || b.Max != 90 {
			t.Fatalf("unexpected bounds %+v", b)
		}
	}
	if inner.boundsCalls != 1 {
		t.Fatalf("expected a single database query, got %d", inner.boundsCalls)
	}
}

func TestBoundsDecoratorDoesNotCacheEmptyPool(t *testing.T) {
	inner := &stubProfileRepo{}
	repo := NewProfileRepoCacheDecorator(inner, newMemBoundsCache())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := repo.Bounds(ctx, model.GenderMan); err != nil {
			t.Fatalf("Bounds failed: %v", err)
		}
	}
	if inner.boundsCalls != 2 {
		t.Fatalf("empty bounds must not be cached, got %d queries", inner.boundsCalls)
	}
}

func TestCreateInvalidatesBoundsOnNewProfile(t *testing.T) {
	inner := &stubProfileRepo{bounds: model.Bounds{Min: 1, Max: 5}, createdID: 6, created: true}
	cache := newMemBoundsCache()
	repo := NewProfileRepoCacheDecorator(inner, cache)
	ctx := context.Background()

	if _, err := repo.Bounds(ctx, model.GenderWoman); err != nil {
		t.Fatalf("Bounds failed: %v", err)
	}
	if _, ok := cache.Get(ctx, model.GenderWoman); !ok {
		t.Fatal("expected bounds cached")
	}

	if _, _, err := repo.CreateIfNotExists(ctx, "new.jpg", model.GenderWoman); err != nil {
		t.Fatalf("CreateIfNotExists failed: %v", err)
	}
	if _, ok := cache.Get(ctx, model.GenderWoman); ok {
		t.Fatal("expected bounds invalidated after a new profile")
	}

	// An existing profile leaves the cache alone.
	inner.created = false
	if _, err := repo.Bounds(ctx, model.GenderWoman); err != nil {
		t.Fatalf("Bounds failed: %v", err)
	}
	if _, _, err := repo.CreateIfNotExists(ctx, "new.jpg", model.GenderWoman); err != nil {
		t.Fatalf("CreateIfNotExists failed: %v", err)
	}
	if _, ok := cache.Get(ctx, model.GenderWoman); !ok {
		t.Fatal("existing profile must not invalidate the cache")
	}
}
