package professional

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newCachedRepo(t *testing.T) (*CachedRepository, *mockRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	inner := newMockRepo()
	return NewCachedRepository(inner, client, time.Minute, zerolog.Nop()), inner, mr
}

func TestCachedRepository_ReadThrough(t *testing.T) {
	cached, inner, mr := newCachedRepo(t)
	ctx := context.Background()
	p := &Professional{Name: "Dr. Ana", Active: true, Availability: weekdayShift()}
	cached.Create(ctx, p)

	first, err := cached.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := cached.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.gets != 1 {
		t.Errorf("expected one repository read, got %d", inner.gets)
	}
	if !mr.Exists(cacheKey(p.ID)) {
		t.Error("expected cache entry to be written")
	}
	if second.Name != first.Name || second.Availability.PrimaryShift == nil {
		t.Errorf("cached copy differs: %+v", second)
	}
	if len(second.Availability.Breaks) != 1 || second.Availability.Breaks[0].String() != "12:00-13:00" {
		t.Errorf("expected break to survive caching, got %+v", second.Availability.Breaks)
	}
}

func TestCachedRepository_UpdateEvicts(t *testing.T) {
	cached, inner, mr := newCachedRepo(t)
	ctx := context.Background()
	p := &Professional{Name: "Dr. Ana", Active: true}
	cached.Create(ctx, p)
	cached.GetByID(ctx, p.ID)

	p.Name = "Dr. Bia"
	if err := cached.Update(ctx, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists(cacheKey(p.ID)) {
		t.Error("expected cache entry to be evicted")
	}
	got, _ := cached.GetByID(ctx, p.ID)
	if got.Name != "Dr. Bia" {
		t.Errorf("expected fresh read, got %s", got.Name)
	}
	if inner.gets != 2 {
		t.Errorf("expected two repository reads, got %d", inner.gets)
	}
}

func TestCachedRepository_NotFoundIsNotCached(t *testing.T) {
	cached, _, mr := newCachedRepo(t)
	id := uuid.New()
	if _, err := cached.GetByID(context.Background(), id); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mr.Exists(cacheKey(id)) {
		t.Error("misses must not be cached")
	}
}

func TestCachedRepository_RedisDownFallsBack(t *testing.T) {
	cached, _, mr := newCachedRepo(t)
	ctx := context.Background()
	p := &Professional{Name: "Dr. Ana"}
	cached.Create(ctx, p)
	mr.Close()

	got, err := cached.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("expected fallback read, got %v", err)
	}
	if got.Name != "Dr. Ana" {
		t.Errorf("unexpected professional %+v", got)
	}
}
