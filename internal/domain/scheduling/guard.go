package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Guard serializes bookings for one professional and day so the gap between
// the conflict check and the write cannot be raced.
type Guard interface {
	// Acquire returns ErrGuardBusy when the key is already held.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// NopGuard never blocks.
type NopGuard struct{}

func (NopGuard) Acquire(context.Context, string) (func(), error) { return func() {}, nil }

// Locker is a try-lock keyed by string, returning an owner token on success.
type Locker interface {
	TryLock(ctx context.Context, key string) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// LockGuard adapts a Locker to the Guard contract.
type LockGuard struct {
	locker Locker
	logger zerolog.Logger
}

func NewLockGuard(locker Locker, logger zerolog.Logger) *LockGuard {
	return &LockGuard{locker: locker, logger: logger.With().Str("component", "booking_guard").Logger()}
}

func (g *LockGuard) Acquire(ctx context.Context, key string) (func(), error) {
	token, ok, err := g.locker.TryLock(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGuardBusy, key)
	}
	return func() {
		// The request context may already be done; unlock on a fresh one.
		uctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := g.locker.Unlock(uctx, key, token); err != nil {
			// Usually the lock expired before release and may be held elsewhere.
			g.logger.Warn().Err(err).Str("key", key).Msg("releasing booking lock failed")
		}
	}, nil
}

func guardKey(professionalID uuid.UUID, day DayRange) string {
	return "booking:" + professionalID.String() + ":" + day.Start.Format("2006-01-02")
}
