package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/copywriting24/genapi/internal/record"
)

const overrideCacheTTL = 60 * time.Second

// Counter is the slice of the record store the ledger reads.
type Counter interface {
	CountByFingerprintSince(ctx context.Context, fingerprint string, since time.Time) (int, error)
	CountByIPSince(ctx context.Context, ip string, since time.Time) (int, error)
}

// Status answers "is this request allowed, and how many remain".
type Status struct {
	Allowed        bool
	Remaining      int
	EffectiveLimit int
	Bonus          int
	ResetAt        time.Time
}

// Ledger computes daily usage from the record store on every check. Usage
// is counted on two independent axes (fingerprint and IP) and the larger
// count is charged against the limit, so clearing one identifier does not
// reset the quota.
type Ledger struct {
	counter   Counter
	overrides record.OverrideStore
	cache     *redis.Client // optional; nil disables override caching
	baseLimit int
}

func NewLedger(counter Counter, overrides record.OverrideStore, cache *redis.Client, baseLimit int) *Ledger {
	return &Ledger{
		counter:   counter,
		overrides: overrides,
		cache:     cache,
		baseLimit: baseLimit,
	}
}

func (l *Ledger) BaseLimit() int {
	return l.baseLimit
}

// Check is a pure read: the counts it aggregates are a by-product of the
// orchestrator's record writes. Counts are taken at the check instant with
// no cross-request locking, so concurrent requests near the boundary may
// overshoot slightly.
func (l *Ledger) Check(ctx context.Context, fingerprint, ip string) (*Status, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	resetAt := startOfDay.AddDate(0, 0, 1)

	fpCount, err := l.counter.CountByFingerprintSince(ctx, fingerprint, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("quota: fingerprint count failed: %w", err)
	}
	ipCount, err := l.counter.CountByIPSince(ctx, ip, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("quota: ip count failed: %w", err)
	}

	bonus := l.bonusFor(ctx, ip)
	effectiveLimit := l.baseLimit + bonus

	usedCount := fpCount
	if ipCount > usedCount {
		usedCount = ipCount
	}

	remaining := effectiveLimit - usedCount
	if remaining < 0 {
		remaining = 0
	}

	return &Status{
		Allowed:        usedCount < effectiveLimit,
		Remaining:      remaining,
		EffectiveLimit: effectiveLimit,
		Bonus:          bonus,
		ResetAt:        resetAt,
	}, nil
}

// bonusFor never fails the admission check: any error on the override
// path falls open to the base quota.
func (l *Ledger) bonusFor(ctx context.Context, ip string) int {
	cacheKey := fmt.Sprintf("quota:override:%s", ip)

	if l.cache != nil {
		var o record.Override
		err := l.cache.Get(ctx, cacheKey).Scan(&o)
		if err == nil {
			return o.Bonus
		}
		if err != redis.Nil {
			logrus.WithError(err).Warn("quota: override cache read failed")
		}
	}

	o, err := l.overrides.Get(ctx, ip)
	if err != nil {
		if !errors.Is(err, record.ErrOverrideNotFound) {
			logrus.WithError(err).WithField("ip", ip).Warn("quota: override lookup failed, using base limit")
		}
		return 0
	}

	if l.cache != nil {
		_ = l.cache.Set(ctx, cacheKey, o, overrideCacheTTL).Err()
	}

	return o.Bonus
}

// Invalidate drops the cached override for an IP after an admin change.
func (l *Ledger) Invalidate(ctx context.Context, ip string) {
	if l.cache == nil {
		return
	}
	_ = l.cache.Del(ctx, fmt.Sprintf("quota:override:%s", ip)).Err()
}
