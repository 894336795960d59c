package service

import (
	"context"
	"time"

	"github.com/Trust-Mwendabai/CDIMS/internal/repo"
)

const (
	defaultMaxAttempts   = 5
	defaultLockoutWindow = 900 * time.Second
)

// BruteForceGuard enforces a per-IP lockout after repeated failed logins.
// Stale rows are purged lazily on every check rather than by a background
// sweep, so a locked IP becomes eligible again once the window elapses.
//
// If the store is unreachable during a check the guard reports locked:
// availability is sacrificed for security.
type BruteForceGuard struct {
	attempts    repo.LoginAttemptRepo
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

// NewBruteForceGuard returns a guard over the attempt store. Non-positive
// maxAttempts or window fall back to 5 attempts / 900s.
func NewBruteForceGuard(attempts repo.LoginAttemptRepo, maxAttempts int, window time.Duration) *BruteForceGuard {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultLockoutWindow
	}
	return &BruteForceGuard{
		attempts:    attempts,
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// IsLocked reports whether the IP is currently locked out. A store error is
// returned alongside locked=true (fail closed).
func (g *BruteForceGuard) IsLocked(ctx context.Context, ip string) (bool, error) {
	cutoff := g.now().Add(-g.window)
	if err := g.attempts.PurgeOlderThan(ctx, cutoff); err != nil {
		return true, err
	}
	n, err := g.attempts.Attempts(ctx, ip)
	if err != nil {
		return true, err
	}
	return n >= g.maxAttempts, nil
}

// RecordFailure counts one failed login for the IP.
func (g *BruteForceGuard) RecordFailure(ctx context.Context, ip string) error {
	return g.attempts.RecordFailure(ctx, ip, g.now())
}

// Reset clears the IP's counter after a successful login.
func (g *BruteForceGuard) Reset(ctx context.Context, ip string) error {
	return g.attempts.Clear(ctx, ip)
}
