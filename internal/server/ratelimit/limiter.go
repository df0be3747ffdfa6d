// Package ratelimit throttles requests per (category, client IP) with
// fixed windows evaluated on an injectable clock.
package ratelimit

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

var (
	ErrUnknownCategory = errors.New("unknown rate limit category")
	ErrMissingIP       = errors.New("client ip is required for rate limiting")
)

// Limit allows Points requests per Window. The window opens with the first
// request of a (category, ip) pair and the full budget returns only once it
// has elapsed.
type Limit struct {
	Points int
	Window time.Duration
}

// Result describes one Consume decision. Remaining is the number of
// requests still available in the window; ResetAt is when it closes.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

type bucketKey struct {
	category string
	ip       string
}

// bucket holds one window. Its limiter refills one point per Window, so it
// cannot regain a point before resetAt, when it is replaced.
type bucket struct {
	lim     *rate.Limiter
	resetAt time.Time
}

func newBucket(lim Limit, now time.Time) *bucket {
	return &bucket{lim: rate.NewLimiter(rate.Every(lim.Window), lim.Points), resetAt: now.Add(lim.Window)}
}

type Limiter struct {
	clock  clockwork.Clock
	limits map[string]Limit

	mu        sync.Mutex
	buckets   map[bucketKey]*bucket
	lastPrune time.Time
	maxWindow time.Duration
}

func New(clock clockwork.Clock, limits map[string]Limit) *Limiter {
	l := &Limiter{
		clock:     clock,
		limits:    make(map[string]Limit, len(limits)),
		buckets:   make(map[bucketKey]*bucket),
		lastPrune: clock.Now(),
	}
	for name, lim := range limits {
		l.limits[name] = lim
		if lim.Window > l.maxWindow {
			l.maxWindow = lim.Window
		}
	}
	return l
}

// Consume takes one point from the bucket of (category, ip). A denied
// request does not consume anything.
func (l *Limiter) Consume(category, ip string) (Result, error) {
	lim, ok := l.limits[category]
	if !ok {
		return Result{}, ErrUnknownCategory
	}
	if ip == "" {
		return Result{}, ErrMissingIP
	}

	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.pruneLocked(now)

	key := bucketKey{category: category, ip: ip}
	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = newBucket(lim, now)
		l.buckets[key] = b
	}

	res := Result{Limit: lim.Points, ResetAt: b.resetAt}
	if !b.lim.AllowN(now, 1) {
		res.RetryAfter = b.resetAt.Sub(now)
		return res, nil
	}

	res.Allowed = true
	res.Remaining = int(math.Floor(b.lim.TokensAt(now)))
	return res, nil
}

// Limits returns the configured limit of category.
func (l *Limiter) Limits(category string) (Limit, bool) {
	lim, ok := l.limits[category]
	return lim, ok
}

// pruneLocked drops buckets whose window has closed.
func (l *Limiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < l.maxWindow {
		return
	}
	l.lastPrune = now

	for k, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, k)
		}
	}
}

// Size reports the number of live buckets.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
