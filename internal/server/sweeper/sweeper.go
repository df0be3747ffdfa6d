// Package sweeper periodically deletes expired key leases, login tokens
// and access tokens from the secret store.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/clipher/internal/logging"
	"github.com/dmitrijs2005/clipher/internal/server/repositories/repomanager"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrAlreadyRunning is returned by RunOnce while another sweep is in progress.
	ErrAlreadyRunning = errors.New("sweep already running")
	// ErrStoreUnavailable is returned when the store does not answer a ping.
	ErrStoreUnavailable = errors.New("store unavailable")
)

type Sweeper struct {
	store    repomanager.RepositoryManager
	clock    clockwork.Clock
	interval time.Duration
	log      logging.Logger

	// Verbose lists the records about to be removed at debug level.
	Verbose bool

	running atomic.Bool
	wg      sync.WaitGroup
}

func New(store repomanager.RepositoryManager, clock clockwork.Clock, interval time.Duration, log logging.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		clock:    clock,
		interval: interval,
		log:      log.With("module", "sweeper"),
	}
}

// Run sweeps every interval until ctx is done, then waits for an in-flight
// sweep to finish.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.tick(ctx)
			}()
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	n, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		s.log.Debug(ctx, "previous sweep still running, skipping")
	case errors.Is(err, ErrStoreUnavailable):
		s.log.Warn(ctx, "store unavailable, skipping sweep", "error", err)
	case err != nil:
		s.log.Error(ctx, "sweep failed", "error", err, "deleted", n)
	case n > 0:
		s.log.Info(ctx, "expired records deleted", "count", n)
	}
}

// RunOnce performs a single sweep at the clock's current time and returns
// the number of deleted records.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	if !s.running.CompareAndSwap(false, true) {
		return 0, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	if err := s.store.Ping(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := s.clock.Now()
	if s.Verbose {
		s.logExpired(ctx, now)
	}

	var total atomic.Int64
	g, gctx := errgroup.WithContext(ctx)

	for name, del := range map[string]func(context.Context, time.Time) (int64, error){
		"leases":        s.store.Leases().DeleteExpired,
		"login_tokens":  s.store.LoginTokens().DeleteExpired,
		"access_tokens": s.store.AccessTokens().DeleteExpired,
	} {
		g.Go(func() error {
			n, err := del(gctx, now)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			total.Add(n)
			return nil
		})
	}

	err := g.Wait()
	return total.Load(), err
}

func (s *Sweeper) logExpired(ctx context.Context, now time.Time) {
	if ls, err := s.store.Leases().ListExpired(ctx, now); err == nil {
		for _, l := range ls {
			s.log.Debug(ctx, "expired key lease", "username", l.UserName, "expires_at", l.ExpiresAt)
		}
	}
	if ts, err := s.store.LoginTokens().ListExpired(ctx, now); err == nil {
		for _, t := range ts {
			s.log.Debug(ctx, "expired login token", "username", t.UserName, "expires_at", t.ExpiresAt)
		}
	}
	if ts, err := s.store.AccessTokens().ListExpired(ctx, now); err == nil {
		for _, t := range ts {
			s.log.Debug(ctx, "expired access token", "username", t.UserName, "expires_at", t.ExpiresAt)
		}
	}
}
