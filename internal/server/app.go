// Package server wires the clipher server together: logger, secret store,
// crypto pool, credential service, rate limiter, sweeper and the HTTP API.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/clipher/internal/cryptox"
	"github.com/dmitrijs2005/clipher/internal/logging"
	"github.com/dmitrijs2005/clipher/internal/server/auth"
	"github.com/dmitrijs2005/clipher/internal/server/config"
	"github.com/dmitrijs2005/clipher/internal/server/httpapi"
	"github.com/dmitrijs2005/clipher/internal/server/ratelimit"
	"github.com/dmitrijs2005/clipher/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/clipher/internal/server/services"
	"github.com/dmitrijs2005/clipher/internal/server/sweeper"
	"github.com/dmitrijs2005/clipher/internal/workerpool"
	"github.com/jonboulle/clockwork"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	syncLog func() error
	store   repomanager.RepositoryManager
	sweeper *sweeper.Sweeper
	server  *httpapi.Server
}

// NewApp builds the application. The store is opened (and migrated) here
// and closed when Run returns.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, clockwork.NewRealClock(), os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, clock clockwork.Clock, out io.Writer) (*App, error) {
	logger, syncLog, err := logging.New(logging.Options{Backend: c.LogBackend, Level: c.LogLevel, Dev: c.LogDev}, out)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	store, err := repomanager.Open(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("store init error: %w", err)
	}

	suite := cryptox.NewSuite(c.RSAKeyBits, c.BcryptCost, c.TfaIssuer)
	pool := workerpool.New(c.CryptoWorkers)
	signer := auth.NewSigner([]byte(c.SecretKey), clock)

	cs := services.NewCredentialService(store, suite, signer, pool, clock, c, logger)

	limits := make(map[string]ratelimit.Limit, len(c.RateLimits))
	for name, rl := range c.RateLimits {
		limits[name] = ratelimit.Limit{Points: rl.Points, Window: rl.Window}
	}
	limiter := ratelimit.New(clock, limits)

	sw := sweeper.New(store, clock, c.SweepInterval, logger)
	sw.Verbose = c.LogLevel == "debug"

	h := httpapi.NewHandler(cs, limiter, logger)
	srv := httpapi.NewServer(c.EndpointAddrHTTP, httpapi.NewRouter(h, logger), logger)

	return &App{
		config:  c,
		logger:  logger,
		syncLog: syncLog,
		store:   store,
		sweeper: sw,
		server:  srv,
	}, nil
}

// Run serves until ctx is cancelled or the HTTP server fails, then stops
// the sweeper and closes the store.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreDriver, "address", app.config.EndpointAddrHTTP)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
	}
	cancelFunc()
	wg.Wait()

	if cerr := app.store.Close(); cerr != nil {
		app.logger.Error(ctx, "store close failed", "error", cerr)
	}
	app.logger.Info(ctx, "Stopped")
	_ = app.syncLog()

	return err
}
