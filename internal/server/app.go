// Package server wires configuration, storage, services and the HTTP API
// into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/kbcenter/internal/logging"
	"github.com/dmitrijs2005/kbcenter/internal/server/auth"
	"github.com/dmitrijs2005/kbcenter/internal/server/config"
	"github.com/dmitrijs2005/kbcenter/internal/server/httpapi"
	"github.com/dmitrijs2005/kbcenter/internal/server/observability"
	"github.com/dmitrijs2005/kbcenter/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/kbcenter/internal/server/services"
)

// seams for tests
var (
	openDB               = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }
	newRepositoryManager = func() repomanager.RepositoryManager { return repomanager.NewPostgresRepositoryManager() }
	logOutput            = io.Writer(os.Stdout)
	pingBackoff          = func() retry.Backoff {
		return retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	}
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.Server
}

// NewApp connects to the database, applies migrations and builds the
// services. The database is pinged with exponential backoff first so the
// server can start alongside its database container.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSONLogger(logOutput, level)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(c.DBMaxConns)
	db.SetMaxIdleConns(c.DBMaxConns)

	app, err := newApp(ctx, c, logger, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB) (*App, error) {
	if err := waitForDB(ctx, db, logger); err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, err
	}

	hasher, err := auth.NewArgon2Hasher(auth.DefaultParams)
	if err != nil {
		return nil, err
	}
	codec, err := auth.NewTokenCodec([]byte(c.SecretKey), c.TokenValidityDuration)
	if err != nil {
		return nil, err
	}

	accounts, err := services.NewAccountService(db, rm, hasher, codec, logger)
	if err != nil {
		return nil, err
	}

	var store services.ObjectStore
	if c.AttachmentsEnabled() {
		store = services.NewS3Store(c)
	} else {
		logger.Warn(ctx, "object storage not configured, attachments disabled")
	}

	reg, metrics := observability.NewRegistry()

	srv := httpapi.NewServer(httpapi.Options{
		Address:        c.EndpointAddrHTTP,
		Logger:         logger,
		Accounts:       accounts,
		Entries:        services.NewEntryService(db, rm, store, logger),
		Replies:        services.NewReplyService(db, rm, logger),
		Metrics:        metrics,
		Registry:       reg,
		AllowedOrigins: c.Origins(),
		Ready:          db.PingContext,
	})

	return &App{config: c, logger: logger, db: db, http: srv}, nil
}

func waitForDB(ctx context.Context, db *sql.DB, logger logging.Logger) error {
	attempt := 0
	return retry.Do(ctx, pingBackoff(), func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			logger.Warn(ctx, "database not ready", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg     sync.WaitGroup
		runErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.http.Run(ctx); err != nil {
			logging.LogError(ctx, app.logger, "http server failed", err)
			runErr = err
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		logging.LogWarn(ctx, app.logger, "db close failed", err)
	}
	app.logger.Info(ctx, "App stopped")
	return runErr
}
