// Package server initializes and runs the blabber application: it opens the
// database, applies migrations, wires the services and starts the HTTP server
// with graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ChutneyCheeseball/blabber/internal/logging"
	"github.com/ChutneyCheeseball/blabber/internal/server/config"
	"github.com/ChutneyCheeseball/blabber/internal/server/hashing"
	"github.com/ChutneyCheeseball/blabber/internal/server/metrics"
	"github.com/ChutneyCheeseball/blabber/internal/server/repositories/repomanager"
	"github.com/ChutneyCheeseball/blabber/internal/server/services"
	"github.com/ChutneyCheeseball/blabber/internal/server/web"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *web.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher := hashing.NewHasher(cfg.BcryptCost, cfg.HashWorkers)
	us := services.NewUserService(db, rm, hasher, cfg)
	bs := services.NewBlabService(db, rm)

	srv := web.NewServer(cfg.EndpointAddrHTTP, logger, us, bs,
		rm.Users(db), cfg.SecretKey, cfg.GuardLookupTimeout, metrics.New())

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
