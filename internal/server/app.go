// Package server wires configuration, storage and services together and runs
// the REST API alongside the gRPC health endpoint until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/afterlight/internal/logging"
	"github.com/dmitrijs2005/afterlight/internal/server/api"
	"github.com/dmitrijs2005/afterlight/internal/server/config"
	"github.com/dmitrijs2005/afterlight/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/afterlight/internal/server/services"

	gs "github.com/dmitrijs2005/afterlight/internal/server/grpc"
)

const tokenPurgeInterval = time.Hour

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *api.Server
	health *gs.HealthServer
	users  *services.UserService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(os.Stdout, c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	presigner, err := services.NewS3Presigner(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("s3 init error: %w", err)
	}

	us := services.NewUserService(db, rm, c)
	vs := services.NewVaultService(db, rm)
	as := services.NewArtifactService(db, rm, vs)
	obs := services.NewObjectService(vs, presigner, c)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		api:    api.NewServer(logger, db, us, vs, as, obs),
		health: gs.NewHealthServer(c.HealthAddrGRPC, logger, db, 0),
		users:  us,
	}, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           app.api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

type tokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// purgeExpiredTokens deletes expired refresh tokens every interval until ctx
// is done.
func purgeExpiredTokens(ctx context.Context, p tokenPurger, interval time.Duration, logger logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PurgeExpiredTokens(ctx)
			if err != nil {
				logger.Error(ctx, "purge expired tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "purged expired refresh tokens", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		purgeExpiredTokens(ctx, app.users, tokenPurgeInterval, app.logger)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
