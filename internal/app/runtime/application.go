// Package runtime wires configuration, stores, services and the HTTP server
// into a runnable process.
package runtime

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"

	app "github.com/xam-dev-ux/BaseReview/internal/app"
	"github.com/xam-dev-ux/BaseReview/internal/app/events"
	"github.com/xam-dev-ux/BaseReview/internal/app/httpapi"
	"github.com/xam-dev-ux/BaseReview/internal/app/storage/postgres"
	"github.com/xam-dev-ux/BaseReview/internal/config"
	"github.com/xam-dev-ux/BaseReview/pkg/logger"
)

// Application wires core dependencies and manages the process lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	app        *app.Application
	httpServer *http.Server
	db         *sqlx.DB
}

// NewApplication constructs a runnable instance from the config at path. An
// empty path uses environment variables only.
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.Logging)

	stores, db, err := buildStores(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("configure stores: %w", err)
	}

	application, err := app.New(stores, app.Options{Admins: cfg.Admins}, log)
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}

	if cfg.Redis.Addr != "" {
		publisher := events.NewRedisPublisher(application.Bus, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err := application.Attach(publisher); err != nil {
			return nil, fmt.Errorf("attach redis publisher: %w", err)
		}
	}

	var auth *httpapi.AuthMiddleware
	if cfg.Auth.JWTSecret != "" {
		auth = httpapi.NewAuthMiddleware(cfg.Auth.JWTSecret, log)
	} else {
		log.Warn("AUTH_JWT_SECRET not set; API runs unauthenticated")
	}

	handler := httpapi.NewHandler(application, httpapi.Options{
		Auth:      auth,
		RateLimit: httpapi.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Application{
		cfg:        cfg,
		log:        log,
		app:        application,
		httpServer: httpServer,
		db:         db,
	}, nil
}

func buildStores(cfg *config.Config, log *logger.Logger) (app.Stores, *sqlx.DB, error) {
	if cfg.Database.DSN == "" {
		log.Warn("DATABASE_DSN not set; using in-memory store")
		return app.Stores{}, nil, nil
	}

	db, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime)
	if err != nil {
		return app.Stores{}, nil, err
	}

	if cfg.Database.Migrate {
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return app.Stores{}, nil, err
		}
	}

	store := postgres.New(db)
	return app.Stores{
		Apps:     store,
		Reviews:  store,
		Votes:    store,
		Disputes: store,
		Escrows:  store,
		Params:   store,
	}, db, nil
}

// Run starts the services and the HTTP server, blocking until the context is
// cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Infof("HTTP server listening on %s", a.cfg.Server.Addr())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server and the services.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("error shutting down HTTP server")
	}

	if err := a.app.Stop(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("error stopping services")
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
	return nil
}
