package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	pgxv5 "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	manager "github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ewok-core/ewok-paper/internal/config"
	"github.com/ewok-core/ewok-paper/internal/http/router"
	"github.com/ewok-core/ewok-paper/internal/infrastructure/nower"
	"github.com/ewok-core/ewok-paper/internal/repository"
	"github.com/ewok-core/ewok-paper/internal/service"
)

// connectBackoff задержки перед попытками подключения к БД.
var connectBackoff = []time.Duration{0, time.Second, 2 * time.Second, 5 * time.Second}

// App владеет HTTP-сервером исследования и пулом соединений.
type App struct {
	server   *http.Server
	repo     *repository.Storage
	shutdown time.Duration
}

// New применяет миграции, подключается к БД, загружает списки стимулов
// и собирает HTTP-роутер.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := runMigrations(cfg.Database); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	pool, err := connectWithRetry(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	trMgr := manager.Must(pgxv5.NewDefaultFactory(pool))
	repo := repository.New(pool, nower.New())
	svc := service.New(repo, cfg, trMgr)

	// Списки перечитываются при каждом старте, счётчики сохраняются
	loaded, err := svc.LoadStimuli(ctx, cfg.Stimuli.Dir)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("load stimuli: %w", err)
	}
	slog.InfoContext(ctx, "stimulus lists loaded", "dir", cfg.Stimuli.Dir, "count", loaded)

	handler := router.New(svc, cfg, readSwaggerSpec(cfg.Swagger.SpecPath))

	return &App{
		server:   newServer(cfg.HTTP, handler.Router()),
		repo:     repo,
		shutdown: cfg.Timeouts.Shutdown,
	}, nil
}

// Run обслуживает запросы до отмены ctx или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	defer a.repo.Close()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("study server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdown)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func newServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// readSwaggerSpec читает OpenAPI документ; без него /swagger отвечает 204.
func readSwaggerSpec(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("failed to load swagger spec", "path", path, "error", err)
		return nil
	}
	return data
}

func runMigrations(cfg config.DatabaseConfig) error {
	m, err := migrate.New("file://"+cfg.MigrationsPath, cfg.URL)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// poolConfig переносит лимиты пула из конфигурации; нулевые значения оставляют умолчания pgx.
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	if cfg.MinConnections > 0 {
		poolCfg.MinConns = cfg.MinConnections
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	return poolCfg, nil
}

func connectWithRetry(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	var lastErr error
	for attempt, delay := range connectBackoff {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		slog.Warn("failed to connect to database, retrying", "attempt", attempt+1, "error", err)
	}
	return nil, fmt.Errorf("connect db: %w", lastErr)
}
