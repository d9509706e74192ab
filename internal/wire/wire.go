// Package wire provides dependency injection for the shiftcover application.
// It creates singleton services with lazy initialization.
package wire

import (
	"database/sql"
	"log"
	"sync"

	"go.uber.org/zap"

	"github.com/example/shiftcover/internal/adapters/notify"
	"github.com/example/shiftcover/internal/adapters/sqlite"
	"github.com/example/shiftcover/internal/app"
	"github.com/example/shiftcover/internal/clock"
	"github.com/example/shiftcover/internal/config"
	"github.com/example/shiftcover/internal/db"
	"github.com/example/shiftcover/internal/ports/primary"
	"github.com/example/shiftcover/internal/ports/secondary"
)

var (
	cfg              *config.Config
	broadcastRepo    secondary.BroadcastRepository
	broadcastService primary.BroadcastService
	once             sync.Once
)

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// BroadcastService returns the singleton BroadcastService instance.
func BroadcastService() primary.BroadcastService {
	once.Do(initServices)
	return broadcastService
}

// BroadcastRepository returns the singleton repository instance.
func BroadcastRepository() secondary.BroadcastRepository {
	once.Do(initServices)
	return broadcastRepo
}

// Sweeper builds a sweeper on the shared repository and configuration.
// The caller owns the logger; `sweep` runs one silent pass with a no-op
// logger while `serve` passes its long-lived one.
func Sweeper(logger *zap.Logger) *app.Sweeper {
	once.Do(initServices)
	notifier := notify.NewLogNotifier(logger)
	return app.NewSweeper(broadcastRepo, cfg, notifier, clock.System(), logger, cfg.ExpireOverdueEnabled())
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	path, err := config.DefaultPath()
	if err != nil {
		log.Fatalf("failed to locate config: %v", err)
	}
	cfg, err = config.Load(path)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	conn, err := openDB(cfg)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	broadcastRepo = sqlite.NewBroadcastRepository(conn)
	broadcastService = app.NewBroadcastService(broadcastRepo, clock.System())
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	if cfg.DBPath != "" {
		return db.GetDBAt(cfg.DBPath)
	}
	return db.GetDB()
}
