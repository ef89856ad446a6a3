// Package app assembles storage, services and token handling from Config.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hongminglow/payments-dashboard/internal/auth"
	"github.com/hongminglow/payments-dashboard/internal/config"
	"github.com/hongminglow/payments-dashboard/internal/payments"
	"github.com/hongminglow/payments-dashboard/internal/server"
	"github.com/hongminglow/payments-dashboard/internal/storage"
	"github.com/hongminglow/payments-dashboard/internal/storage/memory"
	"github.com/hongminglow/payments-dashboard/internal/storage/postgres"
	"github.com/hongminglow/payments-dashboard/internal/users"
)

type App struct {
	Store    storage.Store
	Users    *users.Service
	Payments *payments.Service
	Tokens   *auth.TokenManager
	Log      *slog.Logger
}

// Build opens the configured store and constructs the services on top of it.
func Build(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a, err := New(store, cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

// New builds the services over an already open store.
func New(store storage.Store, cfg config.Config, log *slog.Logger) (*App, error) {
	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return &App{
		Store: store,
		Users: users.NewService(store, hasher, users.SeedAccount{
			Username: cfg.AdminUsername,
			Password: cfg.AdminPassword,
		}, log),
		Payments: payments.NewService(store, payments.Options{
			MaxLimit: cfg.MaxPageLimit,
			Location: cfg.Location(),
		}),
		Tokens: auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL()),
		Log:    log,
	}, nil
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// Deps exposes the services to the HTTP layer.
func (a *App) Deps() server.Deps {
	return server.Deps{
		Users:    a.Users,
		Login:    a.Users,
		Payments: a.Payments,
		Tokens:   a.Tokens,
		Log:      a.Log,
	}
}

// Close releases the store.
func (a *App) Close() {
	a.Store.Close()
}
