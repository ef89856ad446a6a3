package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hongminglow/payments-dashboard/internal/app"
	"github.com/hongminglow/payments-dashboard/internal/config"
	"github.com/hongminglow/payments-dashboard/internal/logging"
	"github.com/hongminglow/payments-dashboard/internal/server"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "payments-dashboard",
		Short:         "Payments dashboard API",
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Seed the bootstrap admin and serve HTTP (default)",
		RunE:  runServe,
	})
	root.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create the bootstrap admin if it does not exist, then exit",
		RunE:  runSeed,
	})
	return root
}

func bootstrap(ctx context.Context) (config.Config, *app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	log := logging.New(cfg.Env)
	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, a, nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	_, a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Users.SeedDefaultAdmin(ctx)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Users.SeedDefaultAdmin(ctx); err != nil {
		return err
	}

	srv := server.New(cfg, a.Deps())
	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("payments dashboard listening", slog.String("addr", cfg.HTTPAddress()), slog.String("storage", cfg.StorageDriver))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Log.Error("graceful shutdown error", slog.Any("error", err))
	}
	return nil
}
