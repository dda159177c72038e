package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	server "todo-api"
	"todo-api/internal/bot"
	"todo-api/internal/config"
	"todo-api/internal/logger"
	"todo-api/internal/manager"
	"todo-api/internal/storage"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "todo-app: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(flag.NewFlagSet("todo-app", flag.ExitOnError), args)
	if err != nil {
		return err
	}

	level, _ := logger.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStorage(cfg.Store)
	if err != nil {
		return err
	}
	taskManager := manager.NewTaskManagerWithStorage(store)
	defer taskManager.Close()

	logger.Info(ctx, "todo store ready", "store", cfg.Store)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.NewRouter(taskManager, server.WithMetrics(cfg.MetricsPath)),
	}

	if cfg.BotToken != "" {
		startBot(ctx, cfg.BotToken, taskManager)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "shut down signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	logger.Info(context.Background(), "shut down gracefully")
	return nil
}

func newStorage(kind string) (storage.Storage, error) {
	switch kind {
	case config.StoreSQLite:
		s, err := storage.NewSQLiteStorage()
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
		return s, nil
	default:
		return storage.NewMemoryStorage(), nil
	}
}

// startBot runs the Telegram bot next to the HTTP server. A bot that fails to
// start is logged and does not stop the server.
func startBot(ctx context.Context, token string, svc bot.TaskService) {
	b, err := bot.NewBot(token, svc)
	if err != nil {
		logger.Error(ctx, err, "telegram bot disabled")
		return
	}

	go func() {
		if err := b.Start(ctx); err != nil {
			logger.Error(ctx, err, "telegram bot stopped")
		}
	}()
}
