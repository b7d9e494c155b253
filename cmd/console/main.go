package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camuig/trader-console/internal/config"
	"github.com/camuig/trader-console/internal/console"
	"github.com/camuig/trader-console/internal/executor"
	"github.com/camuig/trader-console/internal/gateway"
	"github.com/camuig/trader-console/internal/logger"
	"github.com/camuig/trader-console/internal/scheduler"
	"github.com/camuig/trader-console/internal/session"
	"github.com/camuig/trader-console/internal/storage"
	"github.com/camuig/trader-console/internal/telegram"
	"github.com/camuig/trader-console/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dbPath := flag.String("db", "data/trader-console.db", "path to SQLite database")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("starting trader console", "backend", cfg.Backend.BaseURL)

	db, err := storage.NewDatabase(*dbPath)
	if err != nil {
		log.Error("database init failed", "error", err)
		os.Exit(1)
	}
	repo := storage.NewRepository(db)

	store := session.NewStore(repo, log.With("component", "session"))
	if err := store.Restore(); err != nil {
		log.Warn("session restore failed", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := gateway.NewClient(cfg.Backend.BaseURL, nil, store, log.With("component", "gateway"))
	notifier := telegram.NewNotifier(cfg, log)
	observers := console.Observers{storage.NewActionRecorder(repo, log), notifier}

	c := console.New(client, store, console.ContextConfirmer, observers, cfg, log)
	defer c.Close()

	if !c.Auth.SignedIn() && cfg.Backend.Password != "" {
		if err := c.Auth.SignIn(ctx, cfg.Backend.Password); err != nil {
			log.Warn("automatic sign in failed", "error", err)
		}
	}
	if c.Auth.SignedIn() {
		if err := c.LoadAll(ctx); err != nil {
			log.Warn("initial load incomplete", "error", err)
		}
	}

	exec := executor.NewExecutor(c.Orders, notifier, log.With("component", "executor"))
	sched := scheduler.NewScheduler(c.Dashboard, store, repo, notifier, cfg, log.With("component", "scheduler"))
	webServer := web.NewServer(c, exec, repo, cfg, log.With("component", "web"))

	go sched.Run(ctx)

	go func() {
		if err := webServer.Start(); err != nil {
			log.Error("web server error", "error", err)
		}
	}()

	notifier.NotifyStatus("🖥 Trader console started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", "signal", sig.String())

	cancel() // stop scheduler

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := webServer.Shutdown(shutdownCtx); err != nil {
		log.Error("web server shutdown error", "error", err)
	}

	notifier.NotifyStatus("🛑 Trader console stopped")
	log.Info("trader console stopped")
}
