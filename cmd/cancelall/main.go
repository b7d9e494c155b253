package main

import (
	"context"
	"flag"
	"fmt"
	"os"
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
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dbPath := flag.String("db", "data/trader-console.db", "path to SQLite database")
	dryRun := flag.Bool("dry-run", false, "list cancellable orders without cancelling")
	killSwitch := flag.Bool("kill-switch", false, "turn the kill switch on before cancelling")
	yes := flag.Bool("yes", false, "do not ask for confirmation")
	jsonOut := flag.Bool("json", false, "print the report as JSON")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	db, err := storage.NewDatabase(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "database init error: %v\n", err)
		os.Exit(1)
	}
	repo := storage.NewRepository(db)

	store := session.NewStore(repo, log)
	if err := store.Restore(); err != nil {
		log.Warn("session restore failed", "error", err)
	}

	var confirm console.Confirmer = console.NewPromptConfirmer(os.Stdin, os.Stdout)
	if *yes {
		confirm = console.ConfirmFunc(func(context.Context, string) bool { return true })
	}

	ctx := context.Background()
	client := gateway.NewClient(cfg.Backend.BaseURL, nil, store, log)
	notifier := telegram.NewNotifier(cfg, log)
	c := console.New(client, store, confirm, console.Observers{storage.NewActionRecorder(repo, log), notifier}, cfg, log)
	defer c.Close()

	if !c.Auth.SignedIn() {
		if cfg.Backend.Password == "" {
			fmt.Fprintln(os.Stderr, "not signed in and backend.password is not set")
			os.Exit(1)
		}
		if err := c.Auth.SignIn(ctx, cfg.Backend.Password); err != nil {
			fmt.Fprintf(os.Stderr, "sign in error: %s\n", console.Message(err, "Sign in failed"))
			os.Exit(1)
		}
	}

	if snap, err := repo.GetLatestSnapshot(); err == nil && snap != nil {
		fmt.Printf("Last snapshot %s: %s\n\n", snap.CreatedAt.Format(time.DateTime), scheduler.Describe(snap))
	}

	if *killSwitch && !*dryRun {
		engageKillSwitch(ctx, c.Settings)
	}

	if err := c.Orders.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "load orders error: %s\n", console.Message(err, "Failed to load orders"))
		os.Exit(1)
	}
	orders := c.Orders.Snapshot().Orders

	var eligible int
	for _, o := range orders {
		if console.CancellationEligible(o) {
			eligible++
			fmt.Printf("  %s %s %s x%d [%s]\n", console.CancelKey(o), o.Symbol, o.Side, o.Quantity, o.Status)
		}
	}
	if eligible == 0 {
		fmt.Println("No cancellable orders.")
		return
	}
	fmt.Println()

	if !*dryRun && !confirm.Confirm(ctx, fmt.Sprintf("Cancel %d order(s)?", eligible)) {
		fmt.Println("Aborted.")
		return
	}

	exec := executor.NewExecutor(c.Orders, notifier, log)
	report := exec.CancelAll(ctx, orders, *dryRun)

	if *jsonOut {
		fmt.Println(report.JSON())
	} else {
		printReport(report)
	}
	if report.Failed > 0 {
		os.Exit(1)
	}
}

func engageKillSwitch(ctx context.Context, settings *console.Settings) {
	if err := settings.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "load settings error: %s\n", console.Message(err, "Failed to load"))
		os.Exit(1)
	}
	if s := settings.Current(); s != nil && s.KillSwitch {
		fmt.Println("Kill switch already on.")
		return
	}
	if err := settings.ToggleKillSwitch(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "kill switch error: %s\n", console.Message(err, "Failed to update"))
		os.Exit(1)
	}
	fmt.Println("Kill switch on.")
}

func printReport(r *executor.Report) {
	for _, out := range r.Outcomes {
		switch out.Status {
		case executor.StatusCancelled:
			fmt.Printf("  [OK]   %s %s\n", out.Key, out.Order.Symbol)
		case executor.StatusFailed:
			fmt.Fprintf(os.Stderr, "  [FAIL] %s %s: %s\n", out.Key, out.Order.Symbol, out.Reason)
		case executor.StatusPlanned:
			fmt.Printf("  [PLAN] %s %s\n", out.Key, out.Order.Symbol)
		}
	}

	if r.DryRun {
		fmt.Println("\nDry run, no orders cancelled.")
		return
	}
	fmt.Printf("\nDone: %d cancelled, %d failed, %d skipped.\n", r.Cancelled, r.Failed, r.Skipped)
}
