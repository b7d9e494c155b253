package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camuig/trader-console/internal/config"
	"github.com/camuig/trader-console/internal/console"
	"github.com/camuig/trader-console/internal/gateway"
	"github.com/camuig/trader-console/internal/logger"
	"github.com/camuig/trader-console/internal/storage"
)

type Dashboard interface {
	Load(ctx context.Context) error
	View() console.DashboardView
}

type Session interface {
	SignedIn() bool
}

type SnapshotStore interface {
	SaveDashboardSnapshot(snapshot *storage.DashboardSnapshot) error
}

type Alerter interface {
	NotifyKillSwitch(on bool)
	NotifyModeChange(from, to string)
	NotifyError(context string, err error)
}

// Scheduler polls the dashboard, records a snapshot per cycle and raises an
// alert when the kill switch or execution mode changes between cycles.
type Scheduler struct {
	dashboard Dashboard
	session   Session
	repo      SnapshotStore
	notifier  Alerter
	interval  time.Duration
	logger    *logger.Logger

	last *gateway.DashboardSummary
}

func NewScheduler(
	dashboard Dashboard,
	session Session,
	repo SnapshotStore,
	notifier Alerter,
	cfg *config.Config,
	log *logger.Logger,
) *Scheduler {
	return &Scheduler{
		dashboard: dashboard,
		session:   session,
		repo:      repo,
		notifier:  notifier,
		interval:  cfg.RefreshInterval(),
		logger:    log,
	}
}

func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("dashboard poller started", "interval", s.interval.String())

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("dashboard poller stopped")
			return
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in poll cycle", "panic", fmt.Sprint(r))
			s.notifier.NotifyError("dashboard poller panic", fmt.Errorf("%v", r))
		}
	}()

	if !s.session.SignedIn() {
		s.logger.Debug("signed out, skipping poll")
		return
	}

	if err := s.dashboard.Load(ctx); err != nil {
		s.logger.Warn("dashboard poll failed", "error", err)
		return
	}

	summary := s.dashboard.View().Summary
	if summary == nil {
		return
	}

	s.detectChanges(summary)
	s.saveSnapshot(summary)
	s.last = summary
}

func (s *Scheduler) detectChanges(summary *gateway.DashboardSummary) {
	if s.last == nil {
		return
	}
	if summary.KillSwitch != s.last.KillSwitch {
		s.logger.Info("kill switch changed", "on", summary.KillSwitch)
		s.notifier.NotifyKillSwitch(summary.KillSwitch)
	}
	if summary.PaperLive != s.last.PaperLive {
		s.logger.Info("execution mode changed", "from", s.last.PaperLive, "to", summary.PaperLive)
		s.notifier.NotifyModeChange(s.last.PaperLive.Label(), summary.PaperLive.Label())
	}
}

func (s *Scheduler) saveSnapshot(summary *gateway.DashboardSummary) {
	summaryJSON, _ := json.Marshal(summary)
	snapshot := &storage.DashboardSnapshot{
		PaperLive:      string(summary.PaperLive),
		KillSwitch:     summary.KillSwitch,
		PositionsCount: len(summary.Positions),
		OpenOrders:     countOpen(summary.Orders),
		SummaryJSON:    string(summaryJSON),
	}
	if summary.DailyRealizedPnL.Valid {
		snapshot.DailyPnL = summary.DailyRealizedPnL.Decimal.String()
	}
	if err := s.repo.SaveDashboardSnapshot(snapshot); err != nil {
		s.logger.Error("save dashboard snapshot", "error", err)
	}
}

func countOpen(orders []gateway.Order) int {
	n := 0
	for _, o := range orders {
		if console.CancellationEligible(o) {
			n++
		}
	}
	return n
}

// Describe renders a stored snapshot for the CLI and status messages.
func Describe(s *storage.DashboardSnapshot) string {
	var b strings.Builder
	mode := gateway.ExecutionMode(s.PaperLive).Label()
	fmt.Fprintf(&b, "%s mode, kill switch %s", mode, onOff(s.KillSwitch))
	fmt.Fprintf(&b, ", %d positions, %d open orders", s.PositionsCount, s.OpenOrders)
	if s.DailyPnL != "" {
		fmt.Fprintf(&b, ", P&L %s", s.DailyPnL)
	}
	return b.String()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
