package console

import (
	"context"
	"sync"

	"github.com/camuig/trader-console/internal/gateway"
	"github.com/camuig/trader-console/internal/logger"
)

type DashboardView struct {
	Summary    *gateway.DashboardSummary `json:"summary"`
	PnL        []gateway.PnLEntry        `json:"pnl"`
	Error      string                    `json:"error,omitempty"`
	TestResult string                    `json:"test_result,omitempty"`
	LastRun    *gateway.RunResult        `json:"last_run,omitempty"`
	Running    bool                      `json:"running"`
}

// ShowPnLChart reports whether the P&L panel has anything to draw.
func (v DashboardView) ShowPnLChart() bool {
	return len(v.PnL) > 0
}

// Dashboard composes the read-only summary and P&L history.
type Dashboard struct {
	api      DashboardBackend
	observer Observer
	days     int
	logger   *logger.Logger

	mu   sync.RWMutex
	view DashboardView

	running inflight
}

func NewDashboard(api DashboardBackend, obs Observer, days int, log *logger.Logger) *Dashboard {
	return &Dashboard{api: api, observer: obs, days: days, logger: log}
}

// Load fetches both panels concurrently. A failed summary surfaces as an error
// and keeps the previous summary; a failed history only empties its panel.
func (d *Dashboard) Load(ctx context.Context) error {
	var (
		summary    *gateway.DashboardSummary
		pnl        []gateway.PnLEntry
		summaryErr error
		pnlErr     error
		wg         sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		summary, summaryErr = d.api.DashboardSummary(ctx)
	}()
	go func() {
		defer wg.Done()
		pnl, pnlErr = d.api.PnLHistory(ctx, d.days)
	}()
	wg.Wait()

	if pnlErr != nil {
		d.logger.Debug("pnl history unavailable", "error", pnlErr)
		pnl = nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.view.PnL = pnl
	if summaryErr != nil {
		d.view.Error = Message(summaryErr, "Failed to load dashboard")
		return summaryErr
	}
	d.view.Summary = summary
	d.view.Error = ""
	return nil
}

// TestConnection renders the probe result as a one-line status.
func (d *Dashboard) TestConnection(ctx context.Context) string {
	res, err := d.api.TestConnection(ctx)
	var line string
	switch {
	case err != nil:
		line = "Failed: " + Message(err, "Test failed")
	case res.Connected:
		line = "Connected: " + res.Message
	default:
		line = "Failed: " + res.Message
	}

	d.mu.Lock()
	d.view.TestResult = line
	d.mu.Unlock()
	return line
}

// RunStrategy triggers a run and reloads the dashboard on success. The
// dashboard holds no config list, so it asks the backend for the active one first.
func (d *Dashboard) RunStrategy(ctx context.Context) (*gateway.RunResult, error) {
	if !d.running.acquire() {
		return nil, ErrBusy
	}
	defer d.running.release()

	active, err := d.api.GetActiveConfig(ctx)
	if err == nil && active == nil {
		err = invalid("Set an active config first.")
	}
	if err != nil {
		d.mu.Lock()
		d.view.Error = Message(err, "Run failed")
		d.mu.Unlock()
		return nil, err
	}

	res, err := d.api.RunStrategy(ctx)
	report(d.observer, ActionRunStrategy, "dashboard", "", err)
	if err != nil {
		d.mu.Lock()
		d.view.Error = Message(err, "Run failed")
		d.mu.Unlock()
		return nil, err
	}

	d.mu.Lock()
	d.view.LastRun = res
	d.mu.Unlock()
	return res, d.Load(ctx)
}

func (d *Dashboard) View() DashboardView {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v := d.view
	v.PnL = append([]gateway.PnLEntry(nil), d.view.PnL...)
	v.Running = d.running.active()
	return v
}
