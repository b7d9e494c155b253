package web

import (
	"html/template"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/camuig/trader-console/internal/console"
	"github.com/camuig/trader-console/internal/gateway"
	"github.com/camuig/trader-console/internal/storage"
)

var funcs = template.FuncMap{
	"cancellable": console.CancellationEligible,
	"modeLabel":   func(m gateway.ExecutionMode) string { return m.Label() },
	"pnl": func(d decimal.NullDecimal) string {
		if !d.Valid {
			return "-"
		}
		return d.Decimal.StringFixed(2)
	},
}

type pnlBar struct {
	Date     string
	Value    string
	Width    int // percent of the largest absolute value
	Negative bool
}

type dashboardPage struct {
	View     console.DashboardView
	Bars     []pnlBar
	Actions  []storage.ActionLog
	Username string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	// The view carries the error text; the page renders either way.
	if err := s.console.Dashboard.Load(r.Context()); err != nil {
		s.logger.Warn("dashboard load failed", "error", err)
	}

	data := dashboardPage{
		View:     s.console.Dashboard.View(),
		Username: s.config.Backend.Username,
	}
	if data.View.ShowPnLChart() {
		data.Bars = pnlBars(data.View.PnL)
	}
	if actions, err := s.repo.GetRecentActions(10); err == nil {
		data.Actions = actions
	}

	s.render(w, http.StatusOK, "dashboard.html", data)
}

func pnlBars(entries []gateway.PnLEntry) []pnlBar {
	peak := decimal.Zero
	for _, e := range entries {
		if a := e.RealizedPnL.Abs(); a.GreaterThan(peak) {
			peak = a
		}
	}

	bars := make([]pnlBar, 0, len(entries))
	for _, e := range entries {
		bar := pnlBar{
			Date:     e.Date,
			Value:    e.RealizedPnL.StringFixed(2),
			Negative: e.RealizedPnL.IsNegative(),
		}
		if !peak.IsZero() {
			bar.Width = int(e.RealizedPnL.Abs().Div(peak).Mul(decimal.NewFromInt(100)).IntPart())
		}
		bars = append(bars, bar)
	}
	return bars
}
