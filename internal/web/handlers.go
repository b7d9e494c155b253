package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/camuig/trader-console/internal/console"
	"github.com/camuig/trader-console/internal/gateway"
)

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, &console.ValidationError{Message: "Invalid id"}
	}
	return id, nil
}

// Dashboard

func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	// Load errors are part of the view.
	_ = s.console.Dashboard.Load(r.Context())
	writeJSON(w, http.StatusOK, s.console.Dashboard.View())
}

func (s *Server) handleDashboardTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"result": s.console.Dashboard.TestConnection(r.Context())})
}

func (s *Server) handleDashboardRun(w http.ResponseWriter, r *http.Request) {
	res, err := s.console.Dashboard.RunStrategy(r.Context())
	if err != nil && res == nil {
		writeError(w, err, "Run failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Settings

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.console.Settings.Load(r.Context()); err != nil {
		writeError(w, err, "Failed to load")
		return
	}
	writeJSON(w, http.StatusOK, s.console.Settings.Snapshot())
}

func (s *Server) settingsResult(w http.ResponseWriter, err error, fallback string) {
	if err != nil {
		writeError(w, err, fallback)
		return
	}
	writeJSON(w, http.StatusOK, s.console.Settings.Snapshot())
}

func (s *Server) handleSetBroker(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BrokerID string `json:"broker_id"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err, "")
		return
	}
	s.settingsResult(w, s.console.Settings.SetBroker(r.Context(), body.BrokerID), "Failed to update")
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode gateway.ExecutionMode `json:"mode"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err, "")
		return
	}
	s.settingsResult(w, s.console.Settings.SetMode(r.Context(), body.Mode), "Failed to update")
}

func (s *Server) handleSetTradingMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID *int64 `json:"id"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err, "")
		return
	}
	s.settingsResult(w, s.console.Settings.SetTradingMode(r.Context(), body.ID), "Failed to update")
}

func (s *Server) handleKillSwitch(w http.ResponseWriter, r *http.Request) {
	s.settingsResult(w, s.console.Settings.ToggleKillSwitch(r.Context()), "Failed to update")
}

func (s *Server) handleRiskLimits(w http.ResponseWriter, r *http.Request) {
	var form console.RiskForm
	if err := decode(r, &form); err != nil {
		writeError(w, err, "")
		return
	}
	s.settingsResult(w, s.console.Settings.SaveRiskLimits(r.Context(), form), "Failed to save")
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	var draft console.TokenDraft
	if err := decode(r, &draft); err != nil {
		writeError(w, err, "")
		return
	}
	s.settingsResult(w, s.console.Settings.SaveTokens(r.Context(), draft), "Failed to save")
}

func (s *Server) handleSettingsTest(w http.ResponseWriter, r *http.Request) {
	res, err := s.console.Settings.TestConnection(r.Context())
	if err != nil {
		writeError(w, err, "Test failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Orders

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	if err := s.console.Orders.Load(r.Context()); err != nil {
		writeError(w, err, "Failed to load orders")
		return
	}
	writeJSON(w, http.StatusOK, s.console.Orders.Filter(r.URL.Query().Get("status")))
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err, "")
		return
	}
	if err := s.console.Orders.Load(r.Context()); err != nil {
		writeError(w, err, "Failed to load orders")
		return
	}
	o, ok := s.console.Orders.Find(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Order not found"})
		return
	}
	if err := s.console.Orders.Cancel(r.Context(), o); err != nil {
		writeError(w, err, "Cancel failed")
		return
	}
	writeJSON(w, http.StatusOK, s.console.Orders.Snapshot())
}

func (s *Server) handleCancelAll(w http.ResponseWriter, r *http.Request) {
	if err := s.console.Orders.Load(r.Context()); err != nil {
		writeError(w, err, "Failed to load orders")
		return
	}
	dryRun := r.URL.Query().Get("dry_run") == "true"
	report := s.executor.CancelAll(r.Context(), s.console.Orders.Snapshot().Orders, dryRun)
	writeJSON(w, http.StatusOK, report)
}

// Strategies

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	if err := s.console.Strategies.Load(r.Context()); err != nil {
		writeError(w, err, "Failed to load")
		return
	}
	writeJSON(w, http.StatusOK, s.console.Strategies.Snapshot())
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var draft console.ConfigDraft
	if err := decode(r, &draft); err != nil {
		writeError(w, err, "")
		return
	}
	cfg, err := s.console.Strategies.Create(r.Context(), draft)
	if err != nil && cfg == nil {
		writeError(w, err, "Failed to create")
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (s *Server) handleActivateConfig(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err, "")
		return
	}
	if err := s.console.Strategies.SetActive(r.Context(), id); err != nil {
		writeError(w, err, "Failed to update")
		return
	}
	writeJSON(w, http.StatusOK, s.console.Strategies.Snapshot())
}

func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err, "")
		return
	}
	if err := s.console.Strategies.Delete(r.Context(), id); err != nil {
		writeError(w, err, "Failed to delete")
		return
	}
	writeJSON(w, http.StatusOK, s.console.Strategies.Snapshot())
}

func (s *Server) handleRunStrategy(w http.ResponseWriter, r *http.Request) {
	// Run checks the cached list, so make sure it is current.
	if err := s.console.Strategies.Load(r.Context()); err != nil {
		writeError(w, err, "Failed to load")
		return
	}
	res, err := s.console.Strategies.Run(r.Context())
	if err != nil {
		writeError(w, err, "Run failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Watchlists

func (s *Server) handleWatchlists(w http.ResponseWriter, r *http.Request) {
	if err := s.console.Watchlists.Load(r.Context()); err != nil {
		writeError(w, err, "Failed to load watchlists")
		return
	}
	writeJSON(w, http.StatusOK, s.console.Watchlists.Snapshot())
}

func (s *Server) watchlistResult(w http.ResponseWriter, err error, fallback string) {
	if err != nil {
		writeError(w, err, fallback)
		return
	}
	writeJSON(w, http.StatusOK, s.console.Watchlists.Snapshot())
}

func (s *Server) handleCreateWatchlist(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err, "")
		return
	}
	wl, err := s.console.Watchlists.Create(r.Context(), body.Name)
	if err != nil {
		writeError(w, err, "Failed to create")
		return
	}
	writeJSON(w, http.StatusCreated, wl)
}

func (s *Server) handleSetAuto(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err, "")
		return
	}
	s.watchlistResult(w, s.console.Watchlists.SetAuto(r.Context(), id), "Failed to update")
}

func (s *Server) handleSelectWatchlist(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err, "")
		return
	}
	if !s.console.Watchlists.Select(id) {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Watchlist not found"})
		return
	}
	wl, _ := s.console.Watchlists.Selected()
	writeJSON(w, http.StatusOK, wl)
}

func (s *Server) handleDeleteWatchlist(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err, "")
		return
	}
	s.watchlistResult(w, s.console.Watchlists.Delete(r.Context(), id), "Failed to delete")
}

func (s *Server) handleAddSymbol(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err, "")
		return
	}
	var sym gateway.WatchlistSymbol
	if err := decode(r, &sym); err != nil {
		writeError(w, err, "")
		return
	}
	s.watchlistResult(w, s.console.Watchlists.AddSymbol(r.Context(), id, sym.Exchange, sym.Symbol), "Failed to add symbol")
}

func (s *Server) handleRemoveSymbol(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err, "")
		return
	}
	q := r.URL.Query()
	s.watchlistResult(w, s.console.Watchlists.RemoveSymbol(r.Context(), id, q.Get("exchange"), q.Get("symbol")), "Failed to remove symbol")
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err, "")
		return
	}
	wl, err := s.console.Watchlists.Refresh(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to load watchlist")
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

func (s *Server) handleUniverse(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err, "")
		return
	}
	u, err := s.console.Watchlists.Universe(r.Context(), id)
	if err != nil {
		writeError(w, err, "Failed to load universe")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleAutoUniverse(w http.ResponseWriter, r *http.Request) {
	u, err := s.console.Watchlists.AutoUniverse(r.Context())
	if err != nil {
		writeError(w, err, "Failed to load universe")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// Screener, suggestions, audit

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	scan := chi.URLParam(r, "scan")
	q := r.URL.Query()

	var (
		res *gateway.ScanResponse
		err error
	)
	if raw := q.Get("watchlist_id"); raw != "" {
		id, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			writeError(w, &console.ValidationError{Message: "Invalid watchlist_id"}, "")
			return
		}
		res, err = s.console.Screener.RunOnWatchlist(r.Context(), scan, id)
	} else {
		var symbols []string
		if raw := q.Get("symbols"); raw != "" {
			symbols = strings.Split(raw, ",")
		}
		res, err = s.console.Screener.Run(r.Context(), scan, symbols)
	}
	if err != nil {
		writeError(w, err, "Scan failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleSuggest feeds the debounced lookup and returns what it has so far;
// callers poll with the same q until results arrive.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q != s.console.Suggest.Query() {
		s.console.Suggest.Input(q)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   s.console.Suggest.Query(),
		"results": s.console.Suggest.Results(),
	})
}

func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	logs, err := s.repo.GetRecentActions(limit)
	if err != nil {
		s.logger.Error("load action log", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Failed to load actions"})
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
		Confirm string `json:"confirm_password"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, err, "")
		return
	}
	if err := s.console.Auth.ChangePassword(r.Context(), body.Current, body.New, body.Confirm); err != nil {
		writeError(w, err, "Failed to change password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Password changed"})
}
