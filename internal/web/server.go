package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/camuig/trader-console/internal/config"
	"github.com/camuig/trader-console/internal/console"
	"github.com/camuig/trader-console/internal/executor"
	"github.com/camuig/trader-console/internal/logger"
	"github.com/camuig/trader-console/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

type ActionStore interface {
	GetRecentActions(limit int) ([]storage.ActionLog, error)
}

type Server struct {
	httpServer *http.Server
	console    *console.Console
	executor   *executor.Executor
	repo       ActionStore
	pages      *template.Template
	config     *config.Config
	logger     *logger.Logger
}

func NewServer(c *console.Console, exec *executor.Executor, repo ActionStore, cfg *config.Config, log *logger.Logger) *Server {
	s := &Server{
		console:  c,
		executor: exec,
		repo:     repo,
		pages:    template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")),
		config:   cfg,
		logger:   log,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Web.Port),
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"signed_in": s.console.Auth.SignedIn(),
		})
	})

	r.Get("/signin", s.handleSignInPage)
	r.Post("/signin", s.handleSignIn)
	r.Post("/signout", s.handleSignOut)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)
		r.Use(confirmation)

		r.Get("/", s.handleDashboard)

		r.Route("/console", func(r chi.Router) {
			r.Get("/dashboard", s.handleDashboardJSON)
			r.Post("/dashboard/test-connection", s.handleDashboardTest)
			r.Post("/dashboard/run", s.handleDashboardRun)

			r.Get("/settings", s.handleSettings)
			r.Post("/settings/broker", s.handleSetBroker)
			r.Post("/settings/mode", s.handleSetMode)
			r.Post("/settings/trading-mode", s.handleSetTradingMode)
			r.Post("/settings/kill-switch", s.handleKillSwitch)
			r.Post("/settings/risk", s.handleRiskLimits)
			r.Post("/settings/tokens", s.handleTokens)
			r.Post("/settings/test-connection", s.handleSettingsTest)

			r.Get("/orders", s.handleOrders)
			r.Post("/orders/cancel-all", s.handleCancelAll)
			r.Post("/orders/{id}/cancel", s.handleCancelOrder)

			r.Get("/strategies", s.handleStrategies)
			r.Post("/strategies/configs", s.handleCreateConfig)
			r.Post("/strategies/configs/{id}/activate", s.handleActivateConfig)
			r.Delete("/strategies/configs/{id}", s.handleDeleteConfig)
			r.Post("/strategies/run", s.handleRunStrategy)

			r.Get("/watchlists", s.handleWatchlists)
			r.Post("/watchlists", s.handleCreateWatchlist)
			r.Get("/watchlists/auto/universe", s.handleAutoUniverse)
			r.Get("/watchlists/{id}", s.handleWatchlist)
			r.Post("/watchlists/{id}/auto", s.handleSetAuto)
			r.Post("/watchlists/{id}/select", s.handleSelectWatchlist)
			r.Delete("/watchlists/{id}", s.handleDeleteWatchlist)
			r.Post("/watchlists/{id}/symbols", s.handleAddSymbol)
			r.Delete("/watchlists/{id}/symbols", s.handleRemoveSymbol)
			r.Get("/watchlists/{id}/universe", s.handleUniverse)

			r.Get("/screener/{scan}", s.handleScan)
			r.Get("/suggest", s.handleSuggest)
			r.Get("/actions", s.handleActions)
			r.Post("/password", s.handleChangePassword)
		})
	})

	return r
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.logger.Info("web server starting", "port", s.config.Web.Port)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("web server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
