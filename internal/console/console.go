package console

import (
	"context"

	"github.com/camuig/trader-console/internal/config"
	"github.com/camuig/trader-console/internal/logger"
)

// Backend is the full backend surface; *gateway.Client implements it.
type Backend interface {
	SettingsBackend
	OrdersBackend
	StrategyBackend
	WatchlistBackend
	DashboardBackend
	ScreenerBackend
	SuggestBackend
	AuthBackend
}

// Console wires every controller against one backend.
type Console struct {
	Auth       *Auth
	Settings   *Settings
	Orders     *Orders
	Strategies *Strategies
	Watchlists *Watchlists
	Dashboard  *Dashboard
	Screener   *Screener
	Suggest    *Suggester
}

func New(api Backend, creds Credentials, confirm Confirmer, obs Observer, cfg *config.Config, log *logger.Logger) *Console {
	c := cfg.Console
	return &Console{
		Auth:       NewAuth(api, creds, cfg.Backend.Username, obs, log.With("component", "auth")),
		Settings:   NewSettings(api, confirm, obs, log.With("component", "settings")),
		Orders:     NewOrders(api, obs, log.With("component", "orders")),
		Strategies: NewStrategies(api, confirm, obs, log.With("component", "strategies")),
		Watchlists: NewWatchlists(api, confirm, obs, c.Exchange, log.With("component", "watchlists")),
		Dashboard:  NewDashboard(api, obs, c.PnLHistoryDays, log.With("component", "dashboard")),
		Screener:   NewScreener(api, c.Exchange, c.ScanLimit, log.With("component", "screener")),
		Suggest:    NewSuggester(api, c.Exchange, c.SuggestLimit, cfg.SuggestDebounce(), log.With("component", "suggest")),
	}
}

// LoadAll loads every controller concurrently and returns the first failure.
func (c *Console) LoadAll(ctx context.Context) error {
	return gather(
		func() error { return c.Settings.Load(ctx) },
		func() error { return c.Orders.Load(ctx) },
		func() error { return c.Strategies.Load(ctx) },
		func() error { return c.Watchlists.Load(ctx) },
		func() error { return c.Dashboard.Load(ctx) },
	)
}

func (c *Console) Close() {
	c.Suggest.Close()
}
