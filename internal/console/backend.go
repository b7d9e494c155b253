package console

import (
	"context"

	"github.com/camuig/trader-console/internal/gateway"
)

// The narrow backend surfaces each controller needs. *gateway.Client implements all of them.

type SettingsBackend interface {
	GetSettings(ctx context.Context) (*gateway.Settings, error)
	UpdateSettings(ctx context.Context, update gateway.SettingsUpdate) (*gateway.Settings, error)
	GetTradingModes(ctx context.Context) ([]gateway.TradingMode, error)
	TestConnection(ctx context.Context) (*gateway.ConnectionStatus, error)
}

type OrdersBackend interface {
	ListOrders(ctx context.Context) ([]gateway.Order, error)
	CancelPaperOrder(ctx context.Context, orderID int64) (*gateway.CancelResult, error)
	CancelLiveOrder(ctx context.Context, brokerOrderID string) (*gateway.CancelResult, error)
}

type StrategyBackend interface {
	ListStrategies(ctx context.Context) ([]gateway.StrategyOption, error)
	ListConfigs(ctx context.Context) ([]gateway.StrategyConfig, error)
	ListWatchlists(ctx context.Context) ([]gateway.Watchlist, error)
	CreateConfig(ctx context.Context, body gateway.StrategyConfigCreate) (*gateway.StrategyConfig, error)
	UpdateConfig(ctx context.Context, id int64, body gateway.StrategyConfigUpdate) (*gateway.StrategyConfig, error)
	DeleteConfig(ctx context.Context, id int64) error
	RunStrategy(ctx context.Context) (*gateway.RunResult, error)
}

type WatchlistBackend interface {
	ListWatchlists(ctx context.Context) ([]gateway.Watchlist, error)
	CreateWatchlist(ctx context.Context, name string) (*gateway.Watchlist, error)
	UpdateWatchlist(ctx context.Context, id int64, body gateway.WatchlistUpdate) (*gateway.Watchlist, error)
	DeleteWatchlist(ctx context.Context, id int64) error
	AddSymbol(ctx context.Context, watchlistID int64, exchange, symbol string) error
	RemoveSymbol(ctx context.Context, watchlistID int64, exchange, symbol string) error
	WatchlistUniverse(ctx context.Context, watchlistID int64) (*gateway.Universe, error)
	AutoUniverse(ctx context.Context) (*gateway.Universe, error)
	GetWatchlist(ctx context.Context, id int64) (*gateway.Watchlist, error)
}

type DashboardBackend interface {
	DashboardSummary(ctx context.Context) (*gateway.DashboardSummary, error)
	PnLHistory(ctx context.Context, days int) ([]gateway.PnLEntry, error)
	TestConnection(ctx context.Context) (*gateway.ConnectionStatus, error)
	RunStrategy(ctx context.Context) (*gateway.RunResult, error)
	GetActiveConfig(ctx context.Context) (*gateway.StrategyConfig, error)
}

type ScreenerBackend interface {
	Scan(ctx context.Context, scan string, params gateway.ScanParams) (*gateway.ScanResponse, error)
	WatchlistUniverse(ctx context.Context, watchlistID int64) (*gateway.Universe, error)
}

type SuggestBackend interface {
	SuggestInstruments(ctx context.Context, q, exchange string, limit int) ([]gateway.InstrumentSuggestion, error)
}

type AuthBackend interface {
	Login(ctx context.Context, username, password string) (*gateway.LoginResponse, error)
	ChangePassword(ctx context.Context, current, next string) error
}
