package gateway

import (
	"github.com/shopspring/decimal"
)

// ExecutionMode selects simulated or real-money order execution.
type ExecutionMode string

const (
	Paper ExecutionMode = "paper"
	Live  ExecutionMode = "live"
)

func (m ExecutionMode) Valid() bool {
	return m == Paper || m == Live
}

func (m ExecutionMode) Label() string {
	switch m {
	case Paper:
		return "Paper"
	case Live:
		return "Live"
	default:
		return string(m)
	}
}

type Settings struct {
	ActiveBrokerID      string              `json:"active_broker_id"`
	PaperLive           ExecutionMode       `json:"paper_live"`
	BrokersAvailable    []string            `json:"brokers_available"`
	ActiveTradingModeID *int64              `json:"active_trading_mode_id"`
	KillSwitch          bool                `json:"kill_switch"`
	MaxPositionValue    decimal.NullDecimal `json:"max_position_value"`
	MaxOrdersPerDay     *int64              `json:"max_orders_per_day"`
	DailyLossLimitPct   decimal.NullDecimal `json:"daily_loss_limit_pct"`
}

// Violations lists the settings invariants a response breaks. The backend
// stays authoritative; callers only report these.
func (s *Settings) Violations() []string {
	var v []string
	if !containsString(s.BrokersAvailable, s.ActiveBrokerID) {
		v = append(v, "active broker "+s.ActiveBrokerID+" is not in brokers_available")
	}
	if s.MaxPositionValue.Valid && s.MaxPositionValue.Decimal.IsNegative() {
		v = append(v, "max_position_value is negative")
	}
	if s.MaxOrdersPerDay != nil && *s.MaxOrdersPerDay < 0 {
		v = append(v, "max_orders_per_day is negative")
	}
	if s.DailyLossLimitPct.Valid && s.DailyLossLimitPct.Decimal.IsNegative() {
		v = append(v, "daily_loss_limit_pct is negative")
	}
	return v
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

type TradingMode struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Segment  string `json:"segment"`
	Product  string `json:"product"`
	Exchange string `json:"exchange"`
}

type ConnectionStatus struct {
	BrokerID  string `json:"broker_id"`
	Connected bool   `json:"connected"`
	Message   string `json:"message"`
}

type Order struct {
	ID             int64               `json:"id"`
	ClientOrderID  string              `json:"client_order_id"`
	BrokerOrderID  *string             `json:"broker_order_id"`
	Symbol         string              `json:"symbol"`
	Exchange       string              `json:"exchange"`
	Side           string              `json:"side"`
	Quantity       int64               `json:"quantity"`
	Product        string              `json:"product"`
	OrderType      string              `json:"order_type"`
	Status         string              `json:"status"`
	PaperLive      ExecutionMode       `json:"paper_live"`
	FilledQuantity int64               `json:"filled_quantity"`
	AveragePrice   decimal.NullDecimal `json:"average_price"`
	CreatedAt      *string             `json:"created_at"`
}

type CancelResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type Position struct {
	Symbol       string          `json:"symbol"`
	Exchange     string          `json:"exchange"`
	Side         string          `json:"side"`
	Quantity     int64           `json:"quantity"`
	AveragePrice decimal.Decimal `json:"average_price"`
	Product      string          `json:"product"`
	PaperLive    ExecutionMode   `json:"paper_live"`
}

type LastRun struct {
	RunAt                string `json:"run_at"`
	SignalsCount         int    `json:"signals_count"`
	SymbolsScanned       int    `json:"symbols_scanned"`
	SymbolsFilteredByGap int    `json:"symbols_filtered_by_gap"`
}

type DashboardSummary struct {
	PaperLive        ExecutionMode       `json:"paper_live"`
	KillSwitch       bool                `json:"kill_switch"`
	Positions        []Position          `json:"positions"`
	Orders           []Order             `json:"orders"`
	DailyRealizedPnL decimal.NullDecimal `json:"daily_realized_pnl"`
	LastRun          *LastRun            `json:"last_run"`
}

type PnLEntry struct {
	Date        string          `json:"date"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
}

type StrategyOption struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type StrategyConfig struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	StrategyKey string         `json:"strategy_key"`
	Params      map[string]any `json:"params"`
	WatchlistID int64          `json:"watchlist_id"`
	IsActive    bool           `json:"is_active"`
}

type StrategyConfigCreate struct {
	Name        string         `json:"name"`
	StrategyKey string         `json:"strategy_key"`
	Params      map[string]any `json:"params,omitempty"`
	WatchlistID int64          `json:"watchlist_id"`
}

type StrategyConfigUpdate struct {
	Name        *string        `json:"name,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
	WatchlistID *int64         `json:"watchlist_id,omitempty"`
	IsActive    *bool          `json:"is_active,omitempty"`
}

type Signal struct {
	Exchange string         `json:"exchange"`
	Symbol   string         `json:"symbol"`
	Side     string         `json:"side"`
	Reason   string         `json:"reason"`
	Score    float64        `json:"score"`
	Meta     map[string]any `json:"meta"`
}

type RunResult struct {
	Signals              []Signal `json:"signals"`
	SymbolsScanned       int      `json:"symbols_scanned"`
	SymbolsFilteredByGap int      `json:"symbols_filtered_by_gap"`
}

type WatchlistSymbol struct {
	Exchange string `json:"exchange"`
	Symbol   string `json:"symbol"`
}

type Watchlist struct {
	ID                int64             `json:"id"`
	UserID            int64             `json:"user_id"`
	Name              string            `json:"name"`
	IsAutoForScreener bool              `json:"is_auto_for_screener"`
	Symbols           []WatchlistSymbol `json:"symbols"`
}

type WatchlistUpdate struct {
	Name              *string `json:"name,omitempty"`
	IsAutoForScreener *bool   `json:"is_auto_for_screener,omitempty"`
}

type Universe struct {
	WatchlistID int64             `json:"watchlist_id"`
	Symbols     []WatchlistSymbol `json:"symbols"`
}

type ScanRow struct {
	Exchange string         `json:"exchange"`
	Symbol   string         `json:"symbol"`
	Value    float64        `json:"value"`
	Extra    map[string]any `json:"extra"`
}

type ScanResponse struct {
	Scan     string    `json:"scan"`
	Exchange string    `json:"exchange"`
	Rows     []ScanRow `json:"rows"`
	Message  *string   `json:"message"`
}

type InstrumentSuggestion struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
