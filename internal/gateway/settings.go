package gateway

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// SettingsUpdate is a partial update of the account settings. Unset fields are
// not sent; AccessTokens is keyed by broker id.
type SettingsUpdate struct {
	ActiveBrokerID      Patch[string]
	PaperLive           Patch[ExecutionMode]
	ActiveTradingModeID Patch[int64]
	KillSwitch          Patch[bool]
	MaxPositionValue    Patch[decimal.Decimal]
	MaxOrdersPerDay     Patch[int64]
	DailyLossLimitPct   Patch[decimal.Decimal]
	AccessTokens        map[string]string
}

func (u SettingsUpdate) MarshalJSON() ([]byte, error) {
	m := make(map[string]any)
	u.ActiveBrokerID.put(m, "active_broker_id")
	u.PaperLive.put(m, "paper_live")
	u.ActiveTradingModeID.put(m, "active_trading_mode_id")
	u.KillSwitch.put(m, "kill_switch")
	u.MaxPositionValue.put(m, "max_position_value")
	u.MaxOrdersPerDay.put(m, "max_orders_per_day")
	u.DailyLossLimitPct.put(m, "daily_loss_limit_pct")
	for broker, token := range u.AccessTokens {
		m[broker+"_access_token"] = token
	}
	return json.Marshal(m)
}

func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	var s Settings
	if err := c.Get(ctx, "/api/settings", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) UpdateSettings(ctx context.Context, update SettingsUpdate) (*Settings, error) {
	var s Settings
	if err := c.Patch(ctx, "/api/settings", update, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) GetTradingModes(ctx context.Context) ([]TradingMode, error) {
	var modes []TradingMode
	if err := c.Get(ctx, "/api/settings/trading-modes", &modes); err != nil {
		return nil, err
	}
	return modes, nil
}

func (c *Client) TestConnection(ctx context.Context) (*ConnectionStatus, error) {
	var status ConnectionStatus
	if err := c.Post(ctx, "/api/settings/test-connection", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
