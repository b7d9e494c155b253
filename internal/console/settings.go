package console

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/camuig/trader-console/internal/gateway"
	"github.com/camuig/trader-console/internal/logger"
)

// RiskForm is the edit buffer for the numeric risk limits. An empty string
// means "unset".
type RiskForm struct {
	MaxPositionValue  string `json:"max_position_value"`
	MaxOrdersPerDay   string `json:"max_orders_per_day"`
	DailyLossLimitPct string `json:"daily_loss_limit_pct"`
}

// TokenDraft maps a broker id to a pasted access token.
type TokenDraft map[string]string

type SettingsState struct {
	Loading      bool                      `json:"loading"`
	Settings     *gateway.Settings         `json:"settings"`
	TradingModes []gateway.TradingMode     `json:"trading_modes"`
	Risk         RiskForm                  `json:"risk"`
	Saving       bool                      `json:"saving"`
	SavingTokens bool                      `json:"saving_tokens"`
	TestResult   *gateway.ConnectionStatus `json:"test_result"`
	Error        string                    `json:"error,omitempty"`
	// PendingTokens names the brokers with an unsaved token draft; values are never exposed.
	PendingTokens []string `json:"pending_tokens,omitempty"`
}

// Settings owns the cached account settings. The cache is only ever replaced
// by a server response, never merged locally.
type Settings struct {
	api      SettingsBackend
	confirm  Confirmer
	observer Observer
	logger   *logger.Logger

	mu         sync.RWMutex
	loading    bool
	settings   *gateway.Settings
	modes      []gateway.TradingMode
	risk       RiskForm
	tokens     TokenDraft
	testResult *gateway.ConnectionStatus
	errMsg     string

	saving       inflight // broker, mode, trading mode, kill switch, risk limits
	savingTokens inflight
}

func NewSettings(api SettingsBackend, confirm Confirmer, obs Observer, log *logger.Logger) *Settings {
	return &Settings{
		api:      api,
		confirm:  confirm,
		observer: obs,
		logger:   log,
	}
}

// Load fetches the settings and the trading-mode catalog concurrently and
// seeds the risk edit buffer.
func (c *Settings) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	var (
		s     *gateway.Settings
		modes []gateway.TradingMode
	)
	err := gather(
		func() (err error) { s, err = c.api.GetSettings(ctx); return },
		func() (err error) { modes, err = c.api.GetTradingModes(ctx); return },
	)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.errMsg = Message(err, "Failed to load")
		return err
	}

	c.settings = s
	c.modes = modes
	c.risk = seedRisk(s)
	c.checkInvariants(s)
	return nil
}

func (c *Settings) SetBroker(ctx context.Context, brokerID string) error {
	brokerID = strings.TrimSpace(brokerID)
	if brokerID == "" {
		return c.reject(invalid("Select a broker"))
	}

	c.mu.RLock()
	if c.settings != nil && !contains(c.settings.BrokersAvailable, brokerID) {
		c.logger.Warn("switching to a broker the backend does not advertise", "broker", brokerID)
	}
	c.mu.RUnlock()

	return c.update(ctx, ActionSetBroker, brokerID, gateway.SettingsUpdate{
		ActiveBrokerID: gateway.Value(brokerID),
	}, nil)
}

func (c *Settings) SetMode(ctx context.Context, mode gateway.ExecutionMode) error {
	if !mode.Valid() {
		return c.reject(invalid("Mode must be paper or live"))
	}
	return c.update(ctx, ActionSetMode, string(mode), gateway.SettingsUpdate{
		PaperLive: gateway.Value(mode),
	}, nil)
}

// SetTradingMode selects a trading mode by id; nil clears the selection.
func (c *Settings) SetTradingMode(ctx context.Context, id *int64) error {
	target := "none"
	if id != nil {
		target = strconv.FormatInt(*id, 10)
	}
	return c.update(ctx, ActionSetTradingMode, target, gateway.SettingsUpdate{
		ActiveTradingModeID: gateway.Nullable(id),
	}, nil)
}

// ToggleKillSwitch flips the kill switch. Turning it on requires confirmation.
func (c *Settings) ToggleKillSwitch(ctx context.Context) error {
	c.mu.RLock()
	s := c.settings
	c.mu.RUnlock()
	if s == nil {
		return ErrNotLoaded
	}

	next := !s.KillSwitch
	if next && !confirmed(ctx, c.confirm, PromptKillSwitchOn) {
		return ErrDeclined
	}

	return c.update(ctx, ActionKillSwitch, onOff(next), gateway.SettingsUpdate{
		KillSwitch: gateway.Value(next),
	}, nil)
}

// SaveRiskLimits submits all three limits together and reseeds the buffer
// from whatever the server stored.
func (c *Settings) SaveRiskLimits(ctx context.Context, form RiskForm) error {
	c.mu.Lock()
	c.risk = form
	c.mu.Unlock()

	update, err := form.update()
	if err != nil {
		return c.reject(err)
	}

	return c.update(ctx, ActionRiskLimits, "", update, func(s *gateway.Settings) {
		c.risk = seedRisk(s)
	})
}

// SaveTokens sends only the non-empty drafts and forgets the draft on success.
func (c *Settings) SaveTokens(ctx context.Context, draft TokenDraft) error {
	tokens := make(map[string]string)
	for broker, token := range draft {
		if token = strings.TrimSpace(token); token != "" {
			tokens[broker] = token
		}
	}

	c.mu.Lock()
	c.tokens = tokens
	c.mu.Unlock()

	if len(tokens) == 0 {
		return c.reject(invalid("Enter at least one access token"))
	}
	if !c.savingTokens.acquire() {
		return ErrBusy
	}
	defer c.savingTokens.release()

	c.setError("")
	s, err := c.api.UpdateSettings(ctx, gateway.SettingsUpdate{AccessTokens: tokens})
	report(c.observer, ActionTokens, strings.Join(sortedKeys(tokens), ","), "", err)
	if err != nil {
		c.setError(Message(err, "Failed to save"))
		return err
	}

	c.mu.Lock()
	c.settings = s
	c.tokens = nil
	c.mu.Unlock()
	c.checkInvariants(s)
	return nil
}

// TestConnection probes the active broker without touching the settings.
func (c *Settings) TestConnection(ctx context.Context) (*gateway.ConnectionStatus, error) {
	c.mu.Lock()
	c.testResult = nil
	c.errMsg = ""
	c.mu.Unlock()

	res, err := c.api.TestConnection(ctx)
	if err != nil {
		c.setError(Message(err, "Test failed"))
		return nil, err
	}

	c.mu.Lock()
	c.testResult = res
	c.mu.Unlock()
	return res, nil
}

// Current returns the cached settings, or nil before the first load.
func (c *Settings) Current() *gateway.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.settings == nil {
		return nil
	}
	cp := *c.settings
	return &cp
}

func (c *Settings) Snapshot() SettingsState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := SettingsState{
		Loading:       c.loading,
		TradingModes:  append([]gateway.TradingMode(nil), c.modes...),
		Risk:          c.risk,
		Saving:        c.saving.active(),
		SavingTokens:  c.savingTokens.active(),
		Error:         c.errMsg,
		PendingTokens: sortedKeys(c.tokens),
	}
	if c.settings != nil {
		cp := *c.settings
		st.Settings = &cp
	}
	if c.testResult != nil {
		tr := *c.testResult
		st.TestResult = &tr
	}
	return st
}

func (c *Settings) update(ctx context.Context, kind, target string, u gateway.SettingsUpdate, after func(*gateway.Settings)) error {
	c.mu.RLock()
	loaded := c.settings != nil
	c.mu.RUnlock()
	if !loaded {
		return ErrNotLoaded
	}
	if !c.saving.acquire() {
		return ErrBusy
	}
	defer c.saving.release()

	c.setError("")
	s, err := c.api.UpdateSettings(ctx, u)
	report(c.observer, kind, target, "", err)
	if err != nil {
		c.setError(Message(err, "Failed to update"))
		return err
	}

	c.mu.Lock()
	c.settings = s
	if after != nil {
		after(s)
	}
	c.mu.Unlock()

	c.checkInvariants(s)
	return nil
}

func (c *Settings) reject(err error) error {
	c.setError(Message(err, "Invalid input"))
	return err
}

func (c *Settings) setError(msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
}

// checkInvariants only logs: the server response stays authoritative.
func (c *Settings) checkInvariants(s *gateway.Settings) {
	for _, v := range s.Violations() {
		c.logger.Warn("settings invariant violated by backend response", "violation", v)
	}
}

func (f RiskForm) update() (gateway.SettingsUpdate, error) {
	maxPos, err := parseDecimalLimit("Max position value", f.MaxPositionValue)
	if err != nil {
		return gateway.SettingsUpdate{}, err
	}
	maxOrders, err := parseCountLimit("Max orders per day", f.MaxOrdersPerDay)
	if err != nil {
		return gateway.SettingsUpdate{}, err
	}
	lossPct, err := parseDecimalLimit("Daily loss limit", f.DailyLossLimitPct)
	if err != nil {
		return gateway.SettingsUpdate{}, err
	}
	return gateway.SettingsUpdate{
		MaxPositionValue:  maxPos,
		MaxOrdersPerDay:   maxOrders,
		DailyLossLimitPct: lossPct,
	}, nil
}

func parseDecimalLimit(label, raw string) (gateway.Patch[decimal.Decimal], error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return gateway.Null[decimal.Decimal](), nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return gateway.Patch[decimal.Decimal]{}, invalid(label + " must be a number")
	}
	if d.IsNegative() {
		return gateway.Patch[decimal.Decimal]{}, invalid(label + " must not be negative")
	}
	return gateway.Value(d), nil
}

func parseCountLimit(label, raw string) (gateway.Patch[int64], error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return gateway.Null[int64](), nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return gateway.Patch[int64]{}, invalid(label + " must be a whole number")
	}
	if n < 0 {
		return gateway.Patch[int64]{}, invalid(label + " must not be negative")
	}
	return gateway.Value(n), nil
}

func seedRisk(s *gateway.Settings) RiskForm {
	var f RiskForm
	if s.MaxPositionValue.Valid {
		f.MaxPositionValue = s.MaxPositionValue.Decimal.String()
	}
	if s.MaxOrdersPerDay != nil {
		f.MaxOrdersPerDay = strconv.FormatInt(*s.MaxOrdersPerDay, 10)
	}
	if s.DailyLossLimitPct.Valid {
		f.DailyLossLimitPct = s.DailyLossLimitPct.Decimal.String()
	}
	return f
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
