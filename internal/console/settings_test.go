package console

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/camuig/trader-console/internal/gateway"
	"github.com/camuig/trader-console/internal/logger"
)

func loadedSettings(t *testing.T, f *fakeBackend, confirm Confirmer, obs Observer) *Settings {
	t.Helper()
	c := NewSettings(newTestAPI(t, f), confirm, obs, logger.Discard())
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return c
}

func TestSettingsLoadSeedsRiskBuffer(t *testing.T) {
	f := newFakeBackend()
	f.settings["max_position_value"] = 50000.5
	f.settings["max_orders_per_day"] = 10

	c := loadedSettings(t, f, nil, nil)
	st := c.Snapshot()

	want := RiskForm{MaxPositionValue: "50000.5", MaxOrdersPerDay: "10", DailyLossLimitPct: ""}
	if st.Risk != want {
		t.Errorf("Risk = %+v, want %+v", st.Risk, want)
	}
	if len(st.TradingModes) != 2 {
		t.Errorf("TradingModes = %d, want 2", len(st.TradingModes))
	}
	if st.Loading {
		t.Error("Loading should be false after Load")
	}
}

func TestSettingsLoadFailureKeepsError(t *testing.T) {
	f := newFakeBackend()
	f.setFail(http.MethodGet, "/api/settings/trading-modes", http.StatusInternalServerError)

	c := NewSettings(newTestAPI(t, f), nil, nil, logger.Discard())
	if err := c.Load(context.Background()); err == nil {
		t.Fatal("Load() should fail")
	}
	st := c.Snapshot()
	if st.Settings != nil {
		t.Error("settings should stay unset after a failed load")
	}
	if st.Error != "forced failure" {
		t.Errorf("Error = %q", st.Error)
	}
}

func TestSettingsSetModeReplacesCache(t *testing.T) {
	f := newFakeBackend()
	c := loadedSettings(t, f, nil, nil)

	if err := c.SetMode(context.Background(), gateway.Live); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}

	req, ok := f.last(http.MethodPatch, "/api/settings")
	if !ok {
		t.Fatal("no PATCH /api/settings")
	}
	if got := mustJSON(t, req.body); !reflect.DeepEqual(got, map[string]any{"paper_live": "live"}) {
		t.Errorf("PATCH body = %v", got)
	}

	s := c.Current()
	if got := s.PaperLive.Label(); got != "Live" {
		t.Errorf("mode label = %q, want Live", got)
	}
}

func TestSettingsCacheEqualsServerResponse(t *testing.T) {
	f := newFakeBackend()
	c := loadedSettings(t, f, nil, nil)

	// The server changes fields the client did not ask about.
	f.mu.Lock()
	f.settings["max_orders_per_day"] = 3
	f.settings["brokers_available"] = []any{"upstox"}
	f.mu.Unlock()

	if err := c.SetBroker(context.Background(), "upstox"); err != nil {
		t.Fatalf("SetBroker() error = %v", err)
	}

	s := c.Current()
	if s.ActiveBrokerID != "upstox" {
		t.Errorf("ActiveBrokerID = %q", s.ActiveBrokerID)
	}
	if s.MaxOrdersPerDay == nil || *s.MaxOrdersPerDay != 3 {
		t.Errorf("MaxOrdersPerDay = %v, want 3 from the response", s.MaxOrdersPerDay)
	}
	if !reflect.DeepEqual(s.BrokersAvailable, []string{"upstox"}) {
		t.Errorf("BrokersAvailable = %v", s.BrokersAvailable)
	}
}

func TestSettingsSetTradingModeNull(t *testing.T) {
	f := newFakeBackend()
	f.settings["active_trading_mode_id"] = 1
	c := loadedSettings(t, f, nil, nil)

	if err := c.SetTradingMode(context.Background(), nil); err != nil {
		t.Fatalf("SetTradingMode() error = %v", err)
	}
	req, _ := f.last(http.MethodPatch, "/api/settings")
	if req.body != `{"active_trading_mode_id":null}` {
		t.Errorf("PATCH body = %s", req.body)
	}
	if c.Current().ActiveTradingModeID != nil {
		t.Error("trading mode should be cleared")
	}
}

func TestSettingsKillSwitchConfirmation(t *testing.T) {
	tests := []struct {
		name      string
		initial   bool
		answer    bool
		wantErr   error
		wantPatch bool
		wantState bool
	}{
		{name: "declined turning on", initial: false, answer: false, wantErr: ErrDeclined, wantPatch: false, wantState: false},
		{name: "confirmed turning on", initial: false, answer: true, wantPatch: true, wantState: true},
		{name: "turning off needs no confirmation", initial: true, answer: false, wantPatch: true, wantState: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeBackend()
			f.settings["kill_switch"] = tt.initial

			var prompts []string
			confirm := ConfirmFunc(func(_ context.Context, p string) bool {
				prompts = append(prompts, p)
				return tt.answer
			})
			c := loadedSettings(t, f, confirm, nil)

			err := c.ToggleKillSwitch(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ToggleKillSwitch() error = %v, want %v", err, tt.wantErr)
			}
			if got := f.count(http.MethodPatch, "/api/settings") == 1; got != tt.wantPatch {
				t.Errorf("PATCH sent = %v, want %v", got, tt.wantPatch)
			}
			if got := c.Current().KillSwitch; got != tt.wantState {
				t.Errorf("KillSwitch = %v, want %v", got, tt.wantState)
			}
			if !tt.initial && (len(prompts) != 1 || prompts[0] != PromptKillSwitchOn) {
				t.Errorf("prompts = %v", prompts)
			}
			if tt.initial && len(prompts) != 0 {
				t.Errorf("turning off prompted: %v", prompts)
			}
		})
	}
}

func TestSettingsSaveRiskLimits(t *testing.T) {
	tests := []struct {
		name     string
		form     RiskForm
		wantBody string
		wantErr  string
	}{
		{
			name:     "all set",
			form:     RiskForm{MaxPositionValue: "50000.5", MaxOrdersPerDay: "10", DailyLossLimitPct: "2.5"},
			wantBody: `{"daily_loss_limit_pct":2.5,"max_orders_per_day":10,"max_position_value":50000.5}`,
		},
		{
			name:     "blank becomes null",
			form:     RiskForm{MaxPositionValue: "", MaxOrdersPerDay: " 4 ", DailyLossLimitPct: ""},
			wantBody: `{"daily_loss_limit_pct":null,"max_orders_per_day":4,"max_position_value":null}`,
		},
		{name: "not a number", form: RiskForm{MaxPositionValue: "lots"}, wantErr: "Max position value must be a number"},
		{name: "negative", form: RiskForm{DailyLossLimitPct: "-1"}, wantErr: "Daily loss limit must not be negative"},
		{name: "fractional orders", form: RiskForm{MaxOrdersPerDay: "2.5"}, wantErr: "Max orders per day must be a whole number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeBackend()
			c := loadedSettings(t, f, nil, nil)

			err := c.SaveRiskLimits(context.Background(), tt.form)
			if tt.wantErr != "" {
				var v *ValidationError
				if !errors.As(err, &v) || v.Message != tt.wantErr {
					t.Fatalf("SaveRiskLimits() error = %v, want %q", err, tt.wantErr)
				}
				if f.count(http.MethodPatch, "/api/settings") != 0 {
					t.Error("invalid form reached the network")
				}
				if c.Snapshot().Error != tt.wantErr {
					t.Errorf("Error = %q", c.Snapshot().Error)
				}
				return
			}
			if err != nil {
				t.Fatalf("SaveRiskLimits() error = %v", err)
			}
			req, _ := f.last(http.MethodPatch, "/api/settings")
			if !reflect.DeepEqual(mustJSON(t, req.body), mustJSON(t, tt.wantBody)) {
				t.Errorf("PATCH body = %s, want %s", req.body, tt.wantBody)
			}
		})
	}
}

func TestSettingsRiskBufferReseededFromResponse(t *testing.T) {
	f := newFakeBackend()
	c := loadedSettings(t, f, nil, nil)

	err := c.SaveRiskLimits(context.Background(), RiskForm{MaxPositionValue: "1000.00", MaxOrdersPerDay: "", DailyLossLimitPct: ""})
	if err != nil {
		t.Fatalf("SaveRiskLimits() error = %v", err)
	}
	if got := c.Snapshot().Risk.MaxPositionValue; got != "1000" {
		t.Errorf("MaxPositionValue = %q, want the server's 1000", got)
	}
}

func TestSettingsSaveTokens(t *testing.T) {
	f := newFakeBackend()
	obs := &actionLog{}
	c := loadedSettings(t, f, nil, obs)

	err := c.SaveTokens(context.Background(), TokenDraft{"zerodha": "abc", "upstox": "  "})
	if err != nil {
		t.Fatalf("SaveTokens() error = %v", err)
	}
	req, _ := f.last(http.MethodPatch, "/api/settings")
	if !reflect.DeepEqual(mustJSON(t, req.body), map[string]any{"zerodha_access_token": "abc"}) {
		t.Errorf("PATCH body = %s", req.body)
	}
	if st := c.Snapshot(); len(st.PendingTokens) != 0 {
		t.Errorf("draft not cleared: %v", st.PendingTokens)
	}
	if got := obs.kinds(); !reflect.DeepEqual(got, []string{ActionTokens}) {
		t.Errorf("actions = %v", got)
	}
}

func TestSettingsSaveTokensEmptyDraft(t *testing.T) {
	f := newFakeBackend()
	c := loadedSettings(t, f, nil, nil)

	var v *ValidationError
	if err := c.SaveTokens(context.Background(), TokenDraft{"zerodha": ""}); !errors.As(err, &v) {
		t.Fatalf("SaveTokens() error = %v, want validation", err)
	}
	if f.count(http.MethodPatch, "/api/settings") != 0 {
		t.Error("empty draft reached the network")
	}
}

func TestSettingsSaveTokensFailureKeepsDraft(t *testing.T) {
	f := newFakeBackend()
	c := loadedSettings(t, f, nil, nil)
	f.setFail(http.MethodPatch, "/api/settings", http.StatusBadRequest)

	if err := c.SaveTokens(context.Background(), TokenDraft{"upstox": "xyz"}); err == nil {
		t.Fatal("SaveTokens() should fail")
	}
	st := c.Snapshot()
	if !reflect.DeepEqual(st.PendingTokens, []string{"upstox"}) {
		t.Errorf("PendingTokens = %v", st.PendingTokens)
	}
	if st.SavingTokens {
		t.Error("SavingTokens should be cleared after failure")
	}
	if st.Error != "forced failure" {
		t.Errorf("Error = %q", st.Error)
	}
}

func TestSettingsMutationFailureLeavesState(t *testing.T) {
	f := newFakeBackend()
	c := loadedSettings(t, f, nil, nil)
	before := c.Current()
	f.setDrop(http.MethodPatch, "/api/settings")

	err := c.SetMode(context.Background(), gateway.Live)
	var te *gateway.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("SetMode() error = %v, want transport error", err)
	}
	if !reflect.DeepEqual(c.Current(), before) {
		t.Error("cached settings changed after a failed update")
	}
	st := c.Snapshot()
	if st.Saving {
		t.Error("Saving should be cleared after failure")
	}
	if !strings.HasPrefix(st.Error, "Network error: ") {
		t.Errorf("Error = %q", st.Error)
	}
}

func TestSettingsBusyWhileSaving(t *testing.T) {
	f := newFakeBackend()
	c := loadedSettings(t, f, nil, nil)

	c.saving.acquire()
	defer c.saving.release()

	if err := c.SetMode(context.Background(), gateway.Live); !errors.Is(err, ErrBusy) {
		t.Fatalf("SetMode() error = %v, want ErrBusy", err)
	}
	if f.count(http.MethodPatch, "/api/settings") != 0 {
		t.Error("busy update reached the network")
	}
	// Tokens have their own flag.
	if err := c.SaveTokens(context.Background(), TokenDraft{"zerodha": "abc"}); err != nil {
		t.Errorf("SaveTokens() error = %v", err)
	}
}

func TestSettingsNotLoaded(t *testing.T) {
	f := newFakeBackend()
	c := NewSettings(newTestAPI(t, f), always(true), nil, logger.Discard())

	if err := c.SetMode(context.Background(), gateway.Live); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("SetMode() error = %v", err)
	}
	if err := c.ToggleKillSwitch(context.Background()); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("ToggleKillSwitch() error = %v", err)
	}
	if f.total() != 0 {
		t.Errorf("requests = %d, want 0", f.total())
	}
}

func TestSettingsInvalidMode(t *testing.T) {
	f := newFakeBackend()
	c := loadedSettings(t, f, nil, nil)

	var v *ValidationError
	if err := c.SetMode(context.Background(), gateway.ExecutionMode("demo")); !errors.As(err, &v) {
		t.Fatalf("SetMode() error = %v", err)
	}
}

func TestSettingsTestConnectionDoesNotMutate(t *testing.T) {
	f := newFakeBackend()
	c := loadedSettings(t, f, nil, nil)
	before := c.Current()

	res, err := c.TestConnection(context.Background())
	if err != nil {
		t.Fatalf("TestConnection() error = %v", err)
	}
	if !res.Connected || res.BrokerID != "zerodha" {
		t.Errorf("result = %+v", res)
	}
	if !reflect.DeepEqual(c.Current(), before) {
		t.Error("TestConnection changed settings")
	}
	if c.Snapshot().TestResult == nil {
		t.Error("TestResult not recorded")
	}
}
