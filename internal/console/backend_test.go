package console

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/camuig/trader-console/internal/gateway"
	"github.com/camuig/trader-console/internal/logger"
)

type staticSession struct{ token string }

func (s *staticSession) Token() string { return s.token }
func (s *staticSession) Clear()        { s.token = "" }

type call struct {
	method string
	path   string
	query  string
	body   string
}

// fakeBackend serves the REST surface from in-memory state and records
// every request it receives.
type fakeBackend struct {
	mu         sync.Mutex
	calls      []call
	fail       map[string]int  // "METHOD /path" -> status
	drop       map[string]bool // "METHOD /path" -> close the connection
	settings   map[string]any
	modes      []gateway.TradingMode
	orders     []gateway.Order
	cancel     gateway.CancelResult
	strategies []gateway.StrategyOption
	configs    []gateway.StrategyConfig
	watchlists []gateway.Watchlist
	nextID     int64
	summary    gateway.DashboardSummary
	pnl        []gateway.PnLEntry
	run        gateway.RunResult
	suggest    []gateway.InstrumentSuggestion
	scan       gateway.ScanResponse
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		fail: map[string]int{},
		drop: map[string]bool{},
		settings: map[string]any{
			"active_broker_id":       "zerodha",
			"paper_live":             "paper",
			"brokers_available":      []any{"zerodha", "upstox"},
			"active_trading_mode_id": nil,
			"kill_switch":            false,
			"max_position_value":     nil,
			"max_orders_per_day":     nil,
			"daily_loss_limit_pct":   nil,
		},
		modes: []gateway.TradingMode{
			{ID: 1, Name: "Intraday", Segment: "EQ", Product: "MIS", Exchange: "NSE"},
			{ID: 2, Name: "Positional", Segment: "EQ", Product: "CNC", Exchange: "NSE"},
		},
		cancel:     gateway.CancelResult{OK: true, Message: "cancelled"},
		strategies: []gateway.StrategyOption{{Key: "orb", Name: "Opening range breakout"}},
		nextID:     100,
	}
}

func (f *fakeBackend) record(r *http.Request) (call, bool, int) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	c := call{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery, body: string(body)}
	f.calls = append(f.calls, c)
	key := r.Method + " " + r.URL.Path
	return c, f.drop[key], f.fail[key]
}

func (f *fakeBackend) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.method == method && c.path == path {
			n++
		}
	}
	return n
}

func (f *fakeBackend) last(method, path string) (call, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].method == method && f.calls[i].path == path {
			return f.calls[i], true
		}
	}
	return call{}, false
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeBackend) setFail(method, path string, status int) {
	f.mu.Lock()
	f.fail[method+" "+path] = status
	f.mu.Unlock()
}

func (f *fakeBackend) setDrop(method, path string) {
	f.mu.Lock()
	f.drop[method+" "+path] = true
	f.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func idParam(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

func (f *fakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			c, drop, status := f.record(req)
			if drop {
				panic(http.ErrAbortHandler)
			}
			if status != 0 {
				writeJSON(w, status, map[string]string{"detail": "forced failure"})
				return
			}
			req.Body = io.NopCloser(strings.NewReader(c.body))
			next.ServeHTTP(w, req)
		})
	})

	r.Get("/api/settings", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.settings)
	})
	r.Patch("/api/settings", func(w http.ResponseWriter, req *http.Request) {
		var patch map[string]any
		_ = json.NewDecoder(req.Body).Decode(&patch)
		f.mu.Lock()
		defer f.mu.Unlock()
		for k, v := range patch {
			if strings.HasSuffix(k, "_access_token") {
				continue
			}
			f.settings[k] = v
		}
		writeJSON(w, http.StatusOK, f.settings)
	})
	r.Get("/api/settings/trading-modes", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, f.modes)
	})
	r.Post("/api/settings/test-connection", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, gateway.ConnectionStatus{BrokerID: "zerodha", Connected: true, Message: "ok"})
	})

	r.Get("/api/orders", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.orders)
	})
	r.Post("/api/orders/cancel", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.cancel)
	})

	r.Get("/api/strategies", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, f.strategies)
	})
	r.Get("/api/strategies/configs", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.configs)
	})
	r.Post("/api/strategies/configs", func(w http.ResponseWriter, req *http.Request) {
		var body gateway.StrategyConfigCreate
		_ = json.NewDecoder(req.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.nextID++
		cfg := gateway.StrategyConfig{ID: f.nextID, Name: body.Name, StrategyKey: body.StrategyKey, WatchlistID: body.WatchlistID, Params: body.Params}
		f.configs = append(f.configs, cfg)
		writeJSON(w, http.StatusOK, cfg)
	})
	r.Patch("/api/strategies/configs/{id}", func(w http.ResponseWriter, req *http.Request) {
		var body gateway.StrategyConfigUpdate
		_ = json.NewDecoder(req.Body).Decode(&body)
		id := idParam(req)
		f.mu.Lock()
		defer f.mu.Unlock()
		var out gateway.StrategyConfig
		for i := range f.configs {
			if body.IsActive != nil && *body.IsActive {
				f.configs[i].IsActive = f.configs[i].ID == id
			}
			if f.configs[i].ID == id {
				out = f.configs[i]
			}
		}
		writeJSON(w, http.StatusOK, out)
	})
	r.Delete("/api/strategies/configs/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := idParam(req)
		f.mu.Lock()
		defer f.mu.Unlock()
		kept := f.configs[:0]
		for _, c := range f.configs {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		f.configs = kept
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/api/strategies/configs/active", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, c := range f.configs {
			if c.IsActive {
				writeJSON(w, http.StatusOK, c)
				return
			}
		}
		writeJSON(w, http.StatusOK, nil)
	})
	r.Post("/api/strategies/run", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.run)
	})

	r.Get("/api/watchlists", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.watchlists)
	})
	r.Get("/api/watchlists/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, wl := range f.watchlists {
			if wl.ID == id {
				writeJSON(w, http.StatusOK, wl)
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Watchlist not found"})
	})
	r.Post("/api/watchlists", func(w http.ResponseWriter, req *http.Request) {
		var body struct{ Name string }
		_ = json.NewDecoder(req.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		f.nextID++
		wl := gateway.Watchlist{ID: f.nextID, UserID: 1, Name: body.Name}
		f.watchlists = append(f.watchlists, wl)
		writeJSON(w, http.StatusOK, wl)
	})
	r.Patch("/api/watchlists/{id}", func(w http.ResponseWriter, req *http.Request) {
		var body gateway.WatchlistUpdate
		_ = json.NewDecoder(req.Body).Decode(&body)
		id := idParam(req)
		f.mu.Lock()
		defer f.mu.Unlock()
		var out gateway.Watchlist
		for i := range f.watchlists {
			if body.IsAutoForScreener != nil && *body.IsAutoForScreener {
				f.watchlists[i].IsAutoForScreener = f.watchlists[i].ID == id
			}
			if f.watchlists[i].ID == id {
				out = f.watchlists[i]
			}
		}
		writeJSON(w, http.StatusOK, out)
	})
	r.Delete("/api/watchlists/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := idParam(req)
		f.mu.Lock()
		defer f.mu.Unlock()
		kept := f.watchlists[:0]
		for _, wl := range f.watchlists {
			if wl.ID != id {
				kept = append(kept, wl)
			}
		}
		f.watchlists = kept
		w.WriteHeader(http.StatusNoContent)
	})
	r.Post("/api/watchlists/{id}/symbols", func(w http.ResponseWriter, req *http.Request) {
		var sym gateway.WatchlistSymbol
		_ = json.NewDecoder(req.Body).Decode(&sym)
		id := idParam(req)
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.watchlists {
			if f.watchlists[i].ID == id {
				f.watchlists[i].Symbols = append(f.watchlists[i].Symbols, sym)
			}
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Delete("/api/watchlists/{id}/symbols", func(w http.ResponseWriter, req *http.Request) {
		id := idParam(req)
		ex, sym := req.URL.Query().Get("exchange"), req.URL.Query().Get("symbol")
		f.mu.Lock()
		defer f.mu.Unlock()
		for i := range f.watchlists {
			if f.watchlists[i].ID != id {
				continue
			}
			var kept []gateway.WatchlistSymbol
			for _, s := range f.watchlists[i].Symbols {
				if s.Exchange != ex || s.Symbol != sym {
					kept = append(kept, s)
				}
			}
			f.watchlists[i].Symbols = kept
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/api/watchlists/auto/universe", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, wl := range f.watchlists {
			if wl.IsAutoForScreener {
				writeJSON(w, http.StatusOK, gateway.Universe{WatchlistID: wl.ID, Symbols: wl.Symbols})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No auto watchlist"})
	})
	r.Get("/api/watchlists/{id}/universe", func(w http.ResponseWriter, req *http.Request) {
		id := idParam(req)
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, wl := range f.watchlists {
			if wl.ID == id {
				writeJSON(w, http.StatusOK, gateway.Universe{WatchlistID: wl.ID, Symbols: wl.Symbols})
				return
			}
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Watchlist not found"})
	})

	r.Get("/api/dashboard", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.summary)
	})
	r.Get("/api/dashboard/pnl-history", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		pnl := f.pnl
		if pnl == nil {
			pnl = []gateway.PnLEntry{}
		}
		writeJSON(w, http.StatusOK, pnl)
	})
	r.Get("/api/screener/{scan}", func(w http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		res := f.scan
		res.Scan = chi.URLParam(req, "scan")
		writeJSON(w, http.StatusOK, res)
	})
	r.Get("/api/instruments/suggest", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, f.suggest)
	})

	r.Post("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseForm(); err != nil || req.PostForm.Get("password") != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
			return
		}
		writeJSON(w, http.StatusOK, gateway.LoginResponse{AccessToken: "token-" + req.PostForm.Get("username"), TokenType: "bearer"})
	})
	r.Post("/api/auth/change-password", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func newTestAPI(t *testing.T, f *fakeBackend) *gateway.Client {
	t.Helper()
	srv := httptest.NewServer(f.routes())
	t.Cleanup(srv.Close)
	return gateway.NewClient(srv.URL, srv.Client(), &staticSession{token: "t"}, logger.Discard())
}

type actionLog struct {
	mu      sync.Mutex
	actions []Action
}

func (l *actionLog) Observe(a Action) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.actions = append(l.actions, a)
}

func (l *actionLog) kinds() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.actions))
	for _, a := range l.actions {
		out = append(out, a.Kind)
	}
	return out
}

func always(answer bool) Confirmer {
	return ConfirmFunc(func(context.Context, string) bool { return answer })
}

func strPtr(s string) *string { return &s }

func mustJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("decode %q: %v", s, err)
	}
	return m
}
