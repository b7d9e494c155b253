package console

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/camuig/trader-console/internal/gateway"
	"github.com/camuig/trader-console/internal/logger"
)

// ConfigDraft is the create-config form.
type ConfigDraft struct {
	Name        string         `json:"name"`
	StrategyKey string         `json:"strategy_key"`
	WatchlistID int64          `json:"watchlist_id"`
	Params      map[string]any `json:"params,omitempty"`
}

// WatchlistRef is the slice of a watchlist the strategy page needs.
type WatchlistRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type StrategyState struct {
	Loading    bool                     `json:"loading"`
	Strategies []gateway.StrategyOption `json:"strategies"`
	Configs    []gateway.StrategyConfig `json:"configs"`
	Watchlists []WatchlistRef           `json:"watchlists"`
	Mutating   bool                     `json:"mutating"`
	Running    bool                     `json:"running"`
	LastRun    *gateway.RunResult       `json:"last_run"`
	Error      string                   `json:"error,omitempty"`
}

// Strategies manages strategy configurations. Activation is exclusive on the
// backend, so every mutation is followed by a full reload.
type Strategies struct {
	api      StrategyBackend
	confirm  Confirmer
	observer Observer
	logger   *logger.Logger

	mu         sync.RWMutex
	loading    bool
	strategies []gateway.StrategyOption
	configs    []gateway.StrategyConfig
	watchlists []WatchlistRef
	lastRun    *gateway.RunResult
	errMsg     string

	mutating inflight
	running  inflight
}

func NewStrategies(api StrategyBackend, confirm Confirmer, obs Observer, log *logger.Logger) *Strategies {
	return &Strategies{api: api, confirm: confirm, observer: obs, logger: log}
}

func (c *Strategies) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	var (
		strategies []gateway.StrategyOption
		configs    []gateway.StrategyConfig
		lists      []gateway.Watchlist
	)
	err := gather(
		func() (err error) { strategies, err = c.api.ListStrategies(ctx); return },
		func() (err error) { configs, err = c.api.ListConfigs(ctx); return },
		func() (err error) { lists, err = c.api.ListWatchlists(ctx); return },
	)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.errMsg = Message(err, "Failed to load")
		return err
	}

	c.strategies = strategies
	c.configs = configs
	c.watchlists = make([]WatchlistRef, 0, len(lists))
	for _, w := range lists {
		c.watchlists = append(c.watchlists, WatchlistRef{ID: w.ID, Name: w.Name})
	}
	if n := countActive(configs); n > 1 {
		c.logger.Warn("backend reports more than one active strategy config", "active", n)
	}
	return nil
}

func (c *Strategies) Create(ctx context.Context, d ConfigDraft) (*gateway.StrategyConfig, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.StrategyKey = strings.TrimSpace(d.StrategyKey)
	if d.Name == "" || d.StrategyKey == "" || d.WatchlistID == 0 {
		err := invalid("Name, strategy and watchlist required")
		c.setError(err.Message)
		return nil, err
	}
	if !c.mutating.acquire() {
		return nil, ErrBusy
	}
	defer c.mutating.release()

	c.setError("")
	cfg, err := c.api.CreateConfig(ctx, gateway.StrategyConfigCreate{
		Name:        d.Name,
		StrategyKey: d.StrategyKey,
		Params:      d.Params,
		WatchlistID: d.WatchlistID,
	})
	report(c.observer, ActionCreateConfig, d.Name, d.StrategyKey, err)
	if err != nil {
		c.setError(Message(err, "Failed to create"))
		return nil, err
	}
	return cfg, c.Load(ctx)
}

// SetActive activates one config; the backend deactivates the rest.
func (c *Strategies) SetActive(ctx context.Context, id int64) error {
	if !c.mutating.acquire() {
		return ErrBusy
	}
	defer c.mutating.release()

	c.setError("")
	active := true
	_, err := c.api.UpdateConfig(ctx, id, gateway.StrategyConfigUpdate{IsActive: &active})
	report(c.observer, ActionActivateConfig, strconv.FormatInt(id, 10), "", err)
	if err != nil {
		c.setError(Message(err, "Failed to update"))
		return err
	}
	return c.Load(ctx)
}

func (c *Strategies) Delete(ctx context.Context, id int64) error {
	if !confirmed(ctx, c.confirm, PromptDeleteConfig) {
		return ErrDeclined
	}
	if !c.mutating.acquire() {
		return ErrBusy
	}
	defer c.mutating.release()

	c.setError("")
	err := c.api.DeleteConfig(ctx, id)
	report(c.observer, ActionDeleteConfig, strconv.FormatInt(id, 10), "", err)
	if err != nil {
		c.setError(Message(err, "Failed to delete"))
		return err
	}
	return c.Load(ctx)
}

// Run executes the active strategy. The result replaces any earlier one.
func (c *Strategies) Run(ctx context.Context) (*gateway.RunResult, error) {
	if _, ok := c.Active(); !ok {
		err := invalid("Set an active config first.")
		c.setError(err.Message)
		return nil, err
	}
	if !c.running.acquire() {
		return nil, ErrBusy
	}
	defer c.running.release()

	c.setError("")
	res, err := c.api.RunStrategy(ctx)
	detail := ""
	if res != nil {
		detail = strconv.Itoa(len(res.Signals)) + " signals"
	}
	report(c.observer, ActionRunStrategy, "", detail, err)
	if err != nil {
		c.setError(Message(err, "Run failed"))
		return nil, err
	}

	c.mu.Lock()
	c.lastRun = res
	c.mu.Unlock()
	return res, nil
}

// Active returns the active config from the cached list.
func (c *Strategies) Active() (gateway.StrategyConfig, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cfg := range c.configs {
		if cfg.IsActive {
			return cfg, true
		}
	}
	return gateway.StrategyConfig{}, false
}

func (c *Strategies) Snapshot() StrategyState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return StrategyState{
		Loading:    c.loading,
		Strategies: append([]gateway.StrategyOption(nil), c.strategies...),
		Configs:    append([]gateway.StrategyConfig(nil), c.configs...),
		Watchlists: append([]WatchlistRef(nil), c.watchlists...),
		Mutating:   c.mutating.active(),
		Running:    c.running.active(),
		LastRun:    c.lastRun,
		Error:      c.errMsg,
	}
}

func (c *Strategies) setError(msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
}

func countActive(configs []gateway.StrategyConfig) int {
	n := 0
	for _, cfg := range configs {
		if cfg.IsActive {
			n++
		}
	}
	return n
}
