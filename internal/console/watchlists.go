package console

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/camuig/trader-console/internal/gateway"
	"github.com/camuig/trader-console/internal/logger"
)

type WatchlistState struct {
	Loading    bool                `json:"loading"`
	Watchlists []gateway.Watchlist `json:"watchlists"`
	SelectedID *int64              `json:"selected_id"`
	Saving     bool                `json:"saving"`
	Error      string              `json:"error,omitempty"`
}

// Watchlists keeps the user's symbol collections. The selection is held by id
// so it survives reloads.
type Watchlists struct {
	api      WatchlistBackend
	confirm  Confirmer
	observer Observer
	exchange string
	logger   *logger.Logger

	mu       sync.RWMutex
	loading  bool
	lists    []gateway.Watchlist
	selected *int64
	errMsg   string

	saving inflight
}

func NewWatchlists(api WatchlistBackend, confirm Confirmer, obs Observer, exchange string, log *logger.Logger) *Watchlists {
	return &Watchlists{api: api, confirm: confirm, observer: obs, exchange: exchange, logger: log}
}

func (c *Watchlists) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	lists, err := c.api.ListWatchlists(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.errMsg = Message(err, "Failed to load watchlists")
		return err
	}
	c.lists = lists
	return nil
}

// Create appends the new list from the response without a reload.
func (c *Watchlists) Create(ctx context.Context, name string) (*gateway.Watchlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		err := invalid("Name required")
		c.setError(err.Message)
		return nil, err
	}
	if !c.saving.acquire() {
		return nil, ErrBusy
	}
	defer c.saving.release()

	c.setError("")
	w, err := c.api.CreateWatchlist(ctx, name)
	report(c.observer, ActionCreateList, name, "", err)
	if err != nil {
		c.setError(Message(err, "Failed to create"))
		return nil, err
	}

	c.mu.Lock()
	c.lists = append(c.lists, *w)
	c.mu.Unlock()
	return w, nil
}

// SetAuto flags one list for the screener; the backend clears the flag elsewhere.
func (c *Watchlists) SetAuto(ctx context.Context, id int64) error {
	if !c.saving.acquire() {
		return ErrBusy
	}
	defer c.saving.release()

	c.setError("")
	auto := true
	_, err := c.api.UpdateWatchlist(ctx, id, gateway.WatchlistUpdate{IsAutoForScreener: &auto})
	report(c.observer, ActionSetAuto, strconv.FormatInt(id, 10), "", err)
	if err != nil {
		c.setError(Message(err, "Failed to update"))
		return err
	}
	return c.Load(ctx)
}

func (c *Watchlists) Delete(ctx context.Context, id int64) error {
	if !confirmed(ctx, c.confirm, PromptDeleteWatchlist) {
		return ErrDeclined
	}
	if !c.saving.acquire() {
		return ErrBusy
	}
	defer c.saving.release()

	c.setError("")
	err := c.api.DeleteWatchlist(ctx, id)
	report(c.observer, ActionDeleteList, strconv.FormatInt(id, 10), "", err)
	if err != nil {
		c.setError(Message(err, "Failed to delete"))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	kept := make([]gateway.Watchlist, 0, len(c.lists))
	for _, w := range c.lists {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	c.lists = kept
	if c.selected != nil && *c.selected == id {
		c.selected = nil
	}
	return nil
}

// AddSymbol adds an upper-cased symbol; exchange defaults to the configured one.
func (c *Watchlists) AddSymbol(ctx context.Context, id int64, exchange, symbol string) error {
	return c.changeSymbol(ctx, ActionAddSymbol, id, exchange, symbol, c.api.AddSymbol)
}

func (c *Watchlists) RemoveSymbol(ctx context.Context, id int64, exchange, symbol string) error {
	return c.changeSymbol(ctx, ActionRemoveSymbol, id, exchange, symbol, c.api.RemoveSymbol)
}

func (c *Watchlists) changeSymbol(ctx context.Context, kind string, id int64, exchange, symbol string,
	call func(context.Context, int64, string, string) error) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		err := invalid("Symbol required")
		c.setError(err.Message)
		return err
	}
	exchange = strings.ToUpper(strings.TrimSpace(exchange))
	if exchange == "" {
		exchange = c.exchange
	}
	if !c.saving.acquire() {
		return ErrBusy
	}
	defer c.saving.release()

	c.setError("")
	err := call(ctx, id, exchange, symbol)
	report(c.observer, kind, strconv.FormatInt(id, 10), exchange+":"+symbol, err)
	if err != nil {
		c.setError(Message(err, "Failed to update symbols"))
		return err
	}
	return c.Load(ctx)
}

// Refresh refetches one watchlist and replaces it in the cached list.
func (c *Watchlists) Refresh(ctx context.Context, id int64) (*gateway.Watchlist, error) {
	w, err := c.api.GetWatchlist(ctx, id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errMsg = Message(err, "Failed to load watchlist")
		return nil, err
	}

	c.errMsg = ""
	for i := range c.lists {
		if c.lists[i].ID == w.ID {
			c.lists[i] = *w
			return w, nil
		}
	}
	c.lists = append(c.lists, *w)
	return w, nil
}

// Select points the selection at id. Unknown ids clear it.
func (c *Watchlists) Select(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, w := range c.lists {
		if w.ID == id {
			c.selected = &id
			return true
		}
	}
	c.selected = nil
	return false
}

// Selected resolves the selection against the current list.
func (c *Watchlists) Selected() (gateway.Watchlist, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == nil {
		return gateway.Watchlist{}, false
	}
	for _, w := range c.lists {
		if w.ID == *c.selected {
			return w, true
		}
	}
	return gateway.Watchlist{}, false
}

func (c *Watchlists) Universe(ctx context.Context, id int64) (*gateway.Universe, error) {
	return c.api.WatchlistUniverse(ctx, id)
}

func (c *Watchlists) AutoUniverse(ctx context.Context) (*gateway.Universe, error) {
	return c.api.AutoUniverse(ctx)
}

func (c *Watchlists) Snapshot() WatchlistState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := WatchlistState{
		Loading:    c.loading,
		Watchlists: append([]gateway.Watchlist(nil), c.lists...),
		Saving:     c.saving.active(),
		Error:      c.errMsg,
	}
	if c.selected != nil {
		id := *c.selected
		st.SelectedID = &id
	}
	return st
}

func (c *Watchlists) setError(msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
}
