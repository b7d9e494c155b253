package gateway

import (
	"context"
	"fmt"
	"net/url"
)

func (c *Client) ListWatchlists(ctx context.Context) ([]Watchlist, error) {
	var lists []Watchlist
	if err := c.Get(ctx, "/api/watchlists", &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (c *Client) CreateWatchlist(ctx context.Context, name string) (*Watchlist, error) {
	var w Watchlist
	if err := c.Post(ctx, "/api/watchlists", map[string]string{"name": name}, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) GetWatchlist(ctx context.Context, id int64) (*Watchlist, error) {
	var w Watchlist
	if err := c.Get(ctx, fmt.Sprintf("/api/watchlists/%d", id), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) UpdateWatchlist(ctx context.Context, id int64, body WatchlistUpdate) (*Watchlist, error) {
	var w Watchlist
	if err := c.Patch(ctx, fmt.Sprintf("/api/watchlists/%d", id), body, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) DeleteWatchlist(ctx context.Context, id int64) error {
	return c.Delete(ctx, fmt.Sprintf("/api/watchlists/%d", id))
}

func (c *Client) AddSymbol(ctx context.Context, watchlistID int64, exchange, symbol string) error {
	body := WatchlistSymbol{Exchange: exchange, Symbol: symbol}
	return c.Post(ctx, fmt.Sprintf("/api/watchlists/%d/symbols", watchlistID), body, nil)
}

func (c *Client) RemoveSymbol(ctx context.Context, watchlistID int64, exchange, symbol string) error {
	q := url.Values{}
	q.Set("exchange", exchange)
	q.Set("symbol", symbol)
	return c.Delete(ctx, fmt.Sprintf("/api/watchlists/%d/symbols?%s", watchlistID, q.Encode()))
}

func (c *Client) WatchlistUniverse(ctx context.Context, watchlistID int64) (*Universe, error) {
	var u Universe
	if err := c.Get(ctx, fmt.Sprintf("/api/watchlists/%d/universe", watchlistID), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// AutoUniverse returns the symbols of the watchlist flagged for the screener.
func (c *Client) AutoUniverse(ctx context.Context) (*Universe, error) {
	var u Universe
	if err := c.Get(ctx, "/api/watchlists/auto/universe", &u); err != nil {
		return nil, err
	}
	return &u, nil
}
