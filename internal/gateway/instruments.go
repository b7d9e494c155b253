package gateway

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// SuggestInstruments returns nothing, without a request, for blank input.
func (c *Client) SuggestInstruments(ctx context.Context, q, exchange string, limit int) ([]InstrumentSuggestion, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("exchange", exchange)
	params.Set("limit", strconv.Itoa(limit))

	var out []InstrumentSuggestion
	if err := c.Get(ctx, "/api/instruments/suggest?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}
