package gateway

import (
	"context"
	"fmt"
)

func (c *Client) DashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	var s DashboardSummary
	if err := c.Get(ctx, "/api/dashboard", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) PnLHistory(ctx context.Context, days int) ([]PnLEntry, error) {
	var entries []PnLEntry
	if err := c.Get(ctx, fmt.Sprintf("/api/dashboard/pnl-history?days=%d", days), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
