package gateway

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Scan kinds served under /api/screener/{scan}.
const (
	ScanGainers        = "gainers"
	ScanLosers         = "losers"
	ScanVolumeShockers = "volume-shockers"
	ScanMostActive     = "most-active"
	ScanDemandZones    = "demand-zones"
	ScanSupplyZones    = "supply-zones"
)

var ScanKinds = []string{
	ScanGainers, ScanLosers, ScanVolumeShockers,
	ScanMostActive, ScanDemandZones, ScanSupplyZones,
}

// ScanParams are all optional. Without Symbols the backend scans the auto watchlist.
type ScanParams struct {
	Exchange string
	Limit    int
	Symbols  []string
}

func (p ScanParams) query() string {
	q := url.Values{}
	if p.Exchange != "" {
		q.Set("exchange", p.Exchange)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if len(p.Symbols) > 0 {
		q.Set("symbols", strings.Join(p.Symbols, ","))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) Scan(ctx context.Context, scan string, params ScanParams) (*ScanResponse, error) {
	var res ScanResponse
	if err := c.Get(ctx, "/api/screener/"+url.PathEscape(scan)+params.query(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}
