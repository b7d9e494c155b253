package console

import (
	"context"
	"strings"
	"sync"

	"github.com/camuig/trader-console/internal/gateway"
	"github.com/camuig/trader-console/internal/logger"
)

type ScreenerState struct {
	Scan    string                `json:"scan"`
	Result  *gateway.ScanResponse `json:"result"`
	Running bool                  `json:"running"`
	Error   string                `json:"error,omitempty"`
}

// Screener runs ranked scans. Each run replaces the previous result.
type Screener struct {
	api      ScreenerBackend
	exchange string
	limit    int
	logger   *logger.Logger

	mu     sync.RWMutex
	scan   string
	result *gateway.ScanResponse
	errMsg string

	running inflight
}

func NewScreener(api ScreenerBackend, exchange string, limit int, log *logger.Logger) *Screener {
	return &Screener{api: api, exchange: exchange, limit: limit, logger: log}
}

// Run scans the given symbols, or the auto watchlist when symbols is empty.
func (s *Screener) Run(ctx context.Context, scan string, symbols []string) (*gateway.ScanResponse, error) {
	if !knownScan(scan) {
		err := invalid("Unknown scan: " + scan)
		s.set(scan, nil, err.Message)
		return nil, err
	}
	if !s.running.acquire() {
		return nil, ErrBusy
	}
	defer s.running.release()

	s.set(scan, nil, "")
	res, err := s.api.Scan(ctx, scan, gateway.ScanParams{
		Exchange: s.exchange,
		Limit:    s.limit,
		Symbols:  normalizeSymbols(symbols),
	})
	if err != nil {
		s.set(scan, nil, Message(err, "Scan failed"))
		return nil, err
	}
	s.set(scan, res, "")
	return res, nil
}

// RunOnWatchlist scans the symbols of one watchlist.
func (s *Screener) RunOnWatchlist(ctx context.Context, scan string, watchlistID int64) (*gateway.ScanResponse, error) {
	u, err := s.api.WatchlistUniverse(ctx, watchlistID)
	if err != nil {
		s.set(scan, nil, Message(err, "Failed to load watchlist"))
		return nil, err
	}
	symbols := make([]string, 0, len(u.Symbols))
	for _, sym := range u.Symbols {
		symbols = append(symbols, sym.Symbol)
	}
	if len(symbols) == 0 {
		err := invalid("Watchlist has no symbols")
		s.set(scan, nil, err.Message)
		return nil, err
	}
	return s.Run(ctx, scan, symbols)
}

func (s *Screener) Snapshot() ScreenerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ScreenerState{
		Scan:    s.scan,
		Result:  s.result,
		Running: s.running.active(),
		Error:   s.errMsg,
	}
}

func (s *Screener) set(scan string, res *gateway.ScanResponse, msg string) {
	s.mu.Lock()
	s.scan = scan
	s.result = res
	s.errMsg = msg
	s.mu.Unlock()
}

func knownScan(scan string) bool {
	for _, k := range gateway.ScanKinds {
		if k == scan {
			return true
		}
	}
	return false
}

func normalizeSymbols(symbols []string) []string {
	var out []string
	for _, sym := range symbols {
		if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
			out = append(out, sym)
		}
	}
	return out
}
