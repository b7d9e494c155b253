package console

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/camuig/trader-console/internal/gateway"
	"github.com/camuig/trader-console/internal/logger"
)

// Suggester coalesces rapid input into one delayed instrument lookup. Only the
// latest input's result is ever applied.
type Suggester struct {
	api      SuggestBackend
	exchange string
	limit    int
	delay    time.Duration
	logger   *logger.Logger

	mu      sync.Mutex
	gen     uint64
	query   string
	timer   *time.Timer
	cancel  context.CancelFunc
	results []gateway.InstrumentSuggestion
	notify  func([]gateway.InstrumentSuggestion)
}

func NewSuggester(api SuggestBackend, exchange string, limit int, delay time.Duration, log *logger.Logger) *Suggester {
	return &Suggester{
		api:      api,
		exchange: exchange,
		limit:    limit,
		delay:    delay,
		logger:   log,
	}
}

// OnResults registers a callback invoked whenever the suggestions change.
func (s *Suggester) OnResults(fn func([]gateway.InstrumentSuggestion)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// Input records a keystroke. Blank input clears the suggestions immediately.
func (s *Suggester) Input(q string) {
	s.mu.Lock()
	s.gen++
	s.query = q
	s.stopLocked()

	if strings.TrimSpace(q) == "" {
		notify := s.applyLocked(nil)
		s.mu.Unlock()
		notify()
		return
	}

	gen := s.gen
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen, q) })
	s.mu.Unlock()
}

func (s *Suggester) fire(gen uint64, q string) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	res, err := s.api.SuggestInstruments(ctx, q, s.exchange, s.limit)
	cancel()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.cancel = nil
	if err != nil {
		s.logger.Debug("instrument suggestions failed", "query", q, "error", err)
		res = nil
	}
	notify := s.applyLocked(res)
	s.mu.Unlock()
	notify()
}

// Results returns the suggestions for the latest input.
func (s *Suggester) Results() []gateway.InstrumentSuggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]gateway.InstrumentSuggestion(nil), s.results...)
}

func (s *Suggester) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Close stops any pending lookup.
func (s *Suggester) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.stopLocked()
}

func (s *Suggester) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// applyLocked stores res and returns the notification to run once s.mu is
// released.
func (s *Suggester) applyLocked(res []gateway.InstrumentSuggestion) func() {
	s.results = res
	fn := s.notify
	if fn == nil {
		return func() {}
	}
	snapshot := append([]gateway.InstrumentSuggestion(nil), res...)
	return func() { fn(snapshot) }
}
