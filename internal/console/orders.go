package console

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/camuig/trader-console/internal/gateway"
	"github.com/camuig/trader-console/internal/logger"
)

var cancellableStatuses = map[string]bool{
	"PENDING":         true,
	"OPEN":            true,
	"TRIGGER PENDING": true,
}

// CancellationEligible reports whether the order may still be cancelled.
// Any status outside the cancellable set is treated as terminal.
func CancellationEligible(o gateway.Order) bool {
	return cancellableStatuses[o.Status]
}

// CancelKey identifies an order by the id its cancellation is addressed with.
func CancelKey(o gateway.Order) string {
	if o.PaperLive == gateway.Paper {
		return fmt.Sprintf("paper:%d", o.ID)
	}
	if o.BrokerOrderID == nil {
		return ""
	}
	return "live:" + *o.BrokerOrderID
}

type OrdersState struct {
	Loading    bool            `json:"loading"`
	Orders     []gateway.Order `json:"orders"`
	Cancelling string          `json:"cancelling,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type Orders struct {
	api      OrdersBackend
	observer Observer
	logger   *logger.Logger

	mu         sync.RWMutex
	loading    bool
	orders     []gateway.Order
	cancelling string
	errMsg     string
}

func NewOrders(api OrdersBackend, obs Observer, log *logger.Logger) *Orders {
	return &Orders{api: api, observer: obs, logger: log}
}

func (c *Orders) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	orders, err := c.api.ListOrders(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.errMsg = Message(err, "Failed to load orders")
		return err
	}
	c.orders = orders
	return nil
}

// Cancel submits a cancellation and reloads the list whatever the outcome.
// Only one cancellation is in flight at a time.
func (c *Orders) Cancel(ctx context.Context, o gateway.Order) error {
	if !CancellationEligible(o) {
		return ErrNotCancellable
	}
	key := CancelKey(o)
	if key == "" {
		return ErrNoBrokerOrderID
	}

	c.mu.Lock()
	if c.cancelling != "" {
		c.mu.Unlock()
		return ErrBusy
	}
	c.cancelling = key
	c.errMsg = ""
	c.mu.Unlock()

	err := c.cancel(ctx, o)
	report(c.observer, ActionCancelOrder, key, o.Symbol, err)
	if err != nil {
		c.logger.Warn("cancel order failed", "order", key, "error", err)
	}

	c.mu.Lock()
	c.cancelling = ""
	if err != nil {
		c.errMsg = Message(err, "Cancel failed")
	}
	c.mu.Unlock()

	// A failed reload only surfaces inline; the cancel result stands.
	if lerr := c.Load(ctx); lerr != nil {
		c.logger.Warn("reload orders after cancel", "error", lerr)
	}
	if err != nil {
		c.setError(Message(err, "Cancel failed"))
	}
	return err
}

func (c *Orders) cancel(ctx context.Context, o gateway.Order) error {
	var (
		res *gateway.CancelResult
		err error
	)
	if o.PaperLive == gateway.Paper {
		res, err = c.api.CancelPaperOrder(ctx, o.ID)
	} else {
		res, err = c.api.CancelLiveOrder(ctx, *o.BrokerOrderID)
	}
	if err != nil {
		return err
	}
	if !res.OK {
		msg := res.Message
		if msg == "" {
			msg = "Cancel rejected"
		}
		return &gateway.APIError{Status: 200, Message: msg}
	}
	return nil
}

// Find returns the cached order with the given id.
func (c *Orders) Find(id int64) (gateway.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, o := range c.orders {
		if o.ID == id {
			return o, true
		}
	}
	return gateway.Order{}, false
}

// Filter returns the cached orders whose status contains status, ignoring case.
func (c *Orders) Filter(status string) []gateway.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status = strings.ToUpper(strings.TrimSpace(status))
	out := make([]gateway.Order, 0, len(c.orders))
	for _, o := range c.orders {
		if status == "" || strings.Contains(strings.ToUpper(o.Status), status) {
			out = append(out, o)
		}
	}
	return out
}

func (c *Orders) Snapshot() OrdersState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return OrdersState{
		Loading:    c.loading,
		Orders:     append([]gateway.Order(nil), c.orders...),
		Cancelling: c.cancelling,
		Error:      c.errMsg,
	}
}

func (c *Orders) setError(msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
}
