package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camuig/trader-console/internal/console"
	"github.com/camuig/trader-console/internal/gateway"
	"github.com/camuig/trader-console/internal/logger"
)

type Canceller interface {
	Cancel(ctx context.Context, o gateway.Order) error
}

type Notifier interface {
	NotifyError(context string, err error)
	NotifyStatus(message string)
}

type Status string

const (
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusPlanned   Status = "planned"
)

type Outcome struct {
	Order  gateway.Order `json:"order"`
	Key    string        `json:"key"`
	Status Status        `json:"status"`
	Reason string        `json:"reason,omitempty"`
}

type Report struct {
	Outcomes  []Outcome `json:"outcomes"`
	Cancelled int       `json:"cancelled"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	DryRun    bool      `json:"dry_run"`
}

// Executor cancels a batch of orders one by one. A failure or panic on one
// order never stops the rest of the batch.
type Executor struct {
	orders   Canceller
	notifier Notifier
	logger   *logger.Logger
}

func NewExecutor(orders Canceller, notifier Notifier, log *logger.Logger) *Executor {
	return &Executor{orders: orders, notifier: notifier, logger: log}
}

func (e *Executor) CancelAll(ctx context.Context, orders []gateway.Order, dryRun bool) *Report {
	report := &Report{DryRun: dryRun}

	for _, o := range orders {
		out := Outcome{Order: o, Key: console.CancelKey(o)}

		switch {
		case !console.CancellationEligible(o):
			out.Status, out.Reason = StatusSkipped, "status "+o.Status
		case out.Key == "":
			out.Status, out.Reason = StatusSkipped, "no broker order id yet"
		case dryRun:
			out.Status = StatusPlanned
		default:
			e.cancelOne(ctx, &out)
		}

		switch out.Status {
		case StatusCancelled:
			report.Cancelled++
		case StatusFailed:
			report.Failed++
		case StatusSkipped:
			report.Skipped++
		}
		report.Outcomes = append(report.Outcomes, out)
	}

	if !dryRun && report.Cancelled+report.Failed > 0 {
		e.notifier.NotifyStatus(fmt.Sprintf("🧹 *Bulk cancel*: %d cancelled, %d failed, %d skipped",
			report.Cancelled, report.Failed, report.Skipped))
	}
	return report
}

func (e *Executor) cancelOne(ctx context.Context, out *Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic in executor", "order", out.Key, "panic", fmt.Sprint(r))
			out.Status, out.Reason = StatusFailed, fmt.Sprintf("panic: %v", r)
		}
	}()

	err := e.orders.Cancel(ctx, out.Order)
	if err != nil {
		out.Status, out.Reason = StatusFailed, console.Message(err, "Cancel failed")
		e.logger.Error("cancel order failed", "order", out.Key, "symbol", out.Order.Symbol, "error", err)
		if !errors.Is(err, console.ErrBusy) {
			e.notifier.NotifyError("cancel "+out.Order.Symbol, err)
		}
		return
	}

	out.Status = StatusCancelled
	e.logger.Info("order cancelled", "order", out.Key, "symbol", out.Order.Symbol)
}

func (r *Report) JSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(data)
}
