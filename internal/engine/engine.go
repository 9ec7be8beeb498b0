// Package engine drives the bar-by-bar execution state machine: it consults
// the signal evaluator each bar, submits at most one order at a time to the
// broker, and records the human-readable trade/event log.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"backsim/internal/broker"
	"backsim/internal/domain"
	"backsim/internal/indicator"
	"backsim/internal/strategy"
)

// State is the execution engine's position in its order/position lifecycle.
type State string

const (
	StateFlat         State = "FLAT"
	StatePendingEntry State = "PENDING_ENTRY"
	StateInPosition   State = "IN_POSITION"
	StatePendingExit  State = "PENDING_EXIT"
)

// Engine is the per-run execution state machine. It owns at most one
// outstanding order and never evaluates entry or exit signals while an order
// is pending. Each run gets a fresh Engine; no state crosses runs.
type Engine struct {
	broker broker.Broker
	eval   *strategy.Evaluator
	params strategy.Params

	state    State
	tradeLog []domain.TradeLogEntry
	log      *slog.Logger
}

// New creates an Engine in the FLAT state wired to the given broker and
// evaluator.
func New(b broker.Broker, eval *strategy.Evaluator, params strategy.Params, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		broker: b,
		eval:   eval,
		params: params,
		state:  StateFlat,
		log:    log.With("component", "engine"),
	}
}

// State returns the current state machine state.
func (e *Engine) State() State { return e.state }

// TradeLog returns the append-only trade/event log accumulated so far.
func (e *Engine) TradeLog() []domain.TradeLogEntry { return e.tradeLog }

// Step processes one bar: it marks the broker to the bar's close, then
// evaluates the entry signal (from FLAT) or the exit signal (from
// IN_POSITION) and submits at most one order. Orders resolve within the
// same step, per the same-bar fill model: fills apply at the current bar's
// close rather than the next bar's open. No unexpected data condition
// aborts the step; signals degrade to false instead.
func (e *Engine) Step(ctx context.Context, bar domain.Bar, snap indicator.Snapshot) {
	e.broker.MarkToMarket(bar)

	switch e.state {
	case StatePendingEntry, StatePendingExit:
		// An order is outstanding; no new signal may be evaluated. The
		// simulator resolves orders synchronously so this state is never
		// observed across bars, but the guard holds for any Broker.
		return

	case StateFlat:
		if !e.eval.Entry(bar, snap) {
			return
		}
		e.logEvent(bar, domain.OrderSideBuy, 0, 0, "buy signal")
		e.state = StatePendingEntry
		order := &domain.Order{Side: domain.OrderSideBuy, Size: e.params.PositionSize}
		e.resolve(ctx, bar, order, StateInPosition, StateFlat)

	case StateInPosition:
		if !e.eval.Exit(bar, snap) {
			return
		}
		acct := e.broker.Account()
		e.logEvent(bar, domain.OrderSideSell, 0, 0, "exit signal (close below MA20)")
		e.state = StatePendingExit
		order := &domain.Order{Side: domain.OrderSideSell, Size: acct.Position.Size}
		e.resolve(ctx, bar, order, StateFlat, StateInPosition)
	}
}

// resolve submits the order and applies the resulting state transition:
// onFill when the order fills, onFail when it is rejected or cancelled.
func (e *Engine) resolve(ctx context.Context, bar domain.Bar, order *domain.Order, onFill, onFail State) {
	resolved, err := e.broker.SubmitOrder(ctx, order)
	if err != nil || resolved.Status != domain.OrderStatusFilled {
		e.state = onFail
		e.logEvent(bar, order.Side, 0, 0, "order failed/cancelled/rejected")
		e.log.Warn("order rejected",
			"side", order.Side,
			"size", order.Size,
			"date", bar.Date.Format("2006-01-02"),
			"err", err,
		)
		return
	}

	e.state = onFill
	action := "buy"
	if resolved.Side == domain.OrderSideSell {
		action = "sell"
	}
	e.logEvent(bar, resolved.Side, resolved.FillPrice, resolved.Commission,
		fmt.Sprintf("%s executed, price: %.2f, commission: %.2f",
			action, resolved.FillPrice, resolved.Commission))
}

func (e *Engine) logEvent(bar domain.Bar, side domain.OrderSide, price, commission float64, msg string) {
	e.tradeLog = append(e.tradeLog, domain.TradeLogEntry{
		Date:       bar.Date,
		Action:     side,
		Price:      price,
		Commission: commission,
		Message:    msg,
	})
}
