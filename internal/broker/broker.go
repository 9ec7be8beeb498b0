// Package broker simulates order execution and account keeping for
// backtests. Market orders fill immediately at the current mark price; the
// same-bar fill is a documented simplification of this engine's design.
package broker

import (
	"context"

	"backsim/internal/domain"
)

// Account is a point-in-time snapshot of the simulated account.
type Account struct {
	Cash     float64
	Position domain.Position // Size == 0 while flat
	Equity   float64         // cash + position size * mark price
}

// Broker abstracts order execution and account state for the execution
// engine.
type Broker interface {
	// Name returns the broker identifier (e.g. "simulator").
	Name() string

	// MarkToMarket sets the bar whose close prices fills and equity
	// valuation until the next call. Called once per bar, before any order
	// for that bar.
	MarkToMarket(bar domain.Bar)

	// SubmitOrder executes a market order against the current mark price.
	// The returned order carries the resolved status; a rejection is
	// reported through the status, not through the error.
	SubmitOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)

	// Account returns a snapshot of cash, position, and mark-to-market
	// equity.
	Account() Account
}
