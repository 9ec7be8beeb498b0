package broker

import (
	"context"
	"time"

	"backsim/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*SimulatorBroker)(nil)

// SimulatorBroker implements Broker for backtesting. It tracks cash and a
// single position in memory, fills market orders at the mark price set by
// MarkToMarket, and deducts a flat proportional commission from every fill.
type SimulatorBroker struct {
	cash           float64
	position       domain.Position
	commissionRate float64

	markPrice float64
	markDate  time.Time
}

// NewSimulatorBroker creates a SimulatorBroker with the given starting cash
// and proportional commission rate (0.001 for 0.1%).
func NewSimulatorBroker(initialCash, commissionRate float64) *SimulatorBroker {
	return &SimulatorBroker{
		cash:           initialCash,
		commissionRate: commissionRate,
	}
}

// Name returns "simulator".
func (b *SimulatorBroker) Name() string { return "simulator" }

// MarkToMarket sets the price and date at which subsequent orders fill and
// at which equity is valued. The engine calls it once per bar, before any
// order is submitted for that bar.
func (b *SimulatorBroker) MarkToMarket(bar domain.Bar) {
	b.markPrice = bar.Close
	b.markDate = bar.Date
}

// SubmitOrder fills or rejects a market order at the current mark price.
// A buy is rejected when its notional plus commission exceeds available
// cash or a position is already open; a sell is rejected when no position
// exists. Rejections are returned as order status, never as an error.
func (b *SimulatorBroker) SubmitOrder(_ context.Context, order *domain.Order) (*domain.Order, error) {
	order.Status = domain.OrderStatusPending
	order.CreatedAt = b.markDate

	switch order.Side {
	case domain.OrderSideBuy:
		if b.position.Size > 0 {
			order.Status = domain.OrderStatusRejected
			return order, nil
		}
		notional := b.markPrice * float64(order.Size)
		commission := notional * b.commissionRate
		if order.Size <= 0 || notional+commission > b.cash {
			order.Status = domain.OrderStatusRejected
			return order, nil
		}
		b.cash -= notional + commission
		b.position = domain.Position{
			Size:       order.Size,
			EntryPrice: b.markPrice,
			EntryDate:  b.markDate,
		}
		order.Status = domain.OrderStatusFilled
		order.FillPrice = b.markPrice
		order.Commission = commission

	case domain.OrderSideSell:
		if b.position.Size == 0 || order.Size != b.position.Size {
			order.Status = domain.OrderStatusRejected
			return order, nil
		}
		notional := b.markPrice * float64(order.Size)
		commission := notional * b.commissionRate
		b.cash += notional - commission
		b.position = domain.Position{}
		order.Status = domain.OrderStatusFilled
		order.FillPrice = b.markPrice
		order.Commission = commission

	default:
		order.Status = domain.OrderStatusRejected
	}

	return order, nil
}

// Account returns the current cash, position, and mark-to-market equity.
func (b *SimulatorBroker) Account() Account {
	return Account{
		Cash:     b.cash,
		Position: b.position,
		Equity:   b.cash + float64(b.position.Size)*b.markPrice,
	}
}
