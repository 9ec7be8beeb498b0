// Package domain defines the core types shared across the backsim engine:
// daily OHLCV bars, orders, positions, and trade log entries.
package domain

import (
	"errors"
	"fmt"
	"time"
)

// Bar is one trading day's aggregated OHLCV record. Bars are immutable once
// produced and ordered strictly by date; calendar gaps from the data source
// are preserved, not filled.
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// OrderSide identifies the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatus tracks the lifecycle of a simulated order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a market order for a fixed number of shares. The engine holds at
// most one outstanding order at any time.
type Order struct {
	Side       OrderSide
	Size       int64
	Status     OrderStatus
	FillPrice  float64
	Commission float64
	CreatedAt  time.Time
}

// Position is an open holding. It exists only while Size > 0; partial
// positions are not modeled.
type Position struct {
	Size       int64
	EntryPrice float64
	EntryDate  time.Time
}

// TradeLogEntry is one human-readable line of the append-only trade/event
// log produced by fills and rejections.
type TradeLogEntry struct {
	Date       time.Time
	Action     OrderSide
	Price      float64
	Commission float64
	Message    string
}

// String renders the entry in the "date, message" log format.
func (e TradeLogEntry) String() string {
	return fmt.Sprintf("%s, %s", e.Date.Format("2006-01-02"), e.Message)
}

// Bar series integrity violations. ValidateBars wraps these with the
// offending index so callers can report a precise diagnostic.
var (
	ErrEmptySeries     = errors.New("bar series is empty")
	ErrUnorderedSeries = errors.New("bar dates are not strictly increasing")
	ErrNegativePrice   = errors.New("bar has negative price")
	ErrNegativeVolume  = errors.New("bar has negative volume")
	ErrInvertedHighLow = errors.New("bar high is below low")
)

// ValidateBars checks the data-level invariants a simulation run depends on:
// a non-empty series, strictly increasing dates, non-negative prices and
// volume, and high >= low. Any violation fails the whole run atomically.
func ValidateBars(bars []Bar) error {
	if len(bars) == 0 {
		return ErrEmptySeries
	}
	for i := range bars {
		b := &bars[i]
		if i > 0 && !bars[i-1].Date.Before(b.Date) {
			return fmt.Errorf("bar %d (%s): %w", i, b.Date.Format("2006-01-02"), ErrUnorderedSeries)
		}
		if b.Open < 0 || b.High < 0 || b.Low < 0 || b.Close < 0 {
			return fmt.Errorf("bar %d (%s): %w", i, b.Date.Format("2006-01-02"), ErrNegativePrice)
		}
		if b.Volume < 0 {
			return fmt.Errorf("bar %d (%s): %w", i, b.Date.Format("2006-01-02"), ErrNegativeVolume)
		}
		if b.High < b.Low {
			return fmt.Errorf("bar %d (%s): %w", i, b.Date.Format("2006-01-02"), ErrInvertedHighLow)
		}
	}
	return nil
}
