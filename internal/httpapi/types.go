package httpapi

import (
	"backsim/internal/analytics"
	"backsim/internal/strategy"
)

// BacktestRequest is the JSON body of POST /api/backtest. Omitted fields
// fall back to the server's configured defaults.
type BacktestRequest struct {
	Symbol      string           `json:"symbol"`
	Start       string           `json:"start"` // YYYY-MM-DD
	End         string           `json:"end"`   // YYYY-MM-DD
	Logic       string           `json:"logic,omitempty"`
	InitialCash float64          `json:"initial_cash,omitempty"`
	Params      *strategy.Params `json:"params,omitempty"`
}

// MetricsJSON carries the run's performance metrics. CAGR and Sharpe are
// null when the data cannot support them.
type MetricsJSON struct {
	FinalEquity float64  `json:"final_equity"`
	TotalReturn float64  `json:"total_return"`
	CAGR        *float64 `json:"cagr"`
	MaxDrawdown float64  `json:"max_drawdown"`
	SharpeRatio *float64 `json:"sharpe_ratio"`
}

// TradeLogEntryJSON is one line of the ordered trade/event log.
type TradeLogEntryJSON struct {
	Date       string  `json:"date"` // YYYY-MM-DD
	Action     string  `json:"action"`
	Price      float64 `json:"price"`
	Commission float64 `json:"commission"`
	Message    string  `json:"message"`
}

// BacktestResponse is the JSON body returned by POST /api/backtest.
type BacktestResponse struct {
	Symbol      string                  `json:"symbol"`
	Start       string                  `json:"start"`
	End         string                  `json:"end"`
	Bars        int                     `json:"bars"`
	Metrics     MetricsJSON             `json:"metrics"`
	TradeLog    []TradeLogEntryJSON     `json:"trade_log"`
	EquityCurve []analytics.EquityPoint `json:"equity_curve"`
}

// HealthResponse is the JSON body of GET /api/health.
type HealthResponse struct {
	Status string `json:"status"`
}
