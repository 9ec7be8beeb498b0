package report

import (
	"strings"
	"testing"
	"time"

	"backsim/internal/analytics"
	"backsim/internal/backtest"
	"backsim/internal/domain"
)

func sampleResult() *backtest.Result {
	d0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return &backtest.Result{
		FinalEquity: 104_987.50,
		Metrics: analytics.Metrics{
			FinalEquity: 104_987.50,
			TotalReturn: 0.0499,
			CAGR:        0.0612,
			CAGRValid:   true,
			MaxDrawdown: -0.025,
			SharpeRatio: 1.31,
			SharpeValid: true,
		},
		TradeLog: []domain.TradeLogEntry{
			{Date: d0, Action: domain.OrderSideBuy, Price: 100, Commission: 10, Message: "buy executed, price: 100.00, commission: 10.00"},
			{Date: d0.AddDate(0, 0, 5), Action: domain.OrderSideSell, Price: 105, Commission: 10.5, Message: "sell executed, price: 105.00, commission: 10.50"},
		},
		EquityCurve: []analytics.EquityPoint{
			{Date: d0, Equity: 100_000},
			{Date: d0.AddDate(0, 0, 1), Equity: 100_500},
			{Date: d0.AddDate(0, 0, 5), Equity: 104_987.50},
		},
	}
}

func TestParquetRoundTrip(t *testing.T) {
	w := NewParquetWriter(t.TempDir())
	res := sampleResult()

	if err := w.WriteResult("aapl", res); err != nil {
		t.Fatalf("WriteResult() returned error: %v", err)
	}

	equity, err := w.ReadEquityCurve("AAPL")
	if err != nil {
		t.Fatalf("ReadEquityCurve() returned error: %v", err)
	}
	if len(equity) != len(res.EquityCurve) {
		t.Fatalf("read %d equity records, want %d", len(equity), len(res.EquityCurve))
	}
	for i, r := range equity {
		if r.Symbol != "AAPL" {
			t.Errorf("equity[%d].Symbol = %q, want %q", i, r.Symbol, "AAPL")
		}
		if r.Equity != res.EquityCurve[i].Equity {
			t.Errorf("equity[%d].Equity = %v, want %v", i, r.Equity, res.EquityCurve[i].Equity)
		}
		if !r.Date().Equal(res.EquityCurve[i].Date) {
			t.Errorf("equity[%d].Date() = %v, want %v", i, r.Date(), res.EquityCurve[i].Date)
		}
	}

	trades, err := w.ReadTrades("AAPL")
	if err != nil {
		t.Fatalf("ReadTrades() returned error: %v", err)
	}
	if len(trades) != len(res.TradeLog) {
		t.Fatalf("read %d trade records, want %d", len(trades), len(res.TradeLog))
	}
	if trades[0].Action != "buy" || trades[1].Action != "sell" {
		t.Errorf("trade actions = %q, %q, want buy, sell", trades[0].Action, trades[1].Action)
	}
	if trades[1].Price != 105 {
		t.Errorf("trades[1].Price = %v, want 105", trades[1].Price)
	}
}

func TestParquetWriteEmptyRun(t *testing.T) {
	w := NewParquetWriter(t.TempDir())
	res := &backtest.Result{
		EquityCurve: []analytics.EquityPoint{{Date: time.Now(), Equity: 100_000}},
	}

	if err := w.WriteResult("msft", res); err != nil {
		t.Fatalf("WriteResult() with no trades returned error: %v", err)
	}
	trades, err := w.ReadTrades("msft")
	if err != nil {
		t.Fatalf("ReadTrades() returned error: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("read %d trade records, want 0", len(trades))
	}
}

func TestRenderMetrics(t *testing.T) {
	out := RenderMetrics("aapl", sampleResult())

	for _, want := range []string{
		"Backtest results for AAPL",
		"$104,987.50",
		"4.99%",
		"6.12%",
		"-2.50%",
		"1.31",
		"Trades:        2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderMetrics output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderMetricsSentinels(t *testing.T) {
	res := sampleResult()
	res.Metrics.CAGRValid = false
	res.Metrics.SharpeValid = false

	out := RenderMetrics("aapl", res)
	if !strings.Contains(out, "CAGR:          N/A") {
		t.Errorf("RenderMetrics output missing CAGR sentinel:\n%s", out)
	}
	if !strings.Contains(out, "Sharpe ratio:  undefined") {
		t.Errorf("RenderMetrics output missing Sharpe sentinel:\n%s", out)
	}
}

func TestRenderTradeLog(t *testing.T) {
	out := RenderTradeLog(sampleResult())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("RenderTradeLog produced %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "2024-01-02, buy executed") {
		t.Errorf("lines[0] = %q", lines[0])
	}

	if got := RenderTradeLog(&backtest.Result{}); got != "No trades.\n" {
		t.Errorf("RenderTradeLog(empty) = %q, want %q", got, "No trades.\n")
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{999.9, "999.90"},
		{1000, "1,000.00"},
		{104987.5, "104,987.50"},
		{1234567.891, "1,234,567.89"},
		{-2500.25, "-2,500.25"},
	}
	for _, tt := range tests {
		if got := formatAmount(tt.in); got != tt.want {
			t.Errorf("formatAmount(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
