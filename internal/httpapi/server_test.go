package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"backsim/internal/backtest"
	"backsim/internal/config"
	"backsim/internal/domain"
	"backsim/internal/marketdata"
	"backsim/internal/util"
)

type fakeSource struct {
	bars []domain.Bar
	err  error
}

func (f *fakeSource) DailyBars(_ context.Context, _ string, _, _ time.Time) ([]domain.Bar, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func flatBars(symbol string, n int) []domain.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]domain.Bar, 0, n)
	for i := 0; i < n; i++ {
		bars = append(bars, domain.Bar{
			Symbol: symbol,
			Date:   start.AddDate(0, 0, i),
			Open:   100, High: 100, Low: 100, Close: 100,
			Volume: 1000,
		})
	}
	return bars
}

func newTestServer(src marketdata.Source) *Server {
	log := util.NewLogger("error", "text")
	return NewServer(src, backtest.NewRunner(log), config.Default().Backtest, log)
}

func postBacktest(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/backtest", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	h := newTestServer(&fakeSource{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/health status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Status = %q, want %q", resp.Status, "ok")
	}
}

func TestHandleBacktestFlatSeries(t *testing.T) {
	h := newTestServer(&fakeSource{bars: flatBars("AAPL", 80)}).Handler()

	rec := postBacktest(t, h, `{"symbol":"AAPL","start":"2024-01-02","end":"2024-03-22"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp BacktestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Bars != 80 {
		t.Errorf("Bars = %d, want 80", resp.Bars)
	}
	if len(resp.TradeLog) != 0 {
		t.Errorf("TradeLog has %d entries, want 0", len(resp.TradeLog))
	}
	if len(resp.EquityCurve) != 80 {
		t.Errorf("EquityCurve has %d points, want 80", len(resp.EquityCurve))
	}
	// A flat curve has no variance, so Sharpe must be the null sentinel.
	if resp.Metrics.SharpeRatio != nil {
		t.Errorf("SharpeRatio = %v, want null", *resp.Metrics.SharpeRatio)
	}
	if resp.Metrics.TotalReturn != 0 {
		t.Errorf("TotalReturn = %v, want 0", resp.Metrics.TotalReturn)
	}
}

func TestHandleBacktestValidation(t *testing.T) {
	h := newTestServer(&fakeSource{bars: flatBars("AAPL", 10)}).Handler()

	tests := []struct {
		name string
		body string
	}{
		{"missing symbol", `{"start":"2024-01-02","end":"2024-02-02"}`},
		{"bad start date", `{"symbol":"AAPL","start":"01/02/2024","end":"2024-02-02"}`},
		{"bad end date", `{"symbol":"AAPL","start":"2024-01-02","end":""}`},
		{"bad logic", `{"symbol":"AAPL","start":"2024-01-02","end":"2024-02-02","logic":"XOR"}`},
		{"malformed json", `{"symbol":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postBacktest(t, h, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d, body: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
		})
	}
}

func TestHandleBacktestDataUnavailable(t *testing.T) {
	h := newTestServer(&fakeSource{err: marketdata.ErrDataUnavailable}).Handler()

	rec := postBacktest(t, h, `{"symbol":"ZZZZ","start":"2024-01-02","end":"2024-02-02"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if !strings.Contains(rec.Body.String(), "ZZZZ") {
		t.Errorf("error body missing symbol: %s", rec.Body.String())
	}
}

func TestHandleBacktestRequestOverrides(t *testing.T) {
	h := newTestServer(&fakeSource{bars: flatBars("AAPL", 30)}).Handler()

	rec := postBacktest(t, h,
		`{"symbol":"AAPL","start":"2024-01-02","end":"2024-02-02","initial_cash":50000,"logic":"AND"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp BacktestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Metrics.FinalEquity != 50000 {
		t.Errorf("FinalEquity = %v, want 50000 (overridden initial cash, no trades)", resp.Metrics.FinalEquity)
	}
}

func TestHandleBacktestPartialParams(t *testing.T) {
	h := newTestServer(&fakeSource{bars: flatBars("AAPL", 30)}).Handler()

	// A partial params object overrides only the named fields; the rest
	// keep their configured defaults (position_size in particular stays
	// positive, so validation passes).
	rec := postBacktest(t, h,
		`{"symbol":"AAPL","start":"2024-01-02","end":"2024-02-02","params":{"k_bar_threshold":0.05}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// A fully explicit bad value is still rejected.
	rec = postBacktest(t, h,
		`{"symbol":"AAPL","start":"2024-01-02","end":"2024-02-02","params":{"position_size":-5}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(&fakeSource{}).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/backtest", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("OPTIONS status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "*")
	}
}
