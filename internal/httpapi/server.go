// Package httpapi exposes backtest runs over HTTP as a small JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"backsim/internal/backtest"
	"backsim/internal/config"
	"backsim/internal/domain"
	"backsim/internal/marketdata"
	"backsim/internal/strategy"
)

// Server serves the backtest HTTP API. Each request runs an independent
// simulation; the server itself holds no mutable state.
type Server struct {
	source   marketdata.Source
	runner   *backtest.Runner
	defaults config.BacktestConfig
	log      *slog.Logger
}

// NewServer creates a Server that fetches bars from the given source and
// fills omitted request fields from the configured defaults.
func NewServer(source marketdata.Source, runner *backtest.Runner, defaults config.BacktestConfig, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		source:   source,
		runner:   runner,
		defaults: defaults,
		log:      log.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)
	mux.HandleFunc("GET /api/health", s.handleHealth)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, HealthResponse{Status: "ok"})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	// Decoding params over a copy of the defaults gives field-level
	// fallback: a partial params object overrides only the fields it names.
	defaultParams := s.defaults.Strategy
	req := BacktestRequest{Params: &defaultParams}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}
	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid start date %q", req.Start))
		return
	}
	end, err := time.Parse("2006-01-02", req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid end date %q", req.End))
		return
	}

	cfg, err := s.runConfig(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bars, err := s.source.DailyBars(r.Context(), req.Symbol, start, end)
	if err != nil {
		s.writeRunError(w, req.Symbol, err)
		return
	}

	res, err := s.runner.Run(r.Context(), bars, cfg)
	if err != nil {
		s.writeRunError(w, req.Symbol, err)
		return
	}

	writeJSON(w, buildResponse(req, len(bars), res))
}

// runConfig resolves a request's run parameters against the server defaults.
func (s *Server) runConfig(req BacktestRequest) (backtest.RunConfig, error) {
	logicStr := req.Logic
	if logicStr == "" {
		logicStr = s.defaults.Logic
	}
	logic, err := strategy.ParseLogic(logicStr)
	if err != nil {
		return backtest.RunConfig{}, err
	}

	cash := req.InitialCash
	if cash == 0 {
		cash = s.defaults.InitialCash
	}

	params := s.defaults.Strategy
	if req.Params != nil {
		params = *req.Params
	}

	return backtest.RunConfig{
		InitialCash: cash,
		Logic:       logic,
		Params:      params,
	}, nil
}

// writeRunError maps domain errors to HTTP status codes.
func (s *Server) writeRunError(w http.ResponseWriter, symbol string, err error) {
	switch {
	case errors.Is(err, marketdata.ErrInvalidRequest),
		errors.Is(err, strategy.ErrInvalidParams),
		errors.Is(err, domain.ErrEmptySeries),
		errors.Is(err, domain.ErrUnorderedSeries):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, marketdata.ErrDataUnavailable):
		writeError(w, http.StatusNotFound, fmt.Sprintf("no bar data for %s", symbol))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "request cancelled")
	default:
		s.log.Error("backtest failed", "symbol", symbol, "error", err)
		writeError(w, http.StatusInternalServerError, "backtest failed")
	}
}

func buildResponse(req BacktestRequest, bars int, res *backtest.Result) BacktestResponse {
	m := MetricsJSON{
		FinalEquity: res.Metrics.FinalEquity,
		TotalReturn: res.Metrics.TotalReturn,
		MaxDrawdown: res.Metrics.MaxDrawdown,
	}
	if res.Metrics.CAGRValid {
		v := res.Metrics.CAGR
		m.CAGR = &v
	}
	if res.Metrics.SharpeValid {
		v := res.Metrics.SharpeRatio
		m.SharpeRatio = &v
	}

	trades := make([]TradeLogEntryJSON, 0, len(res.TradeLog))
	for _, e := range res.TradeLog {
		trades = append(trades, TradeLogEntryJSON{
			Date:       e.Date.Format("2006-01-02"),
			Action:     string(e.Action),
			Price:      e.Price,
			Commission: e.Commission,
			Message:    e.Message,
		})
	}

	return BacktestResponse{
		Symbol:      req.Symbol,
		Start:       req.Start,
		End:         req.End,
		Bars:        bars,
		Metrics:     m,
		TradeLog:    trades,
		EquityCurve: res.EquityCurve,
	}
}
