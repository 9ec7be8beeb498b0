// Package backtest replays a historical daily bar series through the
// indicator pipeline, signal evaluator, and execution engine, and produces
// the run's performance metrics, trade log, and equity curve.
package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"backsim/internal/analytics"
	"backsim/internal/broker"
	"backsim/internal/domain"
	"backsim/internal/engine"
	"backsim/internal/indicator"
	"backsim/internal/strategy"
)

// RunConfig holds the simulation inputs beyond the bar series itself.
type RunConfig struct {
	InitialCash float64
	Logic       strategy.Logic
	Params      strategy.Params
}

// Result is the full output of one backtest run.
type Result struct {
	FinalEquity   float64
	Metrics       analytics.Metrics
	TradeLog      []domain.TradeLogEntry
	EquityCurve   []analytics.EquityPoint
	FinalPosition domain.Position // zero-size when the run ends flat
}

// Runner executes backtest simulations. It holds no per-run state: every
// Run owns an independent pipeline, broker, and engine, so identical inputs
// produce identical results.
type Runner struct {
	log *slog.Logger
}

// NewRunner creates a Runner logging through the given logger.
func NewRunner(log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{log: log.With("component", "backtest")}
}

// Run validates the inputs and replays the bar series chronologically. It
// fails atomically before the loop on invalid parameters or a corrupt bar
// series; once the loop starts, the run always completes.
func (r *Runner) Run(ctx context.Context, bars []domain.Bar, cfg RunConfig) (*Result, error) {
	if cfg.InitialCash <= 0 {
		return nil, fmt.Errorf("%w: initial cash %v must be positive", strategy.ErrInvalidParams, cfg.InitialCash)
	}
	logic, err := strategy.ParseLogic(string(cfg.Logic))
	if err != nil {
		return nil, err
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("validating bar series: %w", err)
	}

	sim := broker.NewSimulatorBroker(cfg.InitialCash, cfg.Params.CommissionRate)
	eval := strategy.NewEvaluator(cfg.Params, logic)
	eng := engine.New(sim, eval, cfg.Params, r.log)
	pipeline := indicator.NewPipeline()

	curve := make([]analytics.EquityPoint, 0, len(bars))
	for i := range bars {
		snap := pipeline.Observe(bars[i])
		eng.Step(ctx, bars[i], snap)
		curve = append(curve, analytics.EquityPoint{
			Date:   bars[i].Date,
			Equity: sim.Account().Equity,
		})
	}

	acct := sim.Account()
	metrics := analytics.Compute(cfg.InitialCash, curve)

	r.log.Info("run complete",
		"bars", len(bars),
		"trades", len(eng.TradeLog()),
		"finalEquity", metrics.FinalEquity,
	)

	return &Result{
		FinalEquity:   metrics.FinalEquity,
		Metrics:       metrics,
		TradeLog:      eng.TradeLog(),
		EquityCurve:   curve,
		FinalPosition: acct.Position,
	}, nil
}
