// Package analytics computes post-run performance statistics from a
// backtest's bar-by-bar equity trajectory: total return, CAGR, maximum
// drawdown, and Sharpe ratio.
package analytics

import (
	"math"
	"time"
)

// EquityPoint is one bar's mark-to-market account value.
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// Metrics is the summary of one backtest run. CAGR and Sharpe carry a Valid
// flag instead of producing NaN: a window too short or degenerate to
// annualize reports CAGRValid=false ("not applicable"), and a trajectory
// with near-zero return variance reports SharpeValid=false ("undefined").
type Metrics struct {
	FinalEquity float64
	TotalReturn float64 // fraction of initial cash, e.g. 0.25 for +25%
	CAGR        float64 // annualized growth rate, fraction
	CAGRValid   bool
	MaxDrawdown float64 // worst peak-to-trough decline, fraction in [-1, 0]
	SharpeRatio float64 // daily returns annualized by sqrt(252)
	SharpeValid bool
}

// Trading-day annualization factor for daily bars.
const tradingDaysPerYear = 252

// Near-zero variance below which the Sharpe ratio is reported undefined
// instead of dividing by (almost) zero.
const minReturnStddev = 1e-12

// Compute derives all metrics from the equity trajectory in a single pass
// over the curve. The curve holds one point per processed bar, in order.
func Compute(initialCash float64, curve []EquityPoint) Metrics {
	m := Metrics{FinalEquity: initialCash}
	if len(curve) == 0 || initialCash <= 0 {
		return m
	}

	final := curve[len(curve)-1].Equity
	m.FinalEquity = final
	m.TotalReturn = (final - initialCash) / initialCash
	m.CAGR, m.CAGRValid = cagr(initialCash, final, curve[0].Date, curve[len(curve)-1].Date)
	m.MaxDrawdown = maxDrawdown(curve)
	m.SharpeRatio, m.SharpeValid = sharpe(curve)
	return m
}

// cagr annualizes total growth over the elapsed calendar window. Partial
// years are annualized by the elapsed fraction (elapsed days / 365.25); a
// window of less than one day, or non-positive equity, cannot be annualized
// and is reported not applicable.
func cagr(initial, final float64, start, end time.Time) (float64, bool) {
	days := end.Sub(start).Hours() / 24
	if days < 1 || initial <= 0 || final <= 0 {
		return 0, false
	}
	years := days / 365.25
	return math.Pow(final/initial, 1/years) - 1, true
}

// maxDrawdown returns the deepest peak-to-trough decline as a fraction of
// the peak. The result is always in [-1, 0]: 0 for a never-declining curve.
func maxDrawdown(curve []EquityPoint) float64 {
	peak := curve[0].Equity
	worst := 0.0
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (p.Equity - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}
	if worst < -1 {
		worst = -1
	}
	return worst
}

// sharpe computes mean daily return over its sample standard deviation,
// scaled by sqrt(252), with a zero risk-free rate. Fewer than three points
// or near-zero variance make the ratio undefined.
func sharpe(curve []EquityPoint) (float64, bool) {
	if len(curve) < 3 {
		return 0, false
	}

	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			return 0, false
		}
		returns = append(returns, curve[i].Equity/prev-1)
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	std := math.Sqrt(variance)
	if std < minReturnStddev {
		return 0, false
	}
	return mean / std * math.Sqrt(tradingDaysPerYear), true
}
