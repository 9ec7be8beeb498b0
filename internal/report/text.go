package report

import (
	"fmt"
	"strings"

	"backsim/internal/backtest"
)

// RenderMetrics formats a run's performance metrics as a human-readable
// multi-line summary. Metrics that cannot be computed from the data render
// their sentinel text instead of a number.
func RenderMetrics(symbol string, res *backtest.Result) string {
	m := res.Metrics

	cagr := "N/A"
	if m.CAGRValid {
		cagr = fmt.Sprintf("%.2f%%", m.CAGR*100)
	}
	sharpe := "undefined"
	if m.SharpeValid {
		sharpe = fmt.Sprintf("%.2f", m.SharpeRatio)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Backtest results for %s\n", strings.ToUpper(symbol))
	fmt.Fprintf(&b, "  Final equity:  $%s\n", formatAmount(m.FinalEquity))
	fmt.Fprintf(&b, "  Total return:  %.2f%%\n", m.TotalReturn*100)
	fmt.Fprintf(&b, "  CAGR:          %s\n", cagr)
	fmt.Fprintf(&b, "  Max drawdown:  %.2f%%\n", m.MaxDrawdown*100)
	fmt.Fprintf(&b, "  Sharpe ratio:  %s\n", sharpe)
	fmt.Fprintf(&b, "  Trades:        %d\n", len(res.TradeLog))
	return b.String()
}

// RenderTradeLog formats the ordered trade/event log, one entry per line.
func RenderTradeLog(res *backtest.Result) string {
	if len(res.TradeLog) == 0 {
		return "No trades.\n"
	}
	var b strings.Builder
	for _, e := range res.TradeLog {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// formatAmount renders a dollar amount with thousands separators and two
// decimal places, e.g. 1234567.891 -> "1,234,567.89".
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(fracPart)
	return b.String()
}
