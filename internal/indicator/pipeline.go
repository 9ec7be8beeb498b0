package indicator

import "backsim/internal/domain"

// Default pipeline parameters, matching the rule set lookbacks.
const (
	PeriodMA5  = 5
	PeriodMA10 = 10
	PeriodMA20 = 20
	PeriodMA60 = 60

	PeriodMACDFast   = 12
	PeriodMACDSlow   = 26
	PeriodMACDSignal = 9
)

// Value is one indicator scalar. OK is false while the indicator has not
// seen enough bars, in which case V is meaningless and any rule depending on
// it must evaluate to false rather than erroring.
type Value struct {
	V  float64
	OK bool
}

// Snapshot is the per-bar indicator view consumed by the signal evaluator.
// It is a plain value: keeping a Snapshot does not alias pipeline state.
type Snapshot struct {
	BarCount int // bars observed so far, including the current one

	MA5  Value
	MA10 Value
	MA20 Value
	MA60 Value

	MACDLine   Value
	MACDSignal Value
	Cross      int // CrossBullish, CrossBearish, or CrossNone for this bar
}

// Pipeline owns the full indicator set for one instrument and one run. It is
// advanced strictly bar-by-bar; no indicator ever reads ahead of the bar
// most recently observed.
type Pipeline struct {
	ma5   *SMA
	ma10  *SMA
	ma20  *SMA
	ma60  *SMA
	macd  *MACD
	count int
}

// NewPipeline creates a pipeline with the default MA windows and MACD
// parameterization.
func NewPipeline() *Pipeline {
	return &Pipeline{
		ma5:  NewSMA(PeriodMA5),
		ma10: NewSMA(PeriodMA10),
		ma20: NewSMA(PeriodMA20),
		ma60: NewSMA(PeriodMA60),
		macd: NewMACD(PeriodMACDFast, PeriodMACDSlow, PeriodMACDSignal),
	}
}

// Observe advances every indicator by one bar and returns the resulting
// snapshot for that bar.
func (p *Pipeline) Observe(bar domain.Bar) Snapshot {
	p.count++
	p.ma5.Observe(bar.Close)
	p.ma10.Observe(bar.Close)
	p.ma20.Observe(bar.Close)
	p.ma60.Observe(bar.Close)
	p.macd.Observe(bar.Close)

	snap := Snapshot{
		BarCount: p.count,
		Cross:    p.macd.Cross(),
	}
	snap.MA5.V, snap.MA5.OK = p.ma5.Value()
	snap.MA10.V, snap.MA10.OK = p.ma10.Value()
	snap.MA20.V, snap.MA20.OK = p.ma20.Value()
	snap.MA60.V, snap.MA60.OK = p.ma60.Value()
	snap.MACDLine.V, snap.MACDLine.OK = p.macd.Line()
	snap.MACDSignal.V, snap.MACDSignal.OK = p.macd.Signal()
	return snap
}
