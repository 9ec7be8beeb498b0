package strategy

import (
	"backsim/internal/domain"
	"backsim/internal/indicator"
)

// Minimum history required before each rule set can fire.
const (
	minBarsConsolidation = 60
	minBarsBreakout      = 20
)

// Evaluator applies the two entry rule sets and the fixed exit rule to one
// (bar, indicator snapshot) pair at a time. It is a pure function of its
// inputs; all state lives in the indicator pipeline.
type Evaluator struct {
	params Params
	logic  Logic
}

// NewEvaluator creates an Evaluator with the given parameters and rule set
// combinator.
func NewEvaluator(params Params, logic Logic) *Evaluator {
	return &Evaluator{params: params, logic: logic}
}

// strongConsolidation is rule set 1: after at least 60 bars of history,
// bullish MA stacking (MA60 < MA20 < close), MA5/MA20 tie-up within the
// tolerance, and a volume surge above threshold A.
func (e *Evaluator) strongConsolidation(bar domain.Bar, snap indicator.Snapshot) bool {
	if snap.BarCount < minBarsConsolidation {
		return false
	}
	if !snap.MA5.OK || !snap.MA20.OK || !snap.MA60.OK {
		return false
	}

	stacked := snap.MA60.V < snap.MA20.V && snap.MA20.V < bar.Close

	maxMA, minMA := snap.MA5.V, snap.MA20.V
	if maxMA < minMA {
		maxMA, minMA = minMA, maxMA
	}
	if minMA <= 0 {
		return false
	}
	tiedUp := maxMA/minMA < 1+e.params.ConsolidationTolerance

	surge := bar.Volume > e.params.VolumeThresholdA

	return stacked && tiedUp && surge
}

// longBullishBreakout is rule set 2: after at least 20 bars of history,
// bullish MA stacking (MA20 < MA10 < close), a volume surge above threshold
// B, a long bullish candle, and a MACD golden cross on the current bar.
func (e *Evaluator) longBullishBreakout(bar domain.Bar, snap indicator.Snapshot) bool {
	if snap.BarCount < minBarsBreakout {
		return false
	}
	if !snap.MA10.OK || !snap.MA20.OK {
		return false
	}

	stacked := snap.MA20.V < snap.MA10.V && snap.MA10.V < bar.Close

	surge := bar.Volume > e.params.VolumeThresholdB

	longCandle := bar.Close > bar.Open && bar.Open > 0 &&
		(bar.Close-bar.Open)/bar.Open > e.params.KBarThreshold

	goldenCross := snap.Cross == indicator.CrossBullish

	return stacked && surge && longCandle && goldenCross
}

// Entry evaluates the combined buy signal for the current bar.
func (e *Evaluator) Entry(bar domain.Bar, snap indicator.Snapshot) bool {
	s1 := e.strongConsolidation(bar, snap)
	s2 := e.longBullishBreakout(bar, snap)
	if e.logic == LogicAND {
		return s1 && s2
	}
	return s1 || s2
}

// Exit evaluates the fixed exit rule: close below MA20. It is only
// meaningful while a position is open; an undefined MA20 never exits.
func (e *Evaluator) Exit(bar domain.Bar, snap indicator.Snapshot) bool {
	return snap.MA20.OK && bar.Close < snap.MA20.V
}
