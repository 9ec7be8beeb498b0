package indicator

// Cross direction values emitted by the MACD crossover detector.
const (
	CrossNone    = 0
	CrossBullish = 1  // MACD line moved from <= signal to > signal
	CrossBearish = -1 // MACD line moved from >= signal to < signal
)

// MACD tracks the moving-average-convergence-divergence of a price series:
// the difference between a fast and a slow EMA, a signal line that is an EMA
// of that difference, and the bar-exact crossover between the two.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA

	n        int
	prevDiff float64
	havePrev bool
	cross    int
}

// NewMACD creates a MACD with the given fast, slow, and signal periods.
// NewMACD(12, 26, 9) is the conventional parameterization.
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

// Observe folds the next close price into both EMAs, advances the signal
// line, and updates the crossover state for the current bar.
func (m *MACD) Observe(v float64) {
	m.fast.Observe(v)
	m.slow.Observe(v)

	fast, _ := m.fast.Value()
	slow, _ := m.slow.Value()
	line := fast - slow
	m.signal.Observe(line)
	sig, _ := m.signal.Value()

	diff := line - sig
	m.cross = CrossNone
	if m.havePrev {
		switch {
		case m.prevDiff <= 0 && diff > 0:
			m.cross = CrossBullish
		case m.prevDiff >= 0 && diff < 0:
			m.cross = CrossBearish
		}
	}
	// The seed bar has fast == slow == signal, so its zero diff carries no
	// information; arming the detector there would report a spurious cross
	// on every monotonic series.
	m.n++
	if m.n >= 2 {
		m.prevDiff = diff
		m.havePrev = true
	}
}

// Line returns the current MACD line (fast EMA - slow EMA). The second
// return is false before the first observation.
func (m *MACD) Line() (float64, bool) {
	fast, ok := m.fast.Value()
	if !ok {
		return 0, false
	}
	slow, _ := m.slow.Value()
	return fast - slow, true
}

// Signal returns the current signal line value. The second return is false
// before the first observation.
func (m *MACD) Signal() (float64, bool) {
	return m.signal.Value()
}

// Cross returns the crossover emitted on the current bar: CrossBullish on
// the exact bar the MACD line rises through the signal line, CrossBearish on
// the symmetric downward transition, CrossNone otherwise. It never reports a
// cross on consecutive bars where the lines merely stay apart.
func (m *MACD) Cross() int {
	return m.cross
}
