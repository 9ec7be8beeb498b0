// Package indicator provides incremental rolling computations over a daily
// bar series: simple moving averages, exponential moving averages, MACD, and
// a crossover detector. Each indicator consumes one value per bar and only
// ever sees bars up to and including the current index.
package indicator

// SMA is a simple moving average over a fixed trailing window, maintained
// with a ring buffer and a rolling sum so each observation is O(1).
type SMA struct {
	period int
	buf    []float64
	start  int
	length int
	sum    float64
}

// NewSMA creates a simple moving average with the given window. Periods
// below 1 are clamped to 1.
func NewSMA(period int) *SMA {
	if period < 1 {
		period = 1
	}
	return &SMA{
		period: period,
		buf:    make([]float64, period),
	}
}

// Observe pushes the next value into the window, evicting the oldest value
// once the window is full.
func (s *SMA) Observe(v float64) {
	if s.length < s.period {
		s.buf[(s.start+s.length)%s.period] = v
		s.length++
		s.sum += v
		return
	}
	s.sum += v - s.buf[s.start]
	s.buf[s.start] = v
	s.start = (s.start + 1) % s.period
}

// Value returns the current average. The second return is false until the
// window has seen period values.
func (s *SMA) Value() (float64, bool) {
	if s.length < s.period {
		return 0, false
	}
	return s.sum / float64(s.period), true
}
