package indicator

// EMA is an exponential moving average with smoothing alpha = 2/(period+1).
// The series is seeded with the first observed value; every observation
// after that follows the recurrence ema = v*alpha + prev*(1-alpha). The
// seeding convention is fixed for the whole run so repeated simulations are
// byte-identical.
type EMA struct {
	alpha  float64
	value  float64
	primed bool
}

// NewEMA creates an EMA with the given period. Periods below 1 are clamped
// to 1.
func NewEMA(period int) *EMA {
	if period < 1 {
		period = 1
	}
	return &EMA{alpha: 2.0 / float64(period+1)}
}

// Observe folds the next value into the average.
func (e *EMA) Observe(v float64) {
	if !e.primed {
		e.value = v
		e.primed = true
		return
	}
	e.value = v*e.alpha + e.value*(1-e.alpha)
}

// Value returns the current average. The second return is false before the
// first observation.
func (e *EMA) Value() (float64, bool) {
	return e.value, e.primed
}
