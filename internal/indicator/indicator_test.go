package indicator

import (
	"math"
	"testing"
	"time"

	"backsim/internal/domain"
)

func TestSMAValues(t *testing.T) {
	sma := NewSMA(3)
	data := []float64{11, 12, 13, 14, 20, 16}
	want := []float64{0, 0, (11 + 12 + 13) / 3.0, (12 + 13 + 14) / 3.0, (13 + 14 + 20) / 3.0, (14 + 20 + 16) / 3.0}

	for i, v := range data {
		sma.Observe(v)
		got, ok := sma.Value()
		if i < 2 {
			if ok {
				t.Fatalf("SMA ready at bar %d, want undefined before window fills", i)
			}
			continue
		}
		if !ok || got != want[i] {
			t.Fatalf("SMA at bar %d = %v (ok=%v), want %v", i, got, ok, want[i])
		}
	}
}

func TestEMASeedsWithFirstValue(t *testing.T) {
	ema := NewEMA(9)

	if _, ok := ema.Value(); ok {
		t.Fatal("EMA reported a value before any observation")
	}

	ema.Observe(50)
	got, ok := ema.Value()
	if !ok || got != 50 {
		t.Fatalf("EMA after seed = %v (ok=%v), want 50", got, ok)
	}

	// Second value follows the recurrence with alpha = 2/(period+1) = 0.2.
	ema.Observe(60)
	got, _ = ema.Value()
	want := 60*0.2 + 50*0.8
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("EMA after second value = %v, want %v", got, want)
	}
}

// observeAll feeds a close-price series into a fresh MACD and returns the
// cross emitted at each bar.
func observeAll(prices []float64) []int {
	m := NewMACD(PeriodMACDFast, PeriodMACDSlow, PeriodMACDSignal)
	crosses := make([]int, len(prices))
	for i, p := range prices {
		m.Observe(p)
		crosses[i] = m.Cross()
	}
	return crosses
}

func TestMACDCrossNeverFiresOnMonotonicSeries(t *testing.T) {
	rising := make([]float64, 120)
	falling := make([]float64, 120)
	for i := range rising {
		rising[i] = 100 + float64(i)
		falling[i] = 300 - float64(i)
	}

	for _, tc := range [][]float64{rising, falling} {
		for i, c := range observeAll(tc) {
			if c != CrossNone {
				t.Fatalf("cross %d emitted at bar %d of a monotonic series", c, i)
			}
		}
	}
}

func TestMACDCrossFiresOncePerSignChange(t *testing.T) {
	// Decline long enough for the MACD line to settle below the signal line,
	// then a sharp sustained rally: exactly one bullish cross, on the
	// transition bar only.
	var prices []float64
	for i := 0; i < 60; i++ {
		prices = append(prices, 200-float64(i))
	}
	for i := 0; i < 60; i++ {
		prices = append(prices, 140+3*float64(i))
	}

	crosses := observeAll(prices)
	bullish := 0
	for i, c := range crosses {
		if c == CrossBullish {
			bullish++
			// Every later bar of the rally keeps MACD above signal without
			// re-firing.
			for j := i + 1; j < len(crosses); j++ {
				if crosses[j] == CrossBullish {
					t.Fatalf("bullish cross re-fired at bar %d after firing at bar %d", j, i)
				}
			}
			break
		}
	}
	if bullish != 1 {
		t.Fatalf("bullish crosses = %d, want exactly 1", bullish)
	}
}

func TestMACDCrossBearishTransition(t *testing.T) {
	var prices []float64
	for i := 0; i < 60; i++ {
		prices = append(prices, 100+2*float64(i))
	}
	for i := 0; i < 60; i++ {
		prices = append(prices, 220-3*float64(i))
	}

	bearish := 0
	for _, c := range observeAll(prices) {
		if c == CrossBearish {
			bearish++
		}
	}
	if bearish != 1 {
		t.Fatalf("bearish crosses = %d, want exactly 1", bearish)
	}
}

func TestPipelineSnapshotWarmup(t *testing.T) {
	p := NewPipeline()

	var snap Snapshot
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 59; i++ {
		snap = p.Observe(domain.Bar{Date: base.AddDate(0, 0, i), Close: 100 + float64(i%7), Volume: 1000})
	}

	if snap.BarCount != 59 {
		t.Fatalf("BarCount = %d, want 59", snap.BarCount)
	}
	if !snap.MA5.OK || !snap.MA10.OK || !snap.MA20.OK {
		t.Error("short MAs undefined after 59 bars")
	}
	if snap.MA60.OK {
		t.Error("MA60 defined after 59 bars, want undefined until 60")
	}

	snap = p.Observe(domain.Bar{Date: base.AddDate(0, 0, 59), Close: 104, Volume: 1000})
	if !snap.MA60.OK {
		t.Error("MA60 undefined after 60 bars")
	}
	if !snap.MACDLine.OK || !snap.MACDSignal.OK {
		t.Error("MACD undefined after 60 bars")
	}
}
