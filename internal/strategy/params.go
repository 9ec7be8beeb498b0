// Package strategy evaluates the composite entry and exit rules of the
// backsim trading strategy over per-bar indicator snapshots.
package strategy

import (
	"errors"
	"fmt"
	"strings"
)

// Logic selects how the two entry rule sets are combined.
type Logic string

const (
	LogicAND Logic = "AND" // both rule sets must fire
	LogicOR  Logic = "OR"  // either rule set fires
)

// ParseLogic maps a user-supplied combinator string to a Logic value,
// case-insensitively. The empty string selects the OR default.
func ParseLogic(s string) (Logic, error) {
	switch Logic(strings.ToUpper(s)) {
	case LogicAND:
		return LogicAND, nil
	case LogicOR, "":
		return LogicOR, nil
	default:
		return "", fmt.Errorf("%w: logic %q (want AND or OR)", ErrInvalidParams, s)
	}
}

// ErrInvalidParams reports a strategy or run parameter that fails
// validation. Callers can match it with errors.Is.
var ErrInvalidParams = errors.New("invalid parameters")

// Params holds all tunable strategy parameters. The zero value is not
// usable; start from DefaultParams.
type Params struct {
	// VolumeThresholdA is the minimum bar volume for the strong
	// consolidation rule set, in shares.
	VolumeThresholdA int64 `yaml:"volume_threshold_a" json:"volume_threshold_a"`

	// VolumeThresholdB is the minimum bar volume for the long bullish
	// breakout rule set, in shares.
	VolumeThresholdB int64 `yaml:"volume_threshold_b" json:"volume_threshold_b"`

	// KBarThreshold is the minimum (close-open)/open gain qualifying a bar
	// as a long bullish candle.
	KBarThreshold float64 `yaml:"k_bar_threshold" json:"k_bar_threshold"`

	// ConsolidationTolerance bounds how far apart MA5 and MA20 may sit for
	// the MA tie-up condition: max/min < 1 + tolerance.
	ConsolidationTolerance float64 `yaml:"consolidation_tolerance" json:"consolidation_tolerance"`

	// PositionSize is the fixed number of shares bought on an entry signal.
	PositionSize int64 `yaml:"position_size" json:"position_size"`

	// CommissionRate is the flat proportional commission applied to the
	// notional value of every fill.
	CommissionRate float64 `yaml:"commission_rate" json:"commission_rate"`
}

// DefaultParams returns the strategy defaults: 10M/1M share volume
// thresholds, 3.5% long candle, 5% consolidation tolerance, 100 shares per
// entry, 0.1% commission.
func DefaultParams() Params {
	return Params{
		VolumeThresholdA:       10_000_000,
		VolumeThresholdB:       1_000_000,
		KBarThreshold:          0.035,
		ConsolidationTolerance: 0.05,
		PositionSize:           100,
		CommissionRate:         0.001,
	}
}

// Validate reports the first parameter that would make a run meaningless.
func (p Params) Validate() error {
	switch {
	case p.PositionSize <= 0:
		return fmt.Errorf("%w: position size %d must be positive", ErrInvalidParams, p.PositionSize)
	case p.CommissionRate < 0:
		return fmt.Errorf("%w: commission rate %v must not be negative", ErrInvalidParams, p.CommissionRate)
	case p.VolumeThresholdA < 0 || p.VolumeThresholdB < 0:
		return fmt.Errorf("%w: volume thresholds must not be negative", ErrInvalidParams)
	case p.KBarThreshold < 0:
		return fmt.Errorf("%w: k-bar threshold %v must not be negative", ErrInvalidParams, p.KBarThreshold)
	case p.ConsolidationTolerance < 0:
		return fmt.Errorf("%w: consolidation tolerance %v must not be negative", ErrInvalidParams, p.ConsolidationTolerance)
	}
	return nil
}
