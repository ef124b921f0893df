package pricing

import (
	"errors"
	"math"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// BpsDenominator is the scale used for percentage arithmetic: 100% == 10000 bps.
const BpsDenominator = 10000

// ErrPercentOutOfRange is returned when an operator-entered percentage falls
// outside the accepted [0,100] range. Out-of-range values are rejected, never
// silently clamped.
var ErrPercentOutOfRange = errors.New("percent out of range")

// PercentToBps converts an operator-entered percentage into basis points.
func PercentToBps(percent float64) (int32, error) {
	if math.IsNaN(percent) || percent < 0 || percent > 100 {
		return 0, ErrPercentOutOfRange
	}
	return int32(math.Round(percent * 100)), nil
}

// BpsToPercent converts basis points back to a display percentage.
func BpsToPercent(bps int32) float64 {
	return float64(bps) / 100
}

// ApplyBps computes the bps fraction of amount, truncating toward zero.
func ApplyBps(amount Money, bps int32) Money {
	return (amount * Money(bps)) / BpsDenominator
}

// BpsOfBase back-computes the basis points that amount represents of base,
// rounded to the nearest bps. A zero or negative base yields zero.
func BpsOfBase(amount, base Money) int32 {
	if base <= 0 || amount <= 0 {
		return 0
	}
	return int32(math.Round(float64(amount) * BpsDenominator / float64(base)))
}
