package payments

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	// Dec100 is the number of minor units in a major unit.
	Dec100 = decimal.NewFromInt(100)
	// MaxMinor is the largest amount in cents the platform calls can carry.
	MaxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// FromMinor converts an amount in cents to major units, exactly.
func FromMinor(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(Dec100)
}

// ToMinor converts an amount in major units to cents. It refuses amounts
// with sub-cent precision instead of rounding them, and amounts that do not
// fit in an int64 instead of wrapping them.
func ToMinor(amount decimal.Decimal) (int64, error) {
	cents := amount.Mul(Dec100)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than two decimals", amount.String())
	}
	if cents.GreaterThan(MaxMinor) || cents.LessThan(minMinor) {
		return 0, fmt.Errorf("amount %s is out of range", amount.String())
	}
	return cents.IntPart(), nil
}
