package synth

import (
	"math/big"
	"time"
)

const moduleName = "synth"

// DefaultMaxQuoteAge is the staleness window applied to oracle quotes when no
// override is configured. A quote whose age exceeds the window fail-closes
// every valuation-dependent operation.
const DefaultMaxQuoteAge = 3 * time.Hour

const (
	// liquidationThreshold counts only half of nominal collateral value
	// toward backing debt, i.e. 200% nominal overcollateralization.
	liquidationThreshold = 50
	liquidationPrecision = 100
	// liquidationBonus is the discount granted to liquidators, as a
	// percentage of the base seizure quantity.
	liquidationBonus = 10

	// feedDecimals is the price precision reported by the raw feeds.
	feedDecimals = 8
)

var (
	// precision is the protocol's internal 18-decimal fixed-point unit.
	precision = mustBigInt("1000000000000000000")
	// additionalFeedPrecision rescales 8-decimal feed prices to 18 decimals.
	additionalFeedPrecision = mustBigInt("10000000000")
	// minHealthFactor is 1.0 in 18-decimal fixed point.
	minHealthFactor = mustBigInt("1000000000000000000")
	// maxHealthFactor is the sentinel returned for debt-free positions.
	maxHealthFactor = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	thresholdNumerator   = big.NewInt(liquidationThreshold)
	thresholdDenominator = big.NewInt(liquidationPrecision)
	bonusNumerator       = big.NewInt(liquidationBonus)
)

// MinHealthFactor returns the 18-decimal solvency minimum (1.0).
func MinHealthFactor() *big.Int { return new(big.Int).Set(minHealthFactor) }

// MaxHealthFactor returns the sentinel health factor of a debt-free position.
func MaxHealthFactor() *big.Int { return new(big.Int).Set(maxHealthFactor) }

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}
