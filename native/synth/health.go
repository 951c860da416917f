package synth

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// healthFactor computes the 18-decimal solvency ratio from a collateral value
// and outstanding debt. Debt-free positions report the sentinel maximum and
// can never be liquidated.
func healthFactor(collateralUSD, debt *big.Int) *big.Int {
	if debt == nil || debt.Sign() == 0 {
		return new(big.Int).Set(maxHealthFactor)
	}
	adjusted := new(big.Int).Mul(collateralUSD, thresholdNumerator)
	adjusted.Quo(adjusted, thresholdDenominator)
	ratio := adjusted.Mul(adjusted, precision)
	return ratio.Quo(ratio, debt)
}

// HealthFactor reports the user's current solvency ratio from live prices.
func (e *Engine) HealthFactor(user common.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	position, err := e.state.GetPosition(user)
	if err != nil {
		return nil, err
	}
	return e.positionHealthFactor(position)
}

func (e *Engine) positionHealthFactor(position *Position) (*big.Int, error) {
	collateralUSD, err := e.valuer.CollateralValue(position)
	if err != nil {
		return nil, err
	}
	var debt *big.Int
	if position != nil {
		debt = position.Debt
	}
	return healthFactor(collateralUSD, debt), nil
}

// assertHealthy is the single solvency enforcement point, invoked as a
// post-condition after every operation that can reduce collateral or increase
// debt for the affected user.
func (e *Engine) assertHealthy(position *Position) error {
	ratio, err := e.positionHealthFactor(position)
	if err != nil {
		return err
	}
	if ratio.Cmp(minHealthFactor) < 0 {
		return &HealthFactorError{Ratio: ratio}
	}
	return nil
}
