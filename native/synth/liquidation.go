package synth

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"synthvault/core/events"
	nativecommon "synthvault/native/common"
)

// Liquidate lets a third party cover part of an unhealthy user's debt in
// exchange for discounted collateral. Seize, burn and both health checks form
// one atomic unit; the seized quantity is returned.
func (e *Engine) Liquidate(liquidator, user common.Address, asset string, debtToCover *big.Int) (*big.Int, error) {
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.exit()

	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if debtToCover == nil || debtToCover.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	symbol, token, err := e.assetToken(asset)
	if err != nil {
		return nil, err
	}
	position, err := e.ensurePosition(user)
	if err != nil {
		return nil, err
	}
	startingHealth, err := e.positionHealthFactor(position)
	if err != nil {
		return nil, err
	}
	if startingHealth.Cmp(minHealthFactor) >= 0 {
		return nil, ErrHealthFactorOk
	}

	baseQuantity, err := e.valuer.AssetQuantityFromUSD(symbol, debtToCover)
	if err != nil {
		return nil, err
	}
	bonusQuantity := new(big.Int).Mul(baseQuantity, bonusNumerator)
	bonusQuantity.Quo(bonusQuantity, thresholdDenominator)
	seizeQuantity := new(big.Int).Add(baseQuantity, bonusQuantity)

	// Internal redeem primitive: no mid-sequence health check on the target.
	if err := decrementCollateral(position, symbol, seizeQuantity); err != nil {
		return nil, err
	}
	if err := decrementDebt(position, debtToCover); err != nil {
		return nil, err
	}

	endingHealth, err := e.positionHealthFactor(position)
	if err != nil {
		return nil, err
	}
	if endingHealth.Cmp(startingHealth) <= 0 {
		return nil, ErrHealthFactorNotImproved
	}

	// The liquidation itself never touches the liquidator's ledgers; this
	// guards the self-liquidation edge case where both parties are one user.
	liquidatorPosition := position
	if liquidator != user {
		liquidatorPosition, err = e.ensurePosition(liquidator)
		if err != nil {
			return nil, err
		}
	}
	if err := e.assertHealthy(liquidatorPosition); err != nil {
		return nil, err
	}

	if err := e.collectAndBurn(liquidator, debtToCover); err != nil {
		return nil, err
	}
	if err := token.Transfer(liquidator, seizeQuantity); err != nil {
		// The liquidator's tokens are already burned; mint them back so the
		// failed seizure leaves no net token movement.
		if restoreErr := e.token.Mint(liquidator, debtToCover); restoreErr != nil {
			return nil, fmt.Errorf("%w: %v (restore mint failed: %v)", ErrTransferFailed, err, restoreErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.state.PutPosition(position); err != nil {
		return nil, err
	}
	e.emit(events.PositionLiquidated{
		Liquidator:  liquidator,
		User:        user,
		Asset:       symbol,
		DebtCovered: debtToCover,
		Seized:      seizeQuantity,
	})
	return seizeQuantity, nil
}
