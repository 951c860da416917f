package synth

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrNilState is returned when the engine has no persistence layer wired.
	ErrNilState = errors.New("synth engine: state not configured")
	// ErrInvalidAmount rejects zero or negative quantities before any state
	// is touched.
	ErrInvalidAmount = errors.New("synth engine: amount must be positive")
	// ErrAssetNotRegistered rejects assets absent from the immutable registry.
	ErrAssetNotRegistered = errors.New("synth engine: asset not registered")
	// ErrFeedLengthMismatch rejects construction with unequal asset and feed
	// lists.
	ErrFeedLengthMismatch = errors.New("synth engine: asset and feed lists must match in length")
	// ErrInsufficientCollateral rejects a ledger decrement that would go
	// negative.
	ErrInsufficientCollateral = errors.New("synth engine: insufficient collateral")
	// ErrInsufficientDebt rejects burning more debt than is outstanding.
	ErrInsufficientDebt = errors.New("synth engine: burn exceeds outstanding debt")
	// ErrStalePrice fail-closes any operation that depends on a quote older
	// than the staleness window.
	ErrStalePrice = errors.New("synth engine: stale price quote")
	// ErrInvalidQuote is returned when a feed reports a missing or
	// non-positive price.
	ErrInvalidQuote = errors.New("synth engine: invalid price quote")
	// ErrTransferFailed wraps a failed collateral or synthetic token
	// movement.
	ErrTransferFailed = errors.New("synth engine: token transfer failed")
	// ErrMintFailed wraps a synthetic token mint rejected by the token
	// capability.
	ErrMintFailed = errors.New("synth engine: synthetic mint failed")
	// ErrBurnFailed wraps a synthetic token burn rejected by the token
	// capability.
	ErrBurnFailed = errors.New("synth engine: synthetic burn failed")
	// ErrHealthFactorBroken marks a solvency violation; the concrete ratio
	// travels in HealthFactorError.
	ErrHealthFactorBroken = errors.New("synth engine: health factor below minimum")
	// ErrHealthFactorOk forbids liquidating a solvent position.
	ErrHealthFactorOk = errors.New("synth engine: health factor above minimum, position not liquidatable")
	// ErrHealthFactorNotImproved rejects a liquidation that fails to strictly
	// improve the target's solvency.
	ErrHealthFactorNotImproved = errors.New("synth engine: liquidation did not improve health factor")
	// ErrReentrantCall rejects re-entry into a guarded operation while it is
	// still executing.
	ErrReentrantCall = errors.New("synth engine: reentrant call")
)

// HealthFactorError carries the computed ratio of a failed solvency check.
type HealthFactorError struct {
	Ratio *big.Int
}

func (e *HealthFactorError) Error() string {
	if e == nil || e.Ratio == nil {
		return ErrHealthFactorBroken.Error()
	}
	return fmt.Sprintf("%s: %s", ErrHealthFactorBroken.Error(), e.Ratio.String())
}

// Unwrap lets callers match the sentinel with errors.Is.
func (e *HealthFactorError) Unwrap() error { return ErrHealthFactorBroken }
