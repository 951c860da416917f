package events

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"synthvault/core/types"
)

const (
	// TypeCollateralDeposited is emitted when collateral enters protocol custody.
	TypeCollateralDeposited = "synth.collateral.deposited"
	// TypeCollateralRedeemed is emitted when collateral leaves protocol custody.
	TypeCollateralRedeemed = "synth.collateral.redeemed"
	// TypeSyntheticMinted is emitted when new synthetic debt is issued.
	TypeSyntheticMinted = "synth.minted"
	// TypeSyntheticBurned is emitted when synthetic debt is retired.
	TypeSyntheticBurned = "synth.burned"
	// TypePositionLiquidated is emitted when an unhealthy position is seized.
	TypePositionLiquidated = "synth.position.liquidated"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

type CollateralDeposited struct {
	User     common.Address
	Asset    string
	Quantity *big.Int
}

func (CollateralDeposited) EventType() string { return TypeCollateralDeposited }

func (e CollateralDeposited) Event() *types.Event {
	return &types.Event{
		Type: TypeCollateralDeposited,
		Attributes: map[string]string{
			"user":     e.User.Hex(),
			"asset":    normalizeAsset(e.Asset),
			"quantity": formatAmount(e.Quantity),
		},
	}
}

type CollateralRedeemed struct {
	Owner     common.Address
	Recipient common.Address
	Asset     string
	Quantity  *big.Int
}

func (CollateralRedeemed) EventType() string { return TypeCollateralRedeemed }

func (e CollateralRedeemed) Event() *types.Event {
	return &types.Event{
		Type: TypeCollateralRedeemed,
		Attributes: map[string]string{
			"owner":     e.Owner.Hex(),
			"recipient": e.Recipient.Hex(),
			"asset":     normalizeAsset(e.Asset),
			"quantity":  formatAmount(e.Quantity),
		},
	}
}

type SyntheticMinted struct {
	Minter common.Address
	Amount *big.Int
}

func (SyntheticMinted) EventType() string { return TypeSyntheticMinted }

func (e SyntheticMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeSyntheticMinted,
		Attributes: map[string]string{
			"minter": e.Minter.Hex(),
			"amount": formatAmount(e.Amount),
		},
	}
}

type SyntheticBurned struct {
	Payer      common.Address
	OnBehalfOf common.Address
	Amount     *big.Int
}

func (SyntheticBurned) EventType() string { return TypeSyntheticBurned }

func (e SyntheticBurned) Event() *types.Event {
	return &types.Event{
		Type: TypeSyntheticBurned,
		Attributes: map[string]string{
			"payer":      e.Payer.Hex(),
			"onBehalfOf": e.OnBehalfOf.Hex(),
			"amount":     formatAmount(e.Amount),
		},
	}
}

type PositionLiquidated struct {
	Liquidator  common.Address
	User        common.Address
	Asset       string
	DebtCovered *big.Int
	Seized      *big.Int
}

func (PositionLiquidated) EventType() string { return TypePositionLiquidated }

func (e PositionLiquidated) Event() *types.Event {
	return &types.Event{
		Type: TypePositionLiquidated,
		Attributes: map[string]string{
			"liquidator":  e.Liquidator.Hex(),
			"user":        e.User.Hex(),
			"asset":       normalizeAsset(e.Asset),
			"debtCovered": formatAmount(e.DebtCovered),
			"seized":      formatAmount(e.Seized),
		},
	}
}

func normalizeAsset(asset string) string {
	trimmed := strings.TrimSpace(asset)
	if trimmed == "" {
		return ""
	}
	return strings.ToUpper(trimmed)
}
