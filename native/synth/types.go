package synth

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RoundData is the raw quote tuple reported by a price feed. Answer carries
// the price at the feed's native 8-decimal precision.
type RoundData struct {
	RoundID         uint64
	Answer          *big.Int
	StartedAt       time.Time
	UpdatedAt       time.Time
	AnsweredInRound uint64
}

// Clone returns a deep copy of the round data.
func (r RoundData) Clone() RoundData {
	clone := RoundData{
		RoundID:         r.RoundID,
		StartedAt:       r.StartedAt,
		UpdatedAt:       r.UpdatedAt,
		AnsweredInRound: r.AnsweredInRound,
	}
	if r.Answer != nil {
		clone.Answer = new(big.Int).Set(r.Answer)
	}
	return clone
}

// Position maintains a single user's collateral and debt ledgers. Collateral
// quantities are in each asset's native smallest unit; debt is denominated in
// the synthetic token's 18-decimal unit.
type Position struct {
	Address    common.Address
	Collateral map[string]*big.Int
	Debt       *big.Int
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := &Position{Address: p.Address, Collateral: make(map[string]*big.Int, len(p.Collateral))}
	for asset, qty := range p.Collateral {
		if qty == nil {
			qty = big.NewInt(0)
		}
		clone.Collateral[asset] = new(big.Int).Set(qty)
	}
	if p.Debt != nil {
		clone.Debt = new(big.Int).Set(p.Debt)
	} else {
		clone.Debt = big.NewInt(0)
	}
	return clone
}

func (p *Position) collateral(asset string) *big.Int {
	if p == nil || p.Collateral == nil {
		return big.NewInt(0)
	}
	qty, ok := p.Collateral[asset]
	if !ok || qty == nil {
		return big.NewInt(0)
	}
	return qty
}

// AccountSnapshot pairs a user's outstanding debt with the USD value of their
// deposited collateral.
type AccountSnapshot struct {
	Debt            *big.Int
	CollateralValue *big.Int
}
