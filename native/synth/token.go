package synth

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SyntheticToken is the external synthetic token capability. The engine is
// the sole holder of mint and burn rights; Burn retires tokens held in
// protocol custody.
type SyntheticToken interface {
	Mint(to common.Address, amount *big.Int) error
	Burn(amount *big.Int) error
	TransferFrom(from, to common.Address, amount *big.Int) error
}

// AssetToken is the transfer capability of a registered collateral asset.
type AssetToken interface {
	Transfer(to common.Address, amount *big.Int) error
	TransferFrom(from, to common.Address, amount *big.Int) error
}
