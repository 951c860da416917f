package synth

import "math/big"

// Valuer converts between asset quantities and the protocol's 18-decimal USD
// unit using staleness-checked quotes. Integer division truncates toward
// zero; the rounding-down bias never overvalues collateral and never
// undervalues a redemption.
type Valuer struct {
	oracle  *OracleAdapter
	symbols []string
}

// NewValuer constructs a valuer over the adapter and the registry iteration
// order.
func NewValuer(oracle *OracleAdapter, symbols []string) *Valuer {
	return &Valuer{oracle: oracle, symbols: append([]string{}, symbols...)}
}

// USDValue converts a native asset quantity to 18-decimal USD:
// usd = price * 1e10 * quantity / 1e18.
func (v *Valuer) USDValue(asset string, quantity *big.Int) (*big.Int, error) {
	if quantity == nil || quantity.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	quote, err := v.oracle.Quote(asset)
	if err != nil {
		return nil, err
	}
	scaled := new(big.Int).Mul(quote.Answer, additionalFeedPrecision)
	usd := new(big.Int).Mul(scaled, quantity)
	return usd.Quo(usd, precision), nil
}

// AssetQuantityFromUSD is the inverse conversion:
// quantity = usd * 1e18 / (price * 1e10).
func (v *Valuer) AssetQuantityFromUSD(asset string, usd *big.Int) (*big.Int, error) {
	if usd == nil || usd.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	quote, err := v.oracle.Quote(asset)
	if err != nil {
		return nil, err
	}
	scaled := new(big.Int).Mul(quote.Answer, additionalFeedPrecision)
	quantity := new(big.Int).Mul(usd, precision)
	return quantity.Quo(quantity, scaled), nil
}

// CollateralValue sums the USD value of every registered asset deposited in
// the position, iterating in registration order. A position with no deposits
// values to zero; a stale feed on any listed asset fails the whole sum.
func (v *Valuer) CollateralValue(position *Position) (*big.Int, error) {
	total := big.NewInt(0)
	if position == nil {
		return total, nil
	}
	for _, symbol := range v.symbols {
		qty := position.collateral(symbol)
		if qty.Sign() == 0 {
			continue
		}
		value, err := v.USDValue(symbol, qty)
		if err != nil {
			return nil, err
		}
		total.Add(total, value)
	}
	return total, nil
}
