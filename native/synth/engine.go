package synth

import (
	"fmt"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"synthvault/core/events"
	nativecommon "synthvault/native/common"
)

// Engine orchestrates deposits, mints, redemptions, burns and liquidations
// over the per-user position ledgers. Every public operation is all-or-
// nothing: mutations are staged on loaded copies and committed only after
// every step, including the external token calls, has succeeded.
//
// The engine assumes the embedding application serializes top-level
// operations, mirroring a chain's transaction execution. The reentrancy
// guard rejects re-entry through token capability callbacks; it is not a
// general-purpose concurrency lock.
type Engine struct {
	state   engineState
	custody common.Address
	token   SyntheticToken
	symbols []string
	assets  map[string]AssetToken
	oracle  *OracleAdapter
	valuer  *Valuer
	emitter events.Emitter
	pauses  nativecommon.PauseView
	busy    atomic.Bool
}

// NewEngine constructs an engine over the parallel asset, feed and transfer
// capability lists. The registry is fixed afterward; every listed asset is
// bound to exactly one feed and one transfer capability.
func NewEngine(custody common.Address, token SyntheticToken, symbols []string, feeds []PriceFeed, tokens []AssetToken, maxQuoteAge time.Duration) (*Engine, error) {
	if token == nil {
		return nil, fmt.Errorf("synth engine: synthetic token capability required")
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("synth engine: at least one collateral asset required")
	}
	if len(symbols) != len(feeds) || len(symbols) != len(tokens) {
		return nil, ErrFeedLengthMismatch
	}
	oracle := NewOracleAdapter(maxQuoteAge)
	registry := make([]string, 0, len(symbols))
	assets := make(map[string]AssetToken, len(symbols))
	for i, raw := range symbols {
		symbol := normalizeSymbol(raw)
		if symbol == "" {
			return nil, fmt.Errorf("synth engine: empty asset symbol at index %d", i)
		}
		if _, dup := assets[symbol]; dup {
			return nil, fmt.Errorf("synth engine: duplicate asset %s", symbol)
		}
		if feeds[i] == nil {
			return nil, fmt.Errorf("synth engine: nil price feed for %s", symbol)
		}
		if tokens[i] == nil {
			return nil, fmt.Errorf("synth engine: nil transfer capability for %s", symbol)
		}
		oracle.Register(symbol, feeds[i])
		assets[symbol] = tokens[i]
		registry = append(registry, symbol)
	}
	return &Engine{
		custody: custody,
		token:   token,
		symbols: registry,
		assets:  assets,
		oracle:  oracle,
		valuer:  NewValuer(oracle, registry),
		emitter: events.NoopEmitter{},
	}, nil
}

// SetState wires the engine to the position persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetPauses wires the module pause switches.
func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// Oracle exposes the staleness-checked price adapter, primarily so tests can
// override the time source.
func (e *Engine) Oracle() *OracleAdapter { return e.oracle }

// RegisteredAssets lists the collateral registry in registration order.
func (e *Engine) RegisteredAssets() []string {
	return append([]string{}, e.symbols...)
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(event)
}

// enter flips the reentrancy flag; a guarded operation re-entered through a
// token callback observes the flag set and fails.
func (e *Engine) enter() error {
	if !e.busy.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (e *Engine) exit() { e.busy.Store(false) }

func (e *Engine) ensurePosition(addr common.Address) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	position, err := e.state.GetPosition(addr)
	if err != nil {
		return nil, err
	}
	if position == nil {
		position = &Position{Address: addr}
	}
	if position.Collateral == nil {
		position.Collateral = make(map[string]*big.Int)
	}
	if position.Debt == nil {
		position.Debt = big.NewInt(0)
	}
	return position, nil
}

func (e *Engine) assetToken(asset string) (string, AssetToken, error) {
	symbol := normalizeSymbol(asset)
	token, ok := e.assets[symbol]
	if !ok {
		return "", nil, ErrAssetNotRegistered
	}
	return symbol, token, nil
}

// Deposit pulls collateral from the depositor into protocol custody and
// credits their ledger. Ledger credit and transfer commit or fail as one.
func (e *Engine) Deposit(depositor common.Address, asset string, quantity *big.Int) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	return e.deposit(depositor, asset, quantity)
}

func (e *Engine) deposit(depositor common.Address, asset string, quantity *big.Int) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if quantity == nil || quantity.Sign() <= 0 {
		return ErrInvalidAmount
	}
	symbol, token, err := e.assetToken(asset)
	if err != nil {
		return err
	}
	position, err := e.ensurePosition(depositor)
	if err != nil {
		return err
	}
	position.Collateral[symbol] = new(big.Int).Add(position.collateral(symbol), quantity)

	if err := token.TransferFrom(depositor, e.custody, quantity); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.state.PutPosition(position); err != nil {
		return err
	}
	e.emit(events.CollateralDeposited{User: depositor, Asset: symbol, Quantity: quantity})
	return nil
}

// Mint issues synthetic debt against the minter's collateral. The debt
// increment, solvency post-condition and token mint commit or fail as one.
func (e *Engine) Mint(minter common.Address, amount *big.Int) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	return e.mint(minter, amount)
}

func (e *Engine) mint(minter common.Address, amount *big.Int) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	position, err := e.ensurePosition(minter)
	if err != nil {
		return err
	}
	position.Debt = new(big.Int).Add(position.Debt, amount)
	if err := e.assertHealthy(position); err != nil {
		return err
	}
	if err := e.token.Mint(minter, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrMintFailed, err)
	}
	if err := e.state.PutPosition(position); err != nil {
		return err
	}
	e.emit(events.SyntheticMinted{Minter: minter, Amount: amount})
	return nil
}

// Redeem releases collateral from the owner's ledger to the recipient. The
// solvency post-condition is evaluated on the staged ledger before custody
// releases anything, so a redemption that would break health leaves both the
// ledger and custody untouched.
func (e *Engine) Redeem(owner, recipient common.Address, asset string, quantity *big.Int) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()
	return e.redeem(owner, recipient, asset, quantity)
}

func (e *Engine) redeem(owner, recipient common.Address, asset string, quantity *big.Int) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if quantity == nil || quantity.Sign() <= 0 {
		return ErrInvalidAmount
	}
	symbol, token, err := e.assetToken(asset)
	if err != nil {
		return err
	}
	position, err := e.ensurePosition(owner)
	if err != nil {
		return err
	}
	if err := decrementCollateral(position, symbol, quantity); err != nil {
		return err
	}
	if err := e.assertHealthy(position); err != nil {
		return err
	}
	if err := token.Transfer(recipient, quantity); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.state.PutPosition(position); err != nil {
		return err
	}
	e.emit(events.CollateralRedeemed{Owner: owner, Recipient: recipient, Asset: symbol, Quantity: quantity})
	return nil
}

// Burn retires synthetic debt on behalf of a user, paid by the payer. Burn
// only reduces debt and so carries no standalone solvency post-check; it is
// also unguarded, relying on the composite caller's reentrancy guard.
func (e *Engine) Burn(payer, onBehalfOf common.Address, amount *big.Int) error {
	return e.burn(payer, onBehalfOf, amount)
}

func (e *Engine) burn(payer, onBehalfOf common.Address, amount *big.Int) error {
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	position, err := e.ensurePosition(onBehalfOf)
	if err != nil {
		return err
	}
	if err := decrementDebt(position, amount); err != nil {
		return err
	}
	if err := e.collectAndBurn(payer, amount); err != nil {
		return err
	}
	if err := e.state.PutPosition(position); err != nil {
		return err
	}
	e.emit(events.SyntheticBurned{Payer: payer, OnBehalfOf: onBehalfOf, Amount: amount})
	return nil
}

// collectAndBurn pulls synthetic tokens from the payer into custody and
// destroys them. A burn rejected after a successful pull is compensated by
// returning the pulled tokens before the operation fails.
func (e *Engine) collectAndBurn(payer common.Address, amount *big.Int) error {
	if err := e.token.TransferFrom(payer, e.custody, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.token.Burn(amount); err != nil {
		if refundErr := e.token.TransferFrom(e.custody, payer, amount); refundErr != nil {
			return fmt.Errorf("%w: %v (refund failed: %v)", ErrBurnFailed, err, refundErr)
		}
		return fmt.Errorf("%w: %v", ErrBurnFailed, err)
	}
	return nil
}

// DepositAndMint performs deposit then mint as a single atomic composite.
func (e *Engine) DepositAndMint(actor common.Address, asset string, quantity, mintAmount *big.Int) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if quantity == nil || quantity.Sign() <= 0 || mintAmount == nil || mintAmount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	symbol, token, err := e.assetToken(asset)
	if err != nil {
		return err
	}
	position, err := e.ensurePosition(actor)
	if err != nil {
		return err
	}
	position.Collateral[symbol] = new(big.Int).Add(position.collateral(symbol), quantity)
	position.Debt = new(big.Int).Add(position.Debt, mintAmount)
	if err := e.assertHealthy(position); err != nil {
		return err
	}

	if err := token.TransferFrom(actor, e.custody, quantity); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.token.Mint(actor, mintAmount); err != nil {
		if refundErr := token.Transfer(actor, quantity); refundErr != nil {
			return fmt.Errorf("%w: %v (collateral refund failed: %v)", ErrMintFailed, err, refundErr)
		}
		return fmt.Errorf("%w: %v", ErrMintFailed, err)
	}
	if err := e.state.PutPosition(position); err != nil {
		return err
	}
	e.emit(events.CollateralDeposited{User: actor, Asset: symbol, Quantity: quantity})
	e.emit(events.SyntheticMinted{Minter: actor, Amount: mintAmount})
	return nil
}

// RedeemForBurn retires debt and then releases collateral as a single atomic
// composite. Debt is reduced before collateral, so no intermediate state is
// ever less healthy than the final one; the solvency post-condition is
// evaluated once, on the fully staged position.
func (e *Engine) RedeemForBurn(actor common.Address, asset string, quantity, burnAmount *big.Int) error {
	if err := e.enter(); err != nil {
		return err
	}
	defer e.exit()

	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if quantity == nil || quantity.Sign() <= 0 || burnAmount == nil || burnAmount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	symbol, token, err := e.assetToken(asset)
	if err != nil {
		return err
	}
	position, err := e.ensurePosition(actor)
	if err != nil {
		return err
	}
	if err := decrementDebt(position, burnAmount); err != nil {
		return err
	}
	if err := decrementCollateral(position, symbol, quantity); err != nil {
		return err
	}
	if err := e.assertHealthy(position); err != nil {
		return err
	}

	if err := e.collectAndBurn(actor, burnAmount); err != nil {
		return err
	}
	if err := token.Transfer(actor, quantity); err != nil {
		// The burn already destroyed the payer's tokens; mint them back so
		// the failed composite leaves no net token movement.
		if restoreErr := e.token.Mint(actor, burnAmount); restoreErr != nil {
			return fmt.Errorf("%w: %v (restore mint failed: %v)", ErrTransferFailed, err, restoreErr)
		}
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.state.PutPosition(position); err != nil {
		return err
	}
	e.emit(events.SyntheticBurned{Payer: actor, OnBehalfOf: actor, Amount: burnAmount})
	e.emit(events.CollateralRedeemed{Owner: actor, Recipient: actor, Asset: symbol, Quantity: quantity})
	return nil
}

// AccountCollateralValue reports the total USD value of the user's deposited
// collateral. A user with no deposits values to zero.
func (e *Engine) AccountCollateralValue(user common.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	position, err := e.state.GetPosition(user)
	if err != nil {
		return nil, err
	}
	return e.valuer.CollateralValue(position)
}

// USDValue converts an (asset, quantity) pair to 18-decimal USD.
func (e *Engine) USDValue(asset string, quantity *big.Int) (*big.Int, error) {
	return e.valuer.USDValue(asset, quantity)
}

// AssetQuantityFromUSD converts a USD amount to the asset-native quantity.
func (e *Engine) AssetQuantityFromUSD(asset string, usd *big.Int) (*big.Int, error) {
	return e.valuer.AssetQuantityFromUSD(asset, usd)
}

// AccountSnapshot returns the user's (debt, collateral value) pair.
func (e *Engine) AccountSnapshot(user common.Address) (AccountSnapshot, error) {
	if e == nil || e.state == nil {
		return AccountSnapshot{}, ErrNilState
	}
	position, err := e.ensurePosition(user)
	if err != nil {
		return AccountSnapshot{}, err
	}
	value, err := e.valuer.CollateralValue(position)
	if err != nil {
		return AccountSnapshot{}, err
	}
	return AccountSnapshot{Debt: new(big.Int).Set(position.Debt), CollateralValue: value}, nil
}

// CollateralBalance reports the user's deposited quantity of one asset.
func (e *Engine) CollateralBalance(user common.Address, asset string) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	symbol := normalizeSymbol(asset)
	if _, ok := e.assets[symbol]; !ok {
		return nil, ErrAssetNotRegistered
	}
	position, err := e.state.GetPosition(user)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(position.collateral(symbol)), nil
}

func decrementCollateral(position *Position, symbol string, quantity *big.Int) error {
	current := position.collateral(symbol)
	if current.Cmp(quantity) < 0 {
		return ErrInsufficientCollateral
	}
	position.Collateral[symbol] = new(big.Int).Sub(current, quantity)
	return nil
}

func decrementDebt(position *Position, amount *big.Int) error {
	if position.Debt.Cmp(amount) < 0 {
		return ErrInsufficientDebt
	}
	position.Debt = new(big.Int).Sub(position.Debt, amount)
	return nil
}
