package token

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	// ErrInvalidAmount rejects nil, negative or overflowing amounts.
	ErrInvalidAmount = errors.New("token ledger: amount must be a non-negative 256-bit integer")
	// ErrInsufficientBalance rejects a debit exceeding the source balance.
	ErrInsufficientBalance = errors.New("token ledger: insufficient balance")
	// ErrSupplyOverflow rejects a mint that would overflow total supply.
	ErrSupplyOverflow = errors.New("token ledger: total supply overflow")
)

// Ledger is an in-memory balance ledger implementing the mint/burn/transfer
// capabilities the synth engine expects from its token collaborators. Mint
// and burn rights are structural: they belong to whoever holds the *Ledger,
// which the wiring hands only to the engine. Burn spends the custody
// account's balance, matching the engine's caller-scoped burn semantics.
type Ledger struct {
	mu          sync.RWMutex
	symbol      string
	custody     common.Address
	balances    map[common.Address]*uint256.Int
	totalSupply *uint256.Int
}

// NewLedger constructs an empty ledger. custody is the protocol account whose
// balance caller-scoped burns and transfers spend.
func NewLedger(symbol string, custody common.Address) *Ledger {
	return &Ledger{
		symbol:      strings.ToUpper(strings.TrimSpace(symbol)),
		custody:     custody,
		balances:    make(map[common.Address]*uint256.Int),
		totalSupply: uint256.NewInt(0),
	}
}

// Symbol reports the ledger's token symbol.
func (l *Ledger) Symbol() string { return l.symbol }

func toUint256(amount *big.Int) (*uint256.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	value, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, ErrInvalidAmount
	}
	return value, nil
}

// Mint credits freshly issued tokens to the recipient.
func (l *Ledger) Mint(to common.Address, amount *big.Int) error {
	value, err := toUint256(amount)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	supply := new(uint256.Int)
	if _, overflow := supply.AddOverflow(l.totalSupply, value); overflow {
		return ErrSupplyOverflow
	}
	l.totalSupply = supply
	l.credit(to, value)
	return nil
}

// Burn destroys tokens held by the custody account.
func (l *Ledger) Burn(amount *big.Int) error {
	value, err := toUint256(amount)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.debit(l.custody, value); err != nil {
		return err
	}
	l.totalSupply = new(uint256.Int).Sub(l.totalSupply, value)
	return nil
}

// Transfer moves tokens from the custody account to the recipient.
func (l *Ledger) Transfer(to common.Address, amount *big.Int) error {
	return l.TransferFrom(l.custody, to, amount)
}

// TransferFrom moves tokens between arbitrary accounts. The capability holder
// (the engine) is authorized for every account it custodies for.
func (l *Ledger) TransferFrom(from, to common.Address, amount *big.Int) error {
	value, err := toUint256(amount)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.debit(from, value); err != nil {
		return err
	}
	l.credit(to, value)
	return nil
}

// BalanceOf reports the account balance.
func (l *Ledger) BalanceOf(addr common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, ok := l.balances[addr]
	if !ok {
		return big.NewInt(0)
	}
	return balance.ToBig()
}

// TotalSupply reports the outstanding token supply.
func (l *Ledger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalSupply.ToBig()
}

func (l *Ledger) credit(addr common.Address, value *uint256.Int) {
	balance, ok := l.balances[addr]
	if !ok {
		balance = uint256.NewInt(0)
		l.balances[addr] = balance
	}
	balance.Add(balance, value)
}

func (l *Ledger) debit(addr common.Address, value *uint256.Int) error {
	balance, ok := l.balances[addr]
	if !ok || balance.Lt(value) {
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientBalance, addr.Hex(), balanceString(balance), value.Dec())
	}
	balance.Sub(balance, value)
	return nil
}

func balanceString(balance *uint256.Int) string {
	if balance == nil {
		return "0"
	}
	return balance.Dec()
}
