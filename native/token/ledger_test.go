package token

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func addr(suffix byte) common.Address {
	var a common.Address
	a[len(a)-1] = suffix
	return a
}

func TestMintCreditsRecipientAndSupply(t *testing.T) {
	custody := addr(0xEE)
	ledger := NewLedger("susd", custody)
	user := addr(0x01)

	if err := ledger.Mint(user, big.NewInt(1000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if ledger.BalanceOf(user).Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("unexpected balance: %s", ledger.BalanceOf(user))
	}
	if ledger.TotalSupply().Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("unexpected supply: %s", ledger.TotalSupply())
	}
	if ledger.Symbol() != "SUSD" {
		t.Fatalf("symbol not normalised: %q", ledger.Symbol())
	}
}

func TestBurnSpendsCustodyBalance(t *testing.T) {
	custody := addr(0xEE)
	ledger := NewLedger("SUSD", custody)

	if err := ledger.Burn(big.NewInt(1)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	if err := ledger.Mint(custody, big.NewInt(500)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Burn(big.NewInt(200)); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if ledger.BalanceOf(custody).Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("unexpected custody balance: %s", ledger.BalanceOf(custody))
	}
	if ledger.TotalSupply().Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("unexpected supply: %s", ledger.TotalSupply())
	}
}

func TestTransferFromMovesBalances(t *testing.T) {
	custody := addr(0xEE)
	ledger := NewLedger("SUSD", custody)
	alice := addr(0x01)
	bob := addr(0x02)

	if err := ledger.Mint(alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.TransferFrom(alice, bob, big.NewInt(60)); err != nil {
		t.Fatalf("transfer from: %v", err)
	}
	if ledger.BalanceOf(alice).Cmp(big.NewInt(40)) != 0 || ledger.BalanceOf(bob).Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("unexpected balances: %s / %s", ledger.BalanceOf(alice), ledger.BalanceOf(bob))
	}

	if err := ledger.TransferFrom(alice, bob, big.NewInt(41)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestTransferSpendsCustody(t *testing.T) {
	custody := addr(0xEE)
	ledger := NewLedger("WETH", custody)
	user := addr(0x01)

	if err := ledger.Mint(custody, big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Transfer(user, big.NewInt(4)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if ledger.BalanceOf(custody).Cmp(big.NewInt(6)) != 0 || ledger.BalanceOf(user).Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("unexpected balances: %s / %s", ledger.BalanceOf(custody), ledger.BalanceOf(user))
	}
}

func TestAmountValidation(t *testing.T) {
	ledger := NewLedger("SUSD", addr(0xEE))
	if err := ledger.Mint(addr(0x01), nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for nil, got %v", err)
	}
	if err := ledger.Mint(addr(0x01), big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}
	huge := new(big.Int).Lsh(big.NewInt(1), 257)
	if err := ledger.Mint(addr(0x01), huge); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for overflow, got %v", err)
	}
}
