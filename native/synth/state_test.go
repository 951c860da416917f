package synth

import (
	"math/big"
	"testing"
)

func TestMemoryStateClonesOnReadAndWrite(t *testing.T) {
	state := NewMemoryState()
	addr := makeAddress(0x01)
	original := &Position{
		Address:    addr,
		Collateral: map[string]*big.Int{"ETH": big.NewInt(100)},
		Debt:       big.NewInt(50),
	}
	if err := state.PutPosition(original); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Mutating the caller's copy after Put must not leak into the store.
	original.Collateral["ETH"].SetInt64(999)
	original.Debt.SetInt64(999)

	loaded, err := state.GetPosition(addr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Collateral["ETH"].Cmp(big.NewInt(100)) != 0 || loaded.Debt.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("store aliased caller memory: %+v", loaded)
	}

	// Mutating a loaded copy must not leak either.
	loaded.Debt.SetInt64(1)
	reloaded, err := state.GetPosition(addr)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Debt.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("store aliased loaded memory: %s", reloaded.Debt)
	}
}

func TestMemoryStateMissingPosition(t *testing.T) {
	state := NewMemoryState()
	position, err := state.GetPosition(makeAddress(0x42))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if position != nil {
		t.Fatalf("expected nil for unknown address, got %+v", position)
	}
}
