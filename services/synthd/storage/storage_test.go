package storage

import (
	"context"
	"math/big"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"synthvault/core/events"
)

func openTestStore(t *testing.T) *Storage {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.ErrorIs(t, err, ErrPathRequired)
}

func TestRecordAndListEvents(t *testing.T) {
	store := openTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	store.SetNowFunc(func() time.Time {
		current = current.Add(time.Second)
		return current
	})

	var user common.Address
	user[19] = 0x01
	deposited := events.CollateralDeposited{User: user, Asset: "ETH", Quantity: big.NewInt(100)}
	minted := events.SyntheticMinted{Minter: user, Amount: big.NewInt(5000)}

	ctx := context.Background()
	firstID, err := store.RecordEvent(ctx, deposited.Event())
	require.NoError(t, err)
	secondID, err := store.RecordEvent(ctx, minted.Event())
	require.NoError(t, err)
	require.NotEqual(t, firstID, secondID)

	records, err := store.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, events.TypeSyntheticMinted, records[0].Type)
	require.Equal(t, events.TypeCollateralDeposited, records[1].Type)
	require.Equal(t, "ETH", records[1].Attributes["asset"])
	require.Equal(t, "100", records[1].Attributes["quantity"])
	require.Equal(t, user.Hex(), records[1].Attributes["user"])

	mintsOnly, err := store.ListByType(ctx, events.TypeSyntheticMinted, 10)
	require.NoError(t, err)
	require.Len(t, mintsOnly, 1)
	require.Equal(t, secondID, mintsOnly[0].ID)
}

func TestListRecentHonorsLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	var user common.Address
	for i := 0; i < 5; i++ {
		event := events.SyntheticMinted{Minter: user, Amount: big.NewInt(int64(i))}
		_, err := store.RecordEvent(ctx, event.Event())
		require.NoError(t, err)
	}
	records, err := store.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
}

func TestRecorderPersistsEmittedEvents(t *testing.T) {
	store := openTestStore(t)
	recorder := NewRecorder(store, nil)

	var user common.Address
	user[19] = 0x07
	recorder.Emit(events.SyntheticBurned{Payer: user, OnBehalfOf: user, Amount: big.NewInt(250)})

	records, err := store.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, events.TypeSyntheticBurned, records[0].Type)
	require.Equal(t, "250", records[0].Attributes["amount"])
}

func TestRecordEventRejectsEmptyType(t *testing.T) {
	store := openTestStore(t)
	_, err := store.RecordEvent(context.Background(), nil)
	require.Error(t, err)
}
