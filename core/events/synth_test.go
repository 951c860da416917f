package events

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestPositionLiquidatedAttributes(t *testing.T) {
	var liquidator, user common.Address
	liquidator[19] = 0x02
	user[19] = 0x01

	event := PositionLiquidated{
		Liquidator:  liquidator,
		User:        user,
		Asset:       " eth ",
		DebtCovered: big.NewInt(1000),
		Seized:      big.NewInt(1100),
	}
	if event.EventType() != TypePositionLiquidated {
		t.Fatalf("unexpected event type: %s", event.EventType())
	}
	payload := event.Event()
	if payload.Type != TypePositionLiquidated {
		t.Fatalf("unexpected payload type: %s", payload.Type)
	}
	if payload.Attributes["asset"] != "ETH" {
		t.Fatalf("asset not normalised: %q", payload.Attributes["asset"])
	}
	if payload.Attributes["debtCovered"] != "1000" || payload.Attributes["seized"] != "1100" {
		t.Fatalf("unexpected amounts: %+v", payload.Attributes)
	}
	if payload.Attributes["liquidator"] != liquidator.Hex() || payload.Attributes["user"] != user.Hex() {
		t.Fatalf("unexpected parties: %+v", payload.Attributes)
	}
}

func TestNilAmountsFormatAsZero(t *testing.T) {
	event := SyntheticMinted{Amount: nil}
	if got := event.Event().Attributes["amount"]; got != "0" {
		t.Fatalf("nil amount formatted as %q", got)
	}
}
