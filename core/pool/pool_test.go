package pool

import (
	"testing"

	"github.com/chargeq/chargeq/core/model"
)

func twoChargers() *Pool { return New([]string{"Charger A", "Charger B"}) }

func TestPool_SnapshotAssignsSessions(t *testing.T) {
	p := twoChargers()
	sessions := []model.Session{
		{ID: "s1", SlotID: 2, Status: model.SessionCharging},
		{ID: "s2", SlotID: 1, Status: model.SessionCompleted},
	}
	slots := p.Snapshot(sessions)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots got %d", len(slots))
	}
	if slots[0].Occupied {
		t.Error("slot 1 occupied by completed session")
	}
	if !slots[1].Occupied || slots[1].Session == nil || slots[1].Session.ID != "s1" {
		t.Errorf("slot 2 not holding s1: %#v", slots[1])
	}
}

func TestPool_FirstAvailableLowestIdentity(t *testing.T) {
	p := twoChargers()
	slot, ok := p.FirstAvailable(nil)
	if !ok || slot.ID != 1 {
		t.Fatalf("empty pool: got %v %v", slot.ID, ok)
	}
	slot, ok = p.FirstAvailable([]model.Session{{SlotID: 1, Status: model.SessionCharging}})
	if !ok || slot.ID != 2 {
		t.Fatalf("slot 1 busy: got %v %v", slot.ID, ok)
	}
	_, ok = p.FirstAvailable([]model.Session{
		{SlotID: 1, Status: model.SessionCharging},
		{SlotID: 2, Status: model.SessionCharging},
	})
	if ok {
		t.Fatal("full pool reported a free slot")
	}
}
