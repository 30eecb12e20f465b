// Package notify defines the outbound notification contract. Delivery is
// fire-and-forget: the orchestrator never waits on it and failures never
// unwind an operation.
package notify

import (
	"time"

	"github.com/chargeq/chargeq/core/model"
)

// QueueLeaveReason distinguishes a voluntary exit from a promotion.
type QueueLeaveReason string

const (
	ReasonLeft           QueueLeaveReason = "left"
	ReasonMovedToCharger QueueLeaveReason = "moved_to_charger"
)

// ChargerJoin reports a requester starting to charge on a slot.
type ChargerJoin struct {
	Requester      model.Requester
	SlotID         int
	SlotName       string
	StartPercent   float64
	TargetPercent  float64
	EstimatedEndAt time.Time
	Promoted       bool // true when admission came from the queue head
	At             time.Time
}

// ChargerLeave reports a session ending.
type ChargerLeave struct {
	Requester     model.Requester
	SlotID        int
	SlotName      string
	FinalPercent  float64
	TargetPercent float64
	ReachedTarget bool
	At            time.Time
}

// QueueJoin reports a requester entering the waiting list.
type QueueJoin struct {
	Requester     model.Requester
	Position      int
	StartPercent  float64
	TargetPercent float64
	At            time.Time
}

// QueueLeave reports a requester leaving the waiting list.
type QueueLeave struct {
	Requester model.Requester
	Position  int
	Reason    QueueLeaveReason
	At        time.Time
}

// QueueEmpty reports that the waiting list drained.
type QueueEmpty struct {
	At time.Time
}
