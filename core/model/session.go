package model

import "time"

// SessionStatus is the lifecycle state of a charging session.
type SessionStatus string

const (
	SessionCharging  SessionStatus = "charging"
	SessionCompleted SessionStatus = "completed"
)

// Session represents one requester occupying one charger slot.
type Session struct {
	ID            string
	Requester     Requester
	SlotID        int
	StartPercent  float64
	TargetPercent float64
	StartedAt     time.Time
	// EstimatedEndAt is informational only. Readers recompute progress from
	// the charging curve instead of trusting this value.
	EstimatedEndAt time.Time
	Status         SessionStatus
}

// Active reports whether the session still occupies its slot.
func (s Session) Active() bool { return s.Status == SessionCharging }

// Requester identifies the person asking for a charge, with the display
// attributes carried into notifications.
type Requester struct {
	ID           string
	DisplayName  string
	VehicleModel string
	VehicleYear  int
	VehicleTrim  string
}
