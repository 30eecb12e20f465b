package model

// Slot is one physical charging position in the fixed pool. Slots are
// provisioned at startup and never created or destroyed at runtime;
// occupancy is derived from the active sessions.
type Slot struct {
	ID       int
	Name     string
	Occupied bool
	Session  *Session
}

// VehicleProfile is read-only reference data consumed by the charging-rate
// model. A missing profile degrades estimation to the fallback curve.
type VehicleProfile struct {
	Model       string
	Trim        string
	YearStart   int
	YearEnd     int
	BatteryKWh  float64
	ChargeTimeH string // documented 0-80% wall-clock time, informational
}
