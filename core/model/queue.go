package model

import "time"

// QueueEntry is a waiting-list record for a requester with no assigned slot.
// Positions are dense and 1-based: across all current entries they form the
// exact sequence 1..N.
type QueueEntry struct {
	ID            string
	Requester     Requester
	StartPercent  float64
	TargetPercent float64
	Position      int
	CreatedAt     time.Time
}
