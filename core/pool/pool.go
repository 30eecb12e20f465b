// Package pool represents the fixed set of charger slots. The pool owns no
// writable state: occupancy is a view derived from the active sessions.
package pool

import (
	"sort"

	"github.com/chargeq/chargeq/core/model"
)

// Pool holds the static slot identities provisioned at startup.
type Pool struct {
	slots []model.Slot
}

// New creates a pool with one slot per name, identified 1..len(names) in
// order.
func New(names []string) *Pool {
	slots := make([]model.Slot, 0, len(names))
	for i, n := range names {
		slots = append(slots, model.Slot{ID: i + 1, Name: n})
	}
	return &Pool{slots: slots}
}

// Size returns the number of slots.
func (p *Pool) Size() int { return len(p.slots) }

// Snapshot assembles the occupancy view from the given active sessions.
func (p *Pool) Snapshot(sessions []model.Session) []model.Slot {
	out := make([]model.Slot, len(p.slots))
	copy(out, p.slots)
	for i := range sessions {
		s := sessions[i]
		if !s.Active() {
			continue
		}
		for j := range out {
			if out[j].ID == s.SlotID {
				out[j].Occupied = true
				out[j].Session = &s
			}
		}
	}
	return out
}

// FirstAvailable returns the free slot with the lowest identity, if any.
func (p *Pool) FirstAvailable(sessions []model.Session) (model.Slot, bool) {
	occupied := make(map[int]bool, len(sessions))
	for _, s := range sessions {
		if s.Active() {
			occupied[s.SlotID] = true
		}
	}
	free := make([]model.Slot, 0, len(p.slots))
	for _, sl := range p.slots {
		if !occupied[sl.ID] {
			free = append(free, sl)
		}
	}
	if len(free) == 0 {
		return model.Slot{}, false
	}
	sort.Slice(free, func(i, j int) bool { return free[i].ID < free[j].ID })
	return free[0], true
}
