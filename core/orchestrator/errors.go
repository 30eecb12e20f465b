package orchestrator

import (
	"errors"
	"fmt"
)

// ErrAlreadyActive is returned when the requester already holds an active
// session or a queue entry.
var ErrAlreadyActive = errors.New("orchestrator: requester already charging or queued")

// ValidationError rejects malformed charge parameters before any durable
// write happens.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("orchestrator: invalid request: %s", e.Reason)
}

func validatePercents(start, target float64) error {
	if start < 0 || start > 100 {
		return ValidationError{Reason: fmt.Sprintf("start percent %.1f outside 0-100", start)}
	}
	if target < 0 || target > 100 {
		return ValidationError{Reason: fmt.Sprintf("target percent %.1f outside 0-100", target)}
	}
	if target <= start {
		return ValidationError{Reason: fmt.Sprintf("target %.1f not above start %.1f", target, start)}
	}
	return nil
}
