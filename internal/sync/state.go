package sync

import (
	"fmt"
	"slices"
)

// State represents the controller's session state.
type State string

const (
	// Idle means no chat is active.
	Idle State = "IDLE"
	// Transitioning is the brief window while a selection is in flight.
	Transitioning State = "TRANSITIONING"
	// Active means one chat is selected and being polled.
	Active State = "ACTIVE"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Idle:          {Transitioning},
	Transitioning: {Active, Idle},
	Active:        {Transitioning, Idle},
}

// transition moves the controller to a new state. Callers hold c.mu.
func (c *Controller) transitionLocked(to State) error {
	if c.state == to {
		return nil
	}
	if !slices.Contains(validTransitions[c.state], to) {
		return fmt.Errorf("invalid transition from %s to %s", c.state, to)
	}
	c.state = to
	return nil
}
