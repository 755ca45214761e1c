package sync

import "testing"

func TestValidTransitions(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{Idle, Transitioning, true},
		{Transitioning, Active, true},
		{Transitioning, Idle, true},
		{Active, Transitioning, true},
		{Active, Idle, true},
		{Idle, Active, false},
		{Idle, Idle, true},     // same-state is a no-op
		{Active, Active, true}, // same-state is a no-op
	}
	for _, tt := range tests {
		c := &Controller{state: tt.from}
		err := c.transitionLocked(tt.to)
		if (err == nil) != tt.ok {
			t.Errorf("transition %s -> %s: err = %v, want ok=%v", tt.from, tt.to, err, tt.ok)
		}
		if tt.ok && c.state != tt.to {
			t.Errorf("transition %s -> %s left state %s", tt.from, tt.to, c.state)
		}
	}
}
