package model

import (
	"sync"
	"time"
)

// Flash holds a transient status-bar message.
type Flash struct {
	mu      sync.RWMutex
	message string
	isError bool
	expires time.Time
}

// Set stores a flash message that expires after the given duration.
func (f *Flash) Set(msg string, d time.Duration) {
	f.set(msg, d, false)
}

// SetError stores an error flash message.
func (f *Flash) SetError(msg string, d time.Duration) {
	f.set(msg, d, true)
}

func (f *Flash) set(msg string, d time.Duration, isErr bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message = msg
	f.isError = isErr
	f.expires = time.Now().Add(d)
}

// Get returns the current message and whether it is an error, or empty if
// expired.
func (f *Flash) Get() (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if time.Now().After(f.expires) {
		return "", false
	}
	return f.message, f.isError
}
