package sync

import "errors"

// ErrNoActiveChat is returned by operations that require an active session.
var ErrNoActiveChat = errors.New("no active chat")
