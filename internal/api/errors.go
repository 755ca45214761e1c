package api

import (
	"errors"
	"fmt"
)

// RejectedError is a non-2xx response carrying a server-provided message.
// User-initiated operations surface it; background polling only logs it.
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server rejected request (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server rejected request (%d)", e.StatusCode)
}

// IsRejected reports whether err is a server rejection, as opposed to a
// transient transport failure.
func IsRejected(err error) bool {
	var re *RejectedError
	return errors.As(err, &re)
}
