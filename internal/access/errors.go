package access

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the target resource could not be resolved. Guards
// fail closed on it; handlers render it as a denial-shaped response so the
// response cannot be used to probe for resource existence.
var ErrNotFound = errors.New("access: resource not found")

// DeniedError is returned when a permission check fails. It carries the
// action and the minimal rule that was violated for operator-facing
// messaging; it is never downgraded to a partial success and never retried.
type DeniedError struct {
	Action Action
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("access: %s denied: %s", e.Action, e.Reason)
}

// Denied constructs a DeniedError.
func Denied(action Action, reason string) *DeniedError {
	return &DeniedError{Action: action, Reason: reason}
}

// IsDenied reports whether err is an authorization denial.
func IsDenied(err error) bool {
	var de *DeniedError
	return errors.As(err, &de)
}
