package core

import (
	"errors"
	"fmt"
)

// ErrConfig marks startup configuration errors such as name collisions in
// the registry.
var ErrConfig = errors.New("configuration error")

// UserError is an expected rejection whose message is shown to the sender.
// The dispatcher replies with it and does not log it.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string { return e.Msg }

// Rejectf builds a UserError.
func Rejectf(format string, args ...any) error {
	return &UserError{Msg: fmt.Sprintf(format, args...)}
}

// AsUserError unwraps err to a UserError if it is one.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
