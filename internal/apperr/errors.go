package apperr

import "fmt"

// ValidationError reports malformed or over-length input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports an unknown room, user, code or invitation.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// ConflictError reports a state conflict, e.g. joining a room the user is
// already a member of, or inviting someone who already has a pending invite.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// AuthorizationError reports an operation attempted by a user who is not
// allowed to perform it, e.g. a non-member sending to a room.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

func Authorization(format string, args ...interface{}) error {
	return &AuthorizationError{Msg: fmt.Sprintf(format, args...)}
}
