package schedule

import "errors"

var (
	ErrNoUser = errors.New("no user signed in")
	// ErrTransientIO wraps every failure of the remote collaborator, timeouts included.
	// Callers may retry.
	ErrTransientIO   = errors.New("schedule storage unavailable")
	ErrReadOnly      = errors.New("schedule is read-only while viewing a friend")
	ErrInvalidFriend = errors.New("friend id is required")
)
