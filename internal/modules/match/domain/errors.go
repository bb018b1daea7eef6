package domain

import "errors"

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrInvalidParticipant     = errors.New("user is not a participant of the match")
	ErrInvalidStateTransition = errors.New("operation is not valid in the current match status")
	ErrAlreadyInMatch         = errors.New("user is already in a live match")
	ErrSelfMatch              = errors.New("a match requires two distinct players")
)
