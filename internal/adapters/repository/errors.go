package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrDuplicateID       = errors.New("duplicate id")
	ErrNotFound          = errors.New("record not found")
	ErrUnknownUser       = errors.New("unknown user")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPersist           = errors.New("persist failed")
	ErrClosed            = errors.New("store closed")
)
