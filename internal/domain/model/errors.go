package model

import "errors"

// Sentinel kinds for model validation.
var (
	ErrInvalidRecord = errors.New("invalid record")
)
