package persist

import "errors"

// Sentinel errors for the SQLite backing store.
var (
	ErrOpen    = errors.New("open database")
	ErrSchema  = errors.New("initialize schema")
	ErrCorrupt = errors.New("stored record is invalid")
)
