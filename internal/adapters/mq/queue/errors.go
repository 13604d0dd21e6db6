package queue

import "errors"

// ErrClosed is returned by Push once the queue has been closed.
var ErrClosed = errors.New("change queue closed")

// ErrFull is returned by Push when the queue is at capacity.
var ErrFull = errors.New("change queue full")
