package predict

import "errors"

// Sentinel errors for prediction calls.
var (
	ErrDisabled       = errors.New("prediction service disabled")
	ErrRequest        = errors.New("prediction request failed")
	ErrStatus         = errors.New("prediction service returned an error status")
	ErrInvalidPayload = errors.New("invalid prediction payload")
)
