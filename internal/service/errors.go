package service

import "errors"

// ErrInvalidInput marks caller mistakes that surface as 400 responses.
// Wrap it with context: fmt.Errorf("%w: amount must be positive", ErrInvalidInput).
var ErrInvalidInput = errors.New("invalid input")
