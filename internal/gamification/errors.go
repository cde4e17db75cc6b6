package gamification

import "errors"

// ErrInvalidInput is returned when an award fails validation. The ledger
// is not touched.
var ErrInvalidInput = errors.New("invalid input")
