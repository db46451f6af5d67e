package services

import (
	"errors"
)

// Sentinel errors services return so handlers can map status codes
// without string matching.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrPersonaMissing   = errors.New("learning persona not found")
	ErrEmptyMaterial    = errors.New("material text is empty")
	ErrInsufficientData = errors.New("not enough progress data")
)
