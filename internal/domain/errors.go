// Package domain contains the core business entities for Hermes Gateway.
package domain

import (
	"errors"
)

// Domain errors - these represent data-level violations, distinct from
// the caller-facing error kinds raised by the service layer.
var (
	// ErrCorruptRecord indicates a stored record could not be decoded.
	ErrCorruptRecord = errors.New("corrupt record")
)
