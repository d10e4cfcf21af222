// Package service provides the credential store business logic for
// Hermes Gateway.
package service

// The four caller-facing error kinds. Messages are part of the contract
// consumed by the admin API and CLI, so they are fixed strings rather than
// wrapped chains.

// ValidationError indicates the caller's payload is missing a required
// field or carries a property outside the allow-list. Not retriable
// without fixing the input.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// ConflictError indicates a uniqueness violation, e.g. a duplicate
// username. Not retriable without choosing a different value.
type ConflictError struct {
	msg string
}

func (e *ConflictError) Error() string { return e.msg }

// NotFoundError indicates the target application does not exist.
// User lookups return a nil sentinel instead; the asymmetry is part of
// the observed contract.
type NotFoundError struct {
	msg string
}

func (e *NotFoundError) Error() string { return e.msg }

// StoreError indicates the backing store failed. Surfaced unchanged to
// the caller, never swallowed; the atomic store primitives guarantee no
// partial writes were observed.
type StoreError struct {
	err error
}

func (e *StoreError) Error() string { return "store error: " + e.err.Error() }

// Unwrap returns the underlying store failure for errors.Is/errors.As.
func (e *StoreError) Unwrap() error { return e.err }

func requiredFieldError(field string) error {
	return &ValidationError{msg: field + " is required"}
}

func invalidPropertiesError() error {
	return &ValidationError{msg: "one or more properties is invalid"}
}

func usernameExistsError() error {
	return &ConflictError{msg: "username already exists"}
}

func invalidAppError() error {
	return &ValidationError{msg: "invalid app object"}
}

func appNotFoundError() error {
	return &NotFoundError{msg: "app not found"}
}

func storeError(err error) error {
	return &StoreError{err: err}
}
