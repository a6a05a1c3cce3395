// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package voting

import "errors"

// Protocol errors. Callers match them with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotVerified         = errors.New("voter not verified")
	ErrNotFound            = errors.New("voting link not found")
	ErrExpired             = errors.New("voting link expired")
	ErrAlreadyVoted        = errors.New("already voted")
	ErrStorageDegraded     = errors.New("identity proof storage degraded")
	ErrPersistenceConflict = errors.New("persistence conflict")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrUnknown             = errors.New("unknown error")
)

// Error kinds as written to audit details and API responses.
const (
	KindValidation   = "validation_error"
	KindNotVerified  = "not_verified"
	KindNotFound     = "not_found"
	KindExpired      = "expired"
	KindAlreadyVoted = "already_voted"
	KindStorage      = "storage_degraded"
	KindConflict     = "persistence_conflict"
	KindUnknown      = "unknown"
)

// Kind maps err to its taxonomy name. A lost commit race wraps both
// ErrAlreadyVoted and ErrPersistenceConflict and reports as already_voted.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAlreadyVoted):
		return KindAlreadyVoted
	case errors.Is(err, ErrExpired):
		return KindExpired
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotVerified):
		return KindNotVerified
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrStorageDegraded):
		return KindStorage
	case errors.Is(err, ErrPersistenceConflict):
		return KindConflict
	default:
		return KindUnknown
	}
}
