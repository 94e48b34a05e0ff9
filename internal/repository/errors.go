// Package repository owns all SQL against the reservation schema.  The
// sentinel errors here let handlers map failure modes to HTTP codes
// without inspecting driver errors.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// reservation owned by someone else, or in a state that does not admit
// the operation. Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when requested seats are already held by an
// overlapping journey. Handlers translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")
