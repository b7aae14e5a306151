// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current account is not
// authorized to act on a resource owned by someone else, while
// ErrConflict signals that an operation cannot proceed given the
// current state (e.g. deleting an account that still has
// appointments, or a status transition outside the allowed table).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own or participate in. Handlers should
// translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as deleting an
// account that is still referenced by appointments or cancelling
// an appointment from a status that does not permit it. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrUsernameExists, ErrEmailExists and ErrCnpjExists report which
// unique column collided during account creation or update.
var (
	ErrUsernameExists = errors.New("username already exists")
	ErrEmailExists    = errors.New("email already exists")
	ErrCnpjExists     = errors.New("cnpj already exists")
)
