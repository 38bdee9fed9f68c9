// Package services defines the business logic for contact distribution and
// the CRUD rules around operators, sources, leads, and contacts. This file
// centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import "errors"

var (
	// ErrSourceNotFound indicates that the requested source code or id does
	// not correspond to any configured source. This is a caller input error,
	// not a system fault.
	ErrSourceNotFound = errors.New("source not found")

	// ErrOperatorNotFound indicates that the requested operator does not
	// exist (including operator ids referenced by a weight configuration).
	ErrOperatorNotFound = errors.New("operator not found")

	// ErrLeadNotFound indicates that the requested lead does not exist.
	ErrLeadNotFound = errors.New("lead not found")

	// ErrContactNotFound indicates that the requested contact does not exist.
	ErrContactNotFound = errors.New("contact not found")

	// ErrEmptyExternalID is returned when a contact registration carries a
	// blank lead external id.
	ErrEmptyExternalID = errors.New("external_id is empty")

	// ErrInvalidWeight is returned when a weight configuration entry carries
	// a non-positive weight.
	ErrInvalidWeight = errors.New("weight must be >= 1")

	// ErrInvalidMaxLoad is returned when an operator create/update carries a
	// non-positive max_load.
	ErrInvalidMaxLoad = errors.New("max_load must be >= 1")

	// ErrDuplicateSourceCode is returned when creating a source whose code
	// is already taken.
	ErrDuplicateSourceCode = errors.New("source code already exists")

	// ErrContactNotActive is returned when a completion event targets a
	// contact that is not in the active status. Completed is terminal; no
	// other transition exists.
	ErrContactNotActive = errors.New("contact is not active")
)
