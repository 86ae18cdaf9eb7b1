// Package common defines sentinel errors shared by the store, directory,
// ledger and workflow layers. Callers should use errors.Is to match them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrDuplicate  = errors.New("already exists")

	// ErrStoreUnavailable wraps every failure of the persistent row store.
	// It is fatal for the current turn and never retried.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Workflow-level errors. These never leave the state machine.
	ErrValidation    = errors.New("validation error")
	ErrNotRegistered = errors.New("not registered")
	ErrNotApproved   = errors.New("not approved")
	ErrForbidden     = errors.New("forbidden")
)
