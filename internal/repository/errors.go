package repository

import "github.com/pkg/errors"

var (
	// ErrAccountNotFound is returned when no live account has the requested id.
	ErrAccountNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned when a write would give two live accounts the same email.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrDuplicateID is returned when an insert races another insert for the same id.
	ErrDuplicateID = errors.New("account id already exists")
)
