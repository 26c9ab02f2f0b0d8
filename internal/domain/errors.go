package domain

import "errors"

var (
	// ErrNotFound indicates the record does not exist for the given seller.
	ErrNotFound = errors.New("user not found")
	// ErrConflict indicates a (seller_id, email) uniqueness violation.
	ErrConflict = errors.New("user with this email already exists for this seller")
	// ErrNoFieldsProvided is returned when an update carries no fields.
	ErrNoFieldsProvided = errors.New("no fields provided for update")
	// ErrStorageUnavailable indicates the database connection is not initialized.
	ErrStorageUnavailable = errors.New("storage not initialized")
)
