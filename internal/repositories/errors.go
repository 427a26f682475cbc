package repositories

import "errors"

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint would be violated
	ErrDuplicate = errors.New("record already exists")
)
