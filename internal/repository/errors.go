package repository

import "errors"

var (
	// ErrNotFound - the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrCorruptRecord - the record exists but its payload cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt record")
	// ErrAuthorMismatch - the record is owned by a different author.
	ErrAuthorMismatch = errors.New("author mismatch")
)
