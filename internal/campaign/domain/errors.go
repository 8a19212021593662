package domain

import "errors"

var (
	// ErrNotFound indicates that a requested record was not found.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEntry indicates a unique constraint violation.
	ErrDuplicateEntry = errors.New("duplicate entry")
	// ErrInvalidTag indicates a tag string that is not "category:value".
	ErrInvalidTag = errors.New("invalid tag")
	// ErrInvalidFilter indicates an unparseable filter expression.
	ErrInvalidFilter = errors.New("invalid filter")
)
