package table

import "errors"

var (
	// ErrFormat is returned when a table file does not match the expected
	// layout or references an unknown operation.
	ErrFormat = errors.New("malformed table")
	// ErrNotFound is returned when a lookup has no mapping.
	ErrNotFound = errors.New("no mapping")
)
