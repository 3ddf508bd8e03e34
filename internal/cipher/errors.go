package cipher

import "errors"

var (
	// ErrParams is returned when encrypt parameters are out of range.
	ErrParams = errors.New("invalid parameters")
	// ErrFormat is returned when an artifact set is inconsistent or a file
	// does not match its layout.
	ErrFormat = errors.New("malformed artifacts")
)
