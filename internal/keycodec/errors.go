package keycodec

import "errors"

var (
	// ErrFormat is returned when key bits do not match the record layout.
	ErrFormat = errors.New("malformed key")
	// ErrRange is returned when a decoded packet range is inverted. Untrusted
	// input failing this check is as fatal as any other format mismatch.
	ErrRange = errors.New("instruction range out of order")
)
