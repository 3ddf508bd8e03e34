package packer

import "errors"

// ErrFormat is returned when a container bitstream does not match the
// record layout.
var ErrFormat = errors.New("malformed container")
