package packet

import "errors"

// ErrBadPartition is returned when partition parameters are out of range.
var ErrBadPartition = errors.New("invalid partition parameters")
