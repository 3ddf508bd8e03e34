package cipher

import (
	"fmt"
	"math"

	"github.com/xmercerweiss/jigwise/internal/keycodec"
	"github.com/xmercerweiss/jigwise/pkg/bitio"
)

// Config carries the minimal parameters needed to reverse a transform.
// It persists as four self-describing values, each a uint8 byte width
// followed by that many bytes of big-endian value.
type Config struct {
	PacketSize       int
	Subdivisions     int
	OrdinalIncrement int
	OrdinalBits      int
}

// MarshalBinary serializes the config to its file layout.
func (c Config) MarshalBinary() ([]byte, error) {
	buf := bitio.NewBuffer()

	for _, v := range []int{c.PacketSize, c.Subdivisions, c.OrdinalIncrement, c.OrdinalBits} {
		if v < 0 {
			return nil, fmt.Errorf("%w: negative config value %d", ErrFormat, v)
		}

		width := keycodec.FewestBytes(uint64(v))
		buf.AppendUint(uint64(width), 8)
		buf.AppendUint(uint64(v), width*8)
	}

	return buf.Bytes(), nil
}

// ParseConfig reads a config file, consuming exactly the bytes present.
func ParseConfig(data []byte) (Config, error) {
	r := bitio.NewReader(data)

	values := make([]int, 4)

	for i := range values {
		width, err := r.ReadUint(8)
		if err != nil || width == 0 || width > 8 {
			return Config{}, fmt.Errorf("%w: bad config value width", ErrFormat)
		}

		v, err := r.ReadUint(int(width) * 8)
		if err != nil {
			return Config{}, fmt.Errorf("%w: truncated config value", ErrFormat)
		}

		if v > math.MaxInt {
			return Config{}, fmt.Errorf("%w: config value %d overflows", ErrFormat, v)
		}

		values[i] = int(v)
	}

	if r.Remaining() != 0 {
		return Config{}, fmt.Errorf("%w: %d trailing config bits", ErrFormat, r.Remaining())
	}

	return Config{
		PacketSize:       values[0],
		Subdivisions:     values[1],
		OrdinalIncrement: values[2],
		OrdinalBits:      values[3],
	}, nil
}
