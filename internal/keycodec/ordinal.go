package keycodec

import (
	"fmt"

	"github.com/xmercerweiss/jigwise/pkg/bitio"
)

// Keys are stored under randomized filenames, so each one carries its
// generation index interleaved through its bits: bit i of the index lands at
// position i*increment, shifting subsequent bits right. The increment is
// shared across all keys of one encrypt call and recorded in the config.

// OrdinalBitCount returns the number of ordinal bits used for keyCount keys:
// the fewest whole bytes that can hold keyCount, in bits.
func OrdinalBitCount(keyCount int) int {
	return FewestBytes(uint64(keyCount)) * 8
}

// OrdinalIncrement draws the shared spacing between ordinal bits for keys
// whose shortest member is minKeyBits long.
func OrdinalIncrement(minKeyBits, bitCount int) (int, error) {
	if minKeyBits < 1 {
		return 0, fmt.Errorf("minimum key length %d below 1 bit", minKeyBits)
	}

	draw, err := randBelow(uint64(minKeyBits))
	if err != nil {
		return 0, err
	}

	spread := bitCount * int(draw+1)

	return (minKeyBits + spread - 1) / spread, nil
}

// InsertOrdinal returns key with the index's ordinal bits interleaved,
// most significant first.
func InsertOrdinal(key []byte, index, increment, bitCount int) []byte {
	buf := bitio.FromBytes(key)

	for i := 0; i < bitCount; i++ {
		bit := byte(index>>(bitCount-1-i)) & 1
		buf.InsertBit(i*increment, bit)
	}

	return buf.Bytes()
}

// StripOrdinal removes the ordinal bits from a tagged key, returning the
// recovered generation index and the raw key bits.
func StripOrdinal(tagged []byte, increment, bitCount int) (int, []byte, error) {
	buf := bitio.FromBytes(tagged)

	if bitCount < 1 || buf.Len() < bitCount {
		return 0, nil, fmt.Errorf("%w: key shorter than its ordinal tag", ErrFormat)
	}

	if increment < 1 {
		return 0, nil, fmt.Errorf("%w: ordinal increment %d below 1", ErrFormat, increment)
	}

	if (bitCount-1)*increment >= buf.Len() {
		return 0, nil, fmt.Errorf("%w: ordinal bit beyond key end", ErrFormat)
	}

	index := 0

	for i := bitCount - 1; i >= 0; i-- {
		bit := buf.RemoveBit(i * increment)
		index |= int(bit) << (bitCount - 1 - i)
	}

	return index, buf.Bytes(), nil
}
