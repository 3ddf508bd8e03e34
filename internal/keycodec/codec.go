// Package keycodec generates random transform instructions and converts
// them to and from their key bit encoding, including the ordinal bits that
// recover key generation order.
//
// A key is a sequence of self-describing records laid out in reverse of
// generation order:
//
//	symbol(width) ++ extra_arg_count(8-width) ++ operand_byte_width(8) ++
//	start ++ stop ++ extras (operand_byte_width*8 bits each)
//
// operand_byte_width covers the largest operand of the record and is reused
// for all of them, so decoding needs no external length field.
package keycodec

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"math/bits"

	"github.com/xmercerweiss/jigwise/internal/packet"
	"github.com/xmercerweiss/jigwise/internal/table"
	"github.com/xmercerweiss/jigwise/pkg/bitio"
)

// Generate draws count random instructions for a bitstream of packetCount
// packets. The operation is uniform over the table's catalog; the packet
// range and extra operands are uniform over [0, packetCount). All draws use
// a cryptographically secure source, since the operands are the secret.
func Generate(count, packetCount int, tbl *table.Table) ([]packet.Instruction, error) {
	if count < 1 {
		return nil, fmt.Errorf("instruction count %d below 1", count)
	}

	if packetCount < 1 {
		return nil, fmt.Errorf("packet count %d below 1", packetCount)
	}

	ops := tbl.Operations()
	out := make([]packet.Instruction, 0, count)

	for range count {
		pick, err := randBelow(uint64(len(ops)))
		if err != nil {
			return nil, err
		}

		op := ops[pick]

		start, err := randBelow(uint64(packetCount))
		if err != nil {
			return nil, err
		}

		stop, err := randBelow(uint64(packetCount))
		if err != nil {
			return nil, err
		}

		if stop < start {
			start, stop = stop, start
		}

		args := make([]uint64, op.Arity)
		for i := range args {
			if args[i], err = randBelow(uint64(packetCount)); err != nil {
				return nil, err
			}
		}

		out = append(out, packet.Instruction{Op: op, Start: start, Stop: stop, Args: args})
	}

	return out, nil
}

// Encode serializes instructions into key bits, in reverse of the given
// order. The result is always a whole number of bytes.
func Encode(instructions []packet.Instruction, tbl *table.Table) ([]byte, error) {
	width := tbl.Width()
	buf := bitio.NewBuffer()

	for i := len(instructions) - 1; i >= 0; i-- {
		in := instructions[i]

		symbol, err := tbl.Symbol(in.Op)
		if err != nil {
			return nil, fmt.Errorf("encoding instruction %d: %w", i, err)
		}

		operands := append([]uint64{in.Start, in.Stop}, in.Args...)

		byteWidth := 1
		for _, v := range operands {
			if w := FewestBytes(v); w > byteWidth {
				byteWidth = w
			}
		}

		buf.AppendUint(uint64(symbol), width)
		buf.AppendUint(uint64(len(in.Args)), 8-width)
		buf.AppendUint(uint64(byteWidth), 8)

		for _, v := range operands {
			buf.AppendUint(v, byteWidth*8)
		}
	}

	return buf.Bytes(), nil
}

// Decode parses key bits back into instructions, consuming exactly the bits
// present. The returned list keeps the stored order, which is the reverse
// of generation order. Any structural mismatch fails the whole decode.
func Decode(key []byte, tbl *table.Table) ([]packet.Instruction, error) {
	width := tbl.Width()
	r := bitio.NewReader(key)

	var out []packet.Instruction

	for r.Remaining() > 0 {
		symbol, err := r.ReadUint(width)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated record symbol", ErrFormat)
		}

		op, err := tbl.Operation(byte(symbol))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}

		extraCount, err := r.ReadUint(8 - width)
		if err != nil {
			return nil, fmt.Errorf("%w: truncated operand count", ErrFormat)
		}

		if int(extraCount) != op.Arity {
			return nil, fmt.Errorf("%w: operation %q carries %d extras, want %d",
				ErrFormat, op.Code, extraCount, op.Arity)
		}

		byteWidth, err := r.ReadUint(8)
		if err != nil || byteWidth == 0 || byteWidth > 8 {
			return nil, fmt.Errorf("%w: bad operand byte width", ErrFormat)
		}

		operands := make([]uint64, 2+extraCount)
		for i := range operands {
			if operands[i], err = r.ReadUint(int(byteWidth) * 8); err != nil {
				return nil, fmt.Errorf("%w: truncated operand", ErrFormat)
			}
		}

		if operands[0] > operands[1] {
			return nil, fmt.Errorf("%w: packet range %d > %d", ErrRange, operands[0], operands[1])
		}

		out = append(out, packet.Instruction{
			Op:    op,
			Start: operands[0],
			Stop:  operands[1],
			Args:  operands[2:],
		})
	}

	return out, nil
}

// FewestBits returns the number of bits needed to represent v, with zero
// occupying one bit.
func FewestBits(v uint64) int {
	if v == 0 {
		return 1
	}

	return bits.Len64(v)
}

// FewestBytes returns the number of whole bytes needed to represent v.
func FewestBytes(v uint64) int {
	return (FewestBits(v) + 7) / 8
}

// randBelow returns a uniform random value in [0, n).
func randBelow(n uint64) (uint64, error) {
	v, err := rand.Int(rand.Reader, new(big.Int).SetUint64(n))
	if err != nil {
		return 0, fmt.Errorf("drawing random value: %w", err)
	}

	return v.Uint64(), nil
}
