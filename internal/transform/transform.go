// Package transform defines the catalog of reversible bit-level operations
// applied to packets. Every operation treats its packet as a big-endian bit
// string and satisfies inverse(forward(p)) == p for all packet contents.
package transform

import (
	"fmt"
	"math/bits"
)

// Codes identifying each catalog operation in symbol tables and key files.
const (
	CodeReverse     = 'v'
	CodeInvert      = 'x'
	CodeAdd         = 'a'
	CodeSub         = 's'
	CodeRotateLeft  = 'l'
	CodeRotateRight = 'r'
)

// Operation is one immutable catalog entry.
type Operation struct {
	// Code is the single ASCII character identifying the operation.
	Code byte

	// Arity is the number of extra integer operands beyond the packet range.
	Arity int

	apply func(p []byte, args []uint64, opposite bool)
}

// Apply runs the operation over packet p in place. With opposite set, the
// operation's inverse is run instead. args must carry exactly Arity values.
func (op Operation) Apply(p []byte, args []uint64, opposite bool) error {
	if len(args) != op.Arity {
		return fmt.Errorf("operation %q: got %d operands, want %d", op.Code, len(args), op.Arity)
	}

	if len(p) == 0 {
		return nil
	}

	op.apply(p, args, opposite)

	return nil
}

// Catalog is a fixed, ordered set of operations.
type Catalog struct {
	ops    []Operation
	byCode map[byte]Operation
}

// Default returns the standard six-operation catalog.
func Default() *Catalog {
	ops := []Operation{
		{Code: CodeReverse, Arity: 0, apply: applyReverse},
		{Code: CodeInvert, Arity: 0, apply: applyInvert},
		{Code: CodeAdd, Arity: 1, apply: applyAdd},
		{Code: CodeSub, Arity: 1, apply: applySub},
		{Code: CodeRotateLeft, Arity: 1, apply: applyRotateLeft},
		{Code: CodeRotateRight, Arity: 1, apply: applyRotateRight},
	}

	byCode := make(map[byte]Operation, len(ops))
	for _, op := range ops {
		byCode[op.Code] = op
	}

	return &Catalog{ops: ops, byCode: byCode}
}

// Operations returns the catalog entries in their fixed order.
func (c *Catalog) Operations() []Operation {
	out := make([]Operation, len(c.ops))
	copy(out, c.ops)

	return out
}

// ByCode returns the operation identified by code.
func (c *Catalog) ByCode(code byte) (Operation, bool) {
	op, ok := c.byCode[code]

	return op, ok
}

// Len returns the number of operations in the catalog.
func (c *Catalog) Len() int {
	return len(c.ops)
}

func applyReverse(p []byte, _ []uint64, _ bool) {
	Reverse(p)
}

func applyInvert(p []byte, _ []uint64, _ bool) {
	Invert(p)
}

func applyAdd(p []byte, args []uint64, opposite bool) {
	if opposite {
		SubUint(p, args[0])
	} else {
		AddUint(p, args[0])
	}
}

func applySub(p []byte, args []uint64, opposite bool) {
	if opposite {
		AddUint(p, args[0])
	} else {
		SubUint(p, args[0])
	}
}

func applyRotateLeft(p []byte, args []uint64, opposite bool) {
	if opposite {
		RotateRight(p, args[0])
	} else {
		RotateLeft(p, args[0])
	}
}

func applyRotateRight(p []byte, args []uint64, opposite bool) {
	if opposite {
		RotateLeft(p, args[0])
	} else {
		RotateRight(p, args[0])
	}
}

// Reverse reverses the bit order of p in place.
func Reverse(p []byte) {
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = bits.Reverse8(p[j]), bits.Reverse8(p[i])
	}

	if len(p)%2 == 1 {
		mid := len(p) / 2
		p[mid] = bits.Reverse8(p[mid])
	}
}

// Invert flips every bit of p in place.
func Invert(p []byte) {
	for i := range p {
		p[i] = ^p[i]
	}
}

// RotateLeft circularly shifts the bits of p left by k places.
func RotateLeft(p []byte, k uint64) {
	width := uint64(len(p)) * 8
	if width == 0 {
		return
	}

	shift := int(k % width)
	if shift == 0 {
		return
	}

	src := make([]byte, len(p))
	copy(src, p)

	byteShift, bitShift := shift/8, shift%8

	for i := range p {
		j := (i + byteShift) % len(p)
		v := src[j] << bitShift

		if bitShift > 0 {
			v |= src[(j+1)%len(p)] >> (8 - bitShift)
		}

		p[i] = v
	}
}

// RotateRight circularly shifts the bits of p right by k places.
func RotateRight(p []byte, k uint64) {
	width := uint64(len(p)) * 8
	if width == 0 {
		return
	}

	shift := k % width
	if shift == 0 {
		return
	}

	RotateLeft(p, width-shift)
}

// AddUint adds k to p interpreted as a big-endian unsigned integer,
// wrapping modulo 2^(len(p)*8).
func AddUint(p []byte, k uint64) {
	carry := k

	for i := len(p) - 1; i >= 0 && carry > 0; i-- {
		sum := uint64(p[i]) + (carry & 0xFF)
		p[i] = byte(sum)
		carry = carry>>8 + sum>>8
	}
}

// SubUint subtracts k from p interpreted as a big-endian unsigned integer,
// wrapping modulo 2^(len(p)*8).
func SubUint(p []byte, k uint64) {
	borrow := k

	for i := len(p) - 1; i >= 0 && borrow > 0; i-- {
		v := uint64(p[i])
		d := borrow & 0xFF
		borrow >>= 8

		if v >= d {
			p[i] = byte(v - d)
		} else {
			p[i] = byte(v + 0x100 - d)
			borrow++
		}
	}
}
