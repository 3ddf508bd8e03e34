// Package bitio provides an MSB-first bit buffer and reader for building and
// parsing the bit-granular file formats used across the repository.
//
// Bits are addressed from the start of the buffer; bit 0 is the most
// significant bit of byte 0. All multi-bit integers are big-endian.
package bitio

import (
	"fmt"
	"io"
)

// Buffer is a growable sequence of bits, MSB-first within each byte.
// Unused trailing bits of the last byte are always zero.
type Buffer struct {
	data []byte
	n    int
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// FromBytes returns a Buffer holding a copy of p, with a bit length of
// len(p)*8.
func FromBytes(p []byte) *Buffer {
	data := make([]byte, len(p))
	copy(data, p)

	return &Buffer{data: data, n: len(p) * 8}
}

// Len returns the length of the buffer in bits.
func (b *Buffer) Len() int {
	return b.n
}

// Bytes returns a copy of the buffer's contents, zero-padded to a whole
// number of bytes.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, (b.n+7)/8)
	copy(out, b.data)

	return out
}

// Clone returns an independent copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	return &Buffer{data: b.Bytes(), n: b.n}
}

// Bit returns bit i as 0 or 1. It panics if i is out of range.
func (b *Buffer) Bit(i int) byte {
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("bitio: bit index %d out of range [0,%d)", i, b.n))
	}

	return (b.data[i/8] >> (7 - i%8)) & 1
}

// SetBit sets bit i to the low bit of bit. It panics if i is out of range.
func (b *Buffer) SetBit(i int, bit byte) {
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("bitio: bit index %d out of range [0,%d)", i, b.n))
	}

	mask := byte(1) << (7 - i%8)

	if bit&1 == 1 {
		b.data[i/8] |= mask
	} else {
		b.data[i/8] &^= mask
	}
}

// AppendBit appends the low bit of bit to the buffer.
func (b *Buffer) AppendBit(bit byte) {
	if b.n%8 == 0 {
		b.data = append(b.data, 0)
	}

	b.n++
	b.SetBit(b.n-1, bit)
}

// AppendUint appends the low bits of v, most significant first.
// It panics if bits is outside [0,64] or v does not fit.
func (b *Buffer) AppendUint(v uint64, bits int) {
	if bits < 0 || bits > 64 {
		panic(fmt.Sprintf("bitio: invalid bit count %d", bits))
	}

	if bits < 64 && v>>bits != 0 {
		panic(fmt.Sprintf("bitio: value %d does not fit in %d bits", v, bits))
	}

	for i := bits - 1; i >= 0; i-- {
		b.AppendBit(byte(v >> i))
	}
}

// AppendBytes appends all bits of p.
func (b *Buffer) AppendBytes(p []byte) {
	if b.n%8 == 0 {
		b.data = append(b.data, p...)
		b.n += len(p) * 8

		return
	}

	for _, c := range p {
		b.AppendUint(uint64(c), 8)
	}
}

// AppendBuffer appends all bits of o.
func (b *Buffer) AppendBuffer(o *Buffer) {
	for i := 0; i < o.n; i++ {
		b.AppendBit(o.Bit(i))
	}
}

// InsertBit inserts the low bit of bit at position i, shifting every
// subsequent bit one place toward the end. i may equal Len(), in which case
// the bit is appended.
func (b *Buffer) InsertBit(i int, bit byte) {
	if i < 0 || i > b.n {
		panic(fmt.Sprintf("bitio: insert index %d out of range [0,%d]", i, b.n))
	}

	b.AppendBit(0)

	for j := b.n - 1; j > i; j-- {
		b.SetBit(j, b.Bit(j-1))
	}

	b.SetBit(i, bit)
}

// RemoveBit removes and returns the bit at position i, shifting every
// subsequent bit one place toward the start.
func (b *Buffer) RemoveBit(i int) byte {
	bit := b.Bit(i)

	for j := i; j < b.n-1; j++ {
		b.SetBit(j, b.Bit(j+1))
	}

	b.SetBit(b.n-1, 0)
	b.n--

	if len(b.data) > (b.n+7)/8 {
		b.data = b.data[:(b.n+7)/8]
	}

	return bit
}

// Reader consumes bits from a byte slice, MSB-first.
type Reader struct {
	data []byte
	n    int
	pos  int
}

// NewReader returns a Reader over all bits of p. The slice is not copied.
func NewReader(p []byte) *Reader {
	return &Reader{data: p, n: len(p) * 8}
}

// NewReaderBits returns a Reader over the first n bits of p.
func NewReaderBits(p []byte, n int) (*Reader, error) {
	if n < 0 || n > len(p)*8 {
		return nil, fmt.Errorf("bitio: bit length %d exceeds %d available", n, len(p)*8)
	}

	return &Reader{data: p, n: n}, nil
}

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int {
	return r.n - r.pos
}

// ReadUint reads bits bits as a big-endian unsigned integer.
// It returns io.ErrUnexpectedEOF if fewer bits remain.
func (r *Reader) ReadUint(bits int) (uint64, error) {
	if bits < 0 || bits > 64 {
		return 0, fmt.Errorf("bitio: invalid bit count %d", bits)
	}

	if r.Remaining() < bits {
		return 0, io.ErrUnexpectedEOF
	}

	var v uint64

	for i := 0; i < bits; i++ {
		v = v<<1 | uint64((r.data[r.pos/8]>>(7-r.pos%8))&1)
		r.pos++
	}

	return v, nil
}

// ReadBytes reads count bytes. It returns io.ErrUnexpectedEOF if fewer than
// count*8 bits remain.
func (r *Reader) ReadBytes(count int) ([]byte, error) {
	if r.Remaining() < count*8 {
		return nil, io.ErrUnexpectedEOF
	}

	if r.pos%8 == 0 {
		out := make([]byte, count)
		copy(out, r.data[r.pos/8:])
		r.pos += count * 8

		return out, nil
	}

	out := make([]byte, count)

	for i := range out {
		v, err := r.ReadUint(8)
		if err != nil {
			return nil, err
		}

		out[i] = byte(v)
	}

	return out, nil
}
