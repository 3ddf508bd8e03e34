// Package table maps fixed-width random bit symbols to catalog operations
// and back, and persists the mapping as a binary table file.
//
// The persisted layout is one uint8 header holding the symbol width, then a
// fixed two-byte record per operation: the symbol left-aligned in the first
// byte (unused low bits zero) and the operation's ASCII code in the second.
// The fixed record boundary constrains symbol widths to 1 through 8 bits.
package table

import (
	"crypto/rand"
	"fmt"

	"github.com/xmercerweiss/jigwise/internal/transform"
)

// DefaultSymbolWidth is the symbol width used when none is configured.
const DefaultSymbolWidth = 6

// MaxSymbolWidth is the widest representable symbol given the fixed
// two-byte record layout.
const MaxSymbolWidth = 8

// Table is a bijection between symbols and operations. Mutation happens
// only through full regeneration via Reset.
type Table struct {
	catalog *transform.Catalog
	width   int
	symToOp map[byte]transform.Operation
	opToSym map[byte]byte
}

// New generates a table with fresh collision-free random symbols of the
// given width for every operation in the catalog.
func New(catalog *transform.Catalog, width int) (*Table, error) {
	if width < 1 || width > MaxSymbolWidth {
		return nil, fmt.Errorf("%w: symbol width %d outside [1,%d]", ErrFormat, width, MaxSymbolWidth)
	}

	if catalog.Len() > 1<<width {
		return nil, fmt.Errorf("%w: %d-bit symbols cannot cover %d operations",
			ErrFormat, width, catalog.Len())
	}

	t := &Table{catalog: catalog, width: width}
	if err := t.Reset(); err != nil {
		return nil, err
	}

	return t, nil
}

// Load parses a table file previously produced by Export, resolving each
// operation code against the catalog.
func Load(data []byte, catalog *transform.Catalog) (*Table, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: table file empty", ErrFormat)
	}

	width := int(data[0])
	if width < 1 || width > MaxSymbolWidth {
		return nil, fmt.Errorf("%w: symbol width %d outside [1,%d]", ErrFormat, width, MaxSymbolWidth)
	}

	records := data[1:]
	if len(records)%2 != 0 {
		return nil, fmt.Errorf("%w: truncated table record", ErrFormat)
	}

	symToOp := make(map[byte]transform.Operation, len(records)/2)
	opToSym := make(map[byte]byte, len(records)/2)

	for i := 0; i < len(records); i += 2 {
		symbol := records[i] >> (8 - width)
		code := records[i+1]

		op, ok := catalog.ByCode(code)
		if !ok {
			return nil, fmt.Errorf("%w: unknown operation code %q", ErrFormat, code)
		}

		if _, dup := symToOp[symbol]; dup {
			return nil, fmt.Errorf("%w: duplicate symbol %0*b", ErrFormat, width, symbol)
		}

		if _, dup := opToSym[code]; dup {
			return nil, fmt.Errorf("%w: duplicate operation code %q", ErrFormat, code)
		}

		symToOp[symbol] = op
		opToSym[code] = symbol
	}

	return &Table{
		catalog: catalog,
		width:   width,
		symToOp: symToOp,
		opToSym: opToSym,
	}, nil
}

// Reset regenerates every symbol in place from a secure random source,
// resampling on collision.
func (t *Table) Reset() error {
	symToOp := make(map[byte]transform.Operation, t.catalog.Len())
	opToSym := make(map[byte]byte, t.catalog.Len())

	for _, op := range t.catalog.Operations() {
		for {
			symbol, err := randomSymbol(t.width)
			if err != nil {
				return err
			}

			if _, taken := symToOp[symbol]; taken {
				continue
			}

			symToOp[symbol] = op
			opToSym[op.Code] = symbol

			break
		}
	}

	t.symToOp = symToOp
	t.opToSym = opToSym

	return nil
}

// Operation returns the operation mapped to symbol.
func (t *Table) Operation(symbol byte) (transform.Operation, error) {
	op, ok := t.symToOp[symbol]
	if !ok {
		return transform.Operation{}, fmt.Errorf("%w: symbol %0*b", ErrNotFound, t.width, symbol)
	}

	return op, nil
}

// Symbol returns the symbol mapped to op.
func (t *Table) Symbol(op transform.Operation) (byte, error) {
	symbol, ok := t.opToSym[op.Code]
	if !ok {
		return 0, fmt.Errorf("%w: operation %q", ErrNotFound, op.Code)
	}

	return symbol, nil
}

// Operations returns the mapped operations in the catalog's fixed order.
func (t *Table) Operations() []transform.Operation {
	return t.catalog.Operations()
}

// Width returns the symbol width in bits.
func (t *Table) Width() int {
	return t.width
}

// Len returns the number of mappings.
func (t *Table) Len() int {
	return len(t.symToOp)
}

// Export serializes the table to its file layout.
func (t *Table) Export() []byte {
	out := make([]byte, 0, 1+2*t.catalog.Len())
	out = append(out, byte(t.width))

	for _, op := range t.catalog.Operations() {
		symbol := t.opToSym[op.Code]
		out = append(out, symbol<<(8-t.width), op.Code)
	}

	return out
}

func randomSymbol(width int) (byte, error) {
	var b [1]byte

	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("generating symbol: %w", err)
	}

	return b[0] >> (8 - width), nil
}
