package keycodec_test

import (
	"errors"
	"testing"

	"github.com/xmercerweiss/jigwise/internal/keycodec"
	"github.com/xmercerweiss/jigwise/internal/packet"
	"github.com/xmercerweiss/jigwise/internal/table"
	"github.com/xmercerweiss/jigwise/internal/transform"
)

func newTable(t *testing.T, width int) *table.Table {
	t.Helper()

	tbl, err := table.New(transform.Default(), width)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}

	return tbl
}

func TestGenerateBounds(t *testing.T) {
	t.Parallel()

	tbl := newTable(t, table.DefaultSymbolWidth)

	const packetCount = 37

	instrs, err := keycodec.Generate(100, packetCount, tbl)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(instrs) != 100 {
		t.Fatalf("got %d instructions, want 100", len(instrs))
	}

	for i, in := range instrs {
		if in.Start > in.Stop {
			t.Errorf("instruction %d: start %d > stop %d", i, in.Start, in.Stop)
		}

		if in.Stop >= packetCount {
			t.Errorf("instruction %d: stop %d outside [0,%d)", i, in.Stop, packetCount)
		}

		if len(in.Args) != in.Op.Arity {
			t.Errorf("instruction %d: %d args for arity %d", i, len(in.Args), in.Op.Arity)
		}

		for _, a := range in.Args {
			if a >= packetCount {
				t.Errorf("instruction %d: operand %d outside [0,%d)", i, a, packetCount)
			}
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, width := range []int{3, 6, 7} {
		tbl := newTable(t, width)

		for _, packetCount := range []int{1, 9, 300, 70000} {
			instrs, err := keycodec.Generate(16, packetCount, tbl)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}

			key, err := keycodec.Encode(instrs, tbl)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}

			decoded, err := keycodec.Decode(key, tbl)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}

			if len(decoded) != len(instrs) {
				t.Fatalf("decoded %d instructions, want %d", len(decoded), len(instrs))
			}

			// Records are stored in reverse of generation order.
			for i, in := range instrs {
				got := decoded[len(decoded)-1-i]

				if got.Op.Code != in.Op.Code || got.Start != in.Start || got.Stop != in.Stop {
					t.Fatalf("width %d count %d instruction %d: got %+v, want %+v",
						width, packetCount, i, got, in)
				}

				for j := range in.Args {
					if got.Args[j] != in.Args[j] {
						t.Fatalf("instruction %d operand %d: got %d, want %d",
							i, j, got.Args[j], in.Args[j])
					}
				}
			}
		}
	}
}

func TestEncodeKnownLayout(t *testing.T) {
	t.Parallel()

	tbl := newTable(t, 6)

	catalog := transform.Default()

	add, ok := catalog.ByCode(transform.CodeAdd)
	if !ok {
		t.Fatal("add missing from catalog")
	}

	in := packet.Instruction{Op: add, Start: 2, Stop: 300, Args: []uint64{5}}

	key, err := keycodec.Encode([]packet.Instruction{in}, tbl)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	// symbol(6) + extras(2) + byte_width(8) + 3 operands * 16 bits = 64 bits.
	if len(key) != 8 {
		t.Fatalf("key length %d bytes, want 8", len(key))
	}

	symbol, err := tbl.Symbol(add)
	if err != nil {
		t.Fatalf("Symbol: %v", err)
	}

	if key[0]>>2 != symbol {
		t.Errorf("symbol bits %06b, want %06b", key[0]>>2, symbol)
	}

	if key[0]&0b11 != 1 {
		t.Errorf("extra arg count %d, want 1", key[0]&0b11)
	}

	if key[1] != 2 {
		t.Errorf("operand byte width %d, want 2 (stop=300 needs two bytes)", key[1])
	}

	wantOperands := []byte{0, 2, 1, 44, 0, 5} // 2, 300, 5 big-endian 16-bit
	for i, want := range wantOperands {
		if key[2+i] != want {
			t.Errorf("operand byte %d: got %d, want %d", i, key[2+i], want)
		}
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	t.Parallel()

	tbl := newTable(t, 6)

	catalog := transform.Default()

	invert, ok := catalog.ByCode(transform.CodeInvert)
	if !ok {
		t.Fatal("invert missing from catalog")
	}

	good, err := keycodec.Encode([]packet.Instruction{{Op: invert, Start: 1, Stop: 4}}, tbl)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	t.Run("truncated", func(t *testing.T) {
		t.Parallel()

		if _, err := keycodec.Decode(good[:len(good)-1], tbl); !errors.Is(err, keycodec.ErrFormat) {
			t.Errorf("error = %v, want ErrFormat", err)
		}
	})

	t.Run("unknown_symbol", func(t *testing.T) {
		t.Parallel()

		// Find a symbol value with no mapping and splice it in.
		var unmapped byte

		found := false

		for s := byte(0); s < 1<<6; s++ {
			if _, err := tbl.Operation(s); err != nil {
				unmapped, found = s, true

				break
			}
		}

		if !found {
			t.Skip("every 6-bit symbol mapped; cannot construct unknown symbol")
		}

		bad := append([]byte(nil), good...)
		bad[0] = unmapped<<2 | bad[0]&0b11

		if _, err := keycodec.Decode(bad, tbl); !errors.Is(err, keycodec.ErrFormat) {
			t.Errorf("error = %v, want ErrFormat", err)
		}
	})

	t.Run("zero_byte_width", func(t *testing.T) {
		t.Parallel()

		bad := append([]byte(nil), good...)
		bad[1] = 0

		if _, err := keycodec.Decode(bad, tbl); !errors.Is(err, keycodec.ErrFormat) {
			t.Errorf("error = %v, want ErrFormat", err)
		}
	})
}

func TestDecodeRejectsInvertedRange(t *testing.T) {
	t.Parallel()

	tbl := newTable(t, 6)

	catalog := transform.Default()

	invert, ok := catalog.ByCode(transform.CodeInvert)
	if !ok {
		t.Fatal("invert missing from catalog")
	}

	symbol, err := tbl.Symbol(invert)
	if err != nil {
		t.Fatalf("Symbol: %v", err)
	}

	// Hand-built record with start=4, stop=1.
	key := []byte{symbol<<2 | 0, 1, 4, 1}

	if _, err := keycodec.Decode(key, tbl); !errors.Is(err, keycodec.ErrRange) {
		t.Errorf("error = %v, want ErrRange", err)
	}
}

func TestFewestSizes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		v     uint64
		bits  int
		bytes int
	}{
		{0, 1, 1},
		{1, 1, 1},
		{2, 2, 1},
		{255, 8, 1},
		{256, 9, 2},
		{65535, 16, 2},
		{65536, 17, 3},
	}

	for _, tc := range cases {
		if got := keycodec.FewestBits(tc.v); got != tc.bits {
			t.Errorf("FewestBits(%d) = %d, want %d", tc.v, got, tc.bits)
		}

		if got := keycodec.FewestBytes(tc.v); got != tc.bytes {
			t.Errorf("FewestBytes(%d) = %d, want %d", tc.v, got, tc.bytes)
		}
	}
}
