// Package cipher orchestrates the full encrypt and decrypt pipelines,
// tying the packager, packet engine, symbol table, and key codec together
// and producing the four artifact categories: encrypted content, key files,
// table file, and config file.
package cipher

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"github.com/xmercerweiss/jigwise/internal/keycodec"
	"github.com/xmercerweiss/jigwise/internal/packer"
	"github.com/xmercerweiss/jigwise/internal/packet"
	"github.com/xmercerweiss/jigwise/internal/table"
	"github.com/xmercerweiss/jigwise/internal/transform"
)

// DefaultPacketSize is the packet size in bytes used when none is configured.
const DefaultPacketSize = 256

// Options configures an Encryptor. Zero fields take defaults.
type Options struct {
	// PacketSize is the packet size in bytes.
	PacketSize int

	// Subdivisions is the number of parallel workers content is split
	// across. Defaults to the number of CPUs.
	Subdivisions int

	// SymbolWidth is the table symbol width in bits.
	SymbolWidth int

	// PrunedPrefixes overrides the path prefixes stripped from packed
	// file names.
	PrunedPrefixes []string

	// Logger receives progress events. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Encryptor runs the scheme end to end. It owns no cross-call state beyond
// its parameters; the symbol table is regenerated per encrypt call.
type Encryptor struct {
	catalog      *transform.Catalog
	tbl          *table.Table
	files        *packer.Packer
	packetSize   int
	subdivisions int
	log          *slog.Logger
}

// New builds an Encryptor over the given catalog.
func New(catalog *transform.Catalog, opts Options) (*Encryptor, error) {
	if opts.PacketSize == 0 {
		opts.PacketSize = DefaultPacketSize
	}

	if opts.Subdivisions == 0 {
		opts.Subdivisions = runtime.NumCPU()
	}

	if opts.SymbolWidth == 0 {
		opts.SymbolWidth = table.DefaultSymbolWidth
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if opts.PacketSize < 1 {
		return nil, fmt.Errorf("%w: packet size %d", ErrParams, opts.PacketSize)
	}

	if opts.Subdivisions < 1 {
		return nil, fmt.Errorf("%w: subdivision count %d", ErrParams, opts.Subdivisions)
	}

	tbl, err := table.New(catalog, opts.SymbolWidth)
	if err != nil {
		return nil, err
	}

	// Each key record stores an operation's extra-operand count in the
	// 8-width bits after its symbol, so every arity must fit there.
	for _, op := range catalog.Operations() {
		if op.Arity >= 1<<(8-opts.SymbolWidth) {
			return nil, fmt.Errorf("%w: symbol width %d leaves no room for arity %d",
				ErrParams, opts.SymbolWidth, op.Arity)
		}
	}

	return &Encryptor{
		catalog:      catalog,
		tbl:          tbl,
		files:        packer.New(opts.PrunedPrefixes...),
		packetSize:   opts.PacketSize,
		subdivisions: opts.Subdivisions,
		log:          opts.Logger,
	}, nil
}

// Encrypt packs the sources and transforms them under keyCount freshly
// generated keys of keyLength instructions each, returning the complete
// artifact set without persisting anything. Sources are deleted only after
// packing succeeds, and only when deleteSource is set.
func (e *Encryptor) Encrypt(sources []string, keyCount, keyLength int, deleteSource bool) (*Artifacts, error) {
	if keyCount < 1 {
		return nil, fmt.Errorf("%w: key count %d", ErrParams, keyCount)
	}

	if keyLength < 1 {
		return nil, fmt.Errorf("%w: key length %d", ErrParams, keyLength)
	}

	if err := e.tbl.Reset(); err != nil {
		return nil, fmt.Errorf("regenerating table: %w", err)
	}

	content, err := e.files.Pack(sources...)
	if err != nil {
		return nil, fmt.Errorf("packing sources: %w", err)
	}

	if deleteSource {
		if err := packer.Delete(sources...); err != nil {
			return nil, err
		}

		e.log.Info("sources deleted", "count", len(sources))
	}

	mgr, err := packet.NewManager(content, e.packetSize, e.subdivisions)
	if err != nil {
		return nil, err
	}

	e.log.Info("content packed",
		"bytes", mgr.Len(), "packets", mgr.PacketCount(), "subdivisions", e.subdivisions)

	keyMgrs := make([]*packet.Manager, 0, keyCount)

	for i := range keyCount {
		instructions, err := keycodec.Generate(keyLength, mgr.PacketCount(), e.tbl)
		if err != nil {
			return nil, fmt.Errorf("generating key %d: %w", i, err)
		}

		if err := mgr.Instruct(instructions, false); err != nil {
			return nil, fmt.Errorf("transforming content under key %d: %w", i, err)
		}

		// Each new key re-encrypts every previously generated one.
		for j, km := range keyMgrs {
			if err := km.Instruct(instructions, false); err != nil {
				return nil, fmt.Errorf("layering key %d under key %d: %w", j, i, err)
			}
		}

		encoded, err := keycodec.Encode(instructions, e.tbl)
		if err != nil {
			return nil, fmt.Errorf("encoding key %d: %w", i, err)
		}

		km, err := packet.NewManager(encoded, 1, e.subdivisions)
		if err != nil {
			return nil, err
		}

		keyMgrs = append(keyMgrs, km)

		e.log.Info("key generated", "index", i, "bytes", km.Len())
	}

	bitCount := keycodec.OrdinalBitCount(keyCount)

	minBits := keyMgrs[0].Len() * 8
	for _, km := range keyMgrs[1:] {
		if bits := km.Len() * 8; bits < minBits {
			minBits = bits
		}
	}

	increment, err := keycodec.OrdinalIncrement(minBits, bitCount)
	if err != nil {
		return nil, fmt.Errorf("drawing ordinal increment: %w", err)
	}

	keys := make([][]byte, keyCount)
	for i, km := range keyMgrs {
		keys[i] = keycodec.InsertOrdinal(km.Content(), i, increment, bitCount)
	}

	return &Artifacts{
		Content: mgr.Content(),
		Table:   e.tbl.Export(),
		Keys:    keys,
		Config: Config{
			PacketSize:       e.packetSize,
			Subdivisions:     e.subdivisions,
			OrdinalIncrement: increment,
			OrdinalBits:      bitCount,
		},
	}, nil
}

// EncryptTo runs Encrypt and, when both destinations are given, publishes
// the artifacts: encrypted content at contentDest, and config, table, and
// ordinal-tagged keys under random unique filenames in miscDest.
func (e *Encryptor) EncryptTo(
	sources []string,
	contentDest, miscDest string,
	keyCount, keyLength int,
	deleteSource bool,
) (*Artifacts, error) {
	artifacts, err := e.Encrypt(sources, keyCount, keyLength, deleteSource)
	if err != nil {
		return nil, err
	}

	if contentDest == "" || miscDest == "" {
		return artifacts, nil
	}

	if err := e.export(artifacts, contentDest, miscDest); err != nil {
		return nil, err
	}

	return artifacts, nil
}

// Decrypt reverses an artifact set, restoring the original files under root.
func (e *Encryptor) Decrypt(artifacts *Artifacts, root string) error {
	tbl, err := table.Load(artifacts.Table, e.catalog)
	if err != nil {
		return err
	}

	cfg := artifacts.Config
	if cfg.PacketSize < 1 || cfg.Subdivisions < 1 {
		return fmt.Errorf("%w: config %+v", ErrFormat, cfg)
	}

	keyCount := len(artifacts.Keys)
	if keyCount == 0 {
		return fmt.Errorf("%w: no keys", ErrFormat)
	}

	// Key files carry no order in their names; recover each key's
	// generation index from its ordinal bits.
	raw := make([][]byte, keyCount)

	for _, tagged := range artifacts.Keys {
		index, bits, err := keycodec.StripOrdinal(tagged, cfg.OrdinalIncrement, cfg.OrdinalBits)
		if err != nil {
			return err
		}

		if index >= keyCount {
			return fmt.Errorf("%w: ordinal index %d with %d keys", ErrFormat, index, keyCount)
		}

		if raw[index] != nil {
			return fmt.Errorf("%w: ordinal index %d recovered twice", ErrFormat, index)
		}

		raw[index] = bits
	}

	// Key i is layered under keys i+1..K-1. Work down from the top key,
	// decoding it and peeling its layer off every lower key. Decoded lists
	// are stored in reverse generation order, which is exactly the order an
	// inverse application needs.
	lists := make([][]packet.Instruction, keyCount)

	for j := keyCount - 1; j >= 0; j-- {
		lists[j], err = keycodec.Decode(raw[j], tbl)
		if err != nil {
			return fmt.Errorf("decoding key %d: %w", j, err)
		}

		for i := 0; i < j; i++ {
			km, err := packet.NewManager(raw[i], 1, cfg.Subdivisions)
			if err != nil {
				return err
			}

			if err := km.Instruct(lists[j], true); err != nil {
				return fmt.Errorf("unlayering key %d from key %d: %w", j, i, err)
			}

			raw[i] = km.Content()
		}

		e.log.Info("key recovered", "index", j, "instructions", len(lists[j]))
	}

	mgr, err := packet.NewManager(artifacts.Content, cfg.PacketSize, cfg.Subdivisions)
	if err != nil {
		return err
	}

	for j := keyCount - 1; j >= 0; j-- {
		if err := mgr.Instruct(lists[j], true); err != nil {
			return fmt.Errorf("reversing content under key %d: %w", j, err)
		}
	}

	if err := e.files.Unpack(mgr.Content(), root); err != nil {
		return fmt.Errorf("unpacking content: %w", err)
	}

	e.log.Info("content restored", "bytes", mgr.Len(), "root", root)

	return nil
}

// DecryptFiles loads the artifact set from disk and restores the original
// files under root.
func (e *Encryptor) DecryptFiles(contentPath, miscDir, root string) error {
	artifacts, err := LoadArtifacts(contentPath, miscDir)
	if err != nil {
		return err
	}

	return e.Decrypt(artifacts, root)
}
