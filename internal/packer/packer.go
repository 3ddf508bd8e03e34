// Package packer converts file trees to and from the single length-prefixed
// container bitstream the cipher operates on.
//
// Each record is `uint16 name_bit_length ++ name ++ uint64 content_byte_length
// ++ content`, big-endian. The name length field counts bits (always a
// multiple of eight); the reader divides by eight. Well-known system and
// user prefixes are stripped from stored names.
package packer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// defaultPruned lists the path prefixes stripped from stored names, most
// specific first.
func defaultPruned() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}

	prefixes := make([]string, 0, 32)

	if home != "" {
		for _, sub := range []string{
			"Desktop", "Documents", "Downloads", "Music",
			"Pictures", "Public", "Templates", "Videos",
		} {
			prefixes = append(prefixes, filepath.Join(home, sub))
		}

		prefixes = append(prefixes, home)
	}

	prefixes = append(prefixes,
		"/usr/bin", "/usr/man", "/usr/lib", "/usr/local", "/usr/share",
		"/var/log", "/var/lock", "/var/tmp",
		"/usr", "/var", "/bin", "/dev", "/etc", "/home", "/lib",
		"/sbin", "/tmp", "/",
	)

	return prefixes
}

// Packer packs files into a container bitstream and back.
type Packer struct {
	pruned []string
}

// New returns a Packer stripping the given path prefixes from stored names.
// With no prefixes the well-known system and user set is used.
func New(prefixes ...string) *Packer {
	if len(prefixes) == 0 {
		prefixes = defaultPruned()
	}

	return &Packer{pruned: prefixes}
}

// Pack recursively expands the given paths and emits one record per file.
// A missing source aborts the whole pack. Zero paths yield an empty
// container.
func (p *Packer) Pack(paths ...string) ([]byte, error) {
	files, err := flatten(paths)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	for _, file := range files {
		if err := p.packFile(&buf, file); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func (p *Packer) packFile(buf *bytes.Buffer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading source %q: %w", path, err)
	}

	name := p.prune(path)
	if len(name)*8 > 0xFFFF {
		return fmt.Errorf("packing %q: name exceeds %d bytes", path, 0xFFFF/8)
	}

	if err := binary.Write(buf, binary.BigEndian, uint16(len(name)*8)); err != nil {
		return fmt.Errorf("packing %q: %w", path, err)
	}

	buf.WriteString(name)

	if err := binary.Write(buf, binary.BigEndian, uint64(len(content))); err != nil {
		return fmt.Errorf("packing %q: %w", path, err)
	}

	buf.Write(content)

	return nil
}

// Unpack reads records until the container is exhausted, recreating
// directories and files under root.
func (p *Packer) Unpack(data []byte, root string) error {
	r := bytes.NewReader(data)

	for r.Len() > 0 {
		var nameBits uint16
		if err := binary.Read(r, binary.BigEndian, &nameBits); err != nil {
			return fmt.Errorf("%w: truncated name length", ErrFormat)
		}

		name := make([]byte, nameBits/8)
		if _, err := io.ReadFull(r, name); err != nil || len(name) == 0 {
			return fmt.Errorf("%w: truncated name", ErrFormat)
		}

		var contentLen uint64
		if err := binary.Read(r, binary.BigEndian, &contentLen); err != nil {
			return fmt.Errorf("%w: truncated content length", ErrFormat)
		}

		if contentLen > uint64(r.Len()) {
			return fmt.Errorf("%w: content length %d exceeds %d remaining", ErrFormat, contentLen, r.Len())
		}

		content := make([]byte, contentLen)
		if _, err := io.ReadFull(r, content); err != nil {
			return fmt.Errorf("%w: truncated content", ErrFormat)
		}

		if err := restore(root, string(name), content); err != nil {
			return err
		}
	}

	return nil
}

// restore writes one record's file under root, rejecting names that would
// escape it.
func restore(root, name string, content []byte) error {
	rel := filepath.Clean(string(filepath.Separator) + name)

	path := filepath.Join(root, rel)
	if !strings.HasPrefix(path, filepath.Clean(root)+string(filepath.Separator)) {
		return fmt.Errorf("%w: name %q escapes destination", ErrFormat, name)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("restoring %q: %w", name, err)
	}

	if err := os.WriteFile(path, content, 0o600); err != nil {
		return fmt.Errorf("restoring %q: %w", name, err)
	}

	return nil
}

// prune strips the first matching configured prefix from path.
func (p *Packer) prune(path string) string {
	for _, prefix := range p.pruned {
		if strings.HasPrefix(path, prefix) {
			return strings.TrimPrefix(path, prefix)
		}
	}

	return path
}

// flatten expands directories breadth-first into their leaf files.
func flatten(paths []string) ([]string, error) {
	queue := append([]string(nil), paths...)

	var files []string

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("expanding source: %w", err)
		}

		if !info.IsDir() {
			files = append(files, path)

			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("expanding source %q: %w", path, err)
		}

		for _, entry := range entries {
			queue = append(queue, filepath.Join(path, entry.Name()))
		}
	}

	return files, nil
}

// Delete removes all given files and directories. Used to drop plaintext
// sources once packing has succeeded.
func Delete(paths ...string) error {
	for _, path := range paths {
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("deleting source %q: %w", path, err)
		}
	}

	return nil
}
