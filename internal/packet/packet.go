// Package packet partitions a byte-aligned bitstream into subdivisions and
// packets and applies range-scoped transform instructions to the packets
// through one worker per subdivision.
//
// Partitioning: content of B bytes splits into S subdivisions of B/S bytes,
// with remainder bytes appended to the last. Each subdivision splits into
// packets of the configured size; once fewer than two full packets remain,
// the tail (up to one byte short of two packets) is emitted as one final
// packet. Packet indices are global and increase in subdivision order.
//
// Workers write to disjoint precomputed regions of a shared output buffer,
// so a call needs no locking; it blocks until every worker finishes and the
// first worker error fails the whole call.
package packet

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/xmercerweiss/jigwise/internal/transform"
)

// Instruction applies one operation to every packet whose global index i
// satisfies Start <= i < Stop.
type Instruction struct {
	Op    transform.Operation
	Start uint64
	Stop  uint64
	Args  []uint64
}

// Covers reports whether the instruction applies to packet index i.
func (in Instruction) Covers(i uint64) bool {
	return in.Start <= i && i < in.Stop
}

type region struct {
	off         int
	size        int
	firstPacket int
	packets     int
}

// Manager holds one bitstream and its partition. The partition depends only
// on the content length and stays fixed across Instruct calls.
type Manager struct {
	content      []byte
	packetSize   int
	subdivisions int
	regions      []region
	packetCount  int
}

// NewManager partitions content for the given packet size (bytes) and
// subdivision count. The content slice is copied.
func NewManager(content []byte, packetSize, subdivisionCount int) (*Manager, error) {
	if packetSize < 1 {
		return nil, fmt.Errorf("%w: packet size %d", ErrBadPartition, packetSize)
	}

	if subdivisionCount < 1 {
		return nil, fmt.Errorf("%w: subdivision count %d", ErrBadPartition, subdivisionCount)
	}

	m := &Manager{
		content:      append([]byte(nil), content...),
		packetSize:   packetSize,
		subdivisions: subdivisionCount,
	}
	m.partition()

	return m, nil
}

// Content returns a copy of the current bitstream.
func (m *Manager) Content() []byte {
	return append([]byte(nil), m.content...)
}

// Len returns the content length in bytes.
func (m *Manager) Len() int {
	return len(m.content)
}

// PacketCount returns the global number of packets.
func (m *Manager) PacketCount() int {
	return m.packetCount
}

// partition computes the subdivision regions and global packet indices.
// Empty content keeps a single empty packet so callers always have a
// non-empty index range.
func (m *Manager) partition() {
	total := len(m.content)

	count := m.subdivisions
	if count > total {
		count = 1
	}

	size := 0
	if count > 0 && total > 0 {
		size = total / count
	}

	m.regions = m.regions[:0]
	m.packetCount = 0

	for i := 0; i < count; i++ {
		r := region{off: i * size, size: size}
		if i == count-1 {
			r.size = total - r.off
		}

		r.firstPacket = m.packetCount
		r.packets = packetsIn(r.size, m.packetSize)
		m.packetCount += r.packets

		m.regions = append(m.regions, r)
	}
}

// packetsIn returns the number of packets a subdivision of size bytes
// splits into: full packets are emitted while at least two remain, then the
// tail forms one final packet.
func packetsIn(size, packetSize int) int {
	if size < 2*packetSize {
		return 1
	}

	return size / packetSize
}

// Instruct applies every covering instruction, in list order, to each
// packet. With opposite set every operation runs in inverse mode; selection
// and range logic are unchanged. One worker runs per subdivision; the first
// worker failure aborts the call.
func (m *Manager) Instruct(instructions []Instruction, opposite bool) error {
	output := make([]byte, len(m.content))

	var group errgroup.Group

	for _, r := range m.regions {
		group.Go(func() error {
			return m.instructRegion(r, instructions, opposite, output)
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("applying instructions: %w", err)
	}

	m.content = output

	return nil
}

// instructRegion transforms every packet of one subdivision, writing results
// into the region's slice of the shared output buffer.
func (m *Manager) instructRegion(r region, instructions []Instruction, opposite bool, output []byte) error {
	src := m.content[r.off : r.off+r.size]
	out := output[r.off : r.off+r.size]

	pos := 0

	for p := 0; p < r.packets; p++ {
		size := m.packetSize
		if p == r.packets-1 {
			size = r.size - pos
		}

		packet := out[pos : pos+size]
		copy(packet, src[pos:pos+size])

		index := uint64(r.firstPacket + p)

		for _, in := range instructions {
			if !in.Covers(index) {
				continue
			}

			if err := in.Op.Apply(packet, in.Args, opposite); err != nil {
				return fmt.Errorf("packet %d: %w", index, err)
			}
		}

		pos += size
	}

	return nil
}
