package fastuuid

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"
	"time"
)

// MonotonicV7 is a thread-safe UUIDv7 source whose values strictly increase,
// even within one millisecond. It spends the 12 bits after the version on a
// counter (RFC 9562 section 6.2, method 1) and fills the rest randomly.
//
// Use the stateless NewV7 when independent values are enough.
type MonotonicV7 struct {
	mu      sync.Mutex
	lastMs  uint64
	counter uint16 // 12 bits
	rand    io.Reader
	now     func() time.Time
}

// NewMonotonicV7 creates a monotonic source backed by crypto/rand
func NewMonotonicV7() *MonotonicV7 {
	return NewMonotonicV7WithReader(rand.Reader)
}

// NewMonotonicV7WithReader creates a monotonic source with a custom random source.
func NewMonotonicV7WithReader(r io.Reader) *MonotonicV7 {
	return &MonotonicV7{
		rand: r,
		now:  time.Now,
	}
}

// New returns the next UUIDv7 for the current time.
func (m *MonotonicV7) New() (UUID, error) {
	return m.NewWithTime(m.now())
}

// NewWithTime returns the next UUIDv7 for t. If t is not later than the
// previous call's millisecond, the counter advances instead; when it
// overflows the timestamp is pushed one millisecond forward.
func (m *MonotonicV7) NewWithTime(t time.Time) (UUID, error) {
	var uuid UUID
	ms := uint64(t.UnixMilli())

	m.mu.Lock()
	defer m.mu.Unlock()

	if ms <= m.lastMs {
		m.counter++
		if m.counter > 0xfff {
			m.counter = 0
			m.lastMs++
		}
		ms = m.lastMs
	} else {
		// New millisecond: restart the counter at a random point,
		// leaving headroom in the top bit.
		var seed [2]byte
		if _, err := io.ReadFull(m.rand, seed[:]); err != nil {
			return Nil, err
		}
		m.counter = binary.BigEndian.Uint16(seed[:]) & 0x7ff
		m.lastMs = ms
	}

	if _, err := io.ReadFull(m.rand, uuid[8:]); err != nil {
		return Nil, err
	}
	putNode(uuid[0:6], ms)
	uuid[6] = byte(m.counter >> 8)
	uuid[7] = byte(m.counter)
	uuid.setVersionVariant(VersionTimeSorted)
	return uuid, nil
}
