package fastuuid

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// Generator produces version 1, 4 and 7 UUIDs. It is safe for concurrent
// use provided its random source is.
type Generator struct {
	rand  io.Reader
	nodes NodeResolver
	now   func() time.Time

	seqMu sync.Mutex
	seq   atomic.Pointer[ClockSequence]
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRandReader sets the random source. It defaults to crypto/rand.
func WithRandReader(r io.Reader) GeneratorOption {
	return func(g *Generator) {
		g.rand = r
	}
}

// WithNodeResolver sets where version 1 UUIDs get their node when the
// caller does not pass one. It defaults to a cached HardwareNode.
func WithNodeResolver(r NodeResolver) GeneratorOption {
	return func(g *Generator) {
		g.nodes = r
	}
}

// WithClock sets the time source. It defaults to time.Now.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a Generator. Without options it reads crypto/rand,
// the wall clock and the host's hardware address.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		rand:  rand.Reader,
		nodes: NewCachedNode(HardwareNode{}),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewGeneratorWithReader creates a Generator with a custom random source.
// This is primarily useful for testing with deterministic random sources.
func NewGeneratorWithReader(r io.Reader) *Generator {
	return NewGenerator(WithRandReader(r))
}

// NewV4 returns a random UUID.
func (g *Generator) NewV4() (UUID, error) {
	var uuid UUID
	if _, err := io.ReadFull(g.rand, uuid[:]); err != nil {
		return Nil, err
	}
	uuid.setVersionVariant(VersionRandom)
	return uuid, nil
}

// NewV7 returns a UUID whose first 48 bits are the current Unix time in
// milliseconds; the remaining bits are random apart from version and variant.
func (g *Generator) NewV7() (UUID, error) {
	var uuid UUID
	if _, err := io.ReadFull(g.rand, uuid[6:]); err != nil {
		return Nil, err
	}
	putV7(&uuid, g.now())
	return uuid, nil
}

// putV7 writes the millisecond timestamp and stamps version 7 over bytes
// whose random tail is already in place.
func putV7(uuid *UUID, t time.Time) {
	putNode(uuid[0:6], uint64(t.UnixMilli()))
	uuid.setVersionVariant(VersionTimeSorted)
}

// ClockSequence is the 14-bit counter of version 1 UUIDs. Each call to Next
// returns the next value, wrapping at 2^14.
type ClockSequence struct {
	count atomic.Uint32
}

// NewClockSequence returns a counter whose first value is seed (masked to 14 bits).
func NewClockSequence(seed uint16) *ClockSequence {
	c := &ClockSequence{}
	c.count.Store(uint32(seed))
	return c
}

// Next returns the current value and advances the counter.
func (c *ClockSequence) Next() uint16 {
	return uint16(c.count.Add(1)-1) & 0x3fff
}

// clockSeq returns the generator's counter, seeding it from the random
// source on first use.
func (g *Generator) clockSeq() (*ClockSequence, error) {
	if seq := g.seq.Load(); seq != nil {
		return seq, nil
	}

	g.seqMu.Lock()
	defer g.seqMu.Unlock()

	if seq := g.seq.Load(); seq != nil {
		return seq, nil
	}
	var seed [2]byte
	if _, err := io.ReadFull(g.rand, seed[:]); err != nil {
		return nil, errors.Wrap(err, "seed clock sequence")
	}
	seq := NewClockSequence(binary.BigEndian.Uint16(seed[:]))
	g.seq.Store(seq)
	return seq, nil
}

type v1Options struct {
	node     *uint64
	clockSeq *uint16
}

// V1Option customizes a single version 1 UUID.
type V1Option func(*v1Options)

// WithNode uses n (which must be below 2^48) as the node instead of the
// generator's resolver.
func WithNode(n uint64) V1Option {
	return func(o *v1Options) {
		o.node = &n
	}
}

// WithClockSeq uses seq, masked to 14 bits, instead of the generator's
// clock sequence counter.
func WithClockSeq(seq uint16) V1Option {
	return func(o *v1Options) {
		o.clockSeq = &seq
	}
}

// NewV1 returns a time-based UUID built from the current time, a clock
// sequence and a node.
func (g *Generator) NewV1(opts ...V1Option) (UUID, error) {
	var o v1Options
	for _, opt := range opts {
		opt(&o)
	}

	var node Node
	if o.node != nil {
		n, err := NodeFromUint64(*o.node)
		if err != nil {
			return Nil, err
		}
		node = n
	} else {
		n, err := g.resolveNode()
		if err != nil {
			return Nil, err
		}
		node = n
	}

	var seq uint16
	if o.clockSeq != nil {
		seq = *o.clockSeq & 0x3fff
	} else {
		cs, err := g.clockSeq()
		if err != nil {
			return Nil, err
		}
		seq = cs.Next()
	}
	return newV1(g.now(), seq, node), nil
}

// NewV1MC returns a version 1 UUID whose node is random with the multicast
// bit set, so it never leaks a hardware address.
func (g *Generator) NewV1MC() (UUID, error) {
	node, err := randomNode(g.rand)
	if err != nil {
		return Nil, err
	}
	cs, err := g.clockSeq()
	if err != nil {
		return Nil, err
	}
	return newV1(g.now(), cs.Next(), node), nil
}

func (g *Generator) resolveNode() (Node, error) {
	if g.nodes == nil {
		return Node{}, errors.WithMessage(ErrEnvironmentUnavailable, "no node resolver configured")
	}
	node, err := g.nodes.ResolveNode()
	if err != nil {
		if errors.Is(err, ErrEnvironmentUnavailable) {
			return Node{}, err
		}
		return Node{}, errors.WithMessage(ErrEnvironmentUnavailable, err.Error())
	}
	return node, nil
}

// newV1 lays out a version 1 UUID for time t.
func newV1(t time.Time, seq uint16, node Node) UUID {
	ticks := uint64(t.Unix())*1e7 + uint64(t.Nanosecond()/100) + gregorianOffset

	var uuid UUID
	binary.BigEndian.PutUint32(uuid[0:4], uint32(ticks))
	binary.BigEndian.PutUint16(uuid[4:6], uint16(ticks>>32))
	binary.BigEndian.PutUint16(uuid[6:8], uint16(ticks>>48)&0x0fff|0x1000)
	uuid[8] = byte(seq>>8)&0x3f | 0x80
	uuid[9] = byte(seq)
	copy(uuid[10:], node[:])
	return uuid
}

// Must is a helper that wraps a call to a function returning (UUID, error)
// and panics if the error is non-nil. It is intended for use in variable
// initializations such as:
//
//	var id = fastuuid.Must(fastuuid.NewV4())
func Must(uuid UUID, err error) UUID {
	if err != nil {
		panic(err)
	}
	return uuid
}

// defaultGenerator backs the package-level functions
var defaultGenerator = NewGenerator()

// New generates a new UUIDv7 using the default generator.
func New() (UUID, error) {
	return defaultGenerator.NewV7()
}

// NewV7 generates a UUIDv7 using the default generator.
func NewV7() (UUID, error) {
	return defaultGenerator.NewV7()
}

// NewV4 generates a random UUID using the default generator.
func NewV4() (UUID, error) {
	return defaultGenerator.NewV4()
}

// NewV1 generates a time-based UUID using the default generator. Without
// WithNode the host's hardware address is used, and ErrEnvironmentUnavailable
// is returned when there is none.
func NewV1(opts ...V1Option) (UUID, error) {
	return defaultGenerator.NewV1(opts...)
}

// NewV1MC generates a time-based UUID with a random multicast node.
func NewV1MC() (UUID, error) {
	return defaultGenerator.NewV1MC()
}
