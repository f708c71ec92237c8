package fastuuid

import (
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	guuid "github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	testTime = time.Date(2024, 1, 2, 3, 4, 5, 123456700, time.UTC)
	testNode = Node{0x00, 0x1b, 0x63, 0x84, 0x45, 0xe6}
)

func fixedClock() time.Time { return testTime }

type failingResolver struct{ err error }

func (f failingResolver) ResolveNode() (Node, error) { return Node{}, f.err }

func TestNewV4(t *testing.T) {
	c := qt.New(t)
	uuid, err := NewV4()
	c.Assert(err, qt.IsNil)
	c.Assert(uuid.IsNil(), qt.IsFalse)
	c.Assert(uuid.Version(), qt.Equals, VersionRandom)
	c.Assert(uuid.Variant(), qt.Equals, VariantRFC4122)
}

func TestGenerator_NewV4Deterministic(t *testing.T) {
	c := qt.New(t)
	gen := NewGeneratorWithReader(&countingReader{})
	uuid, err := gen.NewV4()
	c.Assert(err, qt.IsNil)
	c.Assert(uuid.String(), qt.Equals, "00010203-0405-4607-8809-0a0b0c0d0e0f")
}

func TestNewV7(t *testing.T) {
	c := qt.New(t)
	for _, newFn := range []func() (UUID, error){New, NewV7} {
		uuid, err := newFn()
		c.Assert(err, qt.IsNil)
		c.Assert(uuid.Version(), qt.Equals, VersionTimeSorted)
		c.Assert(uuid.Variant(), qt.Equals, VariantRFC4122)
		c.Assert(guuid.UUID(uuid).Version(), qt.Equals, guuid.Version(7))
	}
}

func TestGenerator_NewV7(t *testing.T) {
	c := qt.New(t)
	gen := NewGenerator(WithClock(fixedClock))
	uuid, err := gen.NewV7()
	c.Assert(err, qt.IsNil)
	c.Assert(uuid.Timestamp(), qt.Equals, testTime.UnixMilli())
	c.Assert(uuid.Time().Equal(testTime.Truncate(time.Millisecond)), qt.IsTrue)
}

func TestGenerator_NewV1(t *testing.T) {
	c := qt.New(t)
	gen := NewGenerator(
		WithRandReader(&countingReader{}),
		WithClock(fixedClock),
		WithNodeResolver(StaticNode(testNode)),
	)

	uuid, err := gen.NewV1()
	c.Assert(err, qt.IsNil)
	c.Assert(uuid.Version(), qt.Equals, VersionTimeBased)
	c.Assert(uuid.Variant(), qt.Equals, VariantRFC4122)
	c.Assert(uuid.Time().Equal(testTime), qt.IsTrue, qt.Commentf("got %v", uuid.Time()))
	// the counting reader seeds the clock sequence with 0x0001
	c.Assert(uuid.ClockSeq(), qt.Equals, uint16(1))
	c.Assert(uuid.Node(), qt.Equals, testNode.Uint64())

	// google/uuid decodes the same timestamp, clock sequence and node
	ref := guuid.UUID(uuid)
	c.Assert(ref.Version(), qt.Equals, guuid.Version(1))
	c.Assert(ref.Variant(), qt.Equals, guuid.RFC4122)
	c.Assert(int64(ref.Time()), qt.Equals, int64(uuid.RawTime()))
	sec, nsec := ref.Time().UnixTime()
	c.Assert(time.Unix(sec, nsec).Equal(testTime), qt.IsTrue)
	c.Assert(ref.ClockSequence(), qt.Equals, 1)
	c.Assert(ref.NodeID(), qt.DeepEquals, testNode[:])

	next, err := gen.NewV1()
	c.Assert(err, qt.IsNil)
	c.Assert(next.ClockSeq(), qt.Equals, uint16(2))
	c.Assert(next, qt.Not(qt.Equals), uuid)
}

func TestGenerator_NewV1Options(t *testing.T) {
	c := qt.New(t)
	// The resolver must not be consulted when a node is given.
	gen := NewGenerator(
		WithClock(fixedClock),
		WithNodeResolver(failingResolver{errors.New("no network")}),
	)

	uuid, err := gen.NewV1(WithNode(0x0123456789ab), WithClockSeq(0xffff))
	c.Assert(err, qt.IsNil)
	c.Assert(uuid.Node(), qt.Equals, uint64(0x0123456789ab))
	c.Assert(uuid.ClockSeq(), qt.Equals, uint16(0x3fff))
	c.Assert(uuid.Variant(), qt.Equals, VariantRFC4122)
	c.Assert(uuid.Version(), qt.Equals, VersionTimeBased)

	uuid, err = gen.NewV1(WithNode(0), WithClockSeq(0))
	c.Assert(err, qt.IsNil)
	c.Assert(uuid.Node(), qt.Equals, uint64(0))
	c.Assert(uuid.ClockSeq(), qt.Equals, uint16(0))

	_, err = gen.NewV1(WithNode(1 << 48))
	c.Assert(err, qt.ErrorIs, ErrFieldOutOfRange)
}

func TestGenerator_NewV1EnvironmentUnavailable(t *testing.T) {
	tests := []struct {
		name     string
		resolver NodeResolver
	}{
		{"plain error", failingResolver{errors.New("no network")}},
		{"already classified", failingResolver{errors.WithMessage(ErrEnvironmentUnavailable, "sandbox")}},
		{"no resolver", nil},
		{"no interfaces", HardwareNode{interfaces: noInterfaces}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			gen := NewGenerator(WithNodeResolver(tt.resolver))
			_, err := gen.NewV1()
			c.Assert(err, qt.ErrorIs, ErrEnvironmentUnavailable)
		})
	}
}

func TestPackageNewV1(t *testing.T) {
	c := qt.New(t)
	uuid, err := NewV1()
	if err != nil {
		// hosts without a hardware address
		c.Assert(err, qt.ErrorIs, ErrEnvironmentUnavailable)
		return
	}
	c.Assert(uuid.Version(), qt.Equals, VersionTimeBased)

	uuid, err = NewV1(WithNode(42))
	c.Assert(err, qt.IsNil)
	c.Assert(uuid.Node(), qt.Equals, uint64(42))
}

func TestNewV1MC(t *testing.T) {
	c := qt.New(t)
	gen := NewGenerator(WithNodeResolver(failingResolver{errors.New("unused")}))
	for i := 0; i < 100; i++ {
		uuid, err := gen.NewV1MC()
		c.Assert(err, qt.IsNil)
		c.Assert(uuid.Version(), qt.Equals, VersionTimeBased)
		c.Assert(uuid.Variant(), qt.Equals, VariantRFC4122)
		c.Assert(uuid.Node()&multicastBit, qt.Not(qt.Equals), uint64(0))
	}

	uuid, err := NewV1MC()
	c.Assert(err, qt.IsNil)
	c.Assert(uuid[10]&0x01, qt.Equals, byte(1))
}

func TestGenerator_NewV1Concurrent(t *testing.T) {
	c := qt.New(t)
	gen := NewGenerator(WithClock(fixedClock), WithNodeResolver(StaticNode(testNode)))

	const goroutines = 8
	const perGoroutine = 200
	var (
		mu   sync.Mutex
		seen = make(map[UUID]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				uuid, err := gen.NewV1()
				if err != nil {
					t.Errorf("NewV1() error = %v", err)
					return
				}
				mu.Lock()
				seen[uuid] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	// identical time and node: only the clock sequence tells them apart
	c.Assert(seen, qt.HasLen, goroutines*perGoroutine)
}

func TestClockSequence(t *testing.T) {
	c := qt.New(t)
	seq := NewClockSequence(0x3ffe)
	c.Assert(seq.Next(), qt.Equals, uint16(0x3ffe))
	c.Assert(seq.Next(), qt.Equals, uint16(0x3fff))
	c.Assert(seq.Next(), qt.Equals, uint16(0))
	c.Assert(seq.Next(), qt.Equals, uint16(1))

	c.Assert(NewClockSequence(0xffff).Next(), qt.Equals, uint16(0x3fff))
}

func TestGenerator_BrokenReader(t *testing.T) {
	c := qt.New(t)
	gen := NewGenerator(WithRandReader(&brokenReader{}), WithNodeResolver(StaticNode(testNode)))

	_, err := gen.NewV4()
	c.Assert(err, qt.ErrorIs, errBroken)
	_, err = gen.NewV7()
	c.Assert(err, qt.ErrorIs, errBroken)
	_, err = gen.NewV1()
	c.Assert(err, qt.ErrorIs, errBroken)
	_, err = gen.NewV1MC()
	c.Assert(err, qt.ErrorIs, errBroken)

	// an explicit clock sequence needs no randomness
	_, err = gen.NewV1(WithClockSeq(7))
	c.Assert(err, qt.IsNil)
}

func TestMust(t *testing.T) {
	c := qt.New(t)
	uuid := Must(NewV4())
	c.Assert(uuid.IsNil(), qt.IsFalse)

	brokenGen := NewGeneratorWithReader(&brokenReader{})
	c.Assert(func() { Must(brokenGen.NewV7()) }, qt.PanicMatches, "broken reader")
}
