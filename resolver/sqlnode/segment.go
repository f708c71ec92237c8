package sqlnode

import "sync/atomic"

// Segment is a reserved range of node ids, (Base, Max].
type Segment struct {
	Base   int64 // exclusive, the last id granted before this range
	Max    int64 // inclusive
	Step   int
	Cursor int64 // last id handed out, accessed atomically
}

func newSegment(maxID int64, step int) *Segment {
	base := maxID - int64(step)
	return &Segment{
		Base:   base,
		Max:    maxID,
		Step:   step,
		Cursor: base,
	}
}

// Remaining returns how many ids are left. It goes negative once callers
// have raced past the end.
func (s *Segment) Remaining() int64 {
	return s.Max - atomic.LoadInt64(&s.Cursor)
}
