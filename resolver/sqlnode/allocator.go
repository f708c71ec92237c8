// Package sqlnode hands out cluster-unique version 1 node identifiers from a
// SQL table. Ids are reserved in segments so the database is touched once per
// step allocations, and the next segment is prefetched in the background
// before the current one runs out.
package sqlnode

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Lzww0608/fastuuid"
)

// prefetchRatio is the share of a segment left when the next one is fetched.
const prefetchRatio = 0.2

// Allocator double-buffers segments of one pool: the current segment is
// served with an atomic cursor while the next is loaded asynchronously.
type Allocator struct {
	pool string
	dao  *DAO
	log  logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc
	loads  sync.WaitGroup

	current   atomic.Pointer[Segment]
	mu        sync.Mutex // protects next, segment switches and loads.Add
	next      *Segment
	hasNext   atomic.Bool
	isLoading atomic.Bool
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithLogger sets the logger. It defaults to the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Allocator) {
		a.log = l
	}
}

// NewAllocator reserves the first segment of pool. ctx bounds every later
// database call as well; Close releases it.
func NewAllocator(ctx context.Context, dao *DAO, pool string, opts ...Option) (*Allocator, error) {
	actx, cancel := context.WithCancel(ctx)
	a := &Allocator{
		pool:   pool,
		dao:    dao,
		log:    logrus.StandardLogger(),
		ctx:    actx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithField("pool", pool)

	seg, err := dao.FetchNextSegment(actx, pool)
	if err != nil {
		cancel()
		return nil, err
	}
	a.current.Store(seg)
	a.log.WithFields(logrus.Fields{"base": seg.Base, "max": seg.Max}).Info("sqlnode: reserved first segment")
	return a, nil
}

// NextID returns the next unused id of the pool.
func (a *Allocator) NextID() (int64, error) {
	cur := a.current.Load()
	if id := atomic.AddInt64(&cur.Cursor, 1); id <= cur.Max {
		a.checkAndLoadNext(cur)
		return id, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Another goroutine may have switched segments while we waited.
	cur = a.current.Load()
	if id := atomic.AddInt64(&cur.Cursor, 1); id <= cur.Max {
		return id, nil
	}

	if a.next != nil {
		cur, a.next = a.next, nil
		a.hasNext.Store(false)
		a.current.Store(cur)
		a.log.WithFields(logrus.Fields{"base": cur.Base, "max": cur.Max}).Debug("sqlnode: switched to prefetched segment")
		return atomic.AddInt64(&cur.Cursor, 1), nil
	}

	a.log.Debug("sqlnode: no prefetched segment, fetching synchronously")
	seg, err := a.dao.FetchNextSegment(a.ctx, a.pool)
	if err != nil {
		a.log.WithError(err).Error("sqlnode: segment fetch failed")
		return 0, err
	}
	a.current.Store(seg)
	return atomic.AddInt64(&seg.Cursor, 1), nil
}

// checkAndLoadNext starts one background fetch once cur is running low.
func (a *Allocator) checkAndLoadNext(cur *Segment) {
	if a.hasNext.Load() || a.isLoading.Load() || a.ctx.Err() != nil {
		return
	}
	if cur.Remaining() > int64(float64(cur.Step)*prefetchRatio) {
		return
	}
	if !a.isLoading.CompareAndSwap(false, true) {
		return
	}

	// Registering under mu orders the Add against Close's cancel, so a
	// load either starts before Close waits or never starts.
	a.mu.Lock()
	if a.ctx.Err() != nil {
		a.isLoading.Store(false)
		a.mu.Unlock()
		return
	}
	a.loads.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.loads.Done()
		defer a.isLoading.Store(false)

		seg, err := a.dao.FetchNextSegment(a.ctx, a.pool)
		if err != nil {
			a.log.WithError(err).Warn("sqlnode: prefetch failed")
			return
		}

		a.mu.Lock()
		a.next = seg
		a.hasNext.Store(true)
		a.mu.Unlock()
		a.log.WithFields(logrus.Fields{"base": seg.Base, "max": seg.Max}).Debug("sqlnode: prefetched segment")
	}()
}

// ResolveNode implements fastuuid.NodeResolver. Every call claims a new id,
// so wrap the allocator in fastuuid.NewCachedNode to keep one node per process.
// The node is the id with the multicast bit set; ids must stay below 2^40.
func (a *Allocator) ResolveNode() (fastuuid.Node, error) {
	id, err := a.NextID()
	if err != nil {
		return fastuuid.Node{}, errors.Wrapf(err, "sqlnode: allocate node from pool %q", a.pool)
	}
	return fastuuid.MulticastNode(uint64(id))
}

// Close stops background prefetching and waits for it to finish.
// It does not close the DAO.
func (a *Allocator) Close() {
	a.mu.Lock()
	a.cancel()
	a.mu.Unlock()
	a.loads.Wait()
}
