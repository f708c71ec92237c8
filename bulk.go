package fastuuid

import (
	"context"
	"encoding/hex"
	"io"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// bulkBufSize bounds the random bytes read per call to the random source.
const bulkBufSize = 4096

// parallelChunk is the number of UUIDs one worker fills per task.
const parallelChunk = 1024

// NewV4Bulk returns n random UUIDs. n == 0 gives an empty slice.
func (g *Generator) NewV4Bulk(n int) ([]UUID, error) {
	if n < 0 {
		return nil, malformed("negative count %d", n)
	}
	ids := make([]UUID, n)
	if err := g.fillV4(ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// NewV7Bulk returns n time-ordered UUIDs, each generated independently.
func (g *Generator) NewV7Bulk(n int) ([]UUID, error) {
	if n < 0 {
		return nil, malformed("negative count %d", n)
	}
	ids := make([]UUID, n)
	if err := g.fillV7(ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// NewV4StringsBulk returns n random UUIDs in simple hex form.
func (g *Generator) NewV4StringsBulk(n int) ([]string, error) {
	ids, err := g.NewV4Bulk(n)
	if err != nil {
		return nil, err
	}
	return hexStrings(ids), nil
}

// NewV7StringsBulk returns n time-ordered UUIDs in simple hex form.
func (g *Generator) NewV7StringsBulk(n int) ([]string, error) {
	ids, err := g.NewV7Bulk(n)
	if err != nil {
		return nil, err
	}
	return hexStrings(ids), nil
}

// ParallelV4Bulk is NewV4Bulk split across up to workers goroutines.
// workers < 1 means GOMAXPROCS. The random source must be safe for
// concurrent use, which crypto/rand is.
func (g *Generator) ParallelV4Bulk(ctx context.Context, n, workers int) ([]UUID, error) {
	return g.parallel(ctx, n, workers, func(part []UUID) func() error {
		return func() error { return g.fillV4(part) }
	})
}

// ParallelV7Bulk is NewV7Bulk split across up to workers goroutines. The
// clock is read once per chunk, in chunk order, so the result keeps the
// non-decreasing time prefix of NewV7Bulk.
func (g *Generator) ParallelV7Bulk(ctx context.Context, n, workers int) ([]UUID, error) {
	var last time.Time
	return g.parallel(ctx, n, workers, func(part []UUID) func() error {
		t := g.now()
		if t.UnixMilli() < last.UnixMilli() {
			t = last
		}
		last = t
		return func() error {
			return g.fillV7With(part, func() time.Time { return t })
		}
	})
}

// parallel cuts ids into chunks and runs one task per chunk. task is called
// on the calling goroutine in chunk order; only the returned func runs
// concurrently.
func (g *Generator) parallel(ctx context.Context, n, workers int, task func(part []UUID) func() error) ([]UUID, error) {
	if n < 0 {
		return nil, malformed("negative count %d", n)
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	ids := make([]UUID, n)
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for start := 0; start < n; start += parallelChunk {
		if gctx.Err() != nil {
			break
		}
		fill := task(ids[start:min(start+parallelChunk, n)])
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fill()
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	// The loop may have stopped early on cancellation without any task failing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// fillV4 overwrites ids with random UUIDs, reading the random source in
// blocks rather than once per UUID.
func (g *Generator) fillV4(ids []UUID) error {
	var buf [bulkBufSize]byte
	for len(ids) > 0 {
		k := min(len(ids), bulkBufSize/16)
		if _, err := io.ReadFull(g.rand, buf[:16*k]); err != nil {
			return err
		}
		for i := 0; i < k; i++ {
			copy(ids[i][:], buf[16*i:])
			ids[i].setVersionVariant(VersionRandom)
		}
		ids = ids[k:]
	}
	return nil
}

// fillV7 overwrites ids with version 7 UUIDs. The clock is read per UUID.
func (g *Generator) fillV7(ids []UUID) error {
	return g.fillV7With(ids, g.now)
}

func (g *Generator) fillV7With(ids []UUID, now func() time.Time) error {
	const tail = 10
	var buf [bulkBufSize]byte
	for len(ids) > 0 {
		k := min(len(ids), bulkBufSize/tail)
		if _, err := io.ReadFull(g.rand, buf[:tail*k]); err != nil {
			return err
		}
		for i := 0; i < k; i++ {
			copy(ids[i][6:], buf[tail*i:tail*(i+1)])
			putV7(&ids[i], now())
		}
		ids = ids[k:]
	}
	return nil
}

// hexStrings encodes ids into one backing string and slices it, so the
// result costs a single string allocation.
func hexStrings(ids []UUID) []string {
	buf := make([]byte, 32*len(ids))
	for i := range ids {
		hex.Encode(buf[32*i:], ids[i][:])
	}
	all := string(buf)
	out := make([]string, len(ids))
	for i := range out {
		out[i] = all[32*i : 32*(i+1)]
	}
	return out
}

// NewV4Bulk generates n random UUIDs with the default generator.
func NewV4Bulk(n int) ([]UUID, error) {
	return defaultGenerator.NewV4Bulk(n)
}

// NewV4StringsBulk generates n random UUIDs in simple hex form.
func NewV4StringsBulk(n int) ([]string, error) {
	return defaultGenerator.NewV4StringsBulk(n)
}

// NewV7Bulk generates n time-ordered UUIDs with the default generator.
func NewV7Bulk(n int) ([]UUID, error) {
	return defaultGenerator.NewV7Bulk(n)
}

// NewV7StringsBulk generates n time-ordered UUIDs in simple hex form.
func NewV7StringsBulk(n int) ([]string, error) {
	return defaultGenerator.NewV7StringsBulk(n)
}
