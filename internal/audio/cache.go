package audio

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// DefaultPrewarmLimit bounds concurrent decoder processes.
const DefaultPrewarmLimit = 4

type cacheEntry struct {
	buf Buffer
	err error
}

// BufferCache decodes each source at most once. Failures are cached too, so a
// broken source is never retried within a session.
type BufferCache struct {
	decode Decoder
	limit  int

	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

func NewBufferCache(decode Decoder) *BufferCache {
	return &BufferCache{decode: decode, limit: DefaultPrewarmLimit, entries: map[string]cacheEntry{}}
}

// SetLimit bounds concurrent decodes during Prewarm.
func (c *BufferCache) SetLimit(n int) {
	if n > 0 {
		c.limit = n
	}
}

// Lookup is the non-blocking read used by the editing loop. done is false
// until a decode for src has finished.
func (c *BufferCache) Lookup(src string) (buf Buffer, done bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[src]
	if !ok {
		return Buffer{}, false, nil
	}
	return e.buf, true, e.err
}

// Errored reports whether decoding src already failed.
func (c *BufferCache) Errored(src string) bool {
	_, done, err := c.Lookup(src)
	return done && err != nil
}

// Load returns the decoded buffer for src, decoding it if needed. Concurrent
// calls for the same source share one decode.
func (c *BufferCache) Load(ctx context.Context, src string) (Buffer, error) {
	if buf, done, err := c.Lookup(src); done {
		return buf, err
	}
	v, err, _ := c.group.Do(src, func() (any, error) {
		if buf, done, err := c.Lookup(src); done {
			return buf, err
		}
		buf, err := c.decode(ctx, src)
		// A cancelled caller says nothing about the source.
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return Buffer{}, err
		}
		c.mu.Lock()
		c.entries[src] = cacheEntry{buf: buf, err: err}
		c.mu.Unlock()
		return buf, err
	})
	if err != nil {
		return Buffer{}, err
	}
	return v.(Buffer), nil
}

// Prewarm decodes srcs concurrently. Per-source failures are recorded in the
// cache rather than returned; only cancellation aborts the batch.
func (c *BufferCache) Prewarm(ctx context.Context, srcs []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.limit)
	seen := map[string]bool{}
	for _, src := range srcs {
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		g.Go(func() error {
			if _, err := c.Load(ctx, src); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	return g.Wait()
}
