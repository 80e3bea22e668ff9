package cv

import (
	"hash/fnv"
	"math"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/san-kum/pathsim/internal/trajectory"
)

// DefaultCacheSize bounds the number of snapshots a Cached CV remembers.
const DefaultCacheSize = 4096

type cacheEntry struct {
	snap  trajectory.Snapshot
	value float64
}

// Cached memoizes an expensive CV. Ensemble splits evaluate the same frames
// many times, once per candidate window.
type Cached struct {
	inner CV
	cache *lru.Cache[uint64, cacheEntry]

	hits, misses atomic.Int64
}

func NewCached(inner CV, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[uint64, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: c}, nil
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) Eval(s trajectory.Snapshot) float64 {
	key := snapshotKey(s)
	if e, ok := c.cache.Get(key); ok && e.snap.Equal(s) {
		c.hits.Add(1)
		return e.value
	}
	c.misses.Add(1)
	v := c.inner.Eval(s)
	c.cache.Add(key, cacheEntry{snap: s, value: v})
	return v
}

// Stats reports cache hits and misses since construction.
func (c *Cached) Stats() (hits, misses int) {
	return int(c.hits.Load()), int(c.misses.Load())
}

func snapshotKey(s trajectory.Snapshot) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	write := func(f float64) {
		b := math.Float64bits(f)
		for i := range buf {
			buf[i] = byte(b >> (8 * i))
		}
		h.Write(buf[:])
	}
	write(s.Time)
	for _, v := range s.State {
		write(v)
	}
	return h.Sum64()
}
