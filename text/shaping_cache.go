package text

import (
	"hash/fnv"
	"math"
	"sync"
	"sync/atomic"
)

const (
	// shardCount must be a power of two.
	shardCount = 16
	shardMask  = shardCount - 1

	// DefaultShapingCacheCapacity is the default number of runs kept per
	// shard.
	DefaultShapingCacheCapacity = 256
)

// ShapingKey identifies a shaped run. Every input that affects shaping is
// part of the key, including the surrounding paragraph.
type ShapingKey struct {
	// TextHash is the FNV-1a hash of the whole paragraph.
	TextHash   uint64
	Start, End int

	FontID uint64

	// SizeBits is the IEEE 754 bit pattern of the face size.
	SizeBits uint64

	Direction Direction
	Language  string
}

func shapingKey(in Input) ShapingKey {
	h := fnv.New64a()
	var buf [4]byte
	for _, r := range in.Text {
		buf[0], buf[1], buf[2], buf[3] = byte(r), byte(r>>8), byte(r>>16), byte(r>>24)
		_, _ = h.Write(buf[:]) // fnv.Write never returns an error
	}
	return ShapingKey{
		TextHash:  h.Sum64(),
		Start:     in.Start,
		End:       in.End,
		FontID:    in.Face.Font().ID(),
		SizeBits:  math.Float64bits(in.Face.Size()),
		Direction: in.Direction,
		Language:  in.Language,
	}
}

// ShapingCacheStats reports cache effectiveness.
type ShapingCacheStats struct {
	Len       int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s ShapingCacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// CachingShaper memoizes the runs of another Shaper in a sharded LRU.
// Text drawn every frame is then shaped once. Errors are not cached.
//
// CachingShaper is safe for concurrent use when the wrapped shaper is.
type CachingShaper struct {
	shaper   Shaper
	capacity int
	shards   [shardCount]*shapingShard

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shapingShard struct {
	mu      sync.Mutex
	entries map[ShapingKey]*shapingEntry
	// head is the most recently used entry, tail the least.
	head, tail *shapingEntry
}

type shapingEntry struct {
	key        ShapingKey
	run        Run
	prev, next *shapingEntry
}

// NewCachingShaper wraps s. capacity is the number of runs kept per shard;
// values <= 0 select DefaultShapingCacheCapacity.
func NewCachingShaper(s Shaper, capacity int) *CachingShaper {
	if capacity <= 0 {
		capacity = DefaultShapingCacheCapacity
	}
	c := &CachingShaper{shaper: s, capacity: capacity}
	for i := range c.shards {
		c.shards[i] = &shapingShard{entries: make(map[ShapingKey]*shapingEntry)}
	}
	return c
}

// Shape implements Shaper.
func (c *CachingShaper) Shape(in Input) (Run, error) {
	if in.Face == nil || in.Face.Font() == nil {
		return c.shaper.Shape(in)
	}
	key := shapingKey(in)
	shard := c.shards[key.TextHash&shardMask]

	shard.mu.Lock()
	if e, ok := shard.entries[key]; ok {
		shard.moveToFront(e)
		run := e.run
		shard.mu.Unlock()
		c.hits.Add(1)
		return withFace(run, in.Face), nil
	}
	shard.mu.Unlock()
	c.misses.Add(1)

	// Shape outside the lock; a concurrent miss on the same key shapes
	// twice and the later Set wins.
	run, err := c.shaper.Shape(in)
	if err != nil {
		return run, err
	}
	stored := withFace(run, in.Face)

	shard.mu.Lock()
	defer shard.mu.Unlock()
	if e, ok := shard.entries[key]; ok {
		e.run = stored
		shard.moveToFront(e)
		return run, nil
	}
	for len(shard.entries) >= c.capacity && shard.tail != nil {
		old := shard.tail
		shard.unlink(old)
		delete(shard.entries, old.key)
		c.evictions.Add(1)
	}
	e := &shapingEntry{key: key, run: stored}
	shard.entries[key] = e
	shard.linkFront(e)
	return run, nil
}

// withFace returns run with its own glyph slice and the caller's face.
func withFace(run Run, face *Face) Run {
	run.Glyphs = append([]Glyph(nil), run.Glyphs...)
	run.Face = face
	return run
}

// Len returns the number of cached runs.
func (c *CachingShaper) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Clear drops every cached run. Statistics are kept.
func (c *CachingShaper) Clear() {
	for _, s := range c.shards {
		s.mu.Lock()
		s.entries = make(map[ShapingKey]*shapingEntry)
		s.head, s.tail = nil, nil
		s.mu.Unlock()
	}
}

// Stats returns the current statistics.
func (c *CachingShaper) Stats() ShapingCacheStats {
	return ShapingCacheStats{
		Len:       c.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (s *shapingShard) moveToFront(e *shapingEntry) {
	if s.head == e {
		return
	}
	s.unlink(e)
	s.linkFront(e)
}

func (s *shapingShard) linkFront(e *shapingEntry) {
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *shapingShard) unlink(e *shapingEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev, e.next = nil, nil
}
