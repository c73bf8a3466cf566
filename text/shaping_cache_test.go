package text

import (
	"errors"
	"sync"
	"testing"
)

// countingShaper counts calls to the wrapped shaper.
type countingShaper struct {
	mu    sync.Mutex
	calls int
	err   error
	inner Shaper
}

func (s *countingShaper) Shape(in Input) (Run, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return Run{}, s.err
	}
	return s.inner.Shape(in)
}

func input(s string, face *Face) Input {
	r := []rune(s)
	return Input{Text: r, End: len(r), Face: face}
}

func TestCachingShaperHit(t *testing.T) {
	inner := &countingShaper{inner: NewGoTextShaper()}
	c := NewCachingShaper(inner, 0)
	face := DefaultFont().Face(16)

	first, err := c.Shape(input("Hello", face))
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	second, err := c.Shape(input("Hello", face))
	if err != nil {
		t.Fatalf("Shape: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
	if len(first.Glyphs) != len(second.Glyphs) || first.Advance != second.Advance {
		t.Errorf("cached run differs: %+v vs %+v", first, second)
	}

	// Mutating a returned run must not corrupt the cache.
	second.Glyphs[0].ID = 0
	third, _ := c.Shape(input("Hello", face))
	if third.Glyphs[0].ID == 0 {
		t.Error("cache shares glyph storage with callers")
	}

	st := c.Stats()
	if st.Hits != 2 || st.Misses != 1 || st.Len != 1 {
		t.Errorf("stats = %+v, want 2 hits, 1 miss, 1 entry", st)
	}
	if got := st.HitRate(); got < 0.66 || got > 0.67 {
		t.Errorf("HitRate = %v, want 2/3", got)
	}
}

func TestCachingShaperKey(t *testing.T) {
	inner := &countingShaper{inner: NewGoTextShaper()}
	c := NewCachingShaper(inner, 0)
	f16 := DefaultFont().Face(16)

	inputs := []Input{
		input("Hello", f16),
		input("Hello", DefaultFont().Face(20)),
		input("Help!", f16),
		{Text: []rune("Hello"), Start: 1, End: 5, Face: f16},
		{Text: []rune("Hello"), End: 5, Face: f16, Language: "fr"},
		{Text: []rune("Hello"), End: 5, Face: f16, Direction: RightToLeft},
	}
	for _, in := range inputs {
		if _, err := c.Shape(in); err != nil {
			t.Fatalf("Shape: %v", err)
		}
	}
	if inner.calls != len(inputs) {
		t.Errorf("inner calls = %d, want %d distinct keys", inner.calls, len(inputs))
	}

	// A different *Face with the same font and size shares the entry and
	// gets its own face back.
	other := DefaultFont().Face(16)
	run, _ := c.Shape(input("Hello", other))
	if inner.calls != len(inputs) {
		t.Errorf("equal face re-shaped: calls = %d", inner.calls)
	}
	if run.Face != other {
		t.Error("cached run does not carry the caller's face")
	}
}

func TestCachingShaperEviction(t *testing.T) {
	inner := &countingShaper{inner: NewGoTextShaper()}
	c := NewCachingShaper(inner, 1)
	face := DefaultFont().Face(12)

	words := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j",
		"k", "l", "m", "n", "o", "p", "q", "r", "s", "t"}
	for _, w := range words {
		if _, err := c.Shape(input(w, face)); err != nil {
			t.Fatalf("Shape(%q): %v", w, err)
		}
	}
	if got := c.Len(); got > shardCount {
		t.Errorf("Len = %d, want at most one per shard (%d)", got, shardCount)
	}
	st := c.Stats()
	if int(st.Evictions) != len(words)-c.Len() {
		t.Errorf("evictions = %d, want %d", st.Evictions, len(words)-c.Len())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d", c.Len())
	}
}

func TestCachingShaperErrorsNotCached(t *testing.T) {
	boom := errors.New("boom")
	inner := &countingShaper{err: boom}
	c := NewCachingShaper(inner, 0)
	face := DefaultFont().Face(16)

	for range 2 {
		if _, err := c.Shape(input("x", face)); !errors.Is(err, boom) {
			t.Fatalf("Shape = %v, want boom", err)
		}
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestCachingShaperConcurrent(t *testing.T) {
	c := NewCachingShaper(NewGoTextShaper(), 0)
	face := DefaultFont().Face(16)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 20 {
				s := string(rune('a' + (i+j)%26))
				if _, err := c.Shape(input(s, face)); err != nil {
					t.Errorf("Shape: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if c.Len() == 0 {
		t.Error("nothing cached")
	}
}
