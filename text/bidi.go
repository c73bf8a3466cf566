package text

import (
	"slices"

	"golang.org/x/text/unicode/bidi"
)

// bidiRun is a directional run in logical order. Level follows the
// Unicode bidi convention: even levels are left to right.
type bidiRun struct {
	start, end int
	level      int
}

func (r bidiRun) direction() Direction {
	if r.level%2 == 1 {
		return RightToLeft
	}
	return LeftToRight
}

// bidiRuns splits text into directional runs. Text that the bidi
// algorithm rejects is treated as a single run in the base direction.
func bidiRuns(text []rune, base Direction) []bidiRun {
	baseLevel := 0
	def := bidi.LeftToRight
	if base == RightToLeft {
		baseLevel = 1
		def = bidi.RightToLeft
	}
	whole := []bidiRun{{start: 0, end: len(text), level: baseLevel}}
	if len(text) == 0 {
		return whole
	}

	var p bidi.Paragraph
	if _, err := p.SetString(string(text), bidi.DefaultDirection(def)); err != nil {
		return whole
	}
	order, err := p.Order()
	if err != nil {
		return whole
	}

	runs := make([]bidiRun, 0, order.NumRuns())
	for i := 0; i < order.NumRuns(); i++ {
		r := order.Run(i)
		// Pos reports an inclusive rune range.
		start, end := r.Pos()
		level := baseLevel
		switch r.Direction() {
		case bidi.RightToLeft:
			level = 1
		case bidi.LeftToRight:
			if baseLevel == 1 {
				level = 2
			}
		}
		runs = append(runs, bidiRun{start: start, end: end + 1, level: level})
	}
	slices.SortFunc(runs, func(a, b bidiRun) int { return a.start - b.start })

	next := 0
	for _, r := range runs {
		if r.start != next || r.end <= r.start {
			return whole
		}
		next = r.end
	}
	if next != len(text) {
		return whole
	}
	return runs
}

// visualOrder returns the indices of items in display order given their
// embedding levels, reversing every maximal sequence at or above each
// level from the highest down to the lowest odd one.
func visualOrder(levels []int) []int {
	order := make([]int, len(levels))
	for i := range order {
		order[i] = i
	}
	if len(levels) == 0 {
		return order
	}
	hi, lowOdd := 0, -1
	for _, l := range levels {
		hi = max(hi, l)
		if l%2 == 1 && (lowOdd < 0 || l < lowOdd) {
			lowOdd = l
		}
	}
	if lowOdd < 0 {
		return order
	}
	for lvl := hi; lvl >= lowOdd; lvl-- {
		for i := 0; i < len(order); {
			if levels[order[i]] < lvl {
				i++
				continue
			}
			j := i
			for j < len(order) && levels[order[j]] >= lvl {
				j++
			}
			slices.Reverse(order[i:j])
			i = j
		}
	}
	return order
}
