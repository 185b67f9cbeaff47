package caption

import (
	"sort"
	"time"
)

// NoSegment is the Event index reported when no segment is current.
const NoSegment = -1

// Event is emitted when the current segment changes.
type Event struct {
	Index     int    // index into the active segment list, or NoSegment
	Animation string // animation id for the new segment's text, "" when none
}

// Idle reports whether the event moves the cursor to no segment.
func (e Event) Idle() bool {
	return e.Index == NoSegment
}

// Cursor tracks which segment of an ordered list is current for a
// non-decreasing playback clock. It is not safe for concurrent use.
type Cursor struct {
	segments []Segment
	active   int
}

// NewCursor returns an idle cursor over segs. segs must be sorted by Start
// and must not be mutated afterwards.
func NewCursor(segs []Segment) *Cursor {
	return &Cursor{segments: segs, active: NoSegment}
}

// Segments returns the active segment list.
func (c *Cursor) Segments() []Segment {
	return c.segments
}

// Current returns the active index, if any.
func (c *Cursor) Current() (int, bool) {
	if c.active == NoSegment {
		return NoSegment, false
	}
	return c.active, true
}

// Reset swaps in a new segment list and returns the cursor to idle without
// emitting an event. Callers advance again to get the first transition.
func (c *Cursor) Reset(segs []Segment) {
	c.segments = segs
	c.active = NoSegment
}

// Advance moves the cursor to time t. It returns an event and true only when
// the current segment changes; repeated samples inside the same segment (or
// the same gap) return false.
func (c *Cursor) Advance(t time.Duration) (Event, bool) {
	target := c.match(t)
	if target == c.active {
		return Event{}, false
	}
	c.active = target
	return Event{Index: target}, true
}

// match returns the lowest index whose interval contains t. Only segments
// starting at or before t can match, so the scan stops at that bound.
func (c *Cursor) match(t time.Duration) int {
	bound := sort.Search(len(c.segments), func(i int) bool {
		return c.segments[i].Start > t
	})
	for i := 0; i < bound; i++ {
		if c.segments[i].Contains(t) {
			return i
		}
	}
	return NoSegment
}
