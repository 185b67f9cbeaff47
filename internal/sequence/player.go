// Package sequence plays captions across a queue of media items, presenting
// one caption cursor that is re-seeded whenever an item finishes.
package sequence

import (
	"time"

	"github.com/jwulff/captionbuddy/internal/caption"
)

// Animator resolves a caption's text to an animation id.
type Animator interface {
	Lookup(word string) (string, bool)
}

// Item is one queued media item and its captions.
type Item struct {
	MediaRef string
	Segments []caption.Segment
}

// Duration returns the nominal length of the item: the end of its last caption.
func (it Item) Duration() time.Duration {
	return caption.TotalSpan(it.Segments)
}

// Player coordinates a caption cursor over a queue of items. It is driven by
// one goroutine at a time: the playback clock and the item-finished signal
// must be delivered from the same goroutine that consumes events.
type Player struct {
	queue    []Item
	current  int
	started  bool
	cursor   *caption.Cursor
	animator Animator
}

// New returns an empty, unstarted player. animator may be nil, in which case
// events never carry an animation id.
func New(animator Animator) *Player {
	return &Player{
		cursor:   caption.NewCursor(nil),
		animator: animator,
	}
}

// Enqueue appends an item. It may be called before or during playback.
func (p *Player) Enqueue(item Item) {
	p.queue = append(p.queue, item)
}

// Len returns the number of queued items, including finished ones.
func (p *Player) Len() int {
	return len(p.queue)
}

// Start begins playback at the first item. It reports false, leaving the
// player unstarted, when nothing is queued. Starting again restarts at the
// first item.
func (p *Player) Start() bool {
	if len(p.queue) == 0 {
		return false
	}
	p.current = 0
	p.started = true
	p.cursor.Reset(p.queue[0].Segments)
	return true
}

// Stop ends playback. The cursor is emptied and the player is unstarted.
func (p *Player) Stop() {
	p.started = false
	p.current = 0
	p.cursor.Reset(nil)
}

// OnItemFinished moves to the next queued item. It reports whether the player
// advanced; once the queue is exhausted (or before Start) it does nothing.
func (p *Player) OnItemFinished() bool {
	if !p.started || p.current+1 >= len(p.queue) {
		return false
	}
	p.current++
	p.cursor.Reset(p.queue[p.current].Segments)
	return true
}

// Done reports whether the current item is the last queued item.
func (p *Player) Done() bool {
	return p.started && p.current == len(p.queue)-1
}

// Current returns the index of the playing item.
func (p *Player) Current() (int, bool) {
	if !p.started {
		return 0, false
	}
	return p.current, true
}

// CurrentItem returns the playing item.
func (p *Player) CurrentItem() (Item, bool) {
	if !p.started {
		return Item{}, false
	}
	return p.queue[p.current], true
}

// ActiveSegment returns the caption the cursor currently points at.
func (p *Player) ActiveSegment() (caption.Segment, bool) {
	idx, ok := p.cursor.Current()
	if !p.started || !ok {
		return caption.Segment{}, false
	}
	return p.cursor.Segments()[idx], true
}

// Advance feeds a playback time, relative to the current item's start, to the
// cursor. Events for a newly active segment carry the animation id of its
// text. Before Start the player is idle and never emits.
func (p *Player) Advance(t time.Duration) (caption.Event, bool) {
	if !p.started {
		return caption.Event{}, false
	}
	ev, ok := p.cursor.Advance(t)
	if !ok {
		return ev, false
	}
	if !ev.Idle() && p.animator != nil {
		text := p.cursor.Segments()[ev.Index].Text
		if id, found := p.animator.Lookup(text); found {
			ev.Animation = id
		}
	}
	return ev, true
}
