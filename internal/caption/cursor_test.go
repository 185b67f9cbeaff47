package caption

import (
	"testing"
	"time"
)

func secs(f float64) time.Duration {
	return fromSeconds(f)
}

func seg(text string, start, span float64) Segment {
	return Segment{Text: text, Start: secs(start), Span: secs(span)}
}

func TestCursorStartsIdle(t *testing.T) {
	c := NewCursor([]Segment{seg("a", 0, 1)})
	if idx, ok := c.Current(); ok {
		t.Errorf("Current() = %d, want idle", idx)
	}
}

func TestCursorRepeatedSampleIsNoop(t *testing.T) {
	c := NewCursor([]Segment{seg("a", 0, 1), seg("b", 2, 1)})

	ev, ok := c.Advance(secs(0.1))
	if !ok || ev.Index != 0 {
		t.Fatalf("first advance = %+v, %v; want index 0", ev, ok)
	}
	if _, ok := c.Advance(secs(0.5)); ok {
		t.Error("second sample in the same segment should not emit")
	}
	if _, ok := c.Advance(secs(0.5)); ok {
		t.Error("repeated time should not emit")
	}

	ev, ok = c.Advance(secs(1.2))
	if !ok || !ev.Idle() {
		t.Fatalf("advance into gap = %+v, %v; want idle event", ev, ok)
	}
	if _, ok := c.Advance(secs(1.8)); ok {
		t.Error("second sample in the same gap should not emit")
	}
}

func TestCursorHalfOpenBoundary(t *testing.T) {
	c := NewCursor([]Segment{seg("a", 0, 1), seg("b", 1, 1)})

	ev, ok := c.Advance(secs(0.999))
	if !ok || ev.Index != 0 {
		t.Fatalf("advance(0.999) = %+v, %v; want index 0", ev, ok)
	}
	ev, ok = c.Advance(secs(1.0))
	if !ok || ev.Index != 1 {
		t.Fatalf("advance(1.0) = %+v, %v; want index 1", ev, ok)
	}
	ev, ok = c.Advance(secs(2.0))
	if !ok || !ev.Idle() {
		t.Fatalf("advance(2.0) = %+v, %v; want idle", ev, ok)
	}
}

func TestCursorGapAndBackwardSeek(t *testing.T) {
	c := NewCursor([]Segment{seg("a", 0, 1), seg("b", 2, 1)})

	c.Advance(secs(0.5))
	ev, ok := c.Advance(secs(1.5))
	if !ok {
		t.Fatal("expected transition into gap")
	}
	if ev.Index != NoSegment {
		t.Errorf("gap index = %d, want NoSegment", ev.Index)
	}

	ev, ok = c.Advance(secs(0.5))
	if !ok || ev.Index != 0 {
		t.Fatalf("seek back = %+v, %v; want index 0", ev, ok)
	}
}

func TestCursorOverlapLowestIndexWins(t *testing.T) {
	c := NewCursor([]Segment{seg("a", 0, 2), seg("b", 1, 2)})

	ev, ok := c.Advance(secs(1.5))
	if !ok || ev.Index != 0 {
		t.Fatalf("advance(1.5) = %+v, %v; want index 0", ev, ok)
	}
	ev, ok = c.Advance(secs(2.5))
	if !ok || ev.Index != 1 {
		t.Fatalf("advance(2.5) = %+v, %v; want index 1", ev, ok)
	}
}

func TestCursorForwardJump(t *testing.T) {
	segs := []Segment{seg("a", 0, 1), seg("b", 1, 1), seg("c", 2, 1), seg("d", 10, 1)}
	c := NewCursor(segs)

	c.Advance(0)
	ev, ok := c.Advance(secs(10.5))
	if !ok || ev.Index != 3 {
		t.Fatalf("jump = %+v, %v; want index 3", ev, ok)
	}
}

func TestCursorResetClearsState(t *testing.T) {
	c := NewCursor([]Segment{seg("a", 0, 1)})
	c.Advance(secs(0.5))
	if _, ok := c.Current(); !ok {
		t.Fatal("expected active segment before reset")
	}

	next := []Segment{seg("x", 0, 5)}
	c.Reset(next)
	if idx, ok := c.Current(); ok {
		t.Errorf("Current() after reset = %d, want idle", idx)
	}
	if len(c.Segments()) != 1 || c.Segments()[0].Text != "x" {
		t.Errorf("Segments() = %+v, want new list", c.Segments())
	}

	// Same time as before the reset still transitions on the new list.
	ev, ok := c.Advance(secs(0.5))
	if !ok || ev.Index != 0 {
		t.Errorf("advance after reset = %+v, %v; want index 0", ev, ok)
	}
}

func TestCursorEmptyListStaysIdle(t *testing.T) {
	c := NewCursor(nil)
	for _, ts := range []float64{0, 1, 100} {
		if ev, ok := c.Advance(secs(ts)); ok {
			t.Errorf("advance(%v) on empty list emitted %+v", ts, ev)
		}
	}
}
