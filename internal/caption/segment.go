// Package caption holds the timed caption model and the cursor that tracks
// which caption is current for a playback clock.
package caption

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"
)

// Segment is one timed unit of transcribed text within a media item.
type Segment struct {
	Text  string
	Start time.Duration // offset from the start of the owning media item
	Span  time.Duration
}

// End returns the exclusive end offset of the segment.
func (s Segment) End() time.Duration {
	return s.Start + s.Span
}

// Contains reports whether t falls in [Start, End).
func (s Segment) Contains(t time.Duration) bool {
	return t >= s.Start && t < s.End()
}

// wireSegment is the persisted caption shape shared with stored recordings and
// demo caption files. Times are seconds.
type wireSegment struct {
	Text      string  `json:"text"`
	StartTime float64 `json:"startTime"`
	Duration  float64 `json:"duration"`
}

// MarshalJSON encodes the segment as {"text","startTime","duration"}.
func (s Segment) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSegment{
		Text:      s.Text,
		StartTime: seconds(s.Start),
		Duration:  seconds(s.Span),
	})
}

// UnmarshalJSON decodes the {"text","startTime","duration"} shape.
func (s *Segment) UnmarshalJSON(data []byte) error {
	var w wireSegment
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.Text = w.Text
	s.Start = fromSeconds(w.StartTime)
	s.Span = fromSeconds(w.Duration)
	return nil
}

// ParseJSON decodes a caption list. A null or empty document yields no segments.
func ParseJSON(data []byte) ([]Segment, error) {
	var segs []Segment
	if len(data) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(data, &segs); err != nil {
		return nil, fmt.Errorf("decode captions: %w", err)
	}
	return segs, nil
}

// MarshalJSON encodes a caption list. A nil list encodes as an empty array.
func MarshalJSON(segs []Segment) ([]byte, error) {
	if segs == nil {
		segs = []Segment{}
	}
	data, err := json.Marshal(segs)
	if err != nil {
		return nil, fmt.Errorf("encode captions: %w", err)
	}
	return data, nil
}

// SortByStart returns a copy of segs ordered by start offset. Segments with
// equal starts keep their relative order.
func SortByStart(segs []Segment) []Segment {
	out := make([]Segment, len(segs))
	copy(out, segs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}

// TotalSpan returns the latest end offset in segs, or 0 for an empty list.
func TotalSpan(segs []Segment) time.Duration {
	var end time.Duration
	for _, s := range segs {
		if e := s.End(); e > end {
			end = e
		}
	}
	return end
}

func seconds(d time.Duration) float64 {
	return float64(d) / float64(time.Second)
}

// fromSeconds rounds to the nearest nanosecond so values survive a
// seconds -> duration -> seconds round trip.
func fromSeconds(sec float64) time.Duration {
	return time.Duration(math.Round(sec * float64(time.Second)))
}
