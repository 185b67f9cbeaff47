package awstranscribe

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jwulff/captionbuddy/internal/caption"
)

// jobResult is the subset of the Transcribe output document we read.
type jobResult struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
		Items []item `json:"items"`
	} `json:"results"`
	Status string `json:"status"`
}

type item struct {
	StartTime    string        `json:"start_time,omitempty"`
	EndTime      string        `json:"end_time,omitempty"`
	Type         string        `json:"type"`
	Alternatives []alternative `json:"alternatives"`
}

type alternative struct {
	Confidence string `json:"confidence"`
	Content    string `json:"content"`
}

// decodeResult reads a Transcribe output document into word segments.
func decodeResult(r io.Reader) ([]caption.Segment, error) {
	var result jobResult
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode transcription result: %w", err)
	}
	return itemsToSegments(result.Results.Items)
}

// itemsToSegments turns pronunciation items into one segment per word.
// Punctuation items carry no timing; they are appended to the preceding word.
func itemsToSegments(items []item) ([]caption.Segment, error) {
	var segs []caption.Segment
	for _, it := range items {
		if len(it.Alternatives) == 0 {
			continue
		}
		content := strings.TrimSpace(it.Alternatives[0].Content)
		if content == "" {
			continue
		}

		switch it.Type {
		case "punctuation":
			if len(segs) > 0 {
				segs[len(segs)-1].Text += content
			}
		case "pronunciation":
			start, err := parseSeconds(it.StartTime)
			if err != nil {
				return nil, fmt.Errorf("item %q start_time: %w", content, err)
			}
			end, err := parseSeconds(it.EndTime)
			if err != nil {
				return nil, fmt.Errorf("item %q end_time: %w", content, err)
			}
			if end <= start {
				continue
			}
			segs = append(segs, caption.Segment{Text: content, Start: start, Span: end - start})
		}
	}
	return caption.SortByStart(segs), nil
}

func parseSeconds(s string) (time.Duration, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(math.Round(f * float64(time.Second))), nil
}
