package caption

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	cueTimeRegex = regexp.MustCompile(`((?:\d+:)?\d{2}:\d{2}\.\d{3})\s+-->\s+((?:\d+:)?\d{2}:\d{2}\.\d{3})`)
	cueTagRegex  = regexp.MustCompile(`<[^>]*>`)
)

// ParseVTT reads WebVTT cues into segments, one per cue. Cue markup is
// stripped and multi-line cue text is joined with spaces. Cues with no text
// or a non-positive duration are skipped.
func ParseVTT(r io.Reader) ([]Segment, error) {
	var segs []Segment
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		matches := cueTimeRegex.FindStringSubmatch(line)
		if len(matches) < 3 {
			continue
		}

		start, err := parseVTTTime(matches[1])
		if err != nil {
			return nil, fmt.Errorf("cue start %q: %w", matches[1], err)
		}
		end, err := parseVTTTime(matches[2])
		if err != nil {
			return nil, fmt.Errorf("cue end %q: %w", matches[2], err)
		}

		var textLines []string
		for scanner.Scan() {
			textLine := strings.TrimSpace(scanner.Text())
			if textLine == "" {
				break
			}
			clean := strings.TrimSpace(cueTagRegex.ReplaceAllString(textLine, ""))
			if clean != "" {
				textLines = append(textLines, clean)
			}
		}

		if len(textLines) == 0 || end <= start {
			continue
		}
		segs = append(segs, Segment{
			Text:  strings.Join(textLines, " "),
			Start: start,
			Span:  end - start,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vtt: %w", err)
	}
	return segs, nil
}

// parseVTTTime parses "HH:MM:SS.mmm" or "MM:SS.mmm".
func parseVTTTime(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) == 2 {
		parts = append([]string{"0"}, parts...)
	}
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp")
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	secParts := strings.SplitN(parts[2], ".", 2)
	if len(secParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp")
	}
	secs, err := strconv.Atoi(secParts[0])
	if err != nil {
		return 0, err
	}
	millis, err := strconv.Atoi(secParts[1])
	if err != nil {
		return 0, err
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(secs)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}
