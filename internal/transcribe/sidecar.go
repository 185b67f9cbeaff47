package transcribe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwulff/captionbuddy/internal/caption"
)

// Sidecar reads captions that were produced ahead of time and stored next to
// the media: "<name>.json" in the persisted caption shape, or "<name>.vtt".
// It stands in for a live recognizer in the simulator and for demo data.
type Sidecar struct {
	// Dir is searched after the media's own directory when set.
	Dir string
}

// NewSidecar returns a Sidecar that also searches dir.
func NewSidecar(dir string) *Sidecar {
	return &Sidecar{Dir: dir}
}

// Transcribe loads the first caption file found for mediaRef.
func (s *Sidecar) Transcribe(ctx context.Context, mediaRef string) ([]caption.Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, Failed("canceled", err)
	}

	path, ok := s.Find(mediaRef)
	if !ok {
		return nil, RecognizerUnavailable(fmt.Sprintf("no caption file for %s", filepath.Base(mediaRef)), nil)
	}

	segs, err := ReadCaptionFile(path)
	if err != nil {
		return nil, Failed(filepath.Base(path), err)
	}
	return segs, nil
}

// Find returns the caption file for mediaRef, if one exists.
func (s *Sidecar) Find(mediaRef string) (string, bool) {
	base := strings.TrimSuffix(filepath.Base(mediaRef), filepath.Ext(mediaRef))
	dirs := []string{filepath.Dir(mediaRef)}
	if s.Dir != "" {
		dirs = append(dirs, s.Dir)
	}

	for _, dir := range dirs {
		for _, ext := range []string{".json", ".vtt"} {
			candidate := filepath.Join(dir, base+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, true
			}
		}
	}
	return "", false
}

// ReadCaptionFile parses a .json or .vtt caption file and sorts the result.
func ReadCaptionFile(path string) ([]caption.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("caption file %s: %w", path, err)
		}
		return nil, fmt.Errorf("open caption file: %w", err)
	}
	defer f.Close()

	var segs []caption.Segment
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vtt":
		segs, err = caption.ParseVTT(f)
	case ".json":
		var data []byte
		data, err = io.ReadAll(f)
		if err == nil {
			segs, err = caption.ParseJSON(data)
		}
	default:
		return nil, fmt.Errorf("unsupported caption format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return caption.SortByStart(segs), nil
}
