// Package library runs the capture pipeline (record, transcribe, save) and
// seeds the store with demo recordings.
package library

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jwulff/captionbuddy/internal/db"
	"github.com/jwulff/captionbuddy/internal/recorder"
	"github.com/jwulff/captionbuddy/internal/transcribe"
)

// mediaExts are the file types picked up by ImportDemo.
var mediaExts = map[string]bool{
	".mp4": true,
	".mov": true,
	".m4a": true,
	".wav": true,
	".mp3": true,
}

// Library ties a recorder and a transcriber to the recording store.
type Library struct {
	rec   recorder.Recorder
	tr    transcribe.Transcriber
	store *db.Store
}

// New creates a Library.
func New(rec recorder.Recorder, tr transcribe.Transcriber, store *db.Store) *Library {
	return &Library{rec: rec, tr: tr, store: store}
}

// Toggle starts recording when idle. When recording it finishes the capture
// and returns the saved recording.
func (l *Library) Toggle(ctx context.Context) (*db.Recording, error) {
	if !l.rec.Recording() {
		if err := l.rec.Start(ctx); err != nil {
			return nil, fmt.Errorf("start recording: %w", err)
		}
		return nil, nil
	}
	r, err := l.Capture(ctx)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Capture stops the recorder, transcribes the media and saves the result.
// If transcription or saving fails nothing is kept: media the recorder owns
// is discarded and the error is returned.
func (l *Library) Capture(ctx context.Context) (db.Recording, error) {
	mediaRef, err := l.rec.Stop(ctx)
	if err != nil {
		return db.Recording{}, fmt.Errorf("stop recording: %w", err)
	}
	r, err := l.Add(ctx, mediaRef)
	if err != nil {
		if d, ok := l.rec.(recorder.Discarder); ok {
			if derr := d.Discard(mediaRef); derr != nil {
				log.Printf("capture: %v", derr)
			}
		}
		return db.Recording{}, err
	}
	return r, nil
}

// Add transcribes an existing media file and saves it.
func (l *Library) Add(ctx context.Context, mediaRef string) (db.Recording, error) {
	segs, err := l.tr.Transcribe(ctx, mediaRef)
	if err != nil {
		return db.Recording{}, fmt.Errorf("transcribe %s: %w", filepath.Base(mediaRef), err)
	}

	r, err := l.store.Save(ctx, mediaRef, segs)
	if err != nil {
		return db.Recording{}, fmt.Errorf("save recording: %w", err)
	}
	log.Printf("saved recording %s (%d segments)", r.ID, len(segs))
	return r, nil
}

// ImportDemo saves every media file in dir that has a caption sidecar.
// Files without captions, or with unreadable ones, are logged and skipped.
func ImportDemo(ctx context.Context, store *db.Store, dir string) ([]db.Recording, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read demo dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && mediaExts[strings.ToLower(filepath.Ext(e.Name()))] {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	sidecar := transcribe.NewSidecar(dir)
	var saved []db.Recording
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		mediaRef := filepath.Join(dir, name)
		path, ok := sidecar.Find(mediaRef)
		if !ok {
			log.Printf("demo: no captions for %s, skipping", name)
			continue
		}
		segs, err := transcribe.ReadCaptionFile(path)
		if err != nil {
			log.Printf("demo: %s: %v", filepath.Base(path), err)
			continue
		}

		r, err := store.Save(ctx, mediaRef, segs)
		if err != nil {
			return saved, fmt.Errorf("save demo %s: %w", name, err)
		}
		saved = append(saved, r)
	}
	return saved, nil
}
