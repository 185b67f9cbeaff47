// Package recorder produces media files for the library. Hardware capture is
// not implemented here; strategies either hand back a prepared asset or copy
// an existing file into the media directory.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrAlreadyRecording = errors.New("already recording")
	ErrNotRecording     = errors.New("not recording")
)

// Recorder starts and stops a capture. Stop returns the media reference
// (a file path) of the finished recording.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (string, error)
	Recording() bool
}

// Discarder is implemented by recorders that own the media they produce.
// Discard removes a capture that will not be kept.
type Discarder interface {
	Discard(mediaRef string) error
}

// state is the start/stop bookkeeping shared by the strategies.
type state struct {
	mu        sync.Mutex
	recording bool
}

func (s *state) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recording {
		return ErrAlreadyRecording
	}
	s.recording = true
	return nil
}

func (s *state) stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recording {
		return ErrNotRecording
	}
	s.recording = false
	return nil
}

func (s *state) Recording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// Simulator pretends to record and returns a fixed demo asset on Stop.
type Simulator struct {
	state
	Asset string
}

var _ Recorder = (*Simulator)(nil)

// NewSimulator returns a Simulator that yields asset.
func NewSimulator(asset string) *Simulator {
	return &Simulator{Asset: asset}
}

func (s *Simulator) Start(ctx context.Context) error {
	return s.start()
}

func (s *Simulator) Stop(ctx context.Context) (string, error) {
	if err := s.stop(); err != nil {
		return "", err
	}
	if _, err := os.Stat(s.Asset); err != nil {
		return "", fmt.Errorf("demo asset: %w", err)
	}
	return s.Asset, nil
}

// Import "records" by copying Source into MediaDir under a fresh name.
type Import struct {
	state
	Source   string
	MediaDir string
}

var _ Recorder = (*Import)(nil)

// NewImport returns an Import recorder for source.
func NewImport(source, mediaDir string) *Import {
	return &Import{Source: source, MediaDir: mediaDir}
}

func (r *Import) Start(ctx context.Context) error {
	return r.start()
}

func (r *Import) Stop(ctx context.Context) (string, error) {
	if err := r.stop(); err != nil {
		return "", err
	}
	return CopyMedia(ctx, r.Source, r.MediaDir)
}

// Discard removes a copy made by Stop.
func (r *Import) Discard(mediaRef string) error {
	if filepath.Dir(mediaRef) != filepath.Clean(r.MediaDir) {
		return fmt.Errorf("discard %s: not in media dir", mediaRef)
	}
	if err := os.Remove(mediaRef); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("discard media: %w", err)
	}
	return nil
}

var _ Discarder = (*Import)(nil)

// CopyMedia copies src into dir as "<uuid><ext>" and returns the new path.
// A partially written file is removed on failure.
func CopyMedia(ctx context.Context, src, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open media: %w", err)
	}
	defer in.Close()

	dst := filepath.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(src)))
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("copy media: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close media file: %w", err)
	}
	return dst, nil
}
