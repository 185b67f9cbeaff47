package recorder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestSimulatorStartStop(t *testing.T) {
	asset := filepath.Join(t.TempDir(), "demo.mp4")
	writeFile(t, asset, "video")

	r := NewSimulator(asset)
	ctx := context.Background()

	if _, err := r.Stop(ctx); !errors.Is(err, ErrNotRecording) {
		t.Errorf("stop before start: err = %v, want ErrNotRecording", err)
	}
	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !r.Recording() {
		t.Error("Recording() = false after start")
	}
	if err := r.Start(ctx); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second start: err = %v, want ErrAlreadyRecording", err)
	}

	got, err := r.Stop(ctx)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got != asset {
		t.Errorf("media = %q, want %q", got, asset)
	}
	if r.Recording() {
		t.Error("Recording() = true after stop")
	}
}

func TestSimulatorMissingAsset(t *testing.T) {
	r := NewSimulator(filepath.Join(t.TempDir(), "missing.mp4"))
	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := r.Stop(ctx); err == nil {
		t.Error("expected error for missing asset")
	}
	if r.Recording() {
		t.Error("Recording() = true after failed stop")
	}
}

func TestImportCopiesIntoMediaDir(t *testing.T) {
	src := filepath.Join(t.TempDir(), "Clip.MOV")
	writeFile(t, src, "frames")
	mediaDir := filepath.Join(t.TempDir(), "media")

	r := NewImport(src, mediaDir)
	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	got, err := r.Stop(ctx)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}

	if filepath.Dir(got) != mediaDir {
		t.Errorf("dir = %q, want %q", filepath.Dir(got), mediaDir)
	}
	if !strings.HasSuffix(got, ".mov") {
		t.Errorf("name = %q, want lower-cased .mov extension", filepath.Base(got))
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(data) != "frames" {
		t.Errorf("content = %q, want %q", data, "frames")
	}
}

func TestImportDiscard(t *testing.T) {
	src := filepath.Join(t.TempDir(), "clip.mp4")
	writeFile(t, src, "frames")
	mediaDir := filepath.Join(t.TempDir(), "media")

	r := NewImport(src, mediaDir)
	ctx := context.Background()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	got, err := r.Stop(ctx)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}

	// Only copies in the media dir may be discarded.
	if err := r.Discard(src); err == nil {
		t.Error("expected error discarding the source")
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source removed: %v", err)
	}

	if err := r.Discard(got); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, err := os.Stat(got); !os.IsNotExist(err) {
		t.Errorf("copy still present: %v", err)
	}
	if err := r.Discard(got); err != nil {
		t.Errorf("second discard: %v", err)
	}
}

func TestCopyMediaUniqueNames(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.mp4")
	writeFile(t, src, "x")
	dir := t.TempDir()

	first, err := CopyMedia(context.Background(), src, dir)
	if err != nil {
		t.Fatalf("copy 1: %v", err)
	}
	second, err := CopyMedia(context.Background(), src, dir)
	if err != nil {
		t.Fatalf("copy 2: %v", err)
	}
	if first == second {
		t.Errorf("both copies named %q", first)
	}
}

func TestCopyMediaErrors(t *testing.T) {
	if _, err := CopyMedia(context.Background(), "/nonexistent/clip.mp4", t.TempDir()); err == nil {
		t.Error("expected error for missing source")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := CopyMedia(ctx, "/nonexistent/clip.mp4", t.TempDir()); !errors.Is(err, context.Canceled) {
		t.Errorf("canceled: err = %v, want context.Canceled", err)
	}
}
