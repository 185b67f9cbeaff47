package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("capture: %w", AuthorizationDenied("speech permission", nil))

	if !errors.Is(err, ErrAuthorizationDenied) {
		t.Error("expected errors.Is to match ErrAuthorizationDenied")
	}
	if errors.Is(err, ErrRecognizerUnavailable) {
		t.Error("authorization error should not match recognizer unavailable")
	}

	var te *Error
	if !errors.As(err, &te) || te.Reason != "speech permission" {
		t.Errorf("errors.As = %+v", te)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk on fire")
	err := Failed("write", cause)
	if !errors.Is(err, cause) {
		t.Error("Failed should wrap its cause")
	}
	if !errors.Is(err, ErrFailed) {
		t.Error("Failed should match ErrFailed")
	}
	if got := err.Error(); got != "transcription failed: write: disk on fire" {
		t.Errorf("Error() = %q", got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestSidecarJSONNextToMedia(t *testing.T) {
	dir := t.TempDir()
	media := filepath.Join(dir, "clip.mp4")
	writeFile(t, media, "video")
	writeFile(t, filepath.Join(dir, "clip.json"),
		`[{"text":"world","startTime":1,"duration":0.5},{"text":"Hi","startTime":0,"duration":0.5}]`)

	segs, err := NewSidecar("").Transcribe(context.Background(), media)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].Text != "Hi" || segs[1].Start != time.Second {
		t.Errorf("segments not sorted by start: %+v", segs)
	}
}

func TestSidecarVTTInCaptionsDir(t *testing.T) {
	mediaDir := t.TempDir()
	capDir := t.TempDir()
	media := filepath.Join(mediaDir, "talk.mov")
	writeFile(t, filepath.Join(capDir, "talk.vtt"), "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nfocus\n")

	segs, err := NewSidecar(capDir).Transcribe(context.Background(), media)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(segs) != 1 || segs[0].Text != "focus" {
		t.Errorf("segments = %+v", segs)
	}
}

func TestSidecarMissingIsRecognizerUnavailable(t *testing.T) {
	dir := t.TempDir()
	_, err := NewSidecar(dir).Transcribe(context.Background(), filepath.Join(dir, "none.mp4"))
	if !errors.Is(err, ErrRecognizerUnavailable) {
		t.Errorf("err = %v, want ErrRecognizerUnavailable", err)
	}
}

func TestSidecarCorruptIsFailed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.json"), `{"nope"`)

	_, err := NewSidecar("").Transcribe(context.Background(), filepath.Join(dir, "bad.mp4"))
	if !errors.Is(err, ErrFailed) {
		t.Errorf("err = %v, want ErrFailed", err)
	}
}

func TestSidecarCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSidecar("").Transcribe(ctx, "x.mp4"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
