package main

import (
	"context"
	"testing"
	"time"

	"github.com/jwulff/captionbuddy/internal/caption"
	"github.com/jwulff/captionbuddy/internal/transport"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    transport.Role
		wantErr bool
	}{
		{"broadcaster", transport.RoleBroadcaster, false},
		{"audience", transport.RoleAudience, false},
		{"host", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := parseRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRole(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOverrideDuration(t *testing.T) {
	d := time.Second
	if err := overrideDuration(&d, "", "tick"); err != nil {
		t.Fatalf("empty flag: %v", err)
	}
	if d != time.Second {
		t.Errorf("empty flag changed value to %v", d)
	}

	if err := overrideDuration(&d, "250ms", "tick"); err != nil {
		t.Fatalf("overrideDuration: %v", err)
	}
	if d != 250*time.Millisecond {
		t.Errorf("d = %v, want 250ms", d)
	}

	if err := overrideDuration(&d, "soon", "tick"); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestOverrideString(t *testing.T) {
	s := "captionbuddy"
	overrideString(&s, "  ")
	if s != "captionbuddy" {
		t.Errorf("blank flag changed value to %q", s)
	}
	overrideString(&s, "demo")
	if s != "demo" {
		t.Errorf("s = %q, want %q", s, "demo")
	}
}

type recordingTranscriber struct {
	got string
}

func (r *recordingTranscriber) Transcribe(ctx context.Context, mediaRef string) ([]caption.Segment, error) {
	r.got = mediaRef
	return []caption.Segment{{Text: "hi", Start: 0, Span: time.Second}}, nil
}

func TestSourceTranscriberUsesSource(t *testing.T) {
	inner := &recordingTranscriber{}
	tr := sourceTranscriber{Transcriber: inner, src: "/videos/talk.mp4"}

	segs, err := tr.Transcribe(context.Background(), "/library/media/0b5e.mp4")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if inner.got != "/videos/talk.mp4" {
		t.Errorf("transcribed %q, want the source path", inner.got)
	}
	if len(segs) != 1 {
		t.Errorf("got %d segments, want 1", len(segs))
	}
}
