// Package transcribe turns recorded media into timed captions.
package transcribe

import (
	"context"
	"fmt"

	"github.com/jwulff/captionbuddy/internal/caption"
)

// Transcriber converts a media reference into captions sorted by start time.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaRef string) ([]caption.Segment, error)
}

// Kind classifies transcription failures.
type Kind int

const (
	KindFailed Kind = iota
	KindAuthorizationDenied
	KindRecognizerUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindAuthorizationDenied:
		return "authorization denied"
	case KindRecognizerUnavailable:
		return "recognizer unavailable"
	default:
		return "transcription failed"
	}
}

// Error is returned by transcribers. errors.Is matches any *Error of the same
// Kind, so callers can test against the sentinels below.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

// Sentinels for errors.Is.
var (
	ErrAuthorizationDenied   = &Error{Kind: KindAuthorizationDenied}
	ErrRecognizerUnavailable = &Error{Kind: KindRecognizerUnavailable}
	ErrFailed                = &Error{Kind: KindFailed}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// AuthorizationDenied builds a KindAuthorizationDenied error.
func AuthorizationDenied(reason string, err error) error {
	return &Error{Kind: KindAuthorizationDenied, Reason: reason, Err: err}
}

// RecognizerUnavailable builds a KindRecognizerUnavailable error.
func RecognizerUnavailable(reason string, err error) error {
	return &Error{Kind: KindRecognizerUnavailable, Reason: reason, Err: err}
}

// Failed builds a KindFailed error.
func Failed(reason string, err error) error {
	return &Error{Kind: KindFailed, Reason: reason, Err: err}
}

// Failedf builds a KindFailed error from a format string.
func Failedf(format string, args ...any) error {
	return &Error{Kind: KindFailed, Reason: fmt.Sprintf(format, args...)}
}
