// Package db provides SQLite persistence for recordings and their captions.
package db

import (
	"time"

	"github.com/jwulff/captionbuddy/internal/caption"
)

// Recording is a saved media file with its transcribed captions.
type Recording struct {
	ID        string
	MediaRef  string
	CreatedAt time.Time
	Captions  []caption.Segment
}
