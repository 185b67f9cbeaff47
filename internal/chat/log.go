// Package chat keeps the ordered chat history of a live session.
package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyMessage is returned for messages that are blank after trimming.
var ErrEmptyMessage = errors.New("chat message is empty")

// Message is a single chat line.
type Message struct {
	ID    string
	Local bool // sent by this participant
	Text  string
	At    time.Time
}

// NewMessage builds a message with a fresh id. Text is trimmed.
func NewMessage(local bool, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	return Message{
		ID:    uuid.New().String(),
		Local: local,
		Text:  text,
		At:    time.Now(),
	}, nil
}

// Log is an append-only message list in arrival order. Messages are never
// reordered or removed. A Log belongs to one session goroutine.
type Log struct {
	messages []Message
}

// Append adds m at the end.
func (l *Log) Append(m Message) {
	l.messages = append(l.messages, m)
}

// All returns the messages in arrival order. The returned slice is a copy.
func (l *Log) All() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages.
func (l *Log) Len() int {
	return len(l.messages)
}
