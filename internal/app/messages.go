package app

import (
	"github.com/jwulff/captionbuddy/internal/sequence"
	"github.com/jwulff/captionbuddy/internal/transport"
)

// RecordingsLoadedMsg carries the playback queue loaded from the store.
type RecordingsLoadedMsg struct {
	Items []sequence.Item
	Err   error
}

// TickMsg advances the playback clock by one tick interval.
type TickMsg struct{}

// RelayConnectedMsg is sent when both relay connections are established and
// the event connection is subscribed.
type RelayConnectedMsg struct {
	Conn   transport.Conn // for commands (join, leave, chat, caption)
	EvConn transport.Conn // for the event stream
}

// RelayConnectErrorMsg is sent when the relay connection fails.
type RelayConnectErrorMsg struct {
	Err error
}

// JoinedMsg is sent after the join command completes.
type JoinedMsg struct {
	Err error
}

// RelayEventMsg wraps a streamed event from the relay.
type RelayEventMsg struct {
	Event transport.Event
}

// RelayEventErrorMsg is sent when the event stream encounters an error.
type RelayEventErrorMsg struct {
	Err error
}

// SentMsg is sent after a chat message or caption has been published.
type SentMsg struct {
	Err error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}

// ReconnectTickMsg triggers a reconnection attempt.
type ReconnectTickMsg struct{}
