// Package stream tracks the local view of a live session: channel
// membership, remote participants, chat and the live caption.
package stream

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jwulff/captionbuddy/internal/animation"
	"github.com/jwulff/captionbuddy/internal/chat"
	"github.com/jwulff/captionbuddy/internal/transport"
)

// ErrNotInChannel is returned for operations that need a joined channel.
var ErrNotInChannel = errors.New("not in a channel")

// Session is one participant's view of a live channel. Commands go out over
// conn; events from a separate subscribed connection are fed in through
// HandleEvent. A Session is safe for concurrent use; the lock is never held
// across a round trip to the relay.
type Session struct {
	conn    transport.Conn
	anims   *animation.Lookup
	channel string

	mu           sync.Mutex
	self         string
	role         transport.Role
	participants []string
	chat         chat.Log
	caption      string
	animation    string
}

// New creates a session for channel. anims may be nil (no animations).
func New(conn transport.Conn, channel string, anims *animation.Lookup) *Session {
	return &Session{conn: conn, channel: channel, anims: anims}
}

// Resume returns a session for the same channel over conn, carrying this
// session's chat history. Membership starts over; call Join again.
func (s *Session) Resume(conn transport.Conn) *Session {
	n := New(conn, s.channel, s.anims)
	for _, m := range s.Chat() {
		n.chat.Append(m)
	}
	return n
}

// Channel returns the channel name.
func (s *Session) Channel() string { return s.channel }

// Join enters the channel with role. Participants already present are
// recorded in the order the relay reports them.
func (s *Session) Join(role transport.Role) error {
	if s.InChannel() {
		return fmt.Errorf("join %s: already joined", s.channel)
	}
	resp, err := s.conn.SendCommand(transport.Command{Cmd: transport.CmdJoin, Channel: s.channel, Role: role})
	if err != nil {
		return fmt.Errorf("join %s: %w", s.channel, err)
	}
	if !resp.OK {
		return fmt.Errorf("join %s: %s", s.channel, resp.Error)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.self = resp.ParticipantID
	s.role = role
	s.participants = nil
	for _, id := range resp.Participants {
		s.addParticipant(id)
	}
	return nil
}

// Leave exits the channel. Chat history is kept; participants and the live
// caption are cleared.
func (s *Session) Leave() error {
	if !s.InChannel() {
		return ErrNotInChannel
	}
	resp, err := s.conn.SendCommand(transport.Command{Cmd: transport.CmdLeave})
	if err != nil {
		return fmt.Errorf("leave %s: %w", s.channel, err)
	}
	if !resp.OK {
		return fmt.Errorf("leave %s: %s", s.channel, resp.Error)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.self = ""
	s.role = ""
	s.participants = nil
	s.caption = ""
	s.animation = ""
	return nil
}

// Send publishes a chat message. The local copy is appended once the relay
// accepts it; the relay's echo of our own message is ignored.
func (s *Session) Send(text string) error {
	if !s.InChannel() {
		return ErrNotInChannel
	}
	msg, err := chat.NewMessage(true, text)
	if err != nil {
		return err
	}
	resp, err := s.conn.SendCommand(transport.Command{Cmd: transport.CmdChat, Text: msg.Text})
	if err != nil {
		return fmt.Errorf("send chat: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("send chat: %s", resp.Error)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat.Append(msg)
	return nil
}

// PublishCaption sends a partial transcript to the channel and shows it
// locally.
func (s *Session) PublishCaption(text string) error {
	if !s.InChannel() {
		return ErrNotInChannel
	}
	resp, err := s.conn.SendCommand(transport.Command{Cmd: transport.CmdCaption, Text: text})
	if err != nil {
		return fmt.Errorf("publish caption: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("publish caption: %s", resp.Error)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCaption(text)
	return nil
}

// HandleEvent applies one relay event and reports whether the visible state
// changed. Events for other channels and echoes of our own actions are
// ignored.
func (s *Session) HandleEvent(ev transport.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ev.Channel != "" && ev.Channel != s.channel {
		return false
	}
	if s.self != "" && ev.Participant == s.self {
		return false
	}

	switch ev.Event {
	case transport.EventParticipantJoined:
		if s.self == "" {
			return false
		}
		return s.addParticipant(ev.Participant)

	case transport.EventParticipantLeft:
		return s.removeParticipant(ev.Participant)

	case transport.EventChat:
		msg, err := chat.NewMessage(false, ev.ChatText())
		if err != nil {
			return false
		}
		s.chat.Append(msg)
		return true

	case transport.EventPartial:
		if ev.Text == s.caption {
			return false
		}
		s.setCaption(ev.Text)
		return true
	}
	return false
}

// setCaption updates the live caption. The animation follows the last word
// and clears when that word has no mapping; a transcript with no words
// leaves it alone.
func (s *Session) setCaption(text string) {
	s.caption = text
	word := animation.LastWord(text)
	if word == "" {
		return
	}
	id, _ := s.anims.Lookup(word)
	s.animation = id
}

func (s *Session) addParticipant(id string) bool {
	if id == "" || id == s.self {
		return false
	}
	for _, p := range s.participants {
		if p == id {
			return false
		}
	}
	s.participants = append(s.participants, id)
	return true
}

func (s *Session) removeParticipant(id string) bool {
	for i, p := range s.participants {
		if p == id {
			s.participants = append(s.participants[:i], s.participants[i+1:]...)
			return true
		}
	}
	return false
}

// InChannel reports whether the session has joined its channel.
func (s *Session) InChannel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self != ""
}

// ParticipantID returns our participant id, or "" before joining.
func (s *Session) ParticipantID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.self
}

// Role returns the role we joined with.
func (s *Session) Role() transport.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// Participants returns remote participant ids in join order.
func (s *Session) Participants() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.participants))
	copy(out, s.participants)
	return out
}

// Chat returns the chat history in arrival order.
func (s *Session) Chat() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chat.All()
}

// LiveCaption returns the latest partial transcript.
func (s *Session) LiveCaption() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.caption
}

// Animation returns the current animation id, or "" for none.
func (s *Session) Animation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.animation
}
