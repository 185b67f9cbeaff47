// Package transport carries live-session traffic (channel membership, chat
// and live captions) between clients and a session relay as JSON messages.
package transport

import "strings"

// Commands sent from a client to the relay.
const (
	CmdSubscribe = "subscribe"
	CmdJoin      = "join"
	CmdLeave     = "leave"
	CmdChat      = "chat"
	CmdCaption   = "caption"
	CmdStatus    = "status"
)

// Events streamed from the relay to subscribed clients.
const (
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventChat              = "chat"
	EventPartial           = "partial"
	EventError             = "error"
)

// Role is the part a participant plays in a channel.
type Role string

const (
	RoleBroadcaster Role = "broadcaster"
	RoleAudience    Role = "audience"
)

// Command is sent from a client to the relay.
type Command struct {
	Cmd     string `json:"cmd"`
	Channel string `json:"channel,omitempty"`
	Role    Role   `json:"role,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Response is returned by the relay after processing a command.
type Response struct {
	OK            bool     `json:"ok"`
	Error         string   `json:"error,omitempty"`
	ParticipantID string   `json:"participantId,omitempty"`
	Channel       string   `json:"channel,omitempty"`
	Participants  []string `json:"participants,omitempty"`
	InChannel     *bool    `json:"inChannel,omitempty"`
}

// Event is streamed from the relay to subscribed clients.
type Event struct {
	Event       string `json:"event"`
	Channel     string `json:"channel,omitempty"`
	Participant string `json:"participant,omitempty"`
	Role        Role   `json:"role,omitempty"`
	Payload     []byte `json:"payload,omitempty"` // raw chat bytes
	Text        string `json:"text,omitempty"`
	Message     string `json:"message,omitempty"`
	Transient   *bool  `json:"transient,omitempty"`
}

// ChatText decodes the chat payload as UTF-8, replacing invalid sequences.
// Events without a payload fall back to Text.
func (e Event) ChatText() string {
	if len(e.Payload) == 0 {
		return e.Text
	}
	return strings.ToValidUTF8(string(e.Payload), "�")
}

// BoolPtr returns a pointer to a bool value. Convenience for building responses.
func BoolPtr(b bool) *bool { return &b }
