package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Relay is a session server. It tracks channel membership and fans chat,
// membership and live-caption events out to every connection subscribed to
// the channel. It serves Unix-socket clients (Serve), websocket clients
// (ServeHTTP) and in-process clients (Loopback) from one shared state.
type Relay struct {
	mu      sync.Mutex
	peers   map[*peer]struct{}
	members map[string][]*peer // channel -> participants in join order
	newID   func() string

	upgrader websocket.Upgrader
}

type peer struct {
	send  func(Event) error
	close func()

	participant string
	channel     string
	role        Role
	subscribed  string
}

// NewRelay creates an empty relay.
func NewRelay() *Relay {
	return &Relay{
		peers:   make(map[*peer]struct{}),
		members: make(map[string][]*peer),
		newID:   uuid.NewString,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (r *Relay) attach(send func(Event) error, closeFn func()) *peer {
	p := &peer{send: send, close: closeFn}
	r.mu.Lock()
	r.peers[p] = struct{}{}
	r.mu.Unlock()
	return p
}

// detach removes a peer, leaving its channel first if it joined one.
func (r *Relay) detach(p *peer) {
	r.mu.Lock()
	ev, targets, left := r.leaveLocked(p)
	delete(r.peers, p)
	r.mu.Unlock()
	if left {
		r.deliver(targets, ev)
	}
}

// Close disconnects every peer.
func (r *Relay) Close() {
	r.mu.Lock()
	peers := make([]*peer, 0, len(r.peers))
	for p := range r.peers {
		peers = append(peers, p)
	}
	r.mu.Unlock()

	for _, p := range peers {
		if p.close != nil {
			p.close()
		}
	}
}

// Participants returns the participant IDs in a channel, in join order.
func (r *Relay) Participants(channel string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.participantsLocked(channel, nil)
}

func (r *Relay) participantsLocked(channel string, except *peer) []string {
	var ids []string
	for _, m := range r.members[channel] {
		if m != except {
			ids = append(ids, m.participant)
		}
	}
	return ids
}

func (r *Relay) subscribersLocked(channel string) []*peer {
	var out []*peer
	for p := range r.peers {
		if p.subscribed == channel {
			out = append(out, p)
		}
	}
	return out
}

func (r *Relay) leaveLocked(p *peer) (Event, []*peer, bool) {
	if p.participant == "" {
		return Event{}, nil, false
	}
	channel := p.channel
	members := r.members[channel]
	for i, m := range members {
		if m == p {
			r.members[channel] = append(members[:i:i], members[i+1:]...)
			break
		}
	}
	if len(r.members[channel]) == 0 {
		delete(r.members, channel)
	}

	ev := Event{Event: EventParticipantLeft, Channel: channel, Participant: p.participant, Role: p.role}
	p.participant, p.channel, p.role = "", "", ""
	return ev, r.subscribersLocked(channel), true
}

func (r *Relay) deliver(targets []*peer, ev Event) {
	for _, p := range targets {
		if err := p.send(ev); err != nil {
			log.Printf("relay: deliver %s event: %v", ev.Event, err)
		}
	}
}

func errResponse(format string, args ...any) Response {
	return Response{OK: false, Error: fmt.Sprintf(format, args...)}
}

// exec runs cmd and hands its response to reply. A subscription becomes
// visible to deliver only after reply returns, so a stream never carries an
// event ahead of the subscribe response.
func (r *Relay) exec(p *peer, cmd Command, reply func(Response) error) error {
	resp := r.handle(p, cmd)
	if err := reply(resp); err != nil {
		return err
	}
	if cmd.Cmd == CmdSubscribe && resp.OK {
		r.mu.Lock()
		p.subscribed = cmd.Channel
		r.mu.Unlock()
	}
	return nil
}

// handle applies one command from a peer and returns the response.
func (r *Relay) handle(p *peer, cmd Command) Response {
	switch cmd.Cmd {
	case CmdSubscribe:
		if cmd.Channel == "" {
			return errResponse("channel required")
		}
		// The new subscription starts in exec, once this response is out.
		r.mu.Lock()
		p.subscribed = ""
		r.mu.Unlock()
		return Response{OK: true, Channel: cmd.Channel}

	case CmdJoin:
		if cmd.Channel == "" {
			return errResponse("channel required")
		}
		role := cmd.Role
		if role == "" {
			role = RoleAudience
		}

		r.mu.Lock()
		if p.participant != "" {
			channel := p.channel
			r.mu.Unlock()
			return errResponse("already in channel %s", channel)
		}
		p.participant = r.newID()
		p.channel = cmd.Channel
		p.role = role
		others := r.participantsLocked(cmd.Channel, nil)
		r.members[cmd.Channel] = append(r.members[cmd.Channel], p)
		targets := r.subscribersLocked(cmd.Channel)
		id := p.participant
		r.mu.Unlock()

		r.deliver(targets, Event{Event: EventParticipantJoined, Channel: cmd.Channel, Participant: id, Role: role})
		return Response{
			OK:            true,
			ParticipantID: id,
			Channel:       cmd.Channel,
			Participants:  others,
			InChannel:     BoolPtr(true),
		}

	case CmdLeave:
		r.mu.Lock()
		ev, targets, left := r.leaveLocked(p)
		r.mu.Unlock()
		if !left {
			return errResponse("not in a channel")
		}
		r.deliver(targets, ev)
		return Response{OK: true, InChannel: BoolPtr(false)}

	case CmdChat, CmdCaption:
		if cmd.Cmd == CmdChat && strings.TrimSpace(cmd.Text) == "" {
			return errResponse("empty message")
		}

		r.mu.Lock()
		if p.participant == "" {
			r.mu.Unlock()
			return errResponse("not in a channel")
		}
		ev := Event{Channel: p.channel, Participant: p.participant, Role: p.role}
		if cmd.Cmd == CmdChat {
			ev.Event = EventChat
			ev.Payload = []byte(cmd.Text)
		} else {
			ev.Event = EventPartial
			ev.Text = cmd.Text
			ev.Transient = BoolPtr(true)
		}
		targets := r.subscribersLocked(p.channel)
		r.mu.Unlock()

		r.deliver(targets, ev)
		return Response{OK: true}

	case CmdStatus:
		r.mu.Lock()
		defer r.mu.Unlock()
		return Response{
			OK:            true,
			ParticipantID: p.participant,
			Channel:       p.channel,
			Participants:  r.participantsLocked(p.channel, nil),
			InChannel:     BoolPtr(p.participant != ""),
		}

	default:
		return errResponse("unknown command: %s", cmd.Cmd)
	}
}

// Serve accepts Unix-socket (or any stream) connections speaking NDJSON
// until the listener is closed.
func (r *Relay) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go r.serveConn(conn)
	}
}

func (r *Relay) serveConn(conn net.Conn) {
	defer conn.Close()

	codec := newLineCodec(conn)
	p := r.attach(func(ev Event) error { return codec.write(ev) }, func() { conn.Close() })
	defer r.detach(p)

	for {
		line, err := codec.next()
		if err != nil {
			return
		}
		var cmd Command
		if err := json.Unmarshal(line, &cmd); err != nil {
			if err := codec.write(errResponse("invalid command: %v", err)); err != nil {
				return
			}
			continue
		}
		if err := r.exec(p, cmd, func(resp Response) error { return codec.write(resp) }); err != nil {
			return
		}
	}
}

// ServeHTTP upgrades the request to a websocket and serves it.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("relay: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	var wmu sync.Mutex
	write := func(v any) error {
		wmu.Lock()
		defer wmu.Unlock()
		return conn.WriteJSON(v)
	}

	p := r.attach(func(ev Event) error { return write(ev) }, func() { conn.Close() })
	defer r.detach(p)

	for {
		_, rd, err := conn.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("relay: websocket read: %v", err)
			}
			return
		}
		var cmd Command
		if err := json.NewDecoder(rd).Decode(&cmd); err != nil {
			if err := write(errResponse("invalid command: %v", err)); err != nil {
				return
			}
			continue
		}
		if err := r.exec(p, cmd, func(resp Response) error { return write(resp) }); err != nil {
			return
		}
	}
}
