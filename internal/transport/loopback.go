package transport

import (
	"errors"
	"log"
	"sync"
)

const loopbackBuffer = 256

var errConnClosed = errors.New("connection closed")

// loopConn is an in-process connection to a Relay.
type loopConn struct {
	relay  *Relay
	peer   *peer
	events chan Event
	done   chan struct{}
	once   sync.Once
}

var _ Conn = (*loopConn)(nil)

// Loopback opens an in-process connection. Events beyond the buffer are
// dropped rather than blocking the relay.
func (r *Relay) Loopback() Conn {
	c := &loopConn{
		relay:  r,
		events: make(chan Event, loopbackBuffer),
		done:   make(chan struct{}),
	}
	c.peer = r.attach(c.push, c.shutdown)
	return c
}

func (c *loopConn) push(ev Event) error {
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.events <- ev:
	default:
		log.Printf("relay: loopback buffer full, dropping %s event", ev.Event)
	}
	return nil
}

func (c *loopConn) shutdown() {
	c.once.Do(func() { close(c.done) })
}

func (c *loopConn) SendCommand(cmd Command) (Response, error) {
	select {
	case <-c.done:
		return Response{}, errConnClosed
	default:
	}
	var resp Response
	c.relay.exec(c.peer, cmd, func(r Response) error {
		resp = r
		return nil
	})
	return resp, nil
}

func (c *loopConn) ReadEvent() (Event, error) {
	// Drain buffered events before reporting close.
	select {
	case ev := <-c.events:
		return ev, nil
	default:
	}
	select {
	case ev := <-c.events:
		return ev, nil
	case <-c.done:
		return Event{}, errConnClosed
	}
}

func (c *loopConn) Close() error {
	c.shutdown()
	c.relay.detach(c.peer)
	return nil
}
