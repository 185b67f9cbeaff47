package transport

import (
	"fmt"
	"net"
	"sync"
	"time"
)

// dialTimeout bounds how long Connect waits for the relay socket.
const dialTimeout = 2 * time.Second

// Client is a Conn over a relay's Unix socket.
type Client struct {
	conn  net.Conn
	codec *lineCodec

	// mu pairs each command with its response line.
	mu sync.Mutex
}

var _ Conn = (*Client)(nil)

// Connect dials the relay socket at socketPath.
func Connect(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connect to relay: %w", err)
	}
	return &Client{conn: conn, codec: newLineCodec(conn)}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// SendCommand writes cmd and waits for its response. Once a subscribe
// succeeds the stream carries events, so only ReadEvent may follow.
func (c *Client) SendCommand(cmd Command) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.codec.write(cmd); err != nil {
		return Response{}, fmt.Errorf("send %s: %w", cmd.Cmd, err)
	}
	var resp Response
	if err := c.codec.read(&resp); err != nil {
		return Response{}, fmt.Errorf("read %s response: %w", cmd.Cmd, err)
	}
	return resp, nil
}

// ReadEvent blocks for the next event on a subscribed connection.
func (c *Client) ReadEvent() (Event, error) {
	var ev Event
	if err := c.codec.read(&ev); err != nil {
		return Event{}, fmt.Errorf("read event: %w", err)
	}
	return ev, nil
}
