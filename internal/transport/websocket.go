package transport

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// WSClient talks to a relay over a websocket, one JSON message per frame.
type WSClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

var _ Conn = (*WSClient)(nil)

// DialWebSocket connects to a relay websocket endpoint (ws:// or wss://).
func DialWebSocket(url string) (*WSClient, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to relay: %w", err)
	}
	return &WSClient{conn: conn}, nil
}

// Close shuts down the connection.
func (c *WSClient) Close() error {
	c.mu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.mu.Unlock()
	return c.conn.Close()
}

// SendCommand sends a command and reads one response message.
func (c *WSClient) SendCommand(cmd Command) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.WriteJSON(cmd); err != nil {
		return Response{}, fmt.Errorf("write command: %w", err)
	}

	var resp Response
	if err := c.conn.ReadJSON(&resp); err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

// ReadEvent reads the next event message. Blocks until data arrives.
func (c *WSClient) ReadEvent() (Event, error) {
	var ev Event
	if err := c.conn.ReadJSON(&ev); err != nil {
		return Event{}, fmt.Errorf("read event: %w", err)
	}
	return ev, nil
}
