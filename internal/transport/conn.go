package transport

import (
	"fmt"
	"os"
	"path/filepath"
)

// Conn is one client connection to a relay. Commands get exactly one
// response; after a subscribe command the connection also streams events,
// so commands and the event stream normally use separate connections.
type Conn interface {
	SendCommand(cmd Command) (Response, error)
	ReadEvent() (Event, error)
	Close() error
}

// Kind selects a Conn implementation.
type Kind string

const (
	KindSocket    Kind = "socket"
	KindWebSocket Kind = "websocket"
	KindLoopback  Kind = "loopback"
)

// SocketPath returns the default relay socket path.
func SocketPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, _ = os.UserHomeDir()
	}
	return filepath.Join(dir, "CaptionBuddy", "relay.sock")
}

// Dialer opens connections of one kind to one address.
type Dialer struct {
	Kind    Kind
	Address string
	// Relay serves loopback connections. Required for KindLoopback.
	Relay *Relay
}

// Dial opens a new connection.
func (d Dialer) Dial() (Conn, error) {
	switch d.Kind {
	case KindSocket, "":
		addr := d.Address
		if addr == "" {
			addr = SocketPath()
		}
		return Connect(addr)
	case KindWebSocket:
		return DialWebSocket(d.Address)
	case KindLoopback:
		if d.Relay == nil {
			return nil, fmt.Errorf("loopback transport needs a relay")
		}
		return d.Relay.Loopback(), nil
	default:
		return nil, fmt.Errorf("unknown transport kind %q", d.Kind)
	}
}
