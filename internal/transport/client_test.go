package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"path/filepath"
	"strings"
	"testing"
)

// startMockRelay serves one connection on a temp Unix socket. It answers
// the first command with resp, then writes events and hangs up. The first
// command received is sent on the returned channel.
func startMockRelay(t *testing.T, resp Response, events ...Event) (string, <-chan Command) {
	t.Helper()

	sockPath := filepath.Join(t.TempDir(), "relay.sock")
	ln, err := net.Listen("unix", sockPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	got := make(chan Command, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		line, err := bufio.NewReader(conn).ReadBytes('\n')
		if err != nil {
			return
		}
		var cmd Command
		json.Unmarshal(line, &cmd)
		got <- cmd

		enc := json.NewEncoder(conn)
		enc.Encode(resp)
		for _, ev := range events {
			enc.Encode(ev)
		}
	}()

	return sockPath, got
}

func TestClientSendCommand(t *testing.T) {
	sockPath, received := startMockRelay(t, Response{
		OK:            true,
		ParticipantID: "p-1",
		InChannel:     BoolPtr(true),
	})

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	got, err := client.SendCommand(Command{Cmd: CmdJoin, Channel: "demo", Role: RoleBroadcaster})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !got.OK {
		t.Error("ok = false, want true")
	}
	if got.ParticipantID != "p-1" {
		t.Errorf("participantId = %q, want %q", got.ParticipantID, "p-1")
	}

	cmd := <-received
	if cmd.Cmd != CmdJoin || cmd.Channel != "demo" || cmd.Role != RoleBroadcaster {
		t.Errorf("relay received %+v", cmd)
	}
}

func TestClientConnectFailure(t *testing.T) {
	_, err := Connect("/nonexistent/path/relay.sock")
	if err == nil {
		t.Error("expected error connecting to nonexistent socket")
	}
}

func TestClientReadEvents(t *testing.T) {
	sockPath, _ := startMockRelay(t, Response{OK: true},
		Event{Event: EventPartial, Text: "hello"},
		Event{Event: EventChat, Participant: "p-2", Payload: []byte("hi")},
	)

	client, err := Connect(sockPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	if _, err := client.SendCommand(Command{Cmd: CmdSubscribe, Channel: "demo"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	ev1, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 1: %v", err)
	}
	if ev1.Event != EventPartial || ev1.Text != "hello" {
		t.Errorf("event1 = %+v", ev1)
	}

	ev2, err := client.ReadEvent()
	if err != nil {
		t.Fatalf("read event 2: %v", err)
	}
	if ev2.Event != EventChat || ev2.ChatText() != "hi" {
		t.Errorf("event2 = %+v", ev2)
	}

	// The mock hangs up after the last event.
	if _, err := client.ReadEvent(); !errors.Is(err, errConnClosed) {
		t.Errorf("ReadEvent after hangup err = %v, want errConnClosed", err)
	}
}

type readWriter struct {
	io.Reader
	io.Writer
}

func TestLineCodec(t *testing.T) {
	var out bytes.Buffer
	c := newLineCodec(readWriter{strings.NewReader("{\"ok\":true}\nnot json\n"), &out})

	if err := c.write(Command{Cmd: CmdStatus}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got, want := out.String(), "{\"cmd\":\"status\"}\n"; got != want {
		t.Errorf("wrote %q, want %q", got, want)
	}

	var resp Response
	if err := c.read(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !resp.OK {
		t.Error("ok = false, want true")
	}

	if err := c.read(&resp); err == nil {
		t.Error("expected decode error for a non-JSON line")
	}
	if _, err := c.next(); !errors.Is(err, errConnClosed) {
		t.Errorf("next at EOF err = %v, want errConnClosed", err)
	}
}
