package chat

import (
	"errors"
	"testing"
)

func TestNewMessageTrims(t *testing.T) {
	m, err := NewMessage(true, "  hello there \n")
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if m.Text != "hello there" {
		t.Errorf("Text = %q, want %q", m.Text, "hello there")
	}
	if !m.Local {
		t.Error("Local = false, want true")
	}
	if m.ID == "" {
		t.Error("ID should be set")
	}
}

func TestNewMessageEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "\t\n"} {
		if _, err := NewMessage(false, text); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("NewMessage(%q) err = %v, want ErrEmptyMessage", text, err)
		}
	}
}

func TestNewMessageUniqueIDs(t *testing.T) {
	a, _ := NewMessage(true, "a")
	b, _ := NewMessage(true, "a")
	if a.ID == b.ID {
		t.Error("message ids should be unique")
	}
}

func TestLogPreservesArrivalOrder(t *testing.T) {
	var l Log
	texts := []string{"first", "second", "third"}
	for i, text := range texts {
		m, _ := NewMessage(i%2 == 0, text)
		l.Append(m)
	}

	all := l.All()
	if len(all) != 3 || l.Len() != 3 {
		t.Fatalf("got %d messages, want 3", len(all))
	}
	for i, text := range texts {
		if all[i].Text != text {
			t.Errorf("all[%d] = %q, want %q", i, all[i].Text, text)
		}
	}
}

func TestLogAllIsRestartable(t *testing.T) {
	var l Log
	m, _ := NewMessage(false, "hi")
	l.Append(m)

	first := l.All()
	first[0].Text = "mutated"
	second := l.All()
	if second[0].Text != "hi" {
		t.Errorf("All() returned shared storage: %q", second[0].Text)
	}
}

func TestEmptyLog(t *testing.T) {
	var l Log
	if got := l.All(); len(got) != 0 {
		t.Errorf("All() = %v, want empty", got)
	}
}
