package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jwulff/captionbuddy/internal/animation"
	"github.com/jwulff/captionbuddy/internal/caption"
	"github.com/jwulff/captionbuddy/internal/db"

	tea "github.com/charmbracelet/bubbletea"
)

const testTick = 100 * time.Millisecond

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func createTestStore(t *testing.T) *db.Store {
	t.Helper()
	store, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// loadedPlayer returns a player over two saved recordings, already loaded.
func loadedPlayer(t *testing.T) PlayerModel {
	t.Helper()
	store := createTestStore(t)
	ctx := context.Background()

	first, err := store.Save(ctx, "/media/first.mp4", []caption.Segment{
		{Text: "Hi", Start: 0, Span: ms(500)},
		{Text: "there", Start: ms(500), Span: ms(500)},
		{Text: "love", Start: ms(1500), Span: ms(500)},
	})
	if err != nil {
		t.Fatalf("save first: %v", err)
	}
	second, err := store.Save(ctx, "/media/second.mp4", []caption.Segment{
		{Text: "work", Start: 0, Span: ms(300)},
	})
	if err != nil {
		t.Fatalf("save second: %v", err)
	}

	m := NewPlayer(store, []string{first.ID, second.ID}, animation.Default(), testTick, 0)
	m, _ = applyPlayer(m, tea.WindowSizeMsg{Width: 80, Height: 24})

	msg := loadRecordingsCmd(store, m.ids)()
	m, cmd := applyPlayer(m, msg)
	if cmd == nil {
		t.Fatal("load should start the tick loop")
	}
	return m
}

func applyPlayer(m PlayerModel, msg tea.Msg) (PlayerModel, tea.Cmd) {
	newModel, cmd := m.Update(msg)
	return newModel.(PlayerModel), cmd
}

func ticks(m PlayerModel, n int) (PlayerModel, tea.Cmd) {
	var cmd tea.Cmd
	for i := 0; i < n; i++ {
		m, cmd = applyPlayer(m, TickMsg{})
	}
	return m, cmd
}

func TestPlayerPlaysThroughQueue(t *testing.T) {
	m := loadedPlayer(t)

	if !m.started {
		t.Fatal("player should be started after load")
	}
	if m.active != 0 || m.animation != "hi" {
		t.Errorf("at 0s: active=%d animation=%q, want 0 hi", m.active, m.animation)
	}

	m, _ = ticks(m, 5) // 0.5s
	if m.active != 1 || m.animation != "" {
		t.Errorf("at 0.5s: active=%d animation=%q, want 1 and none", m.active, m.animation)
	}

	m, _ = ticks(m, 5) // 1.0s, gap
	if m.active != caption.NoSegment {
		t.Errorf("at 1.0s: active=%d, want idle", m.active)
	}

	m, _ = ticks(m, 5) // 1.5s
	if m.active != 2 || m.animation != "love" {
		t.Errorf("at 1.5s: active=%d animation=%q, want 2 love", m.active, m.animation)
	}

	m, _ = ticks(m, 5) // 2.0s, end of first item
	idx, _ := m.player.Current()
	if idx != 1 {
		t.Fatalf("item = %d, want 1", idx)
	}
	if m.elapsed != 0 || m.active != 0 || m.animation != "work" {
		t.Errorf("second item: elapsed=%v active=%d animation=%q", m.elapsed, m.active, m.animation)
	}

	m, cmd := ticks(m, 3)
	if !m.finished {
		t.Fatal("player should be finished after the last item")
	}
	if cmd != nil {
		t.Error("finished player should stop ticking")
	}
	if m.active != caption.NoSegment || m.animation != "" {
		t.Errorf("finished: active=%d animation=%q", m.active, m.animation)
	}
}

func TestPlayerPause(t *testing.T) {
	m := loadedPlayer(t)

	m, _ = applyPlayer(m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.paused {
		t.Fatal("space should pause")
	}

	m, cmd := ticks(m, 10)
	if m.elapsed != 0 {
		t.Errorf("elapsed = %v while paused, want 0", m.elapsed)
	}
	if cmd == nil {
		t.Error("paused player should keep the tick loop alive")
	}

	m, _ = applyPlayer(m, tea.KeyMsg{Type: tea.KeySpace})
	m, _ = ticks(m, 1)
	if m.elapsed != testTick {
		t.Errorf("elapsed = %v after resume, want %v", m.elapsed, testTick)
	}
}

func TestPlayerSeek(t *testing.T) {
	m := loadedPlayer(t)

	m, _ = applyPlayer(m, tea.KeyMsg{Type: tea.KeyRight})
	if m.elapsed != 2*time.Second {
		t.Errorf("elapsed = %v, want clamped to 2s", m.elapsed)
	}
	if m.active != caption.NoSegment {
		t.Errorf("active = %d at end, want idle", m.active)
	}

	m, _ = applyPlayer(m, tea.KeyMsg{Type: tea.KeyLeft})
	if m.elapsed != 0 {
		t.Errorf("elapsed = %v, want 0", m.elapsed)
	}
	if m.active != 0 {
		t.Errorf("active = %d after seeking back, want 0", m.active)
	}
}

func TestPlayerSkipAndRestart(t *testing.T) {
	m := loadedPlayer(t)

	m, _ = applyPlayer(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	if idx, _ := m.player.Current(); idx != 1 {
		t.Fatalf("item = %d after n, want 1", idx)
	}

	m, _ = applyPlayer(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	if !m.finished {
		t.Fatal("n on last item should finish")
	}

	// The tick loop stops once finished.
	m, _ = applyPlayer(m, TickMsg{})
	if m.ticking {
		t.Error("ticking = true after finish")
	}

	m, cmd := applyPlayer(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if m.finished || !m.started {
		t.Error("r should restart playback")
	}
	if cmd == nil {
		t.Error("restart should resume the tick loop")
	}
	if idx, _ := m.player.Current(); idx != 0 {
		t.Errorf("item = %d after restart, want 0", idx)
	}
}

func TestPlayerEmptyLibrary(t *testing.T) {
	store := createTestStore(t)
	m := NewPlayer(store, nil, animation.Default(), testTick, 0)

	msg := loadRecordingsCmd(store, nil)()
	m, cmd := applyPlayer(m, msg)
	if cmd != nil {
		t.Error("empty queue should not start ticking")
	}
	if !m.finished || m.started {
		t.Errorf("finished=%v started=%v, want finished and not started", m.finished, m.started)
	}
	if m.statusText != "No recordings to play" {
		t.Errorf("statusText = %q", m.statusText)
	}
}

func TestPlayerLoadError(t *testing.T) {
	store := createTestStore(t)
	msg := loadRecordingsCmd(store, []string{"missing"})()

	loaded, ok := msg.(RecordingsLoadedMsg)
	if !ok {
		t.Fatalf("msg = %T, want RecordingsLoadedMsg", msg)
	}
	if !errors.Is(loaded.Err, db.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", loaded.Err)
	}

	m := NewPlayer(store, nil, nil, testTick, 0)
	m, _ = applyPlayer(m, loaded)
	if m.errorMessage == "" {
		t.Error("load error should be shown")
	}
}

func TestPlayerTailExtendsItem(t *testing.T) {
	store := createTestStore(t)
	r, err := store.Save(context.Background(), "/media/a.mp4", []caption.Segment{
		{Text: "hi", Start: 0, Span: ms(200)},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	m := NewPlayer(store, []string{r.ID}, nil, testTick, ms(300))
	m, _ = applyPlayer(m, loadRecordingsCmd(store, m.ids)())

	m, _ = ticks(m, 4) // 0.4s: caption over, tail still running
	if m.finished {
		t.Fatal("finished before the tail elapsed")
	}
	m, _ = ticks(m, 1) // 0.5s
	if !m.finished {
		t.Error("should finish after caption end + tail")
	}
}

func TestPlayerQuit(t *testing.T) {
	m := loadedPlayer(t)
	_, cmd := applyPlayer(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestPlayerView(t *testing.T) {
	m := NewPlayer(nil, nil, nil, testTick, 0)
	if view := m.View(); view != "Initializing..." {
		t.Errorf("view without size = %q, want 'Initializing...'", view)
	}

	m = loadedPlayer(t)
	view := m.View()
	if !strings.Contains(view, "CAPTION BUDDY") {
		t.Error("view should contain the title")
	}
	if !strings.Contains(view, "first.mp4") {
		t.Error("view should name the playing item")
	}
	if !strings.Contains(view, "[sign: hi]") {
		t.Error("view should show the animation badge")
	}
}

func TestRenderWordStripScrollsToActive(t *testing.T) {
	var segs []caption.Segment
	for i := 0; i < 30; i++ {
		segs = append(segs, caption.Segment{Text: "word", Start: ms(i * 100), Span: ms(100)})
	}

	// 4-char words, width 14: three words per line, ten lines.
	lines := renderWordStrip(segs, 29, 14, 2)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	lines = renderWordStrip(segs, caption.NoSegment, 14, 3)
	if len(lines) != 3 {
		t.Errorf("idle lines = %d, want 3", len(lines))
	}
}
