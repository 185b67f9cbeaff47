package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jwulff/captionbuddy/internal/caption"
	"github.com/jwulff/captionbuddy/internal/db"
	"github.com/jwulff/captionbuddy/internal/sequence"
	"github.com/jwulff/captionbuddy/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// seekStep is how far left/right move the playback clock.
const seekStep = 2 * time.Second

// PlayerModel plays saved recordings back to back with synchronized
// captions. Playback time is a virtual clock advanced by ticks.
type PlayerModel struct {
	store  *db.Store
	ids    []string
	player *sequence.Player
	tick   time.Duration
	tail   time.Duration

	// Playback state
	items     []sequence.Item
	elapsed   time.Duration
	started   bool
	paused    bool
	finished  bool
	ticking   bool
	active    int
	animation string

	// UI state
	width        int
	height       int
	statusText   string
	errorMessage string
}

// NewPlayer creates a player for the recordings with the given ids, or for
// the whole library when ids is empty.
func NewPlayer(store *db.Store, ids []string, animator sequence.Animator, tick, tail time.Duration) PlayerModel {
	return PlayerModel{
		store:      store,
		ids:        ids,
		player:     sequence.New(animator),
		tick:       tick,
		tail:       tail,
		active:     caption.NoSegment,
		statusText: "Loading recordings...",
	}
}

// Init loads the playback queue.
func (m PlayerModel) Init() tea.Cmd {
	return loadRecordingsCmd(m.store, m.ids)
}

// loadRecordingsCmd reads the requested recordings from SQLite.
func loadRecordingsCmd(store *db.Store, ids []string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var recs []db.Recording
		if len(ids) == 0 {
			all, err := store.FetchAll(ctx)
			if err != nil {
				return RecordingsLoadedMsg{Err: err}
			}
			recs = all
		} else {
			for _, id := range ids {
				r, err := store.Get(ctx, id)
				if err != nil {
					return RecordingsLoadedMsg{Err: fmt.Errorf("load %s: %w", id, err)}
				}
				recs = append(recs, r)
			}
		}

		items := make([]sequence.Item, 0, len(recs))
		for _, r := range recs {
			items = append(items, sequence.Item{MediaRef: r.MediaRef, Segments: r.Captions})
		}
		return RecordingsLoadedMsg{Items: items}
	}
}

// tickCmd fires one playback tick after d.
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m PlayerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case RecordingsLoadedMsg:
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			m.statusText = "Could not load recordings"
			return m, nil
		}
		m.items = msg.Items
		for _, it := range msg.Items {
			m.player.Enqueue(it)
		}
		if !m.player.Start() {
			m.finished = true
			m.statusText = "No recordings to play"
			return m, nil
		}
		m.started = true
		m.statusText = "Playing"
		m.restartItem()
		m.ticking = true
		return m, tickCmd(m.tick)

	case TickMsg:
		if !m.started || m.finished {
			m.ticking = false
			return m, nil
		}
		if !m.paused {
			m.elapsed += m.tick
			m.advance()
			m.checkItemEnd()
		}
		if m.finished {
			m.ticking = false
			return m, nil
		}
		return m, tickCmd(m.tick)
	}

	return m, nil
}

// advance feeds the clock to the player and applies any caption change.
func (m *PlayerModel) advance() {
	ev, ok := m.player.Advance(m.elapsed)
	if !ok {
		return
	}
	m.active = ev.Index
	m.animation = ev.Animation
}

// restartItem rewinds the clock for a freshly seeded item.
func (m *PlayerModel) restartItem() {
	m.elapsed = 0
	m.active = caption.NoSegment
	m.animation = ""
	m.advance()
}

func (m PlayerModel) itemLength() time.Duration {
	item, ok := m.player.CurrentItem()
	if !ok {
		return 0
	}
	return item.Duration() + m.tail
}

// checkItemEnd moves to the next item once the current one has played out.
func (m *PlayerModel) checkItemEnd() {
	if m.elapsed < m.itemLength() {
		return
	}
	m.nextItem()
}

func (m *PlayerModel) nextItem() {
	if m.player.OnItemFinished() {
		m.restartItem()
		return
	}
	m.finished = true
	m.active = caption.NoSegment
	m.animation = ""
	m.statusText = "Finished"
}

func (m *PlayerModel) seek(delta time.Duration) {
	m.elapsed = max(0, min(m.elapsed+delta, m.itemLength()))
	m.advance()
}

// handleKey processes key presses.
func (m PlayerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		m.player.Stop()
		return m, tea.Quit

	case KeySpace:
		if !m.started || m.finished {
			return m, nil
		}
		m.paused = !m.paused
		if m.paused {
			m.statusText = "Paused"
		} else {
			m.statusText = "Playing"
		}
		return m, nil

	case KeyLeft:
		if m.started && !m.finished {
			m.seek(-seekStep)
		}
		return m, nil

	case KeyRight:
		if m.started && !m.finished {
			m.seek(seekStep)
		}
		return m, nil

	case KeyNext:
		if m.started && !m.finished {
			m.nextItem()
		}
		return m, nil

	case KeyRestart:
		if !m.player.Start() {
			return m, nil
		}
		m.started = true
		m.finished = false
		m.paused = false
		m.statusText = "Playing"
		m.restartItem()
		if m.ticking {
			return m, nil
		}
		m.ticking = true
		return m, tickCmd(m.tick)
	}

	return m, nil
}

// View renders the player.
func (m PlayerModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, divider(m.width))
	sections = append(sections, m.renderCaption())
	sections = append(sections, divider(m.width))
	if m.errorMessage != "" {
		sections = append(sections, ui.ErrorStyle.Render("Error: ")+ui.ErrorTextStyle.Render(m.errorMessage))
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m PlayerModel) renderHeader() string {
	title := ui.TitleStyle.Render("CAPTION BUDDY")
	idx, ok := m.player.Current()
	if !ok || m.finished {
		return title
	}
	item, _ := m.player.CurrentItem()
	info := fmt.Sprintf(" — %d/%d %s", idx+1, m.player.Len(), filepath.Base(item.MediaRef))
	return title + ui.DimStyle.Render(info)
}

func (m PlayerModel) renderStatusBar() string {
	var state string
	switch {
	case m.finished || !m.started:
		return ui.IdleDotStyle.Render("■ " + strings.ToUpper(m.statusText))
	case m.paused:
		state = ui.PausedBadgeStyle.Render("❚❚ PAUSED")
	default:
		state = ui.LiveBadgeStyle.Render("▶ PLAYING")
	}

	total := m.itemLength()
	clock := ui.TimestampStyle.Render(fmt.Sprintf(" %s / %s ", formatClock(m.elapsed), formatClock(total)))
	barW := max(10, m.width-lipgloss.Width(state)-lipgloss.Width(clock)-2)
	return state + clock + renderProgress(m.elapsed, total, barW)
}

func (m PlayerModel) renderCaption() string {
	height := max(5, m.height-6)
	var lines []string

	item, ok := m.player.CurrentItem()
	if !ok || m.finished {
		lines = append(lines, "", ui.DimStyle.Render("  Nothing playing. Press r to play again, q to quit."))
	} else {
		lines = append(lines, "")
		if m.active != caption.NoSegment && m.active < len(item.Segments) {
			lines = append(lines, "  "+ui.CaptionStyle.Render(item.Segments[m.active].Text))
		} else {
			lines = append(lines, "  "+ui.DimStyle.Render("…"))
		}
		if m.animation != "" {
			lines = append(lines, "  "+ui.AnimationBadgeStyle.Render("[sign: "+m.animation+"]"))
		} else {
			lines = append(lines, "")
		}
		lines = append(lines, "")
		lines = append(lines, renderWordStrip(item.Segments, m.active, max(10, m.width-4), max(1, height-len(lines)))...)
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

// renderWordStrip lays the item's captions out as wrapped text with the
// active caption highlighted, scrolled so the active line is visible.
func renderWordStrip(segs []caption.Segment, active, width, maxLines int) []string {
	var lines []string
	var current []string
	currentW := 0
	activeLine := 0

	for i, seg := range segs {
		w := len([]rune(seg.Text))
		if currentW > 0 && currentW+1+w > width {
			lines = append(lines, strings.Join(current, " "))
			current, currentW = nil, 0
		}
		style := ui.WordStyle
		if i == active {
			style = ui.ActiveWordStyle
			activeLine = len(lines)
		}
		current = append(current, style.Render(seg.Text))
		if currentW > 0 {
			currentW++
		}
		currentW += w
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}

	start := 0
	if activeLine >= maxLines {
		start = activeLine - maxLines + 1
	}
	end := min(len(lines), start+maxLines)
	out := make([]string, 0, end-start)
	for _, l := range lines[start:end] {
		out = append(out, "  "+l)
	}
	return out
}

func (m PlayerModel) renderFooter() string {
	var parts []string
	if m.started && !m.finished {
		if m.paused {
			parts = append(parts, footerItem("Space", "Play"))
		} else {
			parts = append(parts, footerItem("Space", "Pause"))
		}
		parts = append(parts, footerItem("←→", "Seek"))
		parts = append(parts, footerItem("n", "Next"))
	}
	parts = append(parts, footerItem("r", "Restart"))
	parts = append(parts, footerItem("q", "Quit"))
	return strings.Join(parts, "  ")
}
