package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/jwulff/captionbuddy/internal/animation"
	"github.com/jwulff/captionbuddy/internal/stream"
	"github.com/jwulff/captionbuddy/internal/transport"
	"github.com/jwulff/captionbuddy/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// InputTarget selects what the input line publishes.
type InputTarget int

const (
	TargetChat InputTarget = iota
	TargetCaption
)

// StreamModel is the live session view: participants, chat and the live
// caption of a channel on a relay.
type StreamModel struct {
	dialer  transport.Dialer
	channel string
	role    transport.Role
	anims   *animation.Lookup

	// Connection state
	conn      transport.Conn // command connection
	evConn    transport.Conn // event subscription connection
	session   *stream.Session
	connected bool
	joined    bool
	connError string

	// Input
	input  textinput.Model
	target InputTarget

	// UI state
	width      int
	height     int
	chatScroll int
	chatLive   bool
	statusText string

	// Errors
	errorMessage   string
	errorTransient bool

	// Reconnect
	reconnecting     bool
	reconnectAttempt int
}

// NewStream creates a stream view that joins channel with role.
func NewStream(dialer transport.Dialer, channel string, role transport.Role, anims *animation.Lookup) StreamModel {
	input := textinput.New()
	input.Placeholder = "Say something..."
	input.CharLimit = 500
	input.Focus()

	return StreamModel{
		dialer:     dialer,
		channel:    channel,
		role:       role,
		anims:      anims,
		input:      input,
		chatLive:   true,
		statusText: "Connecting to relay...",
	}
}

// Init connects to the relay.
func (m StreamModel) Init() tea.Cmd {
	return tea.Batch(connectCmd(m.dialer, m.channel), textinput.Blink)
}

// connectCmd opens two relay connections, one for commands and one
// subscribed to the channel's events.
func connectCmd(dialer transport.Dialer, channel string) tea.Cmd {
	return func() tea.Msg {
		conn, err := dialer.Dial()
		if err != nil {
			return RelayConnectErrorMsg{Err: err}
		}
		evConn, err := dialer.Dial()
		if err != nil {
			conn.Close()
			return RelayConnectErrorMsg{Err: err}
		}
		resp, err := evConn.SendCommand(transport.Command{Cmd: transport.CmdSubscribe, Channel: channel})
		if err == nil && !resp.OK {
			err = fmt.Errorf("subscribe: %s", resp.Error)
		}
		if err != nil {
			conn.Close()
			evConn.Close()
			return RelayConnectErrorMsg{Err: err}
		}
		return RelayConnectedMsg{Conn: conn, EvConn: evConn}
	}
}

// joinCmd joins the session's channel.
func joinCmd(s *stream.Session, role transport.Role) tea.Cmd {
	return func() tea.Msg {
		return JoinedMsg{Err: s.Join(role)}
	}
}

// readEventCmd reads the next event from the event connection.
func readEventCmd(evConn transport.Conn) tea.Cmd {
	return func() tea.Msg {
		ev, err := evConn.ReadEvent()
		if err != nil {
			return RelayEventErrorMsg{Err: err}
		}
		return RelayEventMsg{Event: ev}
	}
}

// sendCmd publishes text as chat or as the live caption.
func sendCmd(s *stream.Session, target InputTarget, text string) tea.Cmd {
	return func() tea.Msg {
		if target == TargetCaption {
			return SentMsg{Err: s.PublishCaption(text)}
		}
		return SentMsg{Err: s.Send(text)}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// reconnectCmd schedules a reconnection attempt with exponential backoff.
func reconnectCmd(attempt int) tea.Cmd {
	delay := time.Duration(1<<min(attempt, 4)) * time.Second // 1s, 2s, 4s, 8s, 16s cap
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ReconnectTickMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m StreamModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-6)
		return m, nil

	case RelayConnectedMsg:
		m.conn = msg.Conn
		m.evConn = msg.EvConn
		if m.session != nil {
			m.session = m.session.Resume(m.conn)
		} else {
			m.session = stream.New(m.conn, m.channel, m.anims)
		}
		m.connected = true
		m.connError = ""
		m.reconnecting = false
		m.statusText = "Joining #" + m.channel + "..."
		return m, tea.Batch(
			joinCmd(m.session, m.role),
			readEventCmd(m.evConn),
		)

	case RelayConnectErrorMsg:
		m.connected = false
		m.connError = msg.Err.Error()
		m.reconnecting = true
		m.statusText = "Relay not running. Reconnecting..."
		return m, reconnectCmd(m.reconnectAttempt)

	case JoinedMsg:
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			m.statusText = "Join failed"
			return m, nil
		}
		m.joined = true
		m.reconnectAttempt = 0
		m.statusText = "Live in #" + m.channel
		return m, nil

	case RelayEventMsg:
		cmd := m.handleEvent(msg.Event)
		// Continue reading events on the event connection
		return m, tea.Batch(cmd, readEventCmd(m.evConn))

	case RelayEventErrorMsg:
		m.connected = false
		m.joined = false
		m.connError = msg.Err.Error()
		m.statusText = "Disconnected. Reconnecting..."
		m.reconnecting = true
		m.closeConns()
		return m, reconnectCmd(m.reconnectAttempt)

	case ReconnectTickMsg:
		m.reconnectAttempt++
		return m, connectCmd(m.dialer, m.channel)

	case SentMsg:
		if msg.Err != nil {
			m.errorMessage = msg.Err.Error()
			m.errorTransient = true
			return m, clearTransientErrorCmd()
		}
		if m.chatLive {
			m.scrollToBottom()
		}
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleEvent applies a relay event and returns any resulting command.
func (m *StreamModel) handleEvent(ev transport.Event) tea.Cmd {
	if ev.Event == transport.EventError {
		m.errorMessage = ev.Message
		if ev.Transient != nil && *ev.Transient {
			m.errorTransient = true
			return clearTransientErrorCmd()
		}
		return nil
	}

	if m.session == nil {
		return nil
	}
	if m.session.HandleEvent(ev) && ev.Event == transport.EventChat && m.chatLive {
		m.scrollToBottom()
	}
	return nil
}

func (m *StreamModel) closeConns() {
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	if m.evConn != nil {
		m.evConn.Close()
		m.evConn = nil
	}
}

// handleKey processes key presses. Printable keys go to the input line.
func (m StreamModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyCtrlC, KeyEsc:
		m.closeConns()
		return m, tea.Quit

	case KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		if text == "" || !m.joined {
			return m, nil
		}
		m.input.SetValue("")
		return m, sendCmd(m.session, m.target, text)

	case KeyTab:
		if m.role != transport.RoleBroadcaster {
			return m, nil
		}
		if m.target == TargetChat {
			m.target = TargetCaption
			m.input.Placeholder = "Live caption..."
		} else {
			m.target = TargetChat
			m.input.Placeholder = "Say something..."
		}
		return m, nil

	case KeyUp:
		m.chatLive = false
		if m.chatScroll > 0 {
			m.chatScroll--
		}
		return m, nil

	case KeyDown:
		maxScroll := m.maxChatScroll()
		m.chatScroll++
		if m.chatScroll >= maxScroll {
			m.chatScroll = maxScroll
			m.chatLive = true
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *StreamModel) scrollToBottom() {
	m.chatScroll = m.maxChatScroll()
}

func (m StreamModel) chatMessages() int {
	if m.session == nil {
		return 0
	}
	return len(m.session.Chat())
}

func (m StreamModel) maxChatScroll() int {
	total := m.chatMessages()
	visible := m.chatVisibleLines()
	if total <= visible {
		return 0
	}
	return total - visible
}

func (m StreamModel) chatVisibleLines() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + status(1) + dividers(2) + caption(1) + input(1) + error(1) + footer(1) + panel title(1)
	reserved := 9
	return max(5, m.height-reserved)
}

func (m StreamModel) participantPanelWidth() int {
	if m.width == 0 {
		return 24
	}
	return max(16, m.width*25/100)
}

// View renders the full stream view.
func (m StreamModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, divider(m.width))
	sections = append(sections, m.renderMainContent())
	sections = append(sections, divider(m.width))
	sections = append(sections, m.renderCaptionLine())
	sections = append(sections, m.renderInput())
	if m.errorMessage != "" {
		sections = append(sections, ui.ErrorStyle.Render("Error: ")+ui.ErrorTextStyle.Render(m.errorMessage))
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m StreamModel) renderHeader() string {
	title := ui.TitleStyle.Render("CAPTION BUDDY LIVE")
	return title + ui.DimStyle.Render(fmt.Sprintf(" — #%s (%s)", m.channel, m.role))
}

func (m StreamModel) renderStatusBar() string {
	var dot string
	if m.joined {
		dot = ui.LiveDotStyle.Render("● LIVE")
	} else {
		dot = ui.IdleDotStyle.Render("○ OFFLINE")
	}
	return dot + "  " + ui.StatusStyle.Render(m.statusText)
}

func (m StreamModel) renderMainContent() string {
	leftW := m.participantPanelWidth()
	height := m.chatVisibleLines() + 1

	left := strings.Split(m.renderParticipantPanel(leftW, height), "\n")
	right := strings.Split(m.renderChatPanel(max(20, m.width-leftW-3), height), "\n")
	sep := ui.DividerStyle.Render("│")

	rows := make([]string, 0, height)
	for i := 0; i < height; i++ {
		l := strings.Repeat(" ", leftW)
		if i < len(left) {
			l = left[i]
		}
		r := ""
		if i < len(right) {
			r = right[i]
		}
		rows = append(rows, l+sep+r)
	}
	return strings.Join(rows, "\n")
}

func (m StreamModel) renderParticipantPanel(width, height int) string {
	var participants []string
	if m.session != nil {
		participants = m.session.Participants()
	}

	lines := []string{padRight(ui.PanelTitleStyle.Render(fmt.Sprintf("PEOPLE (%d)", len(participants))), width)}
	if m.joined {
		lines = append(lines, ui.LocalChatStyle.Render("  you"))
	}
	for _, id := range participants {
		lines = append(lines, "  "+ui.RemoteChatStyle.Render(shortID(id)))
	}
	if len(participants) == 0 && m.joined {
		lines = append(lines, ui.DimStyle.Render("  Waiting for others..."))
	}

	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, l := range lines {
		lines[i] = padRight(truncateToWidth(l, width), width)
	}
	return strings.Join(lines, "\n")
}

func (m StreamModel) renderChatPanel(width, height int) string {
	var badge string
	if !m.chatLive {
		badge = ui.PausedBadgeStyle.Render(" SCROLL")
	}
	lines := []string{ui.PanelTitleActiveStyle.Render("CHAT") + badge}
	contentHeight := height - 1

	if !m.connected {
		lines = append(lines, "")
		if m.reconnecting {
			lines = append(lines, ui.ErrorTextStyle.Render("  Relay unavailable. Reconnecting..."))
			lines = append(lines, ui.DimStyle.Render("  Start one with: captionbuddy relay"))
		} else {
			lines = append(lines, ui.DimStyle.Render("  Connecting to relay..."))
		}
		return strings.Join(lines, "\n")
	}

	var msgs []string
	if m.session != nil {
		for _, msg := range m.session.Chat() {
			ts := ui.TimestampStyle.Render(msg.At.Format("[15:04:05]"))
			who := ui.RemoteChatStyle.Render("them ")
			if msg.Local {
				who = ui.LocalChatStyle.Render("you  ")
			}
			// Prefix: "[HH:MM:SS] them " = 16 chars visible
			msgs = append(msgs, ts+" "+who+truncateToWidth(msg.Text, max(5, width-18)))
		}
	}
	if len(msgs) == 0 {
		lines = append(lines, "", ui.DimStyle.Render("  No messages yet"))
		return strings.Join(lines, "\n")
	}

	start := 0
	if m.chatLive {
		if len(msgs) > contentHeight {
			start = len(msgs) - contentHeight
		}
	} else {
		start = min(m.chatScroll, max(0, len(msgs)-1))
	}
	end := min(len(msgs), start+contentHeight)
	for _, l := range msgs[start:end] {
		lines = append(lines, "  "+l)
	}
	return strings.Join(lines, "\n")
}

func (m StreamModel) renderCaptionLine() string {
	cc := ui.PanelTitleStyle.Render("CC ")
	if m.session == nil || m.session.LiveCaption() == "" {
		return cc + ui.DimStyle.Render("…")
	}
	text := truncateToWidth(m.session.LiveCaption(), max(10, m.width-24))
	line := cc + ui.PartialTextStyle.Render(text+"▌")
	if anim := m.session.Animation(); anim != "" {
		line += "  " + ui.AnimationBadgeStyle.Render("[sign: "+anim+"]")
	}
	return line
}

func (m StreamModel) renderInput() string {
	label := "> "
	if m.target == TargetCaption {
		label = "CC> "
	}
	return ui.FooterKeyStyle.Render(label) + m.input.View()
}

func (m StreamModel) renderFooter() string {
	var parts []string
	if m.joined {
		parts = append(parts, footerItem("Enter", "Send"))
		if m.role == transport.RoleBroadcaster {
			parts = append(parts, footerItem("Tab", "Chat/Caption"))
		}
		parts = append(parts, footerItem("↑↓", "Scroll"))
	}
	parts = append(parts, footerItem("Esc", "Quit"))
	return strings.Join(parts, "  ")
}
