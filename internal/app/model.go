package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jwulff/cutter/internal/cutting"
	"github.com/jwulff/cutter/internal/mpv"
	"github.com/jwulff/cutter/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// Player is the playback engine as seen by the terminal dialog.
type Player interface {
	cutting.Player
	Paused() bool
	TogglePause() error
	Seek(delta int) error
	NextEvent() (mpv.Event, error)
	Observe(ev mpv.Event) (bool, error)
}

// Model is the bubbletea model for one cutting session.
type Model struct {
	dialog *cutting.Dialog
	player Player

	status cutting.Status

	// Player state
	disconnected bool

	// UI state
	width  int
	height int

	// Errors
	errorMessage   string
	errorTransient bool
}

// New creates a Model for d. The session is rejected unless the user
// accepts it.
func New(d *cutting.Dialog, player Player) Model {
	return Model{
		dialog: d,
		player: player,
		status: cutting.Rejected,
	}
}

// Status returns the outcome chosen by the user.
func (m Model) Status() cutting.Status { return m.status }

// Init starts reading player events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle(m.dialog.Title()),
		readEventCmd(m.player),
	)
}

// readEventCmd reads the next event from the player.
func readEventCmd(player Player) tea.Cmd {
	return func() tea.Msg {
		ev, err := player.NextEvent()
		if err != nil {
			return PlayerEventErrorMsg{Err: err}
		}
		return PlayerEventMsg{Event: ev}
	}
}

// togglePauseCmd flips playback between playing and paused.
func togglePauseCmd(player Player) tea.Cmd {
	return func() tea.Msg {
		if err := player.TogglePause(); err != nil {
			return PlayerErrorMsg{Err: err}
		}
		return nil
	}
}

// seekCmd moves playback by delta seconds.
func seekCmd(player Player, delta int) tea.Cmd {
	return func() tea.Msg {
		if err := player.Seek(delta); err != nil {
			return PlayerErrorMsg{Err: err}
		}
		return nil
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case PlayerEventMsg:
		changed, err := m.player.Observe(msg.Event)
		if changed {
			m.dialog.PlayerStateChanged()
		}
		next := readEventCmd(m.player)
		if err != nil {
			clearCmd := m.showError(err)
			return m, tea.Batch(clearCmd, next)
		}
		return m, next

	case PlayerEventErrorMsg:
		m.disconnected = true
		m.errorMessage = "player disconnected: " + msg.Err.Error()
		m.errorTransient = false
		return m, nil

	case PlayerErrorMsg:
		clearCmd := m.showError(msg.Err)
		return m, clearCmd

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// showError displays err until the transient timeout clears it.
func (m *Model) showError(err error) tea.Cmd {
	m.errorMessage = err.Error()
	m.errorTransient = true
	return clearTransientErrorCmd()
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyAccept:
		m.status = cutting.Accepted
		return m, tea.Quit

	case KeyCancel, KeyQuit, KeyCtrlC:
		m.status = cutting.Rejected
		return m, tea.Quit

	case KeyMarkBegin:
		m.dialog.MarkBegin()
		return m, nil

	case KeyMarkEnd:
		m.dialog.MarkEnd()
		return m, nil

	case KeyFromBegin:
		m.dialog.ToggleFromBegin()
		return m, nil

	case KeyToEnd:
		m.dialog.ToggleToEnd()
		return m, nil

	case KeyBeginEarlier:
		m.dialog.NudgeBegin(-1)
		return m, nil

	case KeyBeginLater:
		m.dialog.NudgeBegin(1)
		return m, nil

	case KeyEndEarlier:
		m.dialog.NudgeEnd(-1)
		return m, nil

	case KeyEndLater:
		m.dialog.NudgeEnd(1)
		return m, nil

	case KeyPlaySelect:
		if m.disconnected {
			return m, nil
		}
		if err := m.dialog.PlaySelection(); err != nil {
			clearCmd := m.showError(err)
			return m, clearCmd
		}
		return m, nil

	case KeyPause:
		if m.disconnected {
			return m, nil
		}
		return m, togglePauseCmd(m.player)

	case KeySeekBack:
		if m.disconnected {
			return m, nil
		}
		return m, seekCmd(m.player, -SeekStep)

	case KeySeekForward:
		if m.disconnected {
			return m, nil
		}
		return m, seekCmd(m.player, SeekStep)
	}

	return m, nil
}

// View renders the dialog.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderPlaybackBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderRange())
	sections = append(sections, m.renderTimeline(m.width))
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render(strings.ToUpper(m.dialog.Title()))
	if src := m.dialog.Source(); src != "" {
		title += ui.DimStyle.Render(" — " + filepath.Base(src))
	}
	return title
}

func (m Model) renderPlaybackBar() string {
	var state string
	switch {
	case m.disconnected:
		state = ui.ErrorStyle.Render("✕ DISCONNECTED")
	case m.player.Paused():
		state = ui.PausedStyle.Render("❚❚ PAUSED")
	default:
		state = ui.PlayingStyle.Render("▶ PLAYING")
	}

	duration := "--:--:--"
	if total := m.dialog.Selector().MaxTime(); total > 0 {
		duration = FormatTime(total)
	}
	pos := ui.TimestampStyle.Render(FormatTime(m.player.Position()))
	return state + "  " + pos + ui.DimStyle.Render(" / "+duration)
}

func (m Model) renderRange() string {
	sel := m.dialog.Selection()

	begin := ui.LabelStyle.Render("Begin ") + ui.TimestampStyle.Render(FormatTime(sel.BeginTime))
	if sel.FromBegin {
		begin += "  " + ui.FlagOnStyle.Render("[from start]")
	}
	end := ui.LabelStyle.Render("End   ") + ui.TimestampStyle.Render(FormatTime(sel.EndTime))
	if sel.ToEnd {
		end += "  " + ui.FlagOnStyle.Render("[to end]")
	}
	return begin + "\n" + end
}

// renderTimeline draws the media as a bar with the effective selection
// highlighted and the playback position marked.
func (m Model) renderTimeline(width int) string {
	total := m.dialog.Selector().MaxTime()
	if total <= 0 {
		return ui.DimStyle.Render("Waiting for media duration...")
	}

	cells := max(10, width)
	begin, end := m.dialog.EffectiveBounds()
	if end == cutting.Unbounded {
		end = total
	}
	col := func(sec int) int {
		c := sec * (cells - 1) / total
		return min(max(c, 0), cells-1)
	}
	from, to, cursor := col(begin), col(end), col(m.player.Position())

	var b strings.Builder
	for i := 0; i < cells; i++ {
		switch {
		case i == cursor:
			b.WriteString(ui.CursorStyle.Render("●"))
		case i >= from && i <= to:
			b.WriteString(ui.SelectionStyle.Render("━"))
		default:
			b.WriteString(ui.TrackStyle.Render("─"))
		}
	}
	return b.String()
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string

	if !m.disconnected {
		parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Pause"))
		parts = append(parts, ui.FooterKeyStyle.Render("←→")+ui.FooterDescStyle.Render(" Seek"))
		parts = append(parts, ui.FooterKeyStyle.Render("p")+ui.FooterDescStyle.Render(" Play selection"))
	}
	parts = append(parts, ui.FooterKeyStyle.Render("b/e")+ui.FooterDescStyle.Render(" Mark"))
	parts = append(parts, ui.FooterKeyStyle.Render("B/E")+ui.FooterDescStyle.Render(" Start/End"))
	parts = append(parts, ui.FooterKeyStyle.Render("[]{}")+ui.FooterDescStyle.Render(" Nudge"))
	parts = append(parts, ui.FooterKeyStyle.Render("Enter")+ui.FooterDescStyle.Render(" OK"))
	parts = append(parts, ui.FooterKeyStyle.Render("Esc")+ui.FooterDescStyle.Render(" Cancel"))

	return wrapParts(parts, m.width)
}

// Helpers

// FormatTime renders whole seconds as HH:MM:SS. Negative values render as zero.
func FormatTime(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec/60%60, sec%60)
}

// wrapParts joins footer parts with two spaces, breaking lines at width.
func wrapParts(parts []string, width int) string {
	var lines []string
	var current string
	for _, p := range parts {
		switch {
		case current == "":
			current = p
		case lipgloss.Width(current)+2+lipgloss.Width(p) <= width:
			current += "  " + p
		default:
			lines = append(lines, current)
			current = p
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return strings.Join(lines, "\n")
}
