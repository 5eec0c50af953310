package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"chartwatch/classify"
	"chartwatch/live"
)

// TUI message types
type StatusMsg struct {
	Status live.Status
	Err    error
}
type ReadoutMsg struct{ Readout classify.Readout }
type CountdownMsg struct{ Remaining time.Duration }
type MarkerMsg struct {
	Signal  classify.Signal
	Visible bool
}
type MuteMsg struct{ Muted bool }
type MinutesMsg struct{ Minutes int }
type UserLineMsg struct{ Text string }  // signed-in user
type FrameLineMsg struct{ Text string } // frame source status
type CopiedMsg struct{}
type LogMsg struct{ Text string }
type tickMsg time.Time

// Commands flowing back from key handling to the run loop.
var (
	toggleScanChan = make(chan struct{}, 1)
	muteToggleChan = make(chan struct{}, 1)
	minsDeltaChan  = make(chan int, 4)
	copyChan       = make(chan struct{}, 1)
)

type histEntry struct {
	at     time.Time
	signal classify.Signal
	text   string
}

type tuiModel struct {
	status        live.Status
	errText       string
	readout       classify.Readout
	hasReadout    bool
	remaining     time.Duration
	marker        classify.Signal
	markerVisible bool
	muted         bool
	minutes       int
	userLine      string
	frameLine     string
	logLine       string
	copied        bool
	history       []histEntry
	frame         int
	width, height int
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	styleBuy    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	styleSell   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleCancel = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	styleWait   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Bold(true)
	styleDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleFaint  = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleText   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func signalStyle(sig classify.Signal) lipgloss.Style {
	switch sig {
	case classify.SignalBuy:
		return styleBuy
	case classify.SignalSell:
		return styleSell
	case classify.SignalCancel:
		return styleCancel
	}
	return styleWait
}

func NewTUIProgram(minutes int) *tea.Program {
	m := tuiModel{minutes: minutes}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case " ", "enter":
			select {
			case toggleScanChan <- struct{}{}:
			default:
			}
		case "m":
			select {
			case muteToggleChan <- struct{}{}:
			default:
			}
		case "+", "=":
			select {
			case minsDeltaChan <- 1:
			default:
			}
		case "-", "_":
			select {
			case minsDeltaChan <- -1:
			default:
			}
		case "c":
			select {
			case copyChan <- struct{}{}:
			default:
			}
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case StatusMsg:
		m.status = msg.Status
		m.errText = ""
		if msg.Err != nil {
			m.errText = msg.Err.Error()
		}
		if m.status != live.StatusActive {
			m.markerVisible = false
		}

	case ReadoutMsg:
		m.readout = msg.Readout
		m.hasReadout = true
		m.copied = false
		m.history = append(m.history, histEntry{
			at:     time.Now(),
			signal: msg.Readout.Signal,
			text:   msg.Readout.Analysis,
		})
		if len(m.history) > 50 {
			m.history = m.history[len(m.history)-50:]
		}

	case CountdownMsg:
		m.remaining = msg.Remaining

	case MarkerMsg:
		m.marker = msg.Signal
		m.markerVisible = msg.Visible

	case MuteMsg:
		m.muted = msg.Muted

	case MinutesMsg:
		m.minutes = msg.Minutes

	case UserLineMsg:
		m.userLine = msg.Text

	case FrameLineMsg:
		m.frameLine = msg.Text

	case CopiedMsg:
		m.copied = true

	case LogMsg:
		m.logLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	const panelWidth = 38
	var left []string

	switch m.status {
	case live.StatusActive:
		spinner := []string{"◐", "◓", "◑", "◒"}[m.frame/2%4]
		left = append(left, styleOK.Render(spinner+" SCANNING "+formatClock(m.remaining)))
	case live.StatusConnecting:
		left = append(left, styleWarn.Render("… CONNECTING"))
	case live.StatusError:
		left = append(left, styleSell.Render("✕ ERROR"))
		if m.errText != "" {
			for _, line := range wrapText(m.errText, panelWidth-2) {
				left = append(left, styleWarn.Render("  "+line))
			}
		}
	default:
		left = append(left, styleDim.Render(fmt.Sprintf("○ STANDBY (%d min)", m.minutes)))
	}
	left = append(left, "")

	// Signal block
	sig := classify.SignalWait
	if m.hasReadout {
		sig = m.readout.Signal
	}
	sigLine := signalStyle(sig).Render("  " + string(sig) + "  ")
	if m.markerVisible {
		sigLine += " " + signalStyle(m.marker).Render("✚")
	}
	left = append(left, sigLine)

	if m.hasReadout {
		left = append(left, styleDim.Render(fmt.Sprintf("trend %s", m.readout.Trend)))
		if m.readout.Signal != classify.SignalWait {
			left = append(left, styleDim.Render(fmt.Sprintf("confidence %d%%", m.readout.Confidence)))
		}
		if m.readout.LevelAlert {
			left = append(left, styleWarn.Render("▲ level test"))
		}
		left = append(left, "")
		for _, c := range m.readout.Checklist {
			mark, style := "○", styleDim
			if c.Verified {
				mark, style = "✓", styleOK
			}
			left = append(left, style.Render(mark+" "+c.Label))
		}
	}
	left = append(left, "")

	if m.muted {
		left = append(left, styleWarn.Render("muted"))
	}
	if m.userLine != "" {
		left = append(left, styleDim.Render(m.userLine))
	}
	if m.frameLine != "" {
		left = append(left, styleDim.Render(m.frameLine))
	}
	if m.logLine != "" {
		left = append(left, styleFaint.Render(m.logLine))
	}
	left = append(left, "")
	left = append(left, styleFaint.Render("space scan · m mute · +/- mins"))
	left = append(left, styleFaint.Render("c copy · q quit"))

	// Right panel: last analysis plus history.
	logWidth := m.width - panelWidth - 1
	if logWidth < 20 {
		logWidth = 20
	}
	wrapWidth := logWidth - 2
	var right strings.Builder
	if m.hasReadout && m.readout.Analysis != "" {
		title := styleDim.Render(fmt.Sprintf("Last analysis (#%d)", len(m.history)))
		right.WriteString(title + "\n\n")
		lines := wrapText(m.readout.Analysis, wrapWidth)
		for i, line := range lines {
			right.WriteString(styleText.Render(line))
			if i == len(lines)-1 && m.copied {
				right.WriteString(" " + styleOK.Render("[✓ copied]"))
			}
			right.WriteString("\n")
		}
		if n := len(m.history); n > 1 {
			right.WriteString("\n")
			shown := m.history[:n-1]
			if len(shown) > 8 {
				shown = shown[len(shown)-8:]
			}
			for i := len(shown) - 1; i >= 0; i-- {
				h := shown[i]
				line := fmt.Sprintf("%s %-6s %s",
					h.at.Format("15:04:05"), h.signal, truncate(h.text, wrapWidth-16))
				right.WriteString(styleFaint.Render(line) + "\n")
			}
		}
	} else {
		right.WriteString(styleDim.Render("No analysis yet"))
	}

	leftPanel := lipgloss.NewStyle().
		Width(panelWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(strings.Join(left, "\n"))
	rightPanel := lipgloss.NewStyle().
		Width(logWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(right.String())

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}

func truncate(text string, width int) string {
	if width <= 1 {
		return text
	}
	// Rune-wise: analysis text is routinely Devanagari.
	runes := []rune(text)
	if len(runes) <= width {
		return text
	}
	return string(runes[:width-1]) + "…"
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func logToTUI(format string, args ...interface{}) {
	tuiSend(LogMsg{Text: fmt.Sprintf(format, args...)})
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
