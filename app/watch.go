package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"
	"github.com/gen2brain/beeep"

	"github.com/ayoisaiah/annotrack/idle"
	"github.com/ayoisaiah/annotrack/tracker"
)

type keymap struct {
	save   key.Binding
	start  key.Binding
	stop   key.Binding
	logout key.Binding
	quit   key.Binding
}

var defaultKeymap = keymap{
	save: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "save"),
	),
	start: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new session"),
	),
	stop: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "force stop"),
	),
	logout: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "logout"),
	),
	quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keymap) ShortHelp() []key.Binding {
	return []key.Binding{k.save, k.start, k.stop, k.logout, k.quit}
}

func (k keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var (
	baseStyle = lipgloss.NewStyle().Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C492B1")).
			Bold(true)

	durationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B0DB43")).
			Bold(true).
			Padding(1, 0)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#828997"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#12EAEA"))
)

type (
	durationMsg string

	resetMsg tracker.WeekInfo

	idleMsg struct{}

	// stoppedMsg carries the outcome of a stop or logout.
	stoppedMsg struct {
		rec    *tracker.Record
		err    error
		logout bool
	}
)

// watchModel is the bubbletea model of the watch command.
type watchModel struct {
	ctx         context.Context
	deps        *deps
	watchdog    *idle.Watchdog
	ticks       <-chan string
	resets      <-chan tracker.WeekInfo
	idle        chan struct{}
	cancel      context.CancelFunc
	unsubscribe func()
	help        help.Model
	week        tracker.WeekInfo
	duration    string
	status      string
	total       int
	quitting    bool
}

func newWatchModel(parent context.Context, d *deps) *watchModel {
	ctx, cancel := context.WithCancel(parent)

	m := &watchModel{
		ctx:      ctx,
		cancel:   cancel,
		deps:     d,
		idle:     make(chan struct{}, 1),
		help:     help.New(),
		duration: "--:--:--",
	}

	m.watchdog = idle.New(
		d.cfg.Tracking.IdleTimeout,
		func() {
			select {
			case m.idle <- struct{}{}:
			default:
			}
		},
		idle.WithLogger(d.logger),
	)

	d.tracker.StartSessionTracking()

	s := d.tracker.Status()
	m.total = s.TotalAnnotationCount
	m.week = s.Week

	m.resets, m.unsubscribe = d.tracker.SubscribeResets()
	m.ticks = d.tracker.SessionDuration(ctx)

	if d.auth.IsLoggedIn() {
		m.watchdog.Touch()
	}

	return m
}

// close stops the background work of the model. The session itself is left
// running so that it can be resumed.
func (m *watchModel) close() {
	m.watchdog.Stop()
	m.cancel()
	m.unsubscribe()
}

func waitForDuration(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}

		return durationMsg(v)
	}
}

func waitForReset(ch <-chan tracker.WeekInfo) tea.Cmd {
	return func() tea.Msg {
		info, ok := <-ch
		if !ok {
			return nil
		}

		return resetMsg(info)
	}
}

func waitForIdle(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return idleMsg{}
	}
}

func (m *watchModel) notify(title, msg string) {
	if !m.deps.cfg.Tracking.Notify {
		return
	}

	err := beeep.Notify(title, msg, "")
	if err != nil {
		m.deps.logger.Warn("unable to display notification", "error", err)
	}
}

// stopCmd stops the session, or logs out, in a command. Both may block on
// the collector.
func (m *watchModel) stopCmd(logout bool) tea.Cmd {
	total := m.total

	return func() tea.Msg {
		if logout {
			// anonymous sessions only live in the tracker
			if !m.deps.auth.IsLoggedIn() {
				rec := m.deps.tracker.Logout(m.ctx, total)
				return stoppedMsg{rec: rec, logout: true}
			}

			rec, err := m.deps.auth.Logout(m.ctx, total)
			return stoppedMsg{rec: rec, err: err, logout: true}
		}

		rec := m.deps.tracker.StopSessionTracking(m.ctx, true, total)

		return stoppedMsg{rec: rec}
	}
}

func (m *watchModel) Init() tea.Cmd {
	return tea.Batch(
		waitForDuration(m.ticks),
		waitForReset(m.resets),
		waitForIdle(m.idle),
	)
}

func (m *watchModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.deps.auth.IsLoggedIn() {
		m.watchdog.Touch()
	}

	switch {
	case key.Matches(msg, defaultKeymap.save):
		m.total++
		m.deps.tracker.TrackSuccessfulSave(m.total)

		s := m.deps.tracker.Status()
		m.status = fmt.Sprintf("Save recorded (%d this session)", s.SaveCount)

	case key.Matches(msg, defaultKeymap.start):
		if m.deps.tracker.IsSessionActive() {
			m.status = "A session is already active"
			break
		}

		m.deps.tracker.StartSessionTracking()
		m.total = 0
		m.status = "New session started"

	case key.Matches(msg, defaultKeymap.stop):
		m.status = "Stopping session..."
		return m, m.stopCmd(false)

	case key.Matches(msg, defaultKeymap.logout):
		m.status = "Logging out..."
		return m, m.stopCmd(true)

	case key.Matches(msg, defaultKeymap.quit):
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(durationMsg); !ok {
		slog.Debug(spew.Sdump(msg))
	}

	switch msg := msg.(type) {
	case durationMsg:
		m.duration = string(msg)
		return m, waitForDuration(m.ticks)

	case resetMsg:
		m.week = tracker.WeekInfo(msg)
		m.status = "A new week has started, the weekly total was reset"
		m.notify("Weekly total reset", "Week of "+m.week.Start+" started")

		return m, waitForReset(m.resets)

	case idleMsg:
		m.status = "Session expired due to inactivity"
		m.notify("annotrack", "Session expired due to inactivity")

		return m, m.stopCmd(true)

	case stoppedMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}

		if msg.rec != nil {
			err := runStopHook(m.ctx, m.deps.cfg.Hooks.OnStop, msg.rec)
			if err != nil {
				m.deps.logger.Error("on_stop hook failed", "error", err)
			}

			m.status = stopSummary(msg.rec)
		} else {
			m.status = "No active session"
		}

		if msg.logout {
			m.quitting = true
			return m, tea.Quit
		}

		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

func stopSummary(rec *tracker.Record) string {
	summary := fmt.Sprintf(
		"Session ended after %d min with %d saves",
		rec.DurationMinutes,
		rec.SaveCount,
	)

	switch {
	case !rec.UploadAttempted:
		return summary + ", nothing to upload"
	case !rec.Uploaded:
		return summary + ", upload failed"
	default:
		return summary + ", uploaded"
	}
}

func (m *watchModel) View() string {
	if m.quitting {
		return baseStyle.Render(statusStyle.Render(m.status)) + "\n"
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render(
		fmt.Sprintf("Weekly total for %s", m.deps.tracker.Username()),
	))

	s.WriteString("\n")
	s.WriteString(durationStyle.Render(m.duration))
	s.WriteString("\n")
	s.WriteString(hintStyle.Render(fmt.Sprintf(
		"Week of %s to %s, resets in %d days",
		m.week.Start,
		m.week.End,
		m.deps.tracker.DaysUntilReset(),
	)))

	if m.status != "" {
		s.WriteString("\n\n" + statusStyle.Render(m.status))
	}

	s.WriteString("\n\n" + m.help.View(defaultKeymap))

	return baseStyle.Render(s.String())
}
