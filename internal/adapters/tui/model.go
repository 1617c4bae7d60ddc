// Package tui provides the terminal popup implementation
// using the Bubbletea framework.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xvierd/keeper/internal/config"
	"github.com/xvierd/keeper/internal/domain"
	"github.com/xvierd/keeper/internal/foreground"
)

// Theme holds the popup colours.
type Theme struct {
	ColorPomodoro string
	ColorBreak    string
	ColorPaused   string
	ColorTitle    string
	ColorHelp     string
	ColorError    string
}

// DefaultTheme returns the default popup colours.
func DefaultTheme() Theme {
	return ThemeFromConfig(config.DefaultConfig().Badge)
}

// ThemeFromConfig uses the badge colours for the clock so the popup and the
// badge always agree.
func ThemeFromConfig(cfg config.BadgeConfig) Theme {
	t := Theme{
		ColorPomodoro: cfg.ColorPomodoro,
		ColorBreak:    cfg.ColorBreak,
		ColorPaused:   "#6B7280",
		ColorTitle:    "#6B7280",
		ColorHelp:     "#95A5A6",
		ColorError:    "#FF6B6B",
	}
	if t.ColorPomodoro == "" {
		t.ColorPomodoro = "#4dabf7"
	}
	if t.ColorBreak == "" {
		t.ColorBreak = "#51cf66"
	}
	return t
}

// tickMsg is sent on every local tick.
type tickMsg time.Time

// mountedMsg reports the outcome of the initial fetch.
type mountedMsg struct {
	err error
}

// resultMsg reports the outcome of a command or sync round trip.
type resultMsg struct {
	action string
	err    error
}

// Model is the popup state. All timer state lives in the foreground.View;
// the model only keeps the last frame it rendered.
type Model struct {
	ctx      context.Context
	view     *foreground.View
	frame    foreground.Frame
	progress progress.Model
	theme    Theme
	width    int
	height   int
	mounted  bool
	lastErr  error
	quitting bool
}

// NewModel creates a popup over view.
func NewModel(ctx context.Context, view *foreground.View, theme Theme) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	return Model{
		ctx:      ctx,
		view:     view,
		frame:    view.Frame(),
		progress: progress.New(progress.WithSolidFill(theme.ColorPomodoro), progress.WithoutPercentage()),
		theme:    theme,
	}
}

// Init mounts the view and starts the local tick.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.mountCmd(), m.tickCmd())
}

func (m Model) mountCmd() tea.Cmd {
	view, ctx := m.view, m.ctx
	return func() tea.Msg {
		return mountedMsg{err: view.Mount(ctx)}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.view.TickInterval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// run wraps a round trip to the daemon so it never blocks rendering.
func (m Model) run(action string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return resultMsg{action: action, err: fn(ctx)}
	}
}

func (m Model) switchCmd(mode domain.Mode) tea.Cmd {
	view := m.view
	return m.run("switch", func(ctx context.Context) error {
		return view.SwitchMode(ctx, mode)
	})
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	view, ctx := m.view, m.ctx
	unmount := func() tea.Msg {
		view.Unmount(ctx)
		return nil
	}
	return m, tea.Sequence(unmount, tea.Quit)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m.quit()
		case "s":
			if !m.frame.IsRunning {
				return m, m.run("start", m.view.Start)
			}
		case "p":
			if m.frame.IsRunning {
				return m, m.run("pause", m.view.Pause)
			}
		case " ":
			if m.frame.IsRunning {
				return m, m.run("pause", m.view.Pause)
			}
			return m, m.run("start", m.view.Start)
		case "r":
			return m, m.run("reset", m.view.Reset)
		case "1":
			return m, m.switchCmd(domain.ModePomodoro)
		case "2":
			return m, m.switchCmd(domain.ModeShortBreak)
		case "3":
			return m, m.switchCmd(domain.ModeLongBreak)
		}

	case tea.FocusMsg:
		return m, m.run("sync", m.view.Focus)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(msg.Width-8, 10)

	case mountedMsg:
		m.lastErr = msg.err
		m.mounted = msg.err == nil
		m.frame = m.view.Frame()
		if msg.err != nil {
			// Retry once a second until the daemon answers.
			return m, tea.Tick(time.Second, func(time.Time) tea.Msg { return retryMountMsg{} })
		}

	case retryMountMsg:
		if !m.mounted && !m.quitting {
			return m, m.mountCmd()
		}

	case resultMsg:
		// Most ticks make no round trip, so only a failed sync is reported.
		if msg.action != "sync" || msg.err != nil {
			m.lastErr = msg.err
		}
		m.frame = m.view.Frame()

	case tickMsg:
		if m.quitting {
			return m, nil
		}
		m.frame = m.view.Frame()
		return m, tea.Batch(m.tickCmd(), m.run("sync", m.view.Tick))
	}

	return m, nil
}

// retryMountMsg asks for another initial fetch.
type retryMountMsg struct{}

// View renders the popup.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	f := m.frame
	clockColor := m.clockColor()

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle)).MarginBottom(1)
	sections = append(sections, titleStyle.Render("Productivity Keeper"))

	sections = append(sections, m.viewModeSelector())
	sections = append(sections, "")

	if !m.mounted && m.lastErr == nil {
		sections = append(sections, lipgloss.NewStyle().Faint(true).Render("Loading..."))
	} else {
		sections = append(sections, renderBigTime(f.Clock(), clockColor, m.width))
	}

	bar := m.progress
	if f.Mode.IsBreak() {
		bar.FullColor = m.theme.ColorBreak
	}
	sections = append(sections, "")
	sections = append(sections, bar.ViewAs(f.Progress))
	sections = append(sections, "")
	sections = append(sections, renderPomodoroDots(f.CompletedPomodoros, lipgloss.Color(m.theme.ColorPomodoro)))

	if m.lastErr != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorError))
		sections = append(sections, "")
		sections = append(sections, errStyle.Render("Error: "+m.lastErr.Error()))
	}

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))
	action := "[s]tart"
	if f.IsRunning {
		action = "[p]ause"
	}
	sections = append(sections, "")
	sections = append(sections, helpStyle.Render(fmt.Sprintf("%s  [r]eset  [1-3] mode  [q]uit", action)))

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) clockColor() lipgloss.Color {
	switch {
	case !m.frame.IsRunning:
		return lipgloss.Color(m.theme.ColorPaused)
	case m.frame.Mode.IsBreak():
		return lipgloss.Color(m.theme.ColorBreak)
	default:
		return lipgloss.Color(m.theme.ColorPomodoro)
	}
}

func (m Model) viewModeSelector() string {
	active := lipgloss.NewStyle().Bold(true).Underline(true)
	inactive := lipgloss.NewStyle().Faint(true)

	labels := make([]string, 0, len(domain.ValidModes))
	for i, mode := range domain.ValidModes {
		label := fmt.Sprintf("%d %s", i+1, mode.Label())
		if mode == m.frame.Mode {
			color := m.theme.ColorPomodoro
			if mode.IsBreak() {
				color = m.theme.ColorBreak
			}
			labels = append(labels, active.Foreground(lipgloss.Color(color)).Render(label))
		} else {
			labels = append(labels, inactive.Render(label))
		}
	}
	return strings.Join(labels, "   ")
}

// renderPomodoroDots draws LongBreakInterval dots, filled up to completed.
func renderPomodoroDots(completed int, color lipgloss.Color) string {
	filled := lipgloss.NewStyle().Foreground(color)
	empty := lipgloss.NewStyle().Faint(true)

	dots := make([]string, domain.LongBreakInterval)
	for i := range dots {
		if completed >= i+1 {
			dots[i] = filled.Render("●")
		} else {
			dots[i] = empty.Render("○")
		}
	}
	return strings.Join(dots, " ")
}
