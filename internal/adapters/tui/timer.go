package tui

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xvierd/keeper/internal/domain"
	"github.com/xvierd/keeper/internal/foreground"
)

// Popup runs the interactive countdown until the user quits.
type Popup struct {
	view    *foreground.View
	theme   Theme
	options []tea.ProgramOption
}

// NewPopup creates a popup over view.
func NewPopup(view *foreground.View, theme Theme, opts ...tea.ProgramOption) *Popup {
	return &Popup{view: view, theme: theme, options: opts}
}

// Run starts the popup and blocks until it is closed or ctx is cancelled.
// Closing the popup never stops the timer; the daemon keeps counting.
func (p *Popup) Run(ctx context.Context) error {
	opts := append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	}, p.options...)

	program := tea.NewProgram(NewModel(ctx, p.view, p.theme), opts...)
	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil {
			p.view.Unmount(context.Background())
			return nil
		}
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// ShowStatus prints the timer state without starting interactive mode.
func ShowStatus(st *domain.TimerState) {
	if st == nil {
		fmt.Println("No timer state yet. Run 'keeper start' to begin.")
		return
	}

	status := "stopped"
	if st.IsRunning {
		status = "running"
	}
	fmt.Printf("🍅 %s (%s)\n", st.Mode.Label(), status)
	fmt.Printf("   Remaining: %s of %s\n", st.Clock(), domain.FormatClock(domain.SplitSeconds(st.TotalSeconds)))
	fmt.Printf("   Progress: %.0f%%\n", st.Progress()*100)
	fmt.Printf("   Pomodoros: %d\n", st.CompletedPomodoros)
}

// ShowError displays an error message.
func ShowError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
