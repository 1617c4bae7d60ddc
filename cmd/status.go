package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/xvierd/keeper/internal/adapters/badge"
	"github.com/xvierd/keeper/internal/adapters/tui"
	"github.com/xvierd/keeper/internal/domain"
)

var badgeOnly bool

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current status",
	Long: `Display the timer as the daemon sees it right now. When stdout is not a
terminal a single line is printed, suitable for status bars:

  pomodoro 12:34 running 2

With --badge the countdown badge the daemon last wrote is printed instead,
without contacting the daemon.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if badgeOnly {
			return outputBadge(cmd.OutOrStdout(), app.config.Badge.File)
		}

		state, err := app.pomodoro.GetTimerState(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputStateJSON(cmd.OutOrStdout(), state)
		}
		if !term.IsTerminal(os.Stdout.Fd()) {
			fmt.Fprintln(cmd.OutOrStdout(), formatStatusLine(state))
			return nil
		}

		tui.ShowStatus(state)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&badgeOnly, "badge", false, "Print the badge file instead of asking the daemon")
}

// outputBadge prints the badge file as "<text> <color>", or nothing when the badge is clear.
func outputBadge(w io.Writer, path string) error {
	text, color, err := badge.Read(path)
	if err != nil {
		return err
	}
	if jsonOutput {
		jsonData, err := json.Marshal(map[string]string{"text": text, "color": color})
		if err != nil {
			return fmt.Errorf("failed to marshal badge: %w", err)
		}
		fmt.Fprintln(w, string(jsonData))
		return nil
	}
	if text != "" {
		fmt.Fprintln(w, strings.TrimSpace(text+" "+color))
	}
	return nil
}

// outputStateJSON writes the state in its wire format, or null when none exists.
func outputStateJSON(w io.Writer, st *domain.TimerState) error {
	jsonData, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	fmt.Fprintln(w, string(jsonData))
	return nil
}

// formatStatusLine renders the state as "<mode> <MM:SS> <running|stopped> <completed>".
func formatStatusLine(st *domain.TimerState) string {
	if st == nil {
		return "idle"
	}
	status := "stopped"
	if st.IsRunning {
		status = "running"
	}
	return fmt.Sprintf("%s %s %s %d", st.Mode, st.Clock(), status, st.CompletedPomodoros)
}

// reportState prints the outcome of a timer command.
func reportState(w io.Writer, icon, verb string, st *domain.TimerState) error {
	if jsonOutput {
		return outputStateJSON(w, st)
	}
	if st == nil {
		fmt.Fprintf(w, "%s %s\n", icon, verb)
		return nil
	}
	fmt.Fprintf(w, "%s %s: %s, %s remaining\n", icon, verb, st.Mode.Label(), st.Clock())
	return nil
}
