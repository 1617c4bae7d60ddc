package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xvierd/keeper/internal/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the timer settings",
	Long:  `Show the durations, auto-start flags and notification sound used by the timer.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := app.pomodoro.GetSettings(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			jsonData, err := json.MarshalIndent(settings, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal settings: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		}
		printSettings(cmd.OutOrStdout(), settings)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key=value>...",
	Short: "Change timer settings",
	Long: `Change one or more settings and reset the timer so the current mode
picks up its new duration.

Keys:
  pomodoro, short-break, long-break      durations in minutes
  auto-start-breaks, auto-start-pomodoros true or false
  sound                                  bell, digital or gentle
  theme                                  theme colour name
  dark-mode                              true or false`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		settings, err := app.pomodoro.GetSettings(ctx)
		if err != nil {
			return err
		}
		for _, arg := range args {
			key, value, ok := strings.Cut(arg, "=")
			if !ok {
				return fmt.Errorf("invalid setting %q: expected key=value", arg)
			}
			if err := applySetting(&settings, key, value); err != nil {
				return err
			}
		}

		state, err := app.pomodoro.UpdateSettings(ctx, settings)
		if err != nil {
			return err
		}
		return reportState(cmd.OutOrStdout(), "⚙️ ", "Settings saved", state)
	},
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd)
}

// applySetting parses value and assigns it to the field named by key.
func applySetting(s *domain.Settings, key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)

	minutes := func(dst *int) error {
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be a whole number of minutes, got %q", key, value)
		}
		*dst = n
		return nil
	}
	flag := func(dst *bool) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false, got %q", key, value)
		}
		*dst = b
		return nil
	}

	switch key {
	case "pomodoro":
		return minutes(&s.PomodoroDuration)
	case "short-break":
		return minutes(&s.ShortBreakDuration)
	case "long-break":
		return minutes(&s.LongBreakDuration)
	case "auto-start-breaks":
		return flag(&s.AutoStartBreaks)
	case "auto-start-pomodoros":
		return flag(&s.AutoStartPomodoros)
	case "sound":
		s.NotificationSound = strings.ToLower(value)
		return nil
	case "theme":
		s.ThemeColor = value
		return nil
	case "dark-mode":
		return flag(&s.DarkMode)
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
}

func printSettings(w io.Writer, s domain.Settings) {
	fmt.Fprintln(w, "⚙️  Settings")
	fmt.Fprintf(w, "   Pomodoro:             %d min\n", s.PomodoroDuration)
	fmt.Fprintf(w, "   Short break:          %d min\n", s.ShortBreakDuration)
	fmt.Fprintf(w, "   Long break:           %d min (every %d pomodoros)\n", s.LongBreakDuration, domain.LongBreakInterval)
	fmt.Fprintf(w, "   Auto-start breaks:    %v\n", s.AutoStartBreaks)
	fmt.Fprintf(w, "   Auto-start pomodoros: %v\n", s.AutoStartPomodoros)
	fmt.Fprintf(w, "   Sound:                %s\n", s.NotificationSound)
	fmt.Fprintf(w, "   Theme:                %s (dark mode %v)\n", s.ThemeColor, s.DarkMode)
}
