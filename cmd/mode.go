package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/xvierd/keeper/internal/domain"
)

var modeCmd = &cobra.Command{
	Use:   "mode <pomodoro|shortBreak|longBreak>",
	Short: "Switch the timer mode",
	Long: `Switch to another mode at its configured duration. The timer is left
stopped. Loose spellings like "short" or "long break" are accepted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := domain.MatchMode(args[0])
		if err != nil {
			return err
		}

		state, err := app.pomodoro.SwitchMode(context.Background(), mode)
		if err != nil {
			return err
		}
		return reportState(cmd.OutOrStdout(), "🔀", "Switched mode", state)
	},
}
