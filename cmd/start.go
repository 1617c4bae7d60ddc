package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start or resume the timer",
	Long: `Start the current phase from its remaining time. Starting a running timer
does nothing; with no timer yet a fresh pomodoro starts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := app.pomodoro.StartTimer(context.Background())
		if err != nil {
			return err
		}
		return reportState(cmd.OutOrStdout(), "▶️ ", "Timer running", state)
	},
}
