package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restart the current mode",
	Long: `Stop the timer and restore the current mode to its full configured
duration. The completed pomodoro count is kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := app.pomodoro.ResetTimer(context.Background())
		if err != nil {
			return err
		}
		return reportState(cmd.OutOrStdout(), "🔄", "Timer reset", state)
	},
}
