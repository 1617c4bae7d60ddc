package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

// pauseCmd represents the pause command
var pauseCmd = &cobra.Command{
	Use:     "pause",
	Aliases: []string{"stop"},
	Short:   "Pause the timer",
	Long:    `Pause the running phase. Its remaining time is kept for the next start.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := app.pomodoro.StopTimer(context.Background())
		if err != nil {
			return err
		}
		return reportState(cmd.OutOrStdout(), "⏸️ ", "Timer paused", state)
	},
}
