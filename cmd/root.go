// Package cmd provides the CLI commands for the keeper application.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xvierd/keeper/internal/adapters/tui"
	"github.com/xvierd/keeper/internal/foreground"
)

var (
	// Version info (set at build time via ldflags)
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"

	// Global flags
	dbPath     string
	socketPath string
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "keeper",
	Short: "keeper - a Pomodoro timer that keeps counting in the background",
	Long: `keeper is a Pomodoro timer split into a background daemon that owns the
countdown and a popup that shows it. Closing the popup never stops the timer.

Run "keeper daemon" once, then "keeper" with no arguments to open the popup.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeServices()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return cleanupServices()
	},
	RunE: runPopup,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		tui.ShowError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (default: ~/.keeper/keeper.db)")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "Path to the daemon socket (default: ~/.keeper/keeper.sock)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")

	// Set version - cobra handles --version automatically
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("keeper\nVersion: {{.Version}}\n")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(mcpCmd)
}

// runPopup opens the interactive countdown against the running daemon.
func runPopup(cmd *cobra.Command, args []string) error {
	ctx := setupSignalHandler()

	if err := app.client.Ping(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: the timer daemon is not answering. Start it with 'keeper daemon'.")
	}

	view := foreground.NewView(app.commands, app.storage.Settings(), foreground.OptionsFromConfig(app.config.View))
	popup := tui.NewPopup(view, tui.ThemeFromConfig(app.config.Badge))
	return popup.Run(ctx)
}

// formatMinutes formats a duration as a human-friendly string like "25m" or "1h30m".
func formatMinutes(d time.Duration) string {
	if d >= time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}

// getDir returns the directory of a file path.
func getDir(path string) string {
	lastSep := 0
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			lastSep = i
			break
		}
	}
	if lastSep == 0 {
		return "."
	}
	return path[:lastSep]
}
