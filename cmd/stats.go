package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/xvierd/keeper/internal/domain"
)

var (
	statsDate  string
	statsLimit int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a dashboard of finished phases",
	Long:  `Display the pomodoros and breaks finished on a day, followed by the most recent phases of the last week.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		now := time.Now()

		day := now
		if statsDate != "" {
			parsed, err := time.ParseInLocation("2006-01-02", statsDate, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --date %q: use YYYY-MM-DD", statsDate)
			}
			day = parsed
		}

		stats, err := app.state.GetDailyStats(ctx, day)
		if err != nil {
			return err
		}
		recent, err := app.state.GetRecentPhases(ctx, statsLimit)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputStatsJSON(cmd.OutOrStdout(), stats, recent)
		}

		fmt.Fprintln(cmd.OutOrStdout())
		renderDashboard(cmd.OutOrStdout(), stats, recent, now)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsDate, "date", "d", "", "Day to summarize as YYYY-MM-DD (default: today)")
	statsCmd.Flags().IntVarP(&statsLimit, "limit", "n", 5, "Number of recent phases to list")
}

func outputStatsJSON(w io.Writer, stats *domain.DailyStats, recent []*domain.PhaseRecord) error {
	phases := make([]map[string]interface{}, 0, len(recent))
	for _, r := range recent {
		phases = append(phases, map[string]interface{}{
			"mode":         string(r.Mode),
			"duration":     r.DurationSeconds,
			"completed_at": r.CompletedAt.Format(time.RFC3339),
		})
	}
	result := map[string]interface{}{
		"date":            stats.Date.Format("2006-01-02"),
		"pomodoros":       stats.Pomodoros,
		"short_breaks":    stats.ShortBreaks,
		"long_breaks":     stats.LongBreaks,
		"total_work_time": stats.TotalWorkTime.String(),
		"recent":          phases,
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	fmt.Fprintln(w, string(jsonData))
	return nil
}

func renderDashboard(w io.Writer, stats *domain.DailyStats, recent []*domain.PhaseRecord, now time.Time) {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C6FE0"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	barColor := lipgloss.NewStyle().Foreground(lipgloss.Color("#7C6FE0"))

	fmt.Fprintf(w, "  %s\n", titleStyle.Render(stats.Date.Format("Monday, Jan 2")))
	fmt.Fprintf(w, "  %s\n\n", dimStyle.Render(strings.Repeat("─", 40)))

	fmt.Fprintf(w, "  Total: %s pomodoros, %s focused\n\n",
		valueStyle.Render(fmt.Sprintf("%d", stats.Pomodoros)),
		valueStyle.Render(formatMinutes(stats.TotalWorkTime)),
	)

	if stats.Pomodoros == 0 && stats.BreaksTaken() == 0 {
		fmt.Fprintf(w, "  %s\n\n", dimStyle.Render("No finished phases on this day."))
	} else {
		counts := []struct {
			mode  domain.Mode
			count int
		}{
			{domain.ModePomodoro, stats.Pomodoros},
			{domain.ModeShortBreak, stats.ShortBreaks},
			{domain.ModeLongBreak, stats.LongBreaks},
		}
		maxCount := 0
		for _, c := range counts {
			if c.count > maxCount {
				maxCount = c.count
			}
		}

		maxBarWidth := 30
		for _, c := range counts {
			barWidth := int(math.Round(float64(c.count) / float64(maxCount) * float64(maxBarWidth)))
			if barWidth < 1 && c.count > 0 {
				barWidth = 1
			}
			fmt.Fprintf(w, "  %s %s %d\n",
				dimStyle.Render(fmt.Sprintf("%-12s", c.mode.Label())),
				barColor.Render(buildBar(barWidth)),
				c.count,
			)
		}
		fmt.Fprintln(w)
	}

	if len(recent) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s\n", dimStyle.Render("Recently finished"))
	for _, r := range recent {
		fmt.Fprintf(w, "  %s  %s  %s\n",
			dimStyle.Render(fmt.Sprintf("%-12s", r.Mode.Label())),
			valueStyle.Render(formatMinutes(time.Duration(r.DurationSeconds)*time.Second)),
			dimStyle.Render(humanize.RelTime(r.CompletedAt, now, "ago", "from now")),
		)
	}
	fmt.Fprintln(w)
}

// buildBar creates a horizontal bar using block characters.
func buildBar(width int) string {
	if width <= 0 {
		return ""
	}
	return strings.Repeat("█", width)
}
