// Package mcp provides the MCP (Model Context Protocol) server implementation.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/xvierd/keeper/internal/domain"
	"github.com/xvierd/keeper/internal/ports"
)

const dateLayout = "2006-01-02"

// defaultRecentLimit is how many phases get_recent_phases returns without a limit.
const defaultRecentLimit = 10

// Server implements the MCP server using mark3labs/mcp-go.
type Server struct {
	server        *server.MCPServer
	stateProvider ports.MCPStateProvider
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewServer creates a new MCP server instance.
func NewServer(stateProvider ports.MCPStateProvider) *Server {
	s := &Server{
		stateProvider: stateProvider,
	}

	s.server = server.NewMCPServer(
		"keeper",
		"1.0.0",
		server.WithLogging(),
	)

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"get_timer_state",
			mcp.WithDescription("Get the current timer: mode, remaining time, running flag and completed pomodoros"),
		),
		s.handleGetTimerState,
	)

	s.server.AddTool(
		mcp.NewTool(
			"start_timer",
			mcp.WithDescription("Start or resume the current phase"),
		),
		s.handleStartTimer,
	)

	s.server.AddTool(
		mcp.NewTool(
			"stop_timer",
			mcp.WithDescription("Pause the current phase, keeping its remaining time"),
		),
		s.handleStopTimer,
	)

	s.server.AddTool(
		mcp.NewTool(
			"reset_timer",
			mcp.WithDescription("Restart the current mode from its configured duration, stopped"),
		),
		s.handleResetTimer,
	)

	switchModeTool := mcp.NewTool(
		"switch_mode",
		mcp.WithDescription("Switch to another mode at its configured duration, stopped"),
		mcp.WithString(
			"mode",
			mcp.Required(),
			mcp.Description("The mode to switch to: pomodoro, shortBreak or longBreak"),
		),
	)
	s.server.AddTool(switchModeTool, s.handleSwitchMode)

	s.server.AddTool(
		mcp.NewTool(
			"get_settings",
			mcp.WithDescription("Get the configured durations, auto-start flags and notification sound"),
		),
		s.handleGetSettings,
	)

	dailyStatsTool := mcp.NewTool(
		"get_daily_stats",
		mcp.WithDescription("Get completed pomodoros and breaks for a day"),
		mcp.WithString(
			"date",
			mcp.Description("Day in YYYY-MM-DD format (default: today)"),
		),
	)
	s.server.AddTool(dailyStatsTool, s.handleGetDailyStats)

	recentTool := mcp.NewTool(
		"get_recent_phases",
		mcp.WithDescription("List phases finished in the last seven days, newest first"),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximum number of phases to return (default: 10)"),
		),
	)
	s.server.AddTool(recentTool, s.handleGetRecentPhases)
}

// Start begins serving MCP requests via stdio.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	return server.ServeStdio(s.server)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	if s.ctx == nil {
		return false
	}
	return s.ctx.Err() == nil
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

func (s *Server) handleGetTimerState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.stateProvider.GetTimerState(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get timer state: %v", err)), nil
	}
	return timerResult(state)
}

func (s *Server) handleStartTimer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.stateProvider.StartTimer(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start timer: %v", err)), nil
	}
	return timerResult(state)
}

func (s *Server) handleStopTimer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.stateProvider.StopTimer(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to stop timer: %v", err)), nil
	}
	return timerResult(state)
}

func (s *Server) handleResetTimer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.stateProvider.ResetTimer(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to reset timer: %v", err)), nil
	}
	return timerResult(state)
}

// handleSwitchMode accepts exact mode names and loose spellings like "long".
func (s *Server) handleSwitchMode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("mode")
	if err != nil {
		return mcp.NewToolResultError("mode is required: " + err.Error()), nil
	}
	mode, err := domain.MatchMode(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.stateProvider.SwitchMode(ctx, mode)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to switch mode: %v", err)), nil
	}
	return timerResult(state)
}

func (s *Server) handleGetSettings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	settings, err := s.stateProvider.GetSettings(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get settings: %v", err)), nil
	}
	return jsonResult(settings)
}

func (s *Server) handleGetDailyStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := time.Now()
	if raw := request.GetString("date", ""); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid date %q: use YYYY-MM-DD", raw)), nil
		}
		date = parsed
	}

	stats, err := s.stateProvider.GetDailyStats(ctx, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get daily stats: %v", err)), nil
	}

	return jsonResult(map[string]interface{}{
		"date":            stats.Date.Format(dateLayout),
		"pomodoros":       stats.Pomodoros,
		"short_breaks":    stats.ShortBreaks,
		"long_breaks":     stats.LongBreaks,
		"breaks_taken":    stats.BreaksTaken(),
		"total_work_time": stats.TotalWorkTime.String(),
	})
}

func (s *Server) handleGetRecentPhases(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := request.GetInt("limit", defaultRecentLimit)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	records, err := s.stateProvider.GetRecentPhases(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get recent phases: %v", err)), nil
	}

	phases := make([]map[string]interface{}, 0, len(records))
	for _, r := range records {
		phases = append(phases, map[string]interface{}{
			"id":           r.ID,
			"mode":         string(r.Mode),
			"duration":     (time.Duration(r.DurationSeconds) * time.Second).String(),
			"completed_at": r.CompletedAt.Format("2006-01-02T15:04:05"),
		})
	}

	return jsonResult(map[string]interface{}{
		"phases":      phases,
		"total_count": len(phases),
	})
}

// timerResult renders a timer state, or a null state when none exists yet.
func timerResult(st *domain.TimerState) (*mcp.CallToolResult, error) {
	if st == nil {
		return jsonResult(map[string]interface{}{"timer_state": nil})
	}
	return jsonResult(map[string]interface{}{
		"timer_state": map[string]interface{}{
			"mode":                string(st.Mode),
			"label":               st.Mode.Label(),
			"clock":               st.Clock(),
			"is_running":          st.IsRunning,
			"total_seconds":       st.TotalSeconds,
			"remaining_seconds":   st.RemainingSeconds,
			"completed_pomodoros": st.CompletedPomodoros,
			"progress":            st.Progress(),
			"last_updated":        st.LastUpdatedTime().Format(time.RFC3339),
		},
	})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
