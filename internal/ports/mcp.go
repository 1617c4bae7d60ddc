package ports

import (
	"context"
	"time"

	"github.com/xvierd/keeper/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// MCPStateProvider is what the MCP tools can read and do.
// Every mutation goes through the daemon's command surface.
type MCPStateProvider interface {
	// GetTimerState returns the canonical state, or nil when none exists.
	GetTimerState(ctx context.Context) (*domain.TimerState, error)

	// StartTimer runs the current phase and returns the resulting state.
	StartTimer(ctx context.Context) (*domain.TimerState, error)

	// StopTimer pauses the current phase and returns the resulting state.
	StopTimer(ctx context.Context) (*domain.TimerState, error)

	// ResetTimer restarts the current mode from its configured duration.
	ResetTimer(ctx context.Context) (*domain.TimerState, error)

	// SwitchMode selects a mode, stopped, at its configured duration.
	SwitchMode(ctx context.Context, mode domain.Mode) (*domain.TimerState, error)

	// GetSettings returns the stored settings or the defaults.
	GetSettings(ctx context.Context) (domain.Settings, error)

	// GetDailyStats returns the completion counts for the day containing date.
	GetDailyStats(ctx context.Context, date time.Time) (*domain.DailyStats, error)

	// GetRecentPhases returns up to limit finished phases, newest first.
	GetRecentPhases(ctx context.Context, limit int) ([]*domain.PhaseRecord, error)
}
