package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xvierd/keeper/internal/domain"
	"github.com/xvierd/keeper/internal/ports"
)

// recentWindow bounds how far back GetRecentPhases looks.
const recentWindow = 7 * 24 * time.Hour

// StateService implements the MCPStateProvider interface.
type StateService struct {
	pomodoro *PomodoroService
	phases   ports.PhaseRepository
	now      func() time.Time
}

// NewStateService creates a new state service. phases may be nil when the
// completion log is not reachable.
func NewStateService(pomodoro *PomodoroService, phases ports.PhaseRepository) *StateService {
	return &StateService{pomodoro: pomodoro, phases: phases, now: time.Now}
}

// SetClock replaces the clock used for the recent-phases window.
func (s *StateService) SetClock(now func() time.Time) {
	s.now = now
}

// GetTimerState implements ports.MCPStateProvider.
func (s *StateService) GetTimerState(ctx context.Context) (*domain.TimerState, error) {
	return s.pomodoro.GetTimerState(ctx)
}

// StartTimer implements ports.MCPStateProvider.
func (s *StateService) StartTimer(ctx context.Context) (*domain.TimerState, error) {
	return s.pomodoro.StartTimer(ctx)
}

// StopTimer implements ports.MCPStateProvider.
func (s *StateService) StopTimer(ctx context.Context) (*domain.TimerState, error) {
	return s.pomodoro.StopTimer(ctx)
}

// ResetTimer implements ports.MCPStateProvider.
func (s *StateService) ResetTimer(ctx context.Context) (*domain.TimerState, error) {
	return s.pomodoro.ResetTimer(ctx)
}

// SwitchMode implements ports.MCPStateProvider.
func (s *StateService) SwitchMode(ctx context.Context, mode domain.Mode) (*domain.TimerState, error) {
	return s.pomodoro.SwitchMode(ctx, mode)
}

// GetSettings implements ports.MCPStateProvider.
func (s *StateService) GetSettings(ctx context.Context) (domain.Settings, error) {
	return s.pomodoro.GetSettings(ctx)
}

// GetDailyStats implements ports.MCPStateProvider.
func (s *StateService) GetDailyStats(ctx context.Context, date time.Time) (*domain.DailyStats, error) {
	if s.phases == nil {
		return &domain.DailyStats{Date: date}, nil
	}
	stats, err := s.phases.GetDailyStats(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	return stats, nil
}

// GetRecentPhases implements ports.MCPStateProvider.
func (s *StateService) GetRecentPhases(ctx context.Context, limit int) ([]*domain.PhaseRecord, error) {
	if s.phases == nil {
		return nil, nil
	}
	records, err := s.phases.FindRecent(ctx, s.now().Add(-recentWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to get recent phases: %w", err)
	}
	if limit > 0 && len(records) > limit {
		return records[:limit], nil
	}
	return records, nil
}

// Ensure StateService implements MCPStateProvider.
var _ ports.MCPStateProvider = (*StateService)(nil)
