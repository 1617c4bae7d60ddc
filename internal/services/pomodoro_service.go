package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xvierd/keeper/internal/domain"
	"github.com/xvierd/keeper/internal/ports"
)

// PomodoroService runs the one-shot timer use cases of the CLI and MCP
// surfaces. It never writes the timer state itself: every change is a
// command to the daemon, built from the settings in the sync namespace.
type PomodoroService struct {
	commands ports.TimerCommands
	settings ports.SettingsRepository
	now      func() time.Time
}

// NewPomodoroService creates a new pomodoro service. settings may be nil, in
// which case the default durations are used.
func NewPomodoroService(commands ports.TimerCommands, settings ports.SettingsRepository) *PomodoroService {
	return &PomodoroService{
		commands: commands,
		settings: settings,
		now:      time.Now,
	}
}

// SetClock replaces the clock used to stamp snapshots.
func (s *PomodoroService) SetClock(now func() time.Time) {
	s.now = now
}

// GetTimerState returns the canonical state, or nil when none exists.
func (s *PomodoroService) GetTimerState(ctx context.Context) (*domain.TimerState, error) {
	st, err := s.commands.GetTimerState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get timer state: %w", err)
	}
	return st, nil
}

// GetSettings returns the stored settings, falling back to the defaults.
func (s *PomodoroService) GetSettings(ctx context.Context) (domain.Settings, error) {
	if s.settings == nil {
		return domain.DefaultSettings(), nil
	}
	stored, err := s.settings.Load(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if stored == nil {
		return domain.DefaultSettings(), nil
	}
	return *stored, nil
}

// StartTimer runs the current phase from its remaining time. Starting a
// running timer is a no-op. Without a stored state a fresh pomodoro starts.
func (s *PomodoroService) StartTimer(ctx context.Context) (*domain.TimerState, error) {
	current, err := s.GetTimerState(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil && current.IsRunning {
		return current, nil
	}

	var snapshot domain.TimerState
	if current != nil {
		snapshot = *current
	} else {
		settings, err := s.GetSettings(ctx)
		if err != nil {
			return nil, err
		}
		snapshot = domain.NewTimerState(domain.ModePomodoro, settings, 0, s.now())
	}
	snapshot.IsRunning = true

	if err := s.commands.StartTimer(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to start timer: %w", err)
	}
	return s.GetTimerState(ctx)
}

// StopTimer pauses the current phase.
func (s *PomodoroService) StopTimer(ctx context.Context) (*domain.TimerState, error) {
	if err := s.commands.StopTimer(ctx); err != nil {
		return nil, fmt.Errorf("failed to stop timer: %w", err)
	}
	return s.GetTimerState(ctx)
}

// ResetTimer restarts the current mode from its configured duration.
func (s *PomodoroService) ResetTimer(ctx context.Context) (*domain.TimerState, error) {
	current, err := s.GetTimerState(ctx)
	if err != nil {
		return nil, err
	}
	mode, completed := domain.ModePomodoro, 0
	if current != nil {
		mode, completed = current.Mode, current.CompletedPomodoros
	}

	snapshot, err := s.freshState(ctx, mode, completed)
	if err != nil {
		return nil, err
	}
	if err := s.commands.ResetTimer(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to reset timer: %w", err)
	}
	return s.GetTimerState(ctx)
}

// SwitchMode selects mode at its configured duration, stopped.
func (s *PomodoroService) SwitchMode(ctx context.Context, mode domain.Mode) (*domain.TimerState, error) {
	if _, err := domain.ParseMode(string(mode)); err != nil {
		return nil, err
	}

	current, err := s.GetTimerState(ctx)
	if err != nil {
		return nil, err
	}
	completed := 0
	if current != nil {
		completed = current.CompletedPomodoros
	}

	snapshot, err := s.freshState(ctx, mode, completed)
	if err != nil {
		return nil, err
	}
	if err := s.commands.SwitchMode(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to switch mode: %w", err)
	}
	return s.GetTimerState(ctx)
}

// UpdateSettings validates and stores settings, then resets the timer so the
// current mode picks up its new duration.
func (s *PomodoroService) UpdateSettings(ctx context.Context, settings domain.Settings) (*domain.TimerState, error) {
	if s.settings == nil {
		return nil, fmt.Errorf("settings storage is not available")
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := s.settings.Save(ctx, &settings); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	return s.ResetTimer(ctx)
}

func (s *PomodoroService) freshState(ctx context.Context, mode domain.Mode, completed int) (domain.TimerState, error) {
	settings, err := s.GetSettings(ctx)
	if err != nil {
		return domain.TimerState{}, err
	}
	return domain.NewTimerState(mode, settings, completed, s.now()), nil
}
