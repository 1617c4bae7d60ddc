package ports

import (
	"context"
	"time"

	"github.com/xvierd/keeper/internal/domain"
)

// Alarm names.
const (
	// AlarmTick is the one-second wake signal armed while the timer runs.
	AlarmTick = "tick"
	// AlarmKeepAlive is the coarse trigger that keeps the background active
	// and repairs a missing tick alarm.
	AlarmKeepAlive = "keepAlive"
)

// Scheduler arms and disarms named periodic wake signals.
// Delivery is best effort: a signal may be dropped or coalesced, so
// consumers must reconcile from the wall clock rather than count ticks.
// This is a driven port (implemented by adapters).
type Scheduler interface {
	// Arm starts (or restarts) the named alarm with the given period.
	Arm(name string, period time.Duration)

	// Disarm stops the named alarm. Disarming an unknown alarm is a no-op.
	Disarm(name string)

	// Armed reports whether the named alarm is currently scheduled.
	Armed(name string) bool
}

// Indicator is the always-visible countdown badge.
// This is a driven port (implemented by adapters).
type Indicator interface {
	// Show displays text with the given colour.
	Show(text, color string) error

	// Clear empties the badge.
	Clear() error
}

// Notifier delivers a user-visible message once, without acknowledgement.
// This is a driven port (implemented by adapters).
type Notifier interface {
	// NotifyPhaseComplete announces that a phase of the given mode finished.
	NotifyPhaseComplete(finished domain.Mode) error
}

// TimerCommands is the command surface of the background engine.
// This is a driving port (called by the message channel).
type TimerCommands interface {
	// StartTimer persists snapshot as running and arms the wake signal.
	StartTimer(ctx context.Context, snapshot domain.TimerState) error

	// StopTimer marks the stored state as stopped.
	StopTimer(ctx context.Context) error

	// ResetTimer persists a stopped snapshot verbatim.
	ResetTimer(ctx context.Context, snapshot domain.TimerState) error

	// SwitchMode persists a stopped snapshot for a new mode.
	SwitchMode(ctx context.Context, snapshot domain.TimerState) error

	// GetTimerState reconciles a running timer and returns the current state,
	// or nil when none exists.
	GetTimerState(ctx context.Context) (*domain.TimerState, error)
}
