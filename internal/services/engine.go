package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/xvierd/keeper/internal/domain"
	"github.com/xvierd/keeper/internal/ports"
)

// Default badge colours.
const (
	DefaultPomodoroColor = "#4dabf7"
	DefaultBreakColor    = "#51cf66"
)

// EngineOptions configures a TimerEngine.
type EngineOptions struct {
	// Now returns the current wall-clock time. Defaults to time.Now.
	Now func() time.Time
	// WakeInterval is the period of the tick alarm armed while running.
	WakeInterval time.Duration
	// KeepAliveInterval is the period of the keep-alive alarm.
	KeepAliveInterval time.Duration
	// Logger receives non-fatal side-effect failures.
	Logger *log.Logger
	// PomodoroColor and BreakColor are the badge colours per mode.
	PomodoroColor string
	BreakColor    string
	// InstallSettings are seeded into the sync namespace on first install.
	InstallSettings domain.Settings
}

// TimerEngine is the single writer of the canonical TimerState.
// Every entry point runs under one mutex, so the background is single-threaded
// no matter how many alarms or requests arrive concurrently.
type TimerEngine struct {
	mu        sync.Mutex
	storage   ports.Storage
	scheduler ports.Scheduler
	indicator ports.Indicator
	notifier  ports.Notifier
	opts      EngineOptions
}

// Ensure TimerEngine implements ports.TimerCommands.
var _ ports.TimerCommands = (*TimerEngine)(nil)

// NewTimerEngine creates a new timer engine. indicator and notifier may be nil.
func NewTimerEngine(storage ports.Storage, scheduler ports.Scheduler, indicator ports.Indicator, notifier ports.Notifier, opts EngineOptions) *TimerEngine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.WakeInterval <= 0 {
		opts.WakeInterval = time.Second
	}
	if opts.KeepAliveInterval <= 0 {
		opts.KeepAliveInterval = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.PomodoroColor == "" {
		opts.PomodoroColor = DefaultPomodoroColor
	}
	if opts.BreakColor == "" {
		opts.BreakColor = DefaultBreakColor
	}
	if opts.InstallSettings == (domain.Settings{}) {
		opts.InstallSettings = domain.DefaultSettings()
	}

	return &TimerEngine{
		storage:   storage,
		scheduler: scheduler,
		indicator: indicator,
		notifier:  notifier,
		opts:      opts,
	}
}

// Install seeds default settings and the initial timer state when they are absent.
func (e *TimerEngine) Install(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	settings, err := e.storage.Settings().Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if settings == nil {
		s := e.opts.InstallSettings
		if err := e.storage.Settings().Save(ctx, &s); err != nil {
			return fmt.Errorf("failed to seed settings: %w", err)
		}
		settings = &s
	}

	st, err := e.storage.Timer().Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load timer state: %w", err)
	}
	if st == nil {
		initial := domain.NewTimerState(domain.ModePomodoro, *settings, 0, e.opts.Now())
		if err := e.storage.Timer().Save(ctx, &initial); err != nil {
			return fmt.Errorf("failed to seed timer state: %w", err)
		}
	}

	return nil
}

// Resume runs when the background starts. It arms the keep-alive alarm, catches up
// on the time spent suspended and re-arms the tick alarm for a running timer.
func (e *TimerEngine) Resume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.scheduler.Arm(ports.AlarmKeepAlive, e.opts.KeepAliveInterval)

	st, completed, err := e.catchUpLocked(ctx)
	if err != nil {
		return err
	}
	if st == nil || !st.IsRunning {
		// A completion already put the next phase on the badge.
		if !completed {
			e.clearBadge()
		}
		return nil
	}

	e.ensureWakeLocked(st)
	e.showBadge(st)
	return nil
}

// Suspend runs before the background is torn down. A running timer is reconciled
// so the stored lastUpdated is current; the gap until the next Resume then counts
// as ordinary elapsed time.
func (e *TimerEngine) Suspend(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.reconcileLocked(ctx)

	e.scheduler.Disarm(ports.AlarmTick)
	e.scheduler.Disarm(ports.AlarmKeepAlive)
	return err
}

// HandleAlarm processes one delivery of a named wake signal.
// Deliveries may be dropped or duplicated; each one simply reconciles.
func (e *TimerEngine) HandleAlarm(ctx context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch name {
	case ports.AlarmTick, ports.AlarmKeepAlive:
	default:
		e.opts.Logger.Printf("ignoring unknown alarm %q", name)
		return nil
	}

	st, err := e.reconcileLocked(ctx)
	if err != nil {
		return err
	}

	if st == nil || !st.IsRunning {
		// A tick that outlived its timer.
		e.scheduler.Disarm(ports.AlarmTick)
		return nil
	}

	e.ensureWakeLocked(st)
	return nil
}

// StartTimer persists snapshot as the running state and arms the tick alarm.
// A snapshot with no time left completes immediately instead of running negative.
func (e *TimerEngine) StartTimer(ctx context.Context, snapshot domain.TimerState) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.opts.Now()
	snapshot.IsRunning = true
	snapshot.SetRemaining(snapshot.RemainingSeconds)
	snapshot.Touch(now)

	if snapshot.RemainingSeconds <= 0 {
		_, err := e.completeLocked(ctx, snapshot)
		return err
	}

	if err := e.storage.Timer().Save(ctx, &snapshot); err != nil {
		return fmt.Errorf("failed to save timer state: %w", err)
	}

	e.scheduler.Arm(ports.AlarmTick, e.opts.WakeInterval)
	e.showBadge(&snapshot)
	return nil
}

// StopTimer marks the stored state as stopped. Time elapsed since the last
// reconciliation is applied first so the paused remaining time is exact.
func (e *TimerEngine) StopTimer(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.reconcileLocked(ctx)
	if err != nil {
		return err
	}
	if st == nil {
		return domain.ErrNoTimerState
	}

	st.IsRunning = false
	if err := e.storage.Timer().Save(ctx, st); err != nil {
		return fmt.Errorf("failed to save timer state: %w", err)
	}

	e.scheduler.Disarm(ports.AlarmTick)
	e.clearBadge()
	return nil
}

// ResetTimer persists a stopped snapshot and shows its time on the badge.
func (e *TimerEngine) ResetTimer(ctx context.Context, snapshot domain.TimerState) error {
	return e.replace(ctx, snapshot)
}

// SwitchMode persists a stopped snapshot for a new mode, stopping any running timer.
func (e *TimerEngine) SwitchMode(ctx context.Context, snapshot domain.TimerState) error {
	return e.replace(ctx, snapshot)
}

func (e *TimerEngine) replace(ctx context.Context, snapshot domain.TimerState) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot.IsRunning = false
	snapshot.SetRemaining(snapshot.RemainingSeconds)
	snapshot.Touch(e.opts.Now())

	if err := e.storage.Timer().Save(ctx, &snapshot); err != nil {
		return fmt.Errorf("failed to save timer state: %w", err)
	}

	e.scheduler.Disarm(ports.AlarmTick)
	e.showBadge(&snapshot)
	return nil
}

// GetTimerState reconciles a running timer and returns the current state, or
// nil when no state has been stored yet. It also repairs a lost tick alarm.
func (e *TimerEngine) GetTimerState(ctx context.Context) (*domain.TimerState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.reconcileLocked(ctx)
	if err != nil {
		return nil, err
	}
	e.ensureWakeLocked(st)
	return st, nil
}

// reconcileLocked loads the state and applies elapsed wall-clock time to it.
// Nothing is written unless at least one whole second has passed.
func (e *TimerEngine) reconcileLocked(ctx context.Context) (*domain.TimerState, error) {
	st, _, err := e.catchUpLocked(ctx)
	return st, err
}

// catchUpLocked is reconcileLocked that also reports whether a phase completed.
func (e *TimerEngine) catchUpLocked(ctx context.Context) (*domain.TimerState, bool, error) {
	st, err := e.storage.Timer().Load(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load timer state: %w", err)
	}
	if st == nil {
		return nil, false, nil
	}

	r := domain.Reconcile(*st, e.opts.Now())
	switch {
	case r.Expired:
		next, err := e.completeLocked(ctx, *st)
		return next, err == nil, err
	case r.Changed:
		if err := e.storage.Timer().Save(ctx, &r.State); err != nil {
			return nil, false, fmt.Errorf("failed to save timer state: %w", err)
		}
		e.showBadge(&r.State)
	}

	return &r.State, false, nil
}

// completeLocked applies the completion transition to a state whose phase ran out.
// The new state is written before any side effect runs.
func (e *TimerEngine) completeLocked(ctx context.Context, st domain.TimerState) (*domain.TimerState, error) {
	settings, err := e.settingsLocked(ctx)
	if err != nil {
		return nil, err
	}

	now := e.opts.Now()
	next, finished := domain.NextPhase(st, settings, now)

	if err := e.storage.Timer().Save(ctx, &next); err != nil {
		return nil, fmt.Errorf("failed to save timer state: %w", err)
	}

	if next.IsRunning {
		e.scheduler.Arm(ports.AlarmTick, e.opts.WakeInterval)
	} else {
		e.scheduler.Disarm(ports.AlarmTick)
	}

	record := domain.NewPhaseRecord(finished, st.TotalSeconds, now)
	if err := e.storage.Phases().Record(ctx, record); err != nil {
		e.opts.Logger.Printf("failed to record %s phase: %v", finished, err)
	}
	if e.notifier != nil {
		if err := e.notifier.NotifyPhaseComplete(finished); err != nil {
			e.opts.Logger.Printf("failed to notify: %v", err)
		}
	}
	e.showBadge(&next)

	e.opts.Logger.Printf("%s completed, next %s (running=%v, completed=%d)",
		finished, next.Mode, next.IsRunning, next.CompletedPomodoros)
	return &next, nil
}

// settingsLocked returns the stored settings, falling back to the install defaults.
func (e *TimerEngine) settingsLocked(ctx context.Context) (domain.Settings, error) {
	s, err := e.storage.Settings().Load(ctx)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if s == nil {
		return e.opts.InstallSettings, nil
	}
	return *s, nil
}

// ensureWakeLocked re-arms the tick alarm when a running timer has lost it.
func (e *TimerEngine) ensureWakeLocked(st *domain.TimerState) {
	if st == nil || !st.IsRunning || e.scheduler.Armed(ports.AlarmTick) {
		return
	}
	e.opts.Logger.Printf("tick alarm missing for a running timer, re-arming")
	e.scheduler.Arm(ports.AlarmTick, e.opts.WakeInterval)
}

// BadgeColor returns the badge colour for a mode.
func (e *TimerEngine) BadgeColor(m domain.Mode) string {
	if m.IsBreak() {
		return e.opts.BreakColor
	}
	return e.opts.PomodoroColor
}

func (e *TimerEngine) showBadge(st *domain.TimerState) {
	if e.indicator == nil {
		return
	}
	if err := e.indicator.Show(st.Clock(), e.BadgeColor(st.Mode)); err != nil {
		e.opts.Logger.Printf("failed to update badge: %v", err)
	}
}

func (e *TimerEngine) clearBadge() {
	if e.indicator == nil {
		return
	}
	if err := e.indicator.Clear(); err != nil {
		e.opts.Logger.Printf("failed to clear badge: %v", err)
	}
}
