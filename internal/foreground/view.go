package foreground

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/xvierd/keeper/internal/config"
	"github.com/xvierd/keeper/internal/domain"
	"github.com/xvierd/keeper/internal/ports"
)

// Options controls the refresh cadence of a View.
type Options struct {
	// TickInterval is how often the host should call Tick.
	TickInterval time.Duration
	// SyncInterval is how often Tick re-fetches the canonical state.
	SyncInterval time.Duration
	// DriftTolerance is the remaining-time difference tolerated before snapping.
	DriftTolerance time.Duration
	// SettleDelay keeps syncs suppressed after a reset or mode switch is acknowledged.
	SettleDelay time.Duration
	// ForceSyncInterval rate-limits the syncs forced by a local countdown at zero.
	ForceSyncInterval time.Duration

	Now    func() time.Time
	Logger *log.Logger
}

// DefaultOptions returns the standard popup cadence.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().View)
}

// OptionsFromConfig builds Options from the [view] config section.
func OptionsFromConfig(cfg config.ViewConfig) Options {
	return Options{
		TickInterval:      cfg.TickInterval.Std(),
		SyncInterval:      cfg.SyncInterval.Std(),
		DriftTolerance:    cfg.DriftTolerance.Std(),
		SettleDelay:       cfg.SettleDelay.Std(),
		ForceSyncInterval: cfg.ForceSyncInterval.Std(),
	}
}

// View holds one popup's local copy of the timer.
// All methods are safe for concurrent use; the lock is never held across a
// round trip to the daemon.
type View struct {
	mu sync.Mutex

	commands ports.TimerCommands
	settings ports.SettingsRepository
	opts     Options

	state   domain.TimerState
	anchor  time.Time
	mounted bool
	closed  bool

	lastSync  time.Time
	lastForce time.Time

	// mutating is set while a reset or mode switch is in flight.
	mutating      bool
	suppressUntil time.Time
	// generation is bumped by every acknowledged command so that a sync reply
	// requested before the command is discarded.
	generation uint64
}

// NewView creates a view over the daemon's command surface.
func NewView(commands ports.TimerCommands, settings ports.SettingsRepository, opts Options) *View {
	defaults := DefaultOptions()
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaults.TickInterval
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = defaults.SyncInterval
	}
	if opts.DriftTolerance <= 0 {
		opts.DriftTolerance = defaults.DriftTolerance
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	if opts.ForceSyncInterval <= 0 {
		opts.ForceSyncInterval = defaults.ForceSyncInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	return &View{
		commands: commands,
		settings: settings,
		opts:     opts,
		state:    domain.NewTimerState(domain.ModePomodoro, domain.DefaultSettings(), 0, opts.Now()),
	}
}

// TickInterval returns the period at which the host should call Tick.
func (v *View) TickInterval() time.Duration {
	return v.opts.TickInterval
}

// Mount fetches the canonical state once and adopts it verbatim. Without a
// stored state the view shows a stopped pomodoro from the current settings.
func (v *View) Mount(ctx context.Context) error {
	st, err := v.commands.GetTimerState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load timer state: %w", err)
	}

	if st == nil {
		settings := v.loadSettings(ctx)
		fresh := domain.NewTimerState(domain.ModePomodoro, settings, 0, v.opts.Now())
		st = &fresh
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.opts.Now()
	v.adoptLocked(*st, now)
	v.lastSync = now
	v.mounted = true
	v.closed = false
	return nil
}

// Mounted reports whether the first canonical state has been adopted.
func (v *View) Mounted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mounted
}

// Frame returns the state to draw right now.
func (v *View) Frame() Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Interpolate(v.state, v.anchor, v.opts.Now())
}

// Tick advances the local countdown. It re-fetches the canonical state every
// SyncInterval, and immediately (rate limited) once the countdown hits zero.
func (v *View) Tick(ctx context.Context) error {
	v.mu.Lock()
	if v.closed || !v.mounted {
		v.mu.Unlock()
		return nil
	}
	now := v.opts.Now()
	if v.suppressedLocked(now) {
		v.mu.Unlock()
		return nil
	}

	frame := Interpolate(v.state, v.anchor, now)
	due := false
	if frame.IsRunning && frame.Precise <= 0 {
		if now.Sub(v.lastForce) >= v.opts.ForceSyncInterval {
			v.lastForce = now
			due = true
		}
	} else if now.Sub(v.lastSync) >= v.opts.SyncInterval {
		due = true
	}
	v.mu.Unlock()

	if !due {
		return nil
	}
	return v.Sync(ctx)
}

// Sync fetches the canonical state and snaps to it when it diverged.
// It does nothing while a reset or mode switch is settling, and drops a
// reply that arrives after a newer command was acknowledged.
func (v *View) Sync(ctx context.Context) error {
	v.mu.Lock()
	now := v.opts.Now()
	if v.suppressedLocked(now) {
		v.mu.Unlock()
		return nil
	}
	v.lastSync = now
	gen := v.generation
	v.mu.Unlock()

	st, err := v.commands.GetTimerState(ctx)
	if err != nil {
		return fmt.Errorf("failed to sync timer state: %w", err)
	}
	if st == nil {
		return nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	now = v.opts.Now()
	if gen != v.generation || v.suppressedLocked(now) {
		v.opts.Logger.Printf("dropping stale timer state (%s %s)", st.Mode, st.Clock())
		return nil
	}

	local := Interpolate(v.state, v.anchor, now)
	if Diverged(local, *st, v.opts.DriftTolerance) {
		v.adoptLocked(*st, now)
	}
	return nil
}

// Focus is called when the popup becomes visible again.
func (v *View) Focus(ctx context.Context) error {
	return v.Sync(ctx)
}

// Start asks the daemon to run the displayed countdown. The local countdown
// begins only once the daemon acknowledged.
func (v *View) Start(ctx context.Context) error {
	v.mu.Lock()
	now := v.opts.Now()
	frame := Interpolate(v.state, v.anchor, now)
	if frame.IsRunning {
		v.mu.Unlock()
		return nil
	}
	snapshot := v.state
	snapshot.SetRemaining(frame.Remaining)
	snapshot.IsRunning = true
	v.mu.Unlock()

	if err := v.commands.StartTimer(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to start timer: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	now = v.opts.Now()
	v.adoptLocked(snapshot, now)
	v.lastSync = now
	v.generation++
	return nil
}

// Pause asks the daemon to stop the countdown and freezes the local one
// after the acknowledgement.
func (v *View) Pause(ctx context.Context) error {
	v.mu.Lock()
	running := v.state.IsRunning
	v.mu.Unlock()
	if !running {
		return nil
	}

	if err := v.commands.StopTimer(ctx); err != nil {
		return fmt.Errorf("failed to pause timer: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.opts.Now()
	frame := Interpolate(v.state, v.anchor, now)
	v.state.SetRemaining(frame.Remaining)
	v.state.IsRunning = false
	v.anchor = now
	v.lastSync = now
	v.generation++
	return nil
}

// Reset restarts the current mode from its configured duration.
func (v *View) Reset(ctx context.Context) error {
	v.mu.Lock()
	mode := v.state.Mode
	v.mu.Unlock()
	return v.replace(ctx, mode, v.commands.ResetTimer)
}

// SwitchMode stops the timer and selects mode at its configured duration.
func (v *View) SwitchMode(ctx context.Context, mode domain.Mode) error {
	if _, err := domain.ParseMode(string(mode)); err != nil {
		return err
	}
	return v.replace(ctx, mode, v.commands.SwitchMode)
}

// replace sends a stopped snapshot of mode and adopts it once acknowledged.
// Syncs stay suppressed while the command is in flight.
func (v *View) replace(ctx context.Context, mode domain.Mode, send func(context.Context, domain.TimerState) error) error {
	settings := v.loadSettings(ctx)

	v.mu.Lock()
	snapshot := domain.NewTimerState(mode, settings, v.state.CompletedPomodoros, v.opts.Now())
	v.mutating = true
	v.generation++
	v.mu.Unlock()

	err := send(ctx, snapshot)

	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.opts.Now()
	v.mutating = false
	v.generation++
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", mode.Label(), err)
	}
	v.adoptLocked(snapshot, now)
	v.suppressUntil = now.Add(v.opts.SettleDelay)
	v.lastSync = now
	return nil
}

// Unmount stops the local countdown. A running timer gets one last
// getTimerState so the daemon persists a fresh lastUpdated.
func (v *View) Unmount(ctx context.Context) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	running := v.state.IsRunning
	v.mu.Unlock()

	if running {
		if _, err := v.commands.GetTimerState(ctx); err != nil {
			v.opts.Logger.Printf("final sync failed: %v", err)
		}
	}
}

func (v *View) adoptLocked(st domain.TimerState, now time.Time) {
	v.state = st
	v.anchor = now
}

func (v *View) suppressedLocked(now time.Time) bool {
	return v.mutating || now.Before(v.suppressUntil)
}

func (v *View) loadSettings(ctx context.Context) domain.Settings {
	if v.settings == nil {
		return domain.DefaultSettings()
	}
	s, err := v.settings.Load(ctx)
	if err != nil {
		v.opts.Logger.Printf("failed to load settings, using defaults: %v", err)
		return domain.DefaultSettings()
	}
	if s == nil {
		return domain.DefaultSettings()
	}
	return *s
}
