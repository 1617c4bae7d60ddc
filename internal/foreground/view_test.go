package foreground

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvierd/keeper/internal/domain"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeDaemon answers commands from an in-memory canonical state.
type fakeDaemon struct {
	mu    sync.Mutex
	state *domain.TimerState
	calls []string
	err   error
	// onGet runs inside GetTimerState before the reply is returned.
	onGet func()
	// inFlight runs at the start of every command.
	inFlight func(name string)
}

func (d *fakeDaemon) call(name string) error {
	d.mu.Lock()
	d.calls = append(d.calls, name)
	err, hook := d.err, d.inFlight
	d.mu.Unlock()

	if hook != nil {
		hook(name)
	}
	return err
}

func (d *fakeDaemon) put(st domain.TimerState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = &st
}

func (d *fakeDaemon) count(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (d *fakeDaemon) StartTimer(ctx context.Context, s domain.TimerState) error {
	if err := d.call("start"); err != nil {
		return err
	}
	d.put(s)
	return nil
}

func (d *fakeDaemon) StopTimer(ctx context.Context) error {
	if err := d.call("stop"); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != nil {
		d.state.IsRunning = false
	}
	return nil
}

func (d *fakeDaemon) ResetTimer(ctx context.Context, s domain.TimerState) error {
	if err := d.call("reset"); err != nil {
		return err
	}
	d.put(s)
	return nil
}

func (d *fakeDaemon) SwitchMode(ctx context.Context, s domain.TimerState) error {
	if err := d.call("switch"); err != nil {
		return err
	}
	d.put(s)
	return nil
}

func (d *fakeDaemon) GetTimerState(ctx context.Context) (*domain.TimerState, error) {
	if err := d.call("get"); err != nil {
		return nil, err
	}
	if d.onGet != nil {
		d.onGet()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == nil {
		return nil, nil
	}
	st := *d.state
	return &st, nil
}

type fakeSettings struct {
	settings *domain.Settings
}

func (f *fakeSettings) Load(ctx context.Context) (*domain.Settings, error) {
	return f.settings, nil
}

func (f *fakeSettings) Save(ctx context.Context, s *domain.Settings) error {
	f.settings = s
	return nil
}

func running(mode domain.Mode, remaining, total, completed int) domain.TimerState {
	st := domain.TimerState{Mode: mode, IsRunning: true, TotalSeconds: total, CompletedPomodoros: completed}
	st.SetRemaining(remaining)
	return st
}

func newTestView(t *testing.T, daemon *fakeDaemon, settings *domain.Settings) (*View, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: t0}
	opts := DefaultOptions()
	opts.Now = clock.Now
	return NewView(daemon, &fakeSettings{settings: settings}, opts), clock
}

func TestInterpolate(t *testing.T) {
	st := running(domain.ModePomodoro, 100, 1500, 0)

	tests := []struct {
		name          string
		st            domain.TimerState
		after         time.Duration
		wantRemaining int
		wantPrecise   float64
	}{
		{"at anchor", st, 0, 100, 100},
		{"sub-second keeps display", st, 900 * time.Millisecond, 100, 99.1},
		{"whole seconds", st, 2500 * time.Millisecond, 98, 97.5},
		{"overshoot clamps display", st, 101 * time.Second, 0, -1},
		{"clock skew", st, -5 * time.Second, 100, 100},
		{"stopped does not move", func() domain.TimerState { s := st; s.IsRunning = false; return s }(), time.Minute, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Interpolate(tt.st, t0, t0.Add(tt.after))
			assert.Equal(t, tt.wantRemaining, f.Remaining)
			assert.InDelta(t, tt.wantPrecise, f.Precise, 1e-9)
			assert.Equal(t, tt.wantRemaining/60, f.Minutes)
			assert.Equal(t, tt.wantRemaining%60, f.Seconds)
			assert.GreaterOrEqual(t, f.Progress, 0.0)
			assert.LessOrEqual(t, f.Progress, 1.0)
		})
	}
}

func TestInterpolate_Progress(t *testing.T) {
	st := running(domain.ModeShortBreak, 150, 300, 1)
	f := Interpolate(st, t0, t0.Add(1500*time.Millisecond))
	assert.InDelta(t, 1-148.5/300, f.Progress, 1e-9)
	assert.Equal(t, "02:29", f.Clock())
}

func TestDiverged(t *testing.T) {
	local := Interpolate(running(domain.ModePomodoro, 600, 1500, 2), t0, t0)

	tests := []struct {
		name      string
		canonical domain.TimerState
		want      bool
	}{
		{"identical", running(domain.ModePomodoro, 600, 1500, 2), false},
		{"within tolerance", running(domain.ModePomodoro, 598, 1500, 2), false},
		{"beyond tolerance", running(domain.ModePomodoro, 597, 1500, 2), true},
		{"stopped", func() domain.TimerState { s := running(domain.ModePomodoro, 600, 1500, 2); s.IsRunning = false; return s }(), true},
		{"mode changed", running(domain.ModeShortBreak, 600, 1500, 2), true},
		{"count changed", running(domain.ModePomodoro, 600, 1500, 3), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diverged(local, tt.canonical, 2*time.Second))
		})
	}
}

func TestView_MountAdoptsVerbatim(t *testing.T) {
	daemon := &fakeDaemon{}
	daemon.put(running(domain.ModeLongBreak, 431, 900, 4))
	v, _ := newTestView(t, daemon, nil)

	require.NoError(t, v.Mount(context.Background()))

	f := v.Frame()
	assert.True(t, v.Mounted())
	assert.Equal(t, domain.ModeLongBreak, f.Mode)
	assert.True(t, f.IsRunning)
	assert.Equal(t, 431, f.Remaining)
	assert.Equal(t, 4, f.CompletedPomodoros)
}

func TestView_MountWithoutStateUsesSettings(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.PomodoroDuration = 50
	v, _ := newTestView(t, &fakeDaemon{}, &settings)

	require.NoError(t, v.Mount(context.Background()))

	f := v.Frame()
	assert.Equal(t, domain.ModePomodoro, f.Mode)
	assert.False(t, f.IsRunning)
	assert.Equal(t, 3000, f.Remaining)
}

func TestView_MountError(t *testing.T) {
	v, _ := newTestView(t, &fakeDaemon{err: domain.ErrDaemonUnavailable}, nil)

	err := v.Mount(context.Background())
	assert.ErrorIs(t, err, domain.ErrDaemonUnavailable)
	assert.False(t, v.Mounted())
}

func TestView_TickSyncsOnCadence(t *testing.T) {
	daemon := &fakeDaemon{}
	daemon.put(running(domain.ModePomodoro, 600, 1500, 0))
	v, clock := newTestView(t, daemon, nil)
	ctx := context.Background()
	require.NoError(t, v.Mount(ctx))

	// Nineteen 100ms ticks stay local.
	for i := 0; i < 19; i++ {
		clock.Advance(100 * time.Millisecond)
		require.NoError(t, v.Tick(ctx))
	}
	assert.Equal(t, 1, daemon.count("get"))
	assert.Equal(t, 599, v.Frame().Remaining)

	clock.Advance(100 * time.Millisecond)
	require.NoError(t, v.Tick(ctx))
	assert.Equal(t, 2, daemon.count("get"))
}

func TestView_SyncKeepsInterpolatingWithinTolerance(t *testing.T) {
	daemon := &fakeDaemon{}
	daemon.put(running(domain.ModePomodoro, 600, 1500, 0))
	v, clock := newTestView(t, daemon, nil)
	ctx := context.Background()
	require.NoError(t, v.Mount(ctx))

	clock.Advance(2300 * time.Millisecond)
	daemon.put(running(domain.ModePomodoro, 599, 1500, 0))
	require.NoError(t, v.Sync(ctx))

	// Anchor unchanged: still 2.3s into the original countdown.
	assert.Equal(t, 598, v.Frame().Remaining)
}

func TestView_SyncSnapsOnDivergence(t *testing.T) {
	daemon := &fakeDaemon{}
	daemon.put(running(domain.ModePomodoro, 600, 1500, 0))
	v, clock := newTestView(t, daemon, nil)
	ctx := context.Background()
	require.NoError(t, v.Mount(ctx))

	clock.Advance(2 * time.Second)
	daemon.put(running(domain.ModePomodoro, 540, 1500, 0))
	require.NoError(t, v.Sync(ctx))
	assert.Equal(t, 540, v.Frame().Remaining)

	clock.Advance(1500 * time.Millisecond)
	assert.Equal(t, 539, v.Frame().Remaining)
}

func TestView_ZeroForcesReconciliation(t *testing.T) {
	daemon := &fakeDaemon{}
	daemon.put(running(domain.ModePomodoro, 2, 1500, 0))
	v, clock := newTestView(t, daemon, nil)
	ctx := context.Background()
	require.NoError(t, v.Mount(ctx))

	// The daemon completes the phase while the popup counts down.
	next := domain.TimerState{Mode: domain.ModeShortBreak, TotalSeconds: 300, CompletedPomodoros: 1}
	next.SetRemaining(300)

	clock.Advance(1900 * time.Millisecond)
	require.NoError(t, v.Tick(ctx))
	assert.Equal(t, 1, daemon.count("get"))

	daemon.put(next)
	clock.Advance(100 * time.Millisecond)
	require.NoError(t, v.Tick(ctx))
	assert.Equal(t, 2, daemon.count("get"))

	f := v.Frame()
	assert.Equal(t, domain.ModeShortBreak, f.Mode)
	assert.False(t, f.IsRunning)
	assert.Equal(t, 300, f.Remaining)
	assert.Equal(t, 1, f.CompletedPomodoros)
}

func TestView_ZeroSyncIsRateLimited(t *testing.T) {
	daemon := &fakeDaemon{}
	daemon.put(running(domain.ModePomodoro, 1, 1500, 0))
	v, clock := newTestView(t, daemon, nil)
	ctx := context.Background()
	require.NoError(t, v.Mount(ctx))

	// The daemon has not ticked yet: it still reports the same running phase.
	daemon.put(running(domain.ModePomodoro, 0, 1500, 0))
	clock.Advance(time.Second)
	for i := 0; i < 10; i++ {
		require.NoError(t, v.Tick(ctx))
		clock.Advance(100 * time.Millisecond)
	}

	// Forced at 1.0s and 1.5s; never on every frame.
	assert.Equal(t, 3, daemon.count("get"))
	assert.Equal(t, 0, v.Frame().Remaining)
}

func TestView_StartBeginsAfterAck(t *testing.T) {
	daemon := &fakeDaemon{}
	v, clock := newTestView(t, daemon, nil)
	ctx := context.Background()
	require.NoError(t, v.Mount(ctx))

	require.NoError(t, v.Start(ctx))
	clock.Advance(3 * time.Second)

	f := v.Frame()
	assert.True(t, f.IsRunning)
	assert.Equal(t, 1497, f.Remaining)
	require.NotNil(t, daemon.state)
	assert.True(t, daemon.state.IsRunning)
	assert.Equal(t, 1500, daemon.state.RemainingSeconds)
}

func TestView_StartFailureKeepsStopped(t *testing.T) {
	daemon := &fakeDaemon{}
	v, clock := newTestView(t, daemon, nil)
	ctx := context.Background()
	require.NoError(t, v.Mount(ctx))

	daemon.err = errors.New("socket closed")
	assert.Error(t, v.Start(ctx))

	clock.Advance(3 * time.Second)
	f := v.Frame()
	assert.False(t, f.IsRunning)
	assert.Equal(t, 1500, f.Remaining)
}

func TestView_PauseFreezesDisplayedTime(t *testing.T) {
	daemon := &fakeDaemon{}
	daemon.put(running(domain.ModePomodoro, 600, 1500, 0))
	v, clock := newTestView(t, daemon, nil)
	ctx := context.Background()
	require.NoError(t, v.Mount(ctx))

	clock.Advance(10500 * time.Millisecond)
	require.NoError(t, v.Pause(ctx))
	clock.Advance(time.Minute)

	f := v.Frame()
	assert.False(t, f.IsRunning)
	assert.Equal(t, 590, f.Remaining)
	assert.Equal(t, 1, daemon.count("stop"))

	// Pausing a stopped view does not hit the daemon.
	require.NoError(t, v.Pause(ctx))
	assert.Equal(t, 1, daemon.count("stop"))
}

func TestView_ResetUsesSettingsAndSuppressesSync(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.ShortBreakDuration = 7
	daemon := &fakeDaemon{}
	daemon.put(running(domain.ModeShortBreak, 100, 420, 1))
	v, clock := newTestView(t, daemon, &settings)
	ctx := context.Background()
	require.NoError(t, v.Mount(ctx))

	require.NoError(t, v.Reset(ctx))
	require.NotNil(t, daemon.state)
	assert.Equal(t, 420, daemon.state.RemainingSeconds)
	assert.False(t, daemon.state.IsRunning)
	assert.Equal(t, 1, daemon.state.CompletedPomodoros)

	// Inside the settle window nothing is fetched.
	gets := daemon.count("get")
	clock.Advance(200 * time.Millisecond)
	require.NoError(t, v.Sync(ctx))
	assert.Equal(t, gets, daemon.count("get"))

	clock.Advance(200 * time.Millisecond)
	require.NoError(t, v.Sync(ctx))
	assert.Equal(t, gets+1, daemon.count("get"))
	assert.Equal(t, 420, v.Frame().Remaining)
}

func TestView_LateReplyDoesNotClobberSwitch(t *testing.T) {
	daemon := &fakeDaemon{}
	daemon.put(running(domain.ModePomodoro, 600, 1500, 2))
	v, clock := newTestView(t, daemon, nil)
	ctx := context.Background()
	require.NoError(t, v.Mount(ctx))

	// The mode switch lands while the sync request is in flight; the reply
	// still describes the old running pomodoro.
	stale := running(domain.ModePomodoro, 598, 1500, 2)
	daemon.onGet = func() {
		daemon.onGet = nil
		require.NoError(t, v.SwitchMode(ctx, domain.ModeLongBreak))
		daemon.put(stale)
	}

	clock.Advance(2 * time.Second)
	require.NoError(t, v.Sync(ctx))

	f := v.Frame()
	assert.Equal(t, domain.ModeLongBreak, f.Mode)
	assert.False(t, f.IsRunning)
	assert.Equal(t, 900, f.Remaining)
	assert.Equal(t, 2, f.CompletedPomodoros)
}

func TestView_RejectedReplaceKeepsCanonicalState(t *testing.T) {
	tests := []struct {
		name string
		call string
		send func(*View, context.Context) error
	}{
		{"reset", "reset", func(v *View, ctx context.Context) error { return v.Reset(ctx) }},
		{"switch", "switch", func(v *View, ctx context.Context) error { return v.SwitchMode(ctx, domain.ModeShortBreak) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			daemon := &fakeDaemon{}
			daemon.put(running(domain.ModePomodoro, 600, 1500, 0))
			v, clock := newTestView(t, daemon, nil)
			ctx := context.Background()
			require.NoError(t, v.Mount(ctx))

			var during Frame
			daemon.inFlight = func(name string) {
				if name == tt.call {
					during = v.Frame()
				}
			}
			daemon.err = errors.New("daemon unavailable")

			assert.Error(t, tt.send(v, ctx))
			assert.True(t, during.IsRunning, "the countdown keeps going while the command is in flight")
			assert.Equal(t, 600, during.Remaining)

			f := v.Frame()
			assert.Equal(t, domain.ModePomodoro, f.Mode)
			assert.True(t, f.IsRunning)
			assert.Equal(t, 600, f.Remaining)

			// A failed command opens no settle window.
			daemon.err = nil
			gets := daemon.count("get")
			clock.Advance(time.Second)
			require.NoError(t, v.Sync(ctx))
			assert.Equal(t, gets+1, daemon.count("get"))
			assert.Equal(t, 599, v.Frame().Remaining)
		})
	}
}

func TestView_SwitchModeRejectsUnknownMode(t *testing.T) {
	daemon := &fakeDaemon{}
	v, _ := newTestView(t, daemon, nil)
	require.NoError(t, v.Mount(context.Background()))

	err := v.SwitchMode(context.Background(), domain.Mode("nap"))
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
	assert.Zero(t, daemon.count("switch"))
}

func TestView_FocusSyncsImmediately(t *testing.T) {
	daemon := &fakeDaemon{}
	daemon.put(running(domain.ModePomodoro, 600, 1500, 0))
	v, clock := newTestView(t, daemon, nil)
	ctx := context.Background()
	require.NoError(t, v.Mount(ctx))

	// Hidden for a while; another popup paused the timer meanwhile.
	stopped := running(domain.ModePomodoro, 420, 1500, 0)
	stopped.IsRunning = false
	daemon.put(stopped)
	clock.Advance(180 * time.Millisecond)

	require.NoError(t, v.Focus(ctx))
	f := v.Frame()
	assert.False(t, f.IsRunning)
	assert.Equal(t, 420, f.Remaining)
}

func TestView_Unmount(t *testing.T) {
	tests := []struct {
		name     string
		running  bool
		wantGets int
	}{
		{"running nudges the daemon", true, 2},
		{"stopped stays quiet", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			daemon := &fakeDaemon{}
			st := running(domain.ModePomodoro, 600, 1500, 0)
			st.IsRunning = tt.running
			daemon.put(st)
			v, clock := newTestView(t, daemon, nil)
			ctx := context.Background()
			require.NoError(t, v.Mount(ctx))

			v.Unmount(ctx)
			v.Unmount(ctx)
			assert.Equal(t, tt.wantGets, daemon.count("get"))

			clock.Advance(5 * time.Second)
			require.NoError(t, v.Tick(ctx))
			assert.Equal(t, tt.wantGets, daemon.count("get"))
		})
	}
}
