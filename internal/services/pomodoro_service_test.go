package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xvierd/keeper/internal/domain"
)

func newTestPomodoroService(t *testing.T) (*PomodoroService, *engineFixture) {
	t.Helper()
	f := newEngineFixture(t, domain.DefaultSettings())
	svc := NewPomodoroService(f.engine, f.store.Settings())
	svc.SetClock(f.clock.Now)
	return svc, f
}

func TestPomodoroService_StartTimer(t *testing.T) {
	svc, f := newTestPomodoroService(t)
	ctx := context.Background()

	st, err := svc.StartTimer(ctx)
	if err != nil {
		t.Fatalf("StartTimer() error = %v", err)
	}
	if st.Mode != domain.ModePomodoro || !st.IsRunning {
		t.Errorf("StartTimer() = %s running=%v, want running pomodoro", st.Mode, st.IsRunning)
	}
	if st.RemainingSeconds != 25*60 {
		t.Errorf("RemainingSeconds = %d, want %d", st.RemainingSeconds, 25*60)
	}

	writes := len(f.store.timer.saved)
	f.clock.Advance(10 * time.Second)

	again, err := svc.StartTimer(ctx)
	if err != nil {
		t.Fatalf("second StartTimer() error = %v", err)
	}
	if !again.IsRunning || again.RemainingSeconds != 25*60-10 {
		t.Errorf("second StartTimer() = remaining %d running=%v, want 1490 running", again.RemainingSeconds, again.IsRunning)
	}
	// only the reconcile of the read may have written
	if got := len(f.store.timer.saved) - writes; got > 1 {
		t.Errorf("starting a running timer wrote %d times", got)
	}
}

func TestPomodoroService_StartTimerResumesPausedPhase(t *testing.T) {
	svc, f := newTestPomodoroService(t)
	ctx := context.Background()

	if _, err := svc.SwitchMode(ctx, domain.ModeShortBreak); err != nil {
		t.Fatalf("SwitchMode() error = %v", err)
	}
	if _, err := svc.StartTimer(ctx); err != nil {
		t.Fatalf("StartTimer() error = %v", err)
	}
	f.clock.Advance(30 * time.Second)
	if _, err := svc.StopTimer(ctx); err != nil {
		t.Fatalf("StopTimer() error = %v", err)
	}

	f.clock.Advance(time.Hour)
	st, err := svc.StartTimer(ctx)
	if err != nil {
		t.Fatalf("StartTimer() error = %v", err)
	}
	if st.Mode != domain.ModeShortBreak || st.RemainingSeconds != 270 {
		t.Errorf("resumed %s with %d left, want shortBreak with 270", st.Mode, st.RemainingSeconds)
	}
}

func TestPomodoroService_StopTimer(t *testing.T) {
	svc, f := newTestPomodoroService(t)
	ctx := context.Background()

	if _, err := svc.StopTimer(ctx); !errors.Is(err, domain.ErrNoTimerState) {
		t.Errorf("StopTimer() without state error = %v, want ErrNoTimerState", err)
	}

	if _, err := svc.StartTimer(ctx); err != nil {
		t.Fatalf("StartTimer() error = %v", err)
	}
	f.clock.Advance(61 * time.Second)

	st, err := svc.StopTimer(ctx)
	if err != nil {
		t.Fatalf("StopTimer() error = %v", err)
	}
	if st.IsRunning {
		t.Error("StopTimer() should leave the timer stopped")
	}
	if st.RemainingSeconds != 25*60-61 {
		t.Errorf("RemainingSeconds = %d, want %d", st.RemainingSeconds, 25*60-61)
	}
}

func TestPomodoroService_ResetTimer(t *testing.T) {
	tests := []struct {
		name          string
		prepare       func(t *testing.T, svc *PomodoroService, f *engineFixture)
		wantMode      domain.Mode
		wantCompleted int
		wantRemaining int
	}{
		{
			name:          "no state resets to a fresh pomodoro",
			prepare:       func(t *testing.T, svc *PomodoroService, f *engineFixture) {},
			wantMode:      domain.ModePomodoro,
			wantRemaining: 25 * 60,
		},
		{
			name: "running long break keeps mode and count",
			prepare: func(t *testing.T, svc *PomodoroService, f *engineFixture) {
				snap := domain.NewTimerState(domain.ModeLongBreak, domain.DefaultSettings(), 4, t0)
				snap.IsRunning = true
				if err := f.engine.StartTimer(context.Background(), snap); err != nil {
					t.Fatalf("StartTimer() error = %v", err)
				}
				f.clock.Advance(2 * time.Minute)
			},
			wantMode:      domain.ModeLongBreak,
			wantCompleted: 4,
			wantRemaining: 15 * 60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, f := newTestPomodoroService(t)
			tt.prepare(t, svc, f)

			st, err := svc.ResetTimer(context.Background())
			if err != nil {
				t.Fatalf("ResetTimer() error = %v", err)
			}
			if st.Mode != tt.wantMode || st.CompletedPomodoros != tt.wantCompleted {
				t.Errorf("ResetTimer() = %s/%d, want %s/%d", st.Mode, st.CompletedPomodoros, tt.wantMode, tt.wantCompleted)
			}
			if st.IsRunning {
				t.Error("ResetTimer() should stop the timer")
			}
			if st.RemainingSeconds != tt.wantRemaining || st.TotalSeconds != tt.wantRemaining {
				t.Errorf("ResetTimer() remaining/total = %d/%d, want %d", st.RemainingSeconds, st.TotalSeconds, tt.wantRemaining)
			}
		})
	}
}

func TestPomodoroService_SwitchMode(t *testing.T) {
	svc, f := newTestPomodoroService(t)
	ctx := context.Background()

	snap := pomodoroSnapshot(domain.DefaultSettings(), 2)
	snap.IsRunning = true
	if err := f.engine.StartTimer(ctx, snap); err != nil {
		t.Fatalf("StartTimer() error = %v", err)
	}

	st, err := svc.SwitchMode(ctx, domain.ModeLongBreak)
	if err != nil {
		t.Fatalf("SwitchMode() error = %v", err)
	}
	if st.Mode != domain.ModeLongBreak || st.IsRunning {
		t.Errorf("SwitchMode() = %s running=%v, want stopped longBreak", st.Mode, st.IsRunning)
	}
	if st.RemainingSeconds != 15*60 {
		t.Errorf("RemainingSeconds = %d, want %d", st.RemainingSeconds, 15*60)
	}
	if st.CompletedPomodoros != 2 {
		t.Errorf("CompletedPomodoros = %d, want 2", st.CompletedPomodoros)
	}
	if f.scheduler.Armed("tick") {
		t.Error("switching mode should disarm the tick alarm")
	}

	if _, err := svc.SwitchMode(ctx, domain.Mode("nap")); !errors.Is(err, domain.ErrInvalidMode) {
		t.Errorf("SwitchMode(nap) error = %v, want ErrInvalidMode", err)
	}
}

func TestPomodoroService_UpdateSettings(t *testing.T) {
	svc, _ := newTestPomodoroService(t)
	ctx := context.Background()

	updated := domain.DefaultSettings()
	updated.PomodoroDuration = 50

	st, err := svc.UpdateSettings(ctx, updated)
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if st.RemainingSeconds != 50*60 {
		t.Errorf("RemainingSeconds after update = %d, want %d", st.RemainingSeconds, 50*60)
	}

	got, err := svc.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got.PomodoroDuration != 50 {
		t.Errorf("stored PomodoroDuration = %d, want 50", got.PomodoroDuration)
	}

	invalid := domain.DefaultSettings()
	invalid.ShortBreakDuration = 0
	if _, err := svc.UpdateSettings(ctx, invalid); !errors.Is(err, domain.ErrInvalidDuration) {
		t.Errorf("UpdateSettings(invalid) error = %v, want ErrInvalidDuration", err)
	}
	got, _ = svc.GetSettings(ctx)
	if got.ShortBreakDuration != 5 {
		t.Error("invalid settings must not be stored")
	}
}

func TestPomodoroService_GetSettingsDefaults(t *testing.T) {
	svc := NewPomodoroService(nil, nil)

	got, err := svc.GetSettings(context.Background())
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got != domain.DefaultSettings() {
		t.Errorf("GetSettings() = %+v, want defaults", got)
	}
	if _, err := svc.UpdateSettings(context.Background(), got); err == nil {
		t.Error("UpdateSettings() without storage should fail")
	}
}

func TestStateService_Stats(t *testing.T) {
	f := newEngineFixture(t, domain.DefaultSettings())
	ctx := context.Background()

	svc := NewStateService(NewPomodoroService(f.engine, f.store.Settings()), f.store.Phases())
	svc.SetClock(f.clock.Now)

	snap := pomodoroSnapshot(domain.DefaultSettings(), 0)
	snap.SetRemaining(10)
	snap.IsRunning = true
	if err := f.engine.StartTimer(ctx, snap); err != nil {
		t.Fatalf("StartTimer() error = %v", err)
	}
	f.clock.Advance(11 * time.Second)

	st, err := svc.GetTimerState(ctx)
	if err != nil {
		t.Fatalf("GetTimerState() error = %v", err)
	}
	if st.Mode != domain.ModeShortBreak {
		t.Fatalf("mode after completion = %s, want shortBreak", st.Mode)
	}

	stats, err := svc.GetDailyStats(ctx, t0)
	if err != nil {
		t.Fatalf("GetDailyStats() error = %v", err)
	}
	if stats.Pomodoros != 1 {
		t.Errorf("Pomodoros = %d, want 1", stats.Pomodoros)
	}

	recent, err := svc.GetRecentPhases(ctx, 5)
	if err != nil {
		t.Fatalf("GetRecentPhases() error = %v", err)
	}
	if len(recent) != 1 || recent[0].Mode != domain.ModePomodoro {
		t.Errorf("GetRecentPhases() = %v, want one pomodoro", recent)
	}
}

func TestStateService_WithoutPhaseLog(t *testing.T) {
	f := newEngineFixture(t, domain.DefaultSettings())
	svc := NewStateService(NewPomodoroService(f.engine, f.store.Settings()), nil)

	stats, err := svc.GetDailyStats(context.Background(), t0)
	if err != nil || stats.Pomodoros != 0 {
		t.Errorf("GetDailyStats() = %+v, %v, want empty stats", stats, err)
	}
	recent, err := svc.GetRecentPhases(context.Background(), 5)
	if err != nil || len(recent) != 0 {
		t.Errorf("GetRecentPhases() = %v, %v, want none", recent, err)
	}
}
