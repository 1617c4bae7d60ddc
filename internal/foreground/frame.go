// Package foreground renders the canonical timer state at sub-second
// smoothness. It never decides phase transitions: a local countdown that
// reaches zero is resolved by asking the daemon, never by guessing.
package foreground

import (
	"math"
	"time"

	"github.com/xvierd/keeper/internal/domain"
)

// Frame is what the popup draws at a given instant.
type Frame struct {
	Mode               domain.Mode
	IsRunning          bool
	TotalSeconds       int
	CompletedPomodoros int

	// Remaining is the displayed whole-second countdown, never below zero.
	Remaining int
	// Precise is the fractional remaining time used for the progress bar.
	// It goes negative once the local countdown overshoots.
	Precise float64

	Minutes  int
	Seconds  int
	Progress float64
}

// Clock renders the frame as MM:SS.
func (f Frame) Clock() string {
	return domain.FormatClock(f.Minutes, f.Seconds)
}

// Interpolate projects st forward from anchor to now without changing it.
// A stopped state is returned as-is.
func Interpolate(st domain.TimerState, anchor, now time.Time) Frame {
	f := Frame{
		Mode:               st.Mode,
		IsRunning:          st.IsRunning,
		TotalSeconds:       st.TotalSeconds,
		CompletedPomodoros: st.CompletedPomodoros,
		Remaining:          st.RemainingSeconds,
		Precise:            float64(st.RemainingSeconds),
	}

	if st.IsRunning {
		elapsed := now.Sub(anchor).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		f.Precise = float64(st.RemainingSeconds) - elapsed
		f.Remaining = st.RemainingSeconds - int(math.Floor(elapsed))
	}
	if f.Remaining < 0 {
		f.Remaining = 0
	}

	f.Minutes, f.Seconds = domain.SplitSeconds(f.Remaining)
	f.Progress = progress(f.Precise, f.TotalSeconds)
	return f
}

// Diverged reports whether the canonical state differs enough from the local
// frame that the view must snap to it.
func Diverged(local Frame, canonical domain.TimerState, tolerance time.Duration) bool {
	if local.IsRunning != canonical.IsRunning ||
		local.Mode != canonical.Mode ||
		local.CompletedPomodoros != canonical.CompletedPomodoros {
		return true
	}
	delta := math.Abs(float64(local.Remaining - canonical.RemainingSeconds))
	return delta > tolerance.Seconds()
}

func progress(remaining float64, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := 1 - remaining/float64(total)
	return math.Max(0, math.Min(1, p))
}
