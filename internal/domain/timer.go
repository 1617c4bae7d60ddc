package domain

import (
	"fmt"
	"time"
)

// LongBreakInterval is how many completed pomodoros earn a long break.
const LongBreakInterval = 4

// TimerState is the canonical timer record kept in the local namespace.
// Only the background engine writes it; every other component reads copies.
type TimerState struct {
	Mode               Mode  `json:"mode"`
	Minutes            int   `json:"minutes"`
	Seconds            int   `json:"seconds"`
	IsRunning          bool  `json:"isRunning"`
	TotalSeconds       int   `json:"totalSeconds"`
	RemainingSeconds   int   `json:"remainingSeconds"`
	CompletedPomodoros int   `json:"completedPomodoros"`
	LastUpdated        int64 `json:"lastUpdated"` // Unix milliseconds
}

// NewTimerState returns a stopped state for mode with the configured duration.
func NewTimerState(mode Mode, settings Settings, completed int, now time.Time) TimerState {
	total := settings.Seconds(mode)
	st := TimerState{
		Mode:               mode,
		TotalSeconds:       total,
		CompletedPomodoros: completed,
		LastUpdated:        now.UnixMilli(),
	}
	st.SetRemaining(total)
	return st
}

// SetRemaining updates remainingSeconds and the minutes/seconds display cache.
func (s *TimerState) SetRemaining(remaining int) {
	s.RemainingSeconds = remaining
	s.Minutes, s.Seconds = SplitSeconds(remaining)
}

// Touch sets lastUpdated to now.
func (s *TimerState) Touch(now time.Time) {
	s.LastUpdated = now.UnixMilli()
}

// LastUpdatedTime returns lastUpdated as a time.Time.
func (s TimerState) LastUpdatedTime() time.Time {
	return time.UnixMilli(s.LastUpdated)
}

// Clock renders the remaining time as MM:SS.
func (s TimerState) Clock() string {
	return FormatClock(s.Minutes, s.Seconds)
}

// Progress returns the completed fraction of the phase (0.0 to 1.0).
func (s TimerState) Progress() float64 {
	if s.TotalSeconds <= 0 {
		return 0
	}
	p := 1 - float64(s.RemainingSeconds)/float64(s.TotalSeconds)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// Validate checks a snapshot received from the foreground.
func (s TimerState) Validate() error {
	if _, err := ParseMode(string(s.Mode)); err != nil {
		return err
	}
	if s.TotalSeconds < 1 {
		return fmt.Errorf("%w: totalSeconds must be at least 1", ErrInvalidSnapshot)
	}
	if s.CompletedPomodoros < 0 {
		return fmt.Errorf("%w: completedPomodoros must not be negative", ErrInvalidSnapshot)
	}
	return nil
}

// SplitSeconds converts seconds into whole minutes and leftover seconds.
// Negative input yields 0:00.
func SplitSeconds(total int) (minutes, seconds int) {
	if total < 0 {
		return 0, 0
	}
	return total / 60, total % 60
}

// FormatClock renders minutes and seconds as MM:SS.
func FormatClock(minutes, seconds int) string {
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
