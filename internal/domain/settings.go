package domain

import "fmt"

// Settings holds the user-facing timer preferences stored in the sync namespace.
// Only the durations and auto-start flags affect the state machine.
type Settings struct {
	PomodoroDuration   int    `json:"pomodoroDuration"`
	ShortBreakDuration int    `json:"shortBreakDuration"`
	LongBreakDuration  int    `json:"longBreakDuration"`
	AutoStartBreaks    bool   `json:"autoStartBreaks"`
	AutoStartPomodoros bool   `json:"autoStartPomodoros"`
	NotificationSound  string `json:"notificationSound"`
	ThemeColor         string `json:"themeColor"`
	DarkMode           bool   `json:"darkMode"`
}

// Notification sounds.
const (
	SoundBell    = "bell"
	SoundDigital = "digital"
	SoundGentle  = "gentle"
)

// DefaultSettings returns the settings written on first install.
func DefaultSettings() Settings {
	return Settings{
		PomodoroDuration:   25,
		ShortBreakDuration: 5,
		LongBreakDuration:  15,
		AutoStartBreaks:    false,
		AutoStartPomodoros: false,
		NotificationSound:  SoundBell,
		ThemeColor:         "blue",
		DarkMode:           false,
	}
}

// Minutes returns the configured duration of a mode in minutes.
func (s Settings) Minutes(m Mode) int {
	switch m {
	case ModeShortBreak:
		return s.ShortBreakDuration
	case ModeLongBreak:
		return s.LongBreakDuration
	default:
		return s.PomodoroDuration
	}
}

// Seconds returns the configured duration of a mode in seconds.
func (s Settings) Seconds(m Mode) int {
	return s.Minutes(m) * 60
}

// AutoStart reports whether entering the given mode starts the countdown immediately.
func (s Settings) AutoStart(m Mode) bool {
	if m.IsBreak() {
		return s.AutoStartBreaks
	}
	return s.AutoStartPomodoros
}

// Validate checks that every duration is at least one minute.
func (s Settings) Validate() error {
	for _, m := range ValidModes {
		if s.Minutes(m) < 1 {
			return fmt.Errorf("%w: %s duration must be at least 1 minute", ErrInvalidDuration, m.Label())
		}
	}
	switch s.NotificationSound {
	case SoundBell, SoundDigital, SoundGentle, "":
	default:
		return fmt.Errorf("invalid notification sound %q: must be one of bell, digital, gentle", s.NotificationSound)
	}
	return nil
}
