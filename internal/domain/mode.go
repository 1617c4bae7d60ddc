package domain

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Mode is the phase the timer is counting down.
type Mode string

const (
	ModePomodoro   Mode = "pomodoro"
	ModeShortBreak Mode = "shortBreak"
	ModeLongBreak  Mode = "longBreak"
)

// ValidModes lists all supported modes in display order.
var ValidModes = []Mode{
	ModePomodoro,
	ModeShortBreak,
	ModeLongBreak,
}

// ParseMode checks if a string is a valid mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	for _, valid := range ValidModes {
		if m == valid {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q: must be one of pomodoro, shortBreak, longBreak", ErrInvalidMode, s)
}

// MatchMode resolves loose user input ("lb", "short", "Pomodoro") to a mode.
// Exact names win; otherwise the best fuzzy match against mode names and labels is used.
func MatchMode(input string) (Mode, error) {
	input = strings.TrimSpace(input)
	if m, err := ParseMode(input); err == nil {
		return m, nil
	}

	candidates := make([]string, 0, len(ValidModes)*2)
	owners := make([]Mode, 0, len(ValidModes)*2)
	for _, m := range ValidModes {
		candidates = append(candidates, strings.ToLower(string(m)), strings.ToLower(m.Label()))
		owners = append(owners, m, m)
	}

	matches := fuzzy.Find(strings.ToLower(input), candidates)
	if input == "" || len(matches) == 0 {
		return "", fmt.Errorf("%w %q", ErrInvalidMode, input)
	}
	return owners[matches[0].Index], nil
}

// Label returns a human-readable label.
func (m Mode) Label() string {
	switch m {
	case ModePomodoro:
		return "Pomodoro"
	case ModeShortBreak:
		return "Short Break"
	case ModeLongBreak:
		return "Long Break"
	default:
		return "Unknown"
	}
}

// IsBreak returns true for either break mode.
func (m Mode) IsBreak() bool {
	return m == ModeShortBreak || m == ModeLongBreak
}
