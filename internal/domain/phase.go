package domain

import "time"

// PhaseRecord is one finished phase in the completion log.
type PhaseRecord struct {
	ID              string
	Mode            Mode
	DurationSeconds int
	CompletedAt     time.Time
}

// NewPhaseRecord records that a phase of the given mode and length finished at completedAt.
func NewPhaseRecord(mode Mode, durationSeconds int, completedAt time.Time) *PhaseRecord {
	return &PhaseRecord{
		ID:              generateID(),
		Mode:            mode,
		DurationSeconds: durationSeconds,
		CompletedAt:     completedAt,
	}
}

// DailyStats aggregates the completion log for a day.
type DailyStats struct {
	Date          time.Time
	Pomodoros     int
	ShortBreaks   int
	LongBreaks    int
	TotalWorkTime time.Duration
}

// BreaksTaken returns the number of breaks of either kind.
func (s DailyStats) BreaksTaken() int {
	return s.ShortBreaks + s.LongBreaks
}
