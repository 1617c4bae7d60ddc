package domain

import "time"

// Reconciliation is the outcome of applying elapsed wall-clock time to a state.
type Reconciliation struct {
	// Elapsed is the number of whole seconds since lastUpdated.
	Elapsed int
	// State is the reconciled copy. When Expired is set it still carries the
	// non-positive remaining time and must not be persisted as-is.
	State TimerState
	// Changed is set when State differs from the input and should be written.
	Changed bool
	// Expired is set when the phase ran out and the completion transition is due.
	Expired bool
}

// Reconcile recomputes the remaining time of a running state from the wall
// clock. It is a no-op for stopped states and whenever less than one whole
// second has passed, so redundant or duplicated wake-ups are harmless.
func Reconcile(st TimerState, now time.Time) Reconciliation {
	r := Reconciliation{State: st}
	if !st.IsRunning {
		return r
	}

	elapsed := floorDiv(now.UnixMilli()-st.LastUpdated, 1000)
	if elapsed <= 0 {
		return r
	}
	r.Elapsed = int(elapsed)

	remaining := int64(st.RemainingSeconds) - elapsed
	if remaining <= 0 {
		r.State.RemainingSeconds = int(remaining)
		r.Expired = true
		return r
	}

	r.State.SetRemaining(int(remaining))
	r.State.Touch(now)
	r.Changed = true
	return r
}

// NextPhase applies the completion transition to a state whose phase just
// ran out. It returns the new state and the mode that finished.
//
// Leaving a pomodoro increments completedPomodoros and picks a long break on
// every LongBreakInterval-th pomodoro; leaving either break always returns to
// a pomodoro.
func NextPhase(st TimerState, settings Settings, now time.Time) (TimerState, Mode) {
	finished := st.Mode
	completed := st.CompletedPomodoros

	next := ModePomodoro
	if finished == ModePomodoro {
		completed++
		next = ModeShortBreak
		if completed%LongBreakInterval == 0 {
			next = ModeLongBreak
		}
	}

	ns := NewTimerState(next, settings, completed, now)
	ns.IsRunning = settings.AutoStart(next)
	if !ns.IsRunning {
		ns.LastUpdated = st.LastUpdated
	}
	return ns, finished
}

// CompletionMessage is the notification text for a finished phase.
func CompletionMessage(finished Mode) string {
	if finished == ModePomodoro {
		return "Pomodoro completed!"
	}
	return "Break completed!"
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
