// Package domain contains the core timer entities for keeper.
// The types here are shared by the background engine and the foreground view
// and are independent of storage, transport, or rendering.
package domain

import "errors"

// Common domain errors.
var (
	ErrNoTimerState      = errors.New("no timer state")
	ErrInvalidMode       = errors.New("invalid mode")
	ErrInvalidDuration   = errors.New("invalid duration")
	ErrInvalidSnapshot   = errors.New("invalid timer snapshot")
	ErrUnknownAction     = errors.New("unknown action")
	ErrDaemonUnavailable = errors.New("timer daemon unavailable")
)
