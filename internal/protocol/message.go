// Package protocol implements the request/response channel between the
// foreground and the timer daemon.
//
// Every request carries an action and, for the commands that replace the
// state, a flat timer snapshot. Every request gets exactly one response:
// commands answer {"success": bool}, getTimerState answers {"timerState": ...}
// where the state may be null.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/xvierd/keeper/internal/domain"
)

// Action names a message type.
type Action string

const (
	ActionStartTimer    Action = "startTimer"
	ActionStopTimer     Action = "stopTimer"
	ActionResetTimer    Action = "resetTimer"
	ActionSwitchMode    Action = "switchMode"
	ActionGetTimerState Action = "getTimerState"
)

// Actions lists every supported action.
var Actions = []Action{
	ActionStartTimer,
	ActionStopTimer,
	ActionResetTimer,
	ActionSwitchMode,
	ActionGetTimerState,
}

// Valid reports whether a is a supported action.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// Request is one message sent to the daemon.
type Request struct {
	ID                 string      `json:"id,omitempty"`
	Action             Action      `json:"action"`
	Mode               domain.Mode `json:"mode,omitempty"`
	Minutes            int         `json:"minutes,omitempty"`
	Seconds            int         `json:"seconds,omitempty"`
	IsRunning          bool        `json:"isRunning,omitempty"`
	TotalSeconds       int         `json:"totalSeconds,omitempty"`
	RemainingSeconds   int         `json:"remainingSeconds,omitempty"`
	CompletedPomodoros int         `json:"completedPomodoros,omitempty"`
}

// NewRequest builds a request with a fresh id. snapshot may be nil for
// actions without payload.
func NewRequest(action Action, snapshot *domain.TimerState) Request {
	req := Request{
		ID:     uuid.NewString(),
		Action: action,
	}
	if snapshot != nil {
		req.Mode = snapshot.Mode
		req.Minutes = snapshot.Minutes
		req.Seconds = snapshot.Seconds
		req.IsRunning = snapshot.IsRunning
		req.TotalSeconds = snapshot.TotalSeconds
		req.RemainingSeconds = snapshot.RemainingSeconds
		req.CompletedPomodoros = snapshot.CompletedPomodoros
	}
	return req
}

// Snapshot returns the timer state carried by the request.
func (r Request) Snapshot() domain.TimerState {
	st := domain.TimerState{
		Mode:               r.Mode,
		IsRunning:          r.IsRunning,
		TotalSeconds:       r.TotalSeconds,
		CompletedPomodoros: r.CompletedPomodoros,
	}
	st.SetRemaining(r.RemainingSeconds)
	return st
}

// Response is the single reply to a Request.
type Response struct {
	ID         string
	Success    *bool
	Error      string
	TimerState *domain.TimerState

	// hasState marks a getTimerState reply, whose timerState key is always present.
	hasState bool
}

// Ack is the successful reply to a command.
func Ack(id string) Response {
	ok := true
	return Response{ID: id, Success: &ok}
}

// Fail is the failed reply to a command.
func Fail(id string, err error) Response {
	ok := false
	return Response{ID: id, Success: &ok, Error: err.Error()}
}

// StateResponse is the reply to getTimerState. st may be nil.
func StateResponse(id string, st *domain.TimerState) Response {
	return Response{ID: id, TimerState: st, hasState: true}
}

// HasState reports whether the response is a getTimerState reply.
func (r Response) HasState() bool {
	return r.hasState
}

// OK reports whether the request succeeded.
func (r Response) OK() bool {
	if r.Error != "" {
		return false
	}
	if r.Success != nil {
		return *r.Success
	}
	return r.hasState
}

// Err converts a failed response into an error, restoring the domain
// sentinel it was built from when it can be recognised.
func (r Response) Err() error {
	if r.OK() {
		return nil
	}
	if r.Error == "" {
		return errors.New("request failed")
	}
	for _, sentinel := range sentinels {
		if msg := sentinel.Error(); strings.HasPrefix(r.Error, msg) {
			return fmt.Errorf("%w%s", sentinel, strings.TrimPrefix(r.Error, msg))
		}
	}
	return errors.New(r.Error)
}

var sentinels = []error{
	domain.ErrNoTimerState,
	domain.ErrInvalidMode,
	domain.ErrInvalidDuration,
	domain.ErrInvalidSnapshot,
	domain.ErrUnknownAction,
}

type commandWire struct {
	ID      string `json:"id,omitempty"`
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

type stateWire struct {
	ID         string             `json:"id,omitempty"`
	TimerState *domain.TimerState `json:"timerState"`
	Error      string             `json:"error,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.hasState {
		return json.Marshal(stateWire{ID: r.ID, TimerState: r.TimerState, Error: r.Error})
	}
	return json.Marshal(commandWire{ID: r.ID, Success: r.Success, Error: r.Error})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Response) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*r = Response{}
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &r.ID); err != nil {
			return fmt.Errorf("invalid id: %w", err)
		}
	}
	if raw, ok := fields["success"]; ok {
		var success bool
		if err := json.Unmarshal(raw, &success); err != nil {
			return fmt.Errorf("invalid success: %w", err)
		}
		r.Success = &success
	}
	if raw, ok := fields["error"]; ok {
		if err := json.Unmarshal(raw, &r.Error); err != nil {
			return fmt.Errorf("invalid error: %w", err)
		}
	}
	if raw, ok := fields["timerState"]; ok {
		r.hasState = true
		if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			var st domain.TimerState
			if err := json.Unmarshal(raw, &st); err != nil {
				return fmt.Errorf("invalid timerState: %w", err)
			}
			r.TimerState = &st
		}
	}
	return nil
}
