package protocol

import (
	"context"

	"github.com/google/uuid"

	"github.com/xvierd/keeper/internal/domain"
	"github.com/xvierd/keeper/internal/ports"
)

// Channel carries one request to the daemon and returns its response.
type Channel interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// LocalChannel delivers requests to a Dispatcher in the same process.
type LocalChannel struct {
	Dispatcher *Dispatcher
}

// Send implements Channel.
func (l LocalChannel) Send(ctx context.Context, req Request) (Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return l.Dispatcher.Dispatch(ctx, req), nil
}

// Caller exposes the timer commands on top of a Channel.
type Caller struct {
	ch Channel
}

// Ensure Caller implements ports.TimerCommands.
var _ ports.TimerCommands = (*Caller)(nil)

// NewCaller creates a Caller that sends over ch.
func NewCaller(ch Channel) *Caller {
	return &Caller{ch: ch}
}

// StartTimer implements ports.TimerCommands.
func (c *Caller) StartTimer(ctx context.Context, snapshot domain.TimerState) error {
	return c.command(ctx, NewRequest(ActionStartTimer, &snapshot))
}

// StopTimer implements ports.TimerCommands.
func (c *Caller) StopTimer(ctx context.Context) error {
	return c.command(ctx, NewRequest(ActionStopTimer, nil))
}

// ResetTimer implements ports.TimerCommands.
func (c *Caller) ResetTimer(ctx context.Context, snapshot domain.TimerState) error {
	return c.command(ctx, NewRequest(ActionResetTimer, &snapshot))
}

// SwitchMode implements ports.TimerCommands.
func (c *Caller) SwitchMode(ctx context.Context, snapshot domain.TimerState) error {
	return c.command(ctx, NewRequest(ActionSwitchMode, &snapshot))
}

// GetTimerState implements ports.TimerCommands.
func (c *Caller) GetTimerState(ctx context.Context) (*domain.TimerState, error) {
	resp, err := c.ch.Send(ctx, NewRequest(ActionGetTimerState, nil))
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.TimerState, nil
}

func (c *Caller) command(ctx context.Context, req Request) error {
	resp, err := c.ch.Send(ctx, req)
	if err != nil {
		return err
	}
	return resp.Err()
}
