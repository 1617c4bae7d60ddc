package protocol

import (
	"context"
	"fmt"
	"log"

	"github.com/xvierd/keeper/internal/domain"
	"github.com/xvierd/keeper/internal/ports"
)

// Dispatcher routes requests to the timer commands.
type Dispatcher struct {
	handler ports.TimerCommands
	logger  *log.Logger
}

// NewDispatcher creates a dispatcher in front of handler.
func NewDispatcher(handler ports.TimerCommands, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{handler: handler, logger: logger}
}

// Dispatch runs req and returns its only response. Unknown actions, handler
// errors and handler panics all become failed responses.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("panic handling %s: %v", req.Action, r)
			err := fmt.Errorf("internal error: %v", r)
			if req.Action == ActionGetTimerState {
				resp = StateResponse(req.ID, nil)
				resp.Error = err.Error()
				return
			}
			resp = Fail(req.ID, err)
		}
	}()

	switch req.Action {
	case ActionGetTimerState:
		st, err := d.handler.GetTimerState(ctx)
		resp = StateResponse(req.ID, st)
		if err != nil {
			d.logger.Printf("getTimerState failed: %v", err)
			resp.TimerState = nil
			resp.Error = err.Error()
		}
		return resp

	case ActionStartTimer:
		return d.command(req, d.handler.StartTimer(ctx, req.Snapshot()))
	case ActionStopTimer:
		return d.command(req, d.handler.StopTimer(ctx))
	case ActionResetTimer:
		return d.command(req, d.handler.ResetTimer(ctx, req.Snapshot()))
	case ActionSwitchMode:
		return d.command(req, d.handler.SwitchMode(ctx, req.Snapshot()))

	default:
		return Fail(req.ID, fmt.Errorf("%w %q", domain.ErrUnknownAction, req.Action))
	}
}

func (d *Dispatcher) command(req Request, err error) Response {
	if err != nil {
		d.logger.Printf("%s failed: %v", req.Action, err)
		return Fail(req.ID, err)
	}
	return Ack(req.ID)
}
