package facecube

import (
	"context"
	"time"

	"go.viam.com/utils"
)

// Run processes frames until a Quit event arrives, events is closed, ctx is done, or a frame
// or display fails. Events queued while a frame is processed are applied right after it, before
// it is displayed. A nil display is allowed.
func Run(ctx context.Context, p *Pipeline, events <-chan Event, display Display, interval time.Duration) error {
	for {
		if err := p.Step(ctx); err != nil {
			return err
		}

		quit, err := drainEvents(ctx, p, events)
		if err != nil {
			p.logger.Errorw("cannot apply event", "error", err)
		}
		if quit {
			return nil
		}

		if display != nil {
			if err := display.Show(ctx, p.Preview()); err != nil {
				return err
			}
		}

		if !utils.SelectContextOrWait(ctx, interval) {
			return ctx.Err()
		}
	}
}

// drainEvents applies every queued event without blocking. A closed channel counts as Quit.
func drainEvents(ctx context.Context, p *Pipeline, events <-chan Event) (bool, error) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return true, nil
			}
			quit, err := p.Handle(ctx, ev)
			if err != nil || quit {
				return quit, err
			}
		default:
			return false, nil
		}
	}
}
