package realtime

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Step runs one tick at the current clock reading.
func (d *Driver[C, K]) Step() (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	defer func() {
		d.tickNum++
		if err != nil {
			d.failures++
		}
	}()
	defer d.recoverInto(&err)

	return d.engine.CheckTransitionAndDoAction(d.data, d.clock.Now())
}

// tickLoop is the main tick execution loop
func (d *Driver[C, K]) tickLoop(ctx context.Context, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(d.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Step(); err != nil {
				d.log.Error("tick failed", zap.Error(err))
				if d.onError != nil {
					d.onError(err)
				}
			}
		}
	}
}

func (d *Driver[C, K]) recoverInto(err *error) {
	if r := recover(); r != nil {
		if e, ok := r.(error); ok {
			*err = fmt.Errorf("%w: %w", ErrTickPanic, e)
			return
		}
		*err = fmt.Errorf("%w: %v", ErrTickPanic, r)
	}
}
