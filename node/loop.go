package node

import (
	"context"
	"errors"
	"time"

	"plasma.dev/node/log"
)

type loopFunc func(ctx context.Context) (progressed bool, err error)

// runLoop calls op until ctx is cancelled, waiting for each call to return
// before arming the next timer: fast after progress, slow when idle or on
// error. op runs on a context detached from ctx, so cancellation only stops
// scheduling.
func runLoop(ctx context.Context, logger log.Logger, fast, slow time.Duration, op loopFunc) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		progressed, err := op(context.WithoutCancel(ctx))
		next := slow
		switch {
		case errors.Is(err, ErrBridgeDesync):
			logger.Info("header submission paused", "err", err)
		case err != nil:
			logger.Error("loop iteration failed", "err", err)
		case progressed:
			next = fast
		}
		timer.Reset(next)
	}
}
