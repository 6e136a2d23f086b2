// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// run is the polling loop. First cycle fires immediately, then one per
// interval. No overlap. No retries inside a cycle; the next tick is the
// retry.
func (c *Controller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		res := c.pollOnce(ctx)

		// A cancellation mid-cycle is a stop, not a device failure.
		if ctx.Err() != nil {
			return
		}
		c.record(res)

		timer := time.NewTimer(c.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
