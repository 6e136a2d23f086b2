// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tamzrod/flowmeter-logger/internal/fault"
	"github.com/tamzrod/flowmeter-logger/internal/frame"
	"github.com/tamzrod/flowmeter-logger/internal/monitor"
	"github.com/tamzrod/flowmeter-logger/internal/store"
)

// Fetcher abstracts the transport round trip.
// The controller depends on raw bytes only.
type Fetcher interface {
	Fetch(ctx context.Context, command []byte) ([]byte, error)
}

// DecodeFunc is the decode step of a cycle.
type DecodeFunc func(raw []byte) (frame.Sample, error)

// Config is the minimal runtime config the controller needs.
type Config struct {
	Command  []byte
	Interval time.Duration

	// Notify, when set, receives every cycle result. Called from the
	// polling goroutine; must not block for long.
	Notify func(CycleResult)
}

// Controller drives the fetch -> decode -> append pipeline on a fixed
// interval. One failed cycle never halts polling: transient device or
// network trouble is normal in the field, and the next tick is the retry.
type Controller struct {
	mu       sync.Mutex
	command  []byte
	interval time.Duration

	fetch  Fetcher
	decode DecodeFunc
	store  *store.Store
	notify func(CycleResult)

	state  State
	cancel context.CancelFunc
	done   chan struct{}

	last    CycleResult
	hasLast bool
}

// New creates a controller in the Idle state.
func New(cfg Config, fetch Fetcher, decode DecodeFunc, st *store.Store) (*Controller, error) {
	if len(cfg.Command) == 0 {
		return nil, errors.New("poller: command frame required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if fetch == nil {
		return nil, errors.New("poller: fetcher required")
	}
	if decode == nil {
		return nil, errors.New("poller: decoder required")
	}
	if st == nil {
		return nil, errors.New("poller: store required")
	}

	return &Controller{
		command:  cfg.Command,
		interval: cfg.Interval,
		fetch:    fetch,
		decode:   decode,
		store:    st,
		notify:   cfg.Notify,
	}, nil
}

// Start transitions Idle -> Running and launches the polling loop.
// Idempotent while already Running.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	c.state = Running

	monitor.PollingActive.Set(1)

	go c.run(ctx, c.done)
}

// Stop transitions Running -> Idle. Idempotent while already Idle.
// It returns once the loop has observed the cancellation; a cycle already
// blocked in a network read finishes or times out naturally, so worst-case
// stop latency is one timeout period.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state == Idle {
		c.mu.Unlock()
		return
	}

	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.done = nil
	c.state = Idle
	c.mu.Unlock()

	cancel()
	<-done

	monitor.PollingActive.Set(0)
}

// State reports the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetInterval changes the polling cadence. Takes effect before the next
// wait; the cycle in flight is not disturbed.
func (c *Controller) SetInterval(d time.Duration) error {
	if d <= 0 {
		return errors.New("poller: interval must be > 0")
	}
	c.mu.Lock()
	c.interval = d
	c.mu.Unlock()
	return nil
}

// Interval returns the current polling cadence.
func (c *Controller) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interval
}

// LastCycle returns the most recent cycle result, if any cycle has run.
func (c *Controller) LastCycle() (CycleResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.hasLast
}

// pollOnce performs exactly one fetch -> decode -> append cycle.
func (c *Controller) pollOnce(ctx context.Context) CycleResult {
	res := CycleResult{At: time.Now()}

	c.mu.Lock()
	command := c.command
	c.mu.Unlock()

	raw, err := c.fetch.Fetch(ctx, command)
	if err != nil {
		res.Err = err
		return res
	}

	sample, err := c.decode(raw)
	if err != nil {
		res.Err = err
		return res
	}

	sample.Timestamp = time.Now()

	// The store keeps the in-memory append even when the durable write
	// fails, so the sample counts as recorded either way.
	err = c.store.Append(sample)
	res.Sample = sample
	res.Recorded = true
	res.Err = err
	return res
}

// record publishes the cycle result to metrics and the notify hook.
func (c *Controller) record(res CycleResult) {
	monitor.PollCycles.Inc()

	if res.Err != nil {
		monitor.PollFailures.WithLabelValues(fault.KindOf(res.Err).String()).Inc()
	}
	if res.Recorded {
		monitor.SamplesRecorded.Inc()
		monitor.LastSampleTime.Set(float64(res.Sample.Timestamp.Unix()))
	}

	c.mu.Lock()
	c.last = res
	c.hasLast = true
	notify := c.notify
	c.mu.Unlock()

	if notify != nil {
		notify(res)
	}
}
