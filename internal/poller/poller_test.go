// internal/poller/poller_test.go
package poller

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tamzrod/flowmeter-logger/internal/frame"
	"github.com/tamzrod/flowmeter-logger/internal/store"
)

var testCommand, _ = hex.DecodeString("000100000006010400020010")

// fakeFetcher scripts per-call outcomes: a nil entry yields a valid frame,
// a non-nil entry fails the call. Past the script it keeps succeeding.
type fakeFetcher struct {
	mu     sync.Mutex
	script []error
	calls  int
}

func validFrame() []byte {
	raw, _ := hex.DecodeString("00010000000f01040c" + "0000007B00001C9000F000FA")
	return raw
}

func (f *fakeFetcher) Fetch(ctx context.Context, command []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.calls
	f.calls++

	if i < len(f.script) && f.script[i] != nil {
		return nil, f.script[i]
	}
	return validFrame(), nil
}

func newController(t *testing.T, fetch Fetcher, notify func(CycleResult)) (*Controller, *store.Store) {
	t.Helper()

	st := store.New(t.TempDir(), "1")
	dec := &frame.Decoder{}

	c, err := New(
		Config{
			Command:  testCommand,
			Interval: 10 * time.Millisecond,
			Notify:   notify,
		},
		fetch,
		dec.Decode,
		st,
	)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return c, st
}

func TestPollOnce_Success(t *testing.T) {
	c, st := newController(t, &fakeFetcher{}, nil)

	res := c.pollOnce(context.Background())
	if res.Err != nil {
		t.Fatalf("pollOnce err=%v", res.Err)
	}
	if !res.Recorded {
		t.Fatalf("sample not recorded")
	}
	if res.Sample.AccumFlow != 7312 {
		t.Fatalf("accumulated flow: got %d want 7312", res.Sample.AccumFlow)
	}
	if res.Sample.Timestamp.IsZero() {
		t.Fatalf("timestamp not assigned")
	}
	if st.Len() != 1 {
		t.Fatalf("store length: got %d want 1", st.Len())
	}
}

func TestPollOnce_FetchFailure(t *testing.T) {
	c, st := newController(t, &fakeFetcher{script: []error{errors.New("boom")}}, nil)

	res := c.pollOnce(context.Background())
	if res.Err == nil {
		t.Fatalf("expected error")
	}
	if res.Recorded {
		t.Fatalf("failed cycle must not record")
	}
	if st.Len() != 0 {
		t.Fatalf("store length: got %d want 0", st.Len())
	}
}

func TestPollOnce_ShortResponse(t *testing.T) {
	c, st := newController(t, FetcherFunc(func(ctx context.Context, cmd []byte) ([]byte, error) {
		return make([]byte, 18), nil
	}), nil)

	res := c.pollOnce(context.Background())
	if res.Err == nil {
		t.Fatalf("expected decode error for short response")
	}
	if st.Len() != 0 {
		t.Fatalf("series changed on decode failure: len=%d", st.Len())
	}
}

func TestController_ResilienceAndOrdering(t *testing.T) {
	results := make(chan CycleResult, 16)
	notify := func(res CycleResult) { results <- res }

	// first cycle fails, the rest succeed
	c, st := newController(t, &fakeFetcher{script: []error{errors.New("device away")}}, notify)

	c.Start()
	defer c.Stop()

	var failures, successes int
	for successes < 3 {
		select {
		case res := <-results:
			if res.Err != nil {
				failures++
			} else {
				successes++
			}
			if c.State() != Running {
				t.Fatalf("controller left Running after a cycle")
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for cycles (failures=%d successes=%d)", failures, successes)
		}
	}

	if failures != 1 {
		t.Fatalf("expected exactly 1 failed cycle, got %d", failures)
	}

	c.Stop()

	snap := st.Snapshot()
	if len(snap) < 3 {
		t.Fatalf("series length: got %d want >= 3", len(snap))
	}
	for i := 1; i < len(snap); i++ {
		if snap[i].Timestamp.Before(snap[i-1].Timestamp) {
			t.Fatalf("series not in timestamp order at %d", i)
		}
	}
}

func TestController_StartStopIdempotent(t *testing.T) {
	c, _ := newController(t, &fakeFetcher{}, nil)

	if c.State() != Idle {
		t.Fatalf("initial state: got %v want Idle", c.State())
	}

	c.Start()
	c.Start()
	if c.State() != Running {
		t.Fatalf("after double start: got %v want Running", c.State())
	}

	c.Stop()
	c.Stop()
	if c.State() != Idle {
		t.Fatalf("after double stop: got %v want Idle", c.State())
	}

	// restartable after stop
	c.Start()
	if c.State() != Running {
		t.Fatalf("restart failed")
	}
	c.Stop()
}

func TestController_SetInterval(t *testing.T) {
	c, _ := newController(t, &fakeFetcher{}, nil)

	if err := c.SetInterval(0); err == nil {
		t.Fatalf("expected error for non-positive interval")
	}
	if err := c.SetInterval(42 * time.Millisecond); err != nil {
		t.Fatalf("SetInterval err=%v", err)
	}
	if c.Interval() != 42*time.Millisecond {
		t.Fatalf("interval not applied")
	}
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, command []byte) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, command []byte) ([]byte, error) {
	return f(ctx, command)
}
