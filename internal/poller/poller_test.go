package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition never held: %s", msg)
}

func TestPollerDeliversEveryFetch(t *testing.T) {
	var fetches atomic.Int32
	var updates atomic.Int32

	p := New(
		func(ctx context.Context) (interface{}, error) {
			return int(fetches.Add(1)), nil
		},
		func(state interface{}) {
			updates.Add(1)
		},
		5*time.Millisecond,
	)

	p.Start()
	defer p.Stop()

	// The callback fires on every successful fetch, changed or not:
	// the immediate first tick plus at least two timer ticks.
	waitFor(t, func() bool { return updates.Load() >= 3 }, "three updates")
	assert.GreaterOrEqual(t, fetches.Load(), updates.Load())
}

func TestPollerRetriesAfterFailure(t *testing.T) {
	var fetches atomic.Int32
	var updates atomic.Int32

	p := New(
		func(ctx context.Context) (interface{}, error) {
			n := fetches.Add(1)
			if n%2 == 1 {
				return nil, errors.New("transient")
			}
			return n, nil
		},
		func(state interface{}) {
			updates.Add(1)
		},
		5*time.Millisecond,
	)

	p.Start()
	defer p.Stop()

	// Failures are skipped, not fatal: the loop keeps ticking and
	// successful fetches still reach the callback.
	waitFor(t, func() bool { return updates.Load() >= 2 }, "updates after failures")
	assert.Greater(t, fetches.Load(), updates.Load())
}

func TestPollerStop(t *testing.T) {
	var updates atomic.Int32

	p := New(
		func(ctx context.Context) (interface{}, error) { return "state", nil },
		func(state interface{}) { updates.Add(1) },
		5*time.Millisecond,
	)

	p.Start()
	waitFor(t, func() bool { return updates.Load() >= 1 }, "first update")

	p.Stop()
	after := updates.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, updates.Load(), "no callbacks after Stop")

	// Stop is idempotent and safe from multiple goroutines.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Stop()
		}()
	}
	wg.Wait()

	// A stopped poller never restarts.
	p.Start()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, updates.Load())
}

func TestPollerCheckNow(t *testing.T) {
	var fetches atomic.Int32
	var updates atomic.Int32

	p := New(
		func(ctx context.Context) (interface{}, error) {
			return int(fetches.Add(1)), nil
		},
		func(state interface{}) { updates.Add(1) },
		time.Hour, // timer effectively off after the first tick
	)

	p.Start()
	defer p.Stop()
	waitFor(t, func() bool { return updates.Load() == 1 }, "initial tick")

	// CheckNow runs exactly one extra fetch, no second loop.
	require.NoError(t, p.CheckNow(context.Background()))
	assert.Equal(t, int32(2), fetches.Load())
	assert.Equal(t, int32(2), updates.Load())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(2), fetches.Load())
}

func TestPollerCheckNowReportsError(t *testing.T) {
	fetchErr := errors.New("network down")
	p := New(
		func(ctx context.Context) (interface{}, error) { return nil, fetchErr },
		func(state interface{}) { t.Error("callback must not fire on failure") },
		time.Hour,
	)

	// Works without Start: CheckNow is independent of the loop.
	err := p.CheckNow(context.Background())
	assert.ErrorIs(t, err, fetchErr)
}

func TestPollerCheckNowAfterStop(t *testing.T) {
	p := New(
		func(ctx context.Context) (interface{}, error) {
			t.Error("fetch after Stop")
			return nil, nil
		},
		nil,
		time.Hour,
	)
	p.Stop()
	assert.NoError(t, p.CheckNow(context.Background()))
}

func TestPollerStartTwice(t *testing.T) {
	var fetches atomic.Int32
	p := New(
		func(ctx context.Context) (interface{}, error) {
			return int(fetches.Add(1)), nil
		},
		nil,
		time.Hour,
	)

	p.Start()
	p.Start() // no-op, no second loop
	defer p.Stop()

	waitFor(t, func() bool { return fetches.Load() >= 1 }, "initial tick")
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), fetches.Load())
}
