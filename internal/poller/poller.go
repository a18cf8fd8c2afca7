// Package poller implements the client-side synchronization loop: a
// cancellable ticker that re-fetches authoritative state and hands every
// successful fetch to a callback. Polling is the ground truth for
// completion detection; push and socket events only trigger an early
// CheckNow.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// FetchFunc retrieves the current authoritative state for the watched
// target (a session or a pairing status).
type FetchFunc func(ctx context.Context) (interface{}, error)

// UpdateFunc receives the state from every successful fetch, whether or
// not anything changed. Callers diff if they care.
type UpdateFunc func(state interface{})

// DefaultInterval is used when no interval is configured. Observed
// client behavior polls every 3-5 seconds.
const DefaultInterval = 4 * time.Second

// Poller periodically fetches state for one target and reports it.
// Start begins the loop, Stop cancels it from any goroutine, and
// CheckNow runs one fetch outside the timer without ever creating a
// second concurrent loop.
type Poller struct {
	fetch    FetchFunc
	onUpdate UpdateFunc
	interval time.Duration

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
	done    chan struct{}
}

// New creates a poller. The zero interval falls back to DefaultInterval.
func New(fetch FetchFunc, onUpdate UpdateFunc, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetch:    fetch,
		onUpdate: onUpdate,
		interval: interval,
	}
}

// Start launches the polling loop. The first fetch fires immediately so
// a screen shows fresh state without waiting a full interval. Starting a
// stopped or already-running poller is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped || p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick performs one fetch. A failed tick is logged and retried on the
// next interval; it never stops the loop and never reaches the callback.
func (p *Poller) tick(ctx context.Context) {
	state, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Debug().Err(err).Msg("Poll tick failed; retrying next interval")
		}
		return
	}
	p.deliver(state)
}

// deliver invokes the callback unless the poller has been stopped. An
// in-flight fetch that completes after Stop is simply dropped.
func (p *Poller) deliver(state interface{}) {
	p.mu.Lock()
	stopped := p.stopped
	p.mu.Unlock()

	if stopped || p.onUpdate == nil {
		return
	}
	p.onUpdate(state)
}

// CheckNow runs a single fetch outside the timer, for user-initiated
// refresh and for push hints. Unlike timer ticks it reports the fetch
// error to the caller. It is safe whether or not the loop is running and
// never spawns a second timer.
func (p *Poller) CheckNow(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	state, err := p.fetch(ctx)
	if err != nil {
		return err
	}
	p.deliver(state)
	return nil
}

// Stop cancels the loop. It is idempotent, safe from any goroutine
// (including a teardown path racing an in-flight fetch), and waits for
// the loop goroutine to exit so no timer leaks.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
