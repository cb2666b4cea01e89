// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// Poller is a dumb, clock-driven reader. Fail-fast: the first error is
// reported once and polling stops. No retries, no resubscribe.
//
// Callbacks run on the poller goroutine while the poller lock is held so
// that nothing is delivered after Stop returns. They must not call Stop.
type Poller struct {
	cfg     Config
	read    ReadFunc
	onValue ValueFunc
	onError ErrorFunc
	log     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
}

// New creates a poller with immutable config. Call Start to begin polling.
func New(cfg Config, read ReadFunc, onValue ValueFunc, onError ErrorFunc, log zerolog.Logger) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if read == nil {
		return nil, errors.New("poller: read func required")
	}
	if onValue == nil {
		onValue = func([]byte) {}
	}
	if onError == nil {
		onError = func(error) {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		cfg:     cfg,
		read:    read,
		onValue: onValue,
		onError: onError,
		log:     log.With().Str("subscription", cfg.Name).Logger(),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}, nil
}

// PollOnce performs exactly one read and delivers its outcome.
// It reports false once the poller is stopped.
func (p *Poller) PollOnce(ctx context.Context) bool {
	data, err := p.read(ctx)
	return p.deliver(data, err)
}

func (p *Poller) deliver(data []byte, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		// unsubscribed while the read was in flight
		return false
	}
	if err != nil {
		p.stopped = true
		p.cancel()
		p.log.Warn().Err(err).Msg("poll failed, subscription stopped")
		p.onError(err)
		return false
	}

	p.onValue(data)
	return true
}

// Stop cancels polling. No callback runs after Stop returns; a read
// already on the wire completes but its result is dropped.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	p.cancel()
	if !p.started {
		// no goroutine will ever close it
		close(p.done)
	}
	p.log.Debug().Msg("subscription stopped")
}

// Done is closed when the polling goroutine has exited, or at Stop if it
// was never started.
func (p *Poller) Done() <-chan struct{} { return p.done }
