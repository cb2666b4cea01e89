// internal/binding/engine.go
package binding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-binding/internal/poller"
)

// Handle identifies one subscription.
type Handle = uuid.UUID

// Config is what the engine needs to build connections.
type Config struct {
	Dial     DialFunc
	Defaults ConnectionConfig
}

// Engine is the caller-facing API: read, write and observe properties.
type Engine struct {
	registry *Registry
	log      zerolog.Logger

	mu     sync.Mutex
	closed bool
	subs   map[Handle]*poller.Poller
}

// New creates an engine with its own connection registry.
func New(cfg Config, log zerolog.Logger) (*Engine, error) {
	if cfg.Dial == nil {
		return nil, fmt.Errorf("binding: dial func required")
	}
	return &Engine{
		registry: NewRegistry(cfg.Dial, cfg.Defaults, log),
		log:      log,
		subs:     make(map[Handle]*poller.Poller),
	}, nil
}

// Registry exposes the connections for status reporting.
func (e *Engine) Registry() *Registry { return e.registry }

// Submit validates req and queues the operation on its endpoint's
// connection. Validation errors return before anything is queued.
// payload == nil with write == false is a read.
func (e *Engine) Submit(req Request, payload []byte, write bool) (*Operation, error) {
	op, err := req.newOperation(payload, write)
	if err != nil {
		return nil, err
	}

	// held across Enqueue so Shutdown cannot close the connection in between
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}

	c := e.registry.GetOrCreate(req.Endpoint, ConnectionConfig{Timeout: req.Timeout})
	c.Enqueue(op)
	return op, nil
}

// Read returns the raw bytes of the requested range: two per register,
// one per coil or discrete input.
func (e *Engine) Read(ctx context.Context, req Request) ([]byte, error) {
	op, err := e.Submit(req, nil, false)
	if err != nil {
		return nil, err
	}
	return e.wait(ctx, req, op)
}

// Write stores payload at the requested range. len(payload) must equal
// quantity times the kind's width.
func (e *Engine) Write(ctx context.Context, req Request, payload []byte) error {
	if payload == nil {
		payload = []byte{}
	}
	op, err := e.Submit(req, payload, true)
	if err != nil {
		return err
	}
	_, err = e.wait(ctx, req, op)
	return err
}

func (e *Engine) wait(ctx context.Context, req Request, op *Operation) ([]byte, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	return op.Wait(ctx)
}

// Subscribe reads req every interval and reports each result to onValue.
// The first failure goes to onError and ends the subscription.
func (e *Engine) Subscribe(req Request, interval time.Duration, onValue func([]byte), onError func(error)) (Handle, error) {
	if interval <= 0 {
		return Handle{}, ErrInvalidInterval
	}
	// fail fast on a bad descriptor instead of on the first tick
	if _, err := req.newOperation(nil, false); err != nil {
		return Handle{}, err
	}

	h := uuid.New()
	read := func(ctx context.Context) ([]byte, error) {
		return e.Read(ctx, req)
	}
	fail := func(err error) {
		e.mu.Lock()
		delete(e.subs, h)
		e.mu.Unlock()
		if onError != nil {
			onError(err)
		}
	}

	p, err := poller.New(poller.Config{
		Name:     h.String(),
		Interval: interval,
	}, read, onValue, fail, e.log)
	if err != nil {
		return Handle{}, err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Handle{}, ErrClosed
	}
	e.subs[h] = p
	e.mu.Unlock()

	p.Start()
	e.log.Debug().
		Str("subscription", h.String()).
		Str("endpoint", req.Endpoint.String()).
		Dur("interval", interval).
		Msg("subscribed")
	return h, nil
}

// Unsubscribe stops a subscription. No callback runs after it returns.
func (e *Engine) Unsubscribe(h Handle) error {
	e.mu.Lock()
	p, ok := e.subs[h]
	delete(e.subs, h)
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSubscriptionNotFound, h)
	}
	p.Stop()
	return nil
}

// Subscriptions is the number of active subscriptions.
func (e *Engine) Subscriptions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

// Shutdown stops every subscription and closes every connection. Further
// calls fail with ErrClosed.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	subs := e.subs
	e.subs = make(map[Handle]*poller.Poller)
	e.mu.Unlock()

	for _, p := range subs {
		p.Stop()
	}
	for _, p := range subs {
		<-p.Done()
	}
	return e.registry.Shutdown()
}

// Configure creates the connection for ep with a specific policy ahead of
// first use. It returns the existing connection if one is already known.
func (e *Engine) Configure(ep Endpoint, cfg ConnectionConfig) *Connection {
	return e.registry.GetOrCreate(ep, cfg)
}
