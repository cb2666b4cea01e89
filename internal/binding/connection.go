// internal/binding/connection.go
package binding

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-binding/internal/status"
)

// State is the socket state of a Connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// Default connection policy.
const (
	DefaultTimeout     = 1 * time.Second
	DefaultIdleTimeout = 60 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
)

// ConnectionConfig is the per-endpoint policy.
type ConnectionConfig struct {
	// Timeout applies to dialing and to every wire call.
	Timeout time.Duration

	// IdleTimeout closes the socket after this long without a successful
	// transaction. Zero or negative keeps it open.
	IdleTimeout time.Duration

	// MaxRetries is the number of connect attempts before queued
	// operations are failed. Values below 1 mean one attempt.
	MaxRetries int

	// RetryDelay is the wait between failed connect attempts.
	RetryDelay time.Duration

	// MaxSpan bounds the number of elements one merged transaction may
	// cover. Zero leaves merging unbounded.
	MaxSpan uint16
}

// DefaultConnectionConfig returns the built-in policy.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		Timeout:     DefaultTimeout,
		IdleTimeout: DefaultIdleTimeout,
		MaxRetries:  DefaultMaxRetries,
		RetryDelay:  DefaultRetryDelay,
	}
}

// merge fills zero fields of c from def.
func (c ConnectionConfig) merge(def ConnectionConfig) ConnectionConfig {
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = def.IdleTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = def.RetryDelay
	}
	if c.MaxSpan == 0 {
		c.MaxSpan = def.MaxSpan
	}
	return c
}

// Connection owns the socket to one endpoint and a FIFO of pending
// transactions. At most one transaction is on the wire at any time.
type Connection struct {
	endpoint Endpoint
	cfg      ConnectionConfig
	dial     DialFunc
	log      zerolog.Logger

	mu           sync.Mutex
	state        State
	wire         Wire
	executing    *Transaction
	queue        []*Transaction // pending only; the executing one is not here
	gen          uint64         // bumped by Close
	idle         *time.Timer
	lastActivity time.Time
	snap         status.Snapshot
}

func newConnection(ep Endpoint, cfg ConnectionConfig, dial DialFunc, log zerolog.Logger) *Connection {
	return &Connection{
		endpoint: ep,
		cfg:      cfg,
		dial:     dial,
		log:      log.With().Str("endpoint", ep.String()).Logger(),
	}
}

func (c *Connection) Endpoint() Endpoint { return c.endpoint }

func (c *Connection) Config() ConnectionConfig { return c.cfg }

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns a copy of the connection health.
func (c *Connection) Status() status.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Pending is the number of queued, not yet executing transactions.
func (c *Connection) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Enqueue merges op into a pending transaction or queues a new one, then
// kicks the transaction loop. It never blocks on I/O.
func (c *Connection) Enqueue(op *Operation) {
	c.mu.Lock()
	c.coalesce(op)
	c.mu.Unlock()

	go c.trigger()
}

// coalesce is a linear first-match scan in queue order. Caller holds mu.
func (c *Connection) coalesce(op *Operation) {
	for _, t := range c.queue {
		if t.merge(op, c.cfg.MaxSpan) {
			c.log.Debug().
				Uint16("base", t.base).
				Uint16("length", t.length).
				Int("ops", len(t.ops)).
				Msg("operation merged into pending transaction")
			return
		}
	}
	c.queue = append(c.queue, newTransaction(op))
}

// trigger advances the connection until there is nothing it can do.
// Safe to call from any number of goroutines: only one of them ever holds
// the Connecting state or the executing marker.
func (c *Connection) trigger() {
	for {
		c.mu.Lock()

		switch {
		case c.state == Disconnected && len(c.queue) > 0:
			c.state = Connecting
			gen := c.gen
			c.mu.Unlock()

			w, err := c.connect()

			c.mu.Lock()
			if gen != c.gen {
				// closed while dialing
				c.mu.Unlock()
				if w != nil {
					_ = w.Close()
				}
				continue
			}
			if err != nil {
				failed := c.queue
				c.queue = nil
				c.state = Disconnected
				c.snap.Offline(err)
				c.mu.Unlock()

				c.log.Error().Err(err).Int("transactions", len(failed)).Msg("connect retries exhausted")
				for _, t := range failed {
					t.fail(err)
				}
				// anything queued after the failure gets a fresh attempt
				continue
			}
			c.wire = w
			c.state = Connected
			c.touchLocked()
			c.mu.Unlock()

		case c.state == Connected && c.executing == nil && len(c.queue) > 0:
			t := c.queue[0]
			c.queue[0] = nil
			c.queue = c.queue[1:]
			c.executing = t
			w := c.wire
			c.mu.Unlock()

			data, err := c.execute(w, t)
			if err == nil {
				// a merged transaction succeeds or fails as a whole
				err = t.verify(data)
			}

			c.mu.Lock()
			c.executing = nil
			c.snap.Observe(err, time.Now())
			if err == nil {
				c.touchLocked()
			} else if !isException(err) && c.wire == w {
				// transport level failure: do not reuse the socket
				c.dropLocked()
			}
			c.mu.Unlock()

			if err != nil {
				c.log.Warn().Err(err).
					Str("function", t.Function().String()).
					Uint16("base", t.base).
					Uint16("length", t.length).
					Msg("transaction failed")
				t.fail(err)
			} else {
				t.complete(data)
			}

		default:
			c.mu.Unlock()
			return
		}
	}
}

func (c *Connection) execute(w Wire, t *Transaction) ([]byte, error) {
	fn := t.Function()
	c.log.Debug().
		Uint8("unit", t.unit).
		Str("function", fn.String()).
		Uint16("base", t.base).
		Uint16("length", t.length).
		Int("ops", len(t.ops)).
		Msg("executing transaction")

	if t.write {
		return nil, w.Write(t.unit, fn, t.base, t.length, t.payload)
	}
	return w.Read(t.unit, fn, t.base, t.length)
}

// connect dials up to MaxRetries times, sleeping RetryDelay between
// failures.
func (c *Connection) connect() (Wire, error) {
	attempts := c.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var last error
	for i := 1; i <= attempts; i++ {
		w, err := c.dial(c.endpoint.String(), c.cfg.Timeout)
		if err == nil {
			c.log.Info().Int("attempt", i).Msg("connected")
			return w, nil
		}
		last = err
		c.log.Warn().Err(err).Int("attempt", i).Int("max", attempts).Msg("connect attempt failed")

		if i < attempts && c.cfg.RetryDelay > 0 {
			time.Sleep(c.cfg.RetryDelay)
		}
	}

	return nil, &ConnectionError{
		Endpoint: c.endpoint.String(),
		Attempts: attempts,
		Err:      last,
	}
}

// touchLocked records activity and re-arms the idle timer. Caller holds mu.
func (c *Connection) touchLocked() {
	c.lastActivity = time.Now()
	if c.cfg.IdleTimeout <= 0 {
		return
	}
	if c.idle == nil {
		c.idle = time.AfterFunc(c.cfg.IdleTimeout, c.closeIdle)
	} else {
		c.idle.Reset(c.cfg.IdleTimeout)
	}
}

// closeIdle closes the socket if nothing happened for IdleTimeout.
func (c *Connection) closeIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Connected {
		return
	}
	if c.executing != nil || len(c.queue) > 0 {
		// busy: look again later, the transaction may still fail
		c.idle.Reset(c.cfg.IdleTimeout)
		return
	}
	idle := time.Since(c.lastActivity)
	if idle < c.cfg.IdleTimeout {
		c.idle.Reset(c.cfg.IdleTimeout - idle)
		return
	}

	c.log.Info().Dur("idle", idle).Msg("closing connection due to idle timeout")
	c.dropLocked()
}

// dropLocked closes the socket and returns to Disconnected. Caller holds mu.
func (c *Connection) dropLocked() {
	if c.wire != nil {
		if err := c.wire.Close(); err != nil {
			c.log.Debug().Err(err).Msg("error closing socket")
		}
		c.wire = nil
	}
	c.state = Disconnected
}

// Close stops the idle timer, closes the socket and fails every queued
// transaction with ErrClosed. A transaction already on the wire finishes
// on its own. The connection stays usable: a later Enqueue reconnects.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.idle != nil {
		c.idle.Stop()
	}
	w := c.wire
	c.wire = nil
	c.state = Disconnected
	c.gen++
	failed := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, t := range failed {
		t.fail(ErrClosed)
	}
	// outside the lock: the wire may be busy until its timeout
	if w != nil {
		return w.Close()
	}
	return nil
}

func isException(err error) bool {
	var ex exceptionError
	return errors.As(err, &ex)
}
