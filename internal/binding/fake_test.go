// internal/binding/fake_test.go
package binding

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ---- fake wire ----

type wireCall struct {
	unit    uint8
	fn      Function
	base    uint16
	length  uint16
	payload []byte
}

type fakeWire struct {
	mu       sync.Mutex
	calls    []wireCall
	inFlight int
	overlap  bool
	closed   bool

	delay     time.Duration
	started   chan wireCall // optional: receives every call as it starts
	block     chan struct{} // optional: every call waits for this
	closeGate chan struct{} // optional: Close waits for this

	// readFn overrides the default response (register index as value,
	// bit = address parity).
	readFn  func(c wireCall) ([]byte, error)
	writeFn func(c wireCall) error
}

func (w *fakeWire) begin(c wireCall) {
	w.mu.Lock()
	w.calls = append(w.calls, c)
	w.inFlight++
	if w.inFlight > 1 {
		w.overlap = true
	}
	w.mu.Unlock()

	if w.started != nil {
		w.started <- c
	}
	if w.block != nil {
		<-w.block
	}
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
}

func (w *fakeWire) end() {
	w.mu.Lock()
	w.inFlight--
	w.mu.Unlock()
}

func (w *fakeWire) Read(unit uint8, fn Function, base, length uint16) ([]byte, error) {
	c := wireCall{unit: unit, fn: fn, base: base, length: length}
	w.begin(c)
	defer w.end()

	if w.readFn != nil {
		return w.readFn(c)
	}
	return defaultResponse(fn.Kind(), base, length), nil
}

func (w *fakeWire) Write(unit uint8, fn Function, base, length uint16, payload []byte) error {
	c := wireCall{unit: unit, fn: fn, base: base, length: length, payload: append([]byte(nil), payload...)}
	w.begin(c)
	defer w.end()

	if w.writeFn != nil {
		return w.writeFn(c)
	}
	return nil
}

func (w *fakeWire) Close() error {
	if w.closeGate != nil {
		<-w.closeGate
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWire) Calls() []wireCall {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]wireCall(nil), w.calls...)
}

func (w *fakeWire) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *fakeWire) Overlapped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.overlap
}

// defaultResponse encodes register i as big-endian uint16(i) and bit i as
// i%2.
func defaultResponse(kind RegisterKind, base, length uint16) []byte {
	if kind.Width() == 1 {
		out := make([]byte, length)
		for i := range out {
			out[i] = byte((int(base) + i) % 2)
		}
		return out
	}
	out := make([]byte, 2*int(length))
	for i := 0; i < int(length); i++ {
		v := int(base) + i
		out[2*i] = byte(v >> 8)
		out[2*i+1] = byte(v)
	}
	return out
}

// ---- fake dialer ----

type fakeDialer struct {
	mu       sync.Mutex
	attempts int
	fail     int // attempts to fail before succeeding; < 0 fails forever
	gate     chan struct{}
	wires    []*fakeWire
	newWire  func() *fakeWire
}

var errRefused = errors.New("connection refused")

func (d *fakeDialer) Dial(endpoint string, timeout time.Duration) (Wire, error) {
	if d.gate != nil {
		<-d.gate
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.attempts++
	if d.fail < 0 || d.attempts <= d.fail {
		return nil, fmt.Errorf("dial %s: %w", endpoint, errRefused)
	}

	w := &fakeWire{}
	if d.newWire != nil {
		w = d.newWire()
	}
	d.wires = append(d.wires, w)
	return w, nil
}

func (d *fakeDialer) Attempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.attempts
}

func (d *fakeDialer) Wire(i int) *fakeWire {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.wires) {
		return nil
	}
	return d.wires[i]
}

// setFail changes how many of the total attempts fail.
func (d *fakeDialer) setFail(n int) {
	d.mu.Lock()
	d.fail = n
	d.mu.Unlock()
}

// ---- helpers ----

var testEndpoint = Endpoint{Host: "127.0.0.1", Port: 1502}

func testConfig() ConnectionConfig {
	return ConnectionConfig{
		Timeout:     time.Second,
		IdleTimeout: time.Minute,
		MaxRetries:  3,
		RetryDelay:  time.Millisecond,
	}
}

func testConnection(d *fakeDialer, cfg ConnectionConfig) *Connection {
	return newConnection(testEndpoint, cfg, d.Dial, zerolog.Nop())
}

func readOp(unit uint8, kind RegisterKind, base, length uint16) *Operation {
	return newOperation(unit, kind, kind.ReadFunction(), base, length, nil)
}

func writeOp(unit uint8, kind RegisterKind, base uint16, payload []byte) *Operation {
	length := uint16(len(payload) / kind.Width())
	return newOperation(unit, kind, kind.WriteFunction(length), base, length, payload)
}

type exception struct{ code uint8 }

func (e *exception) Error() string        { return fmt.Sprintf("exception %d", e.code) }
func (e *exception) ExceptionCode() uint8 { return e.code }
