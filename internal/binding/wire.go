// internal/binding/wire.go
package binding

import "time"

// Wire abstracts the Modbus primitives the engine needs.
// Implementations are never called concurrently by a Connection.
//
// Bit tables (coils, discrete inputs) are carried one element per byte:
// Read returns 0x00/0x01 per bit and Write accepts the same layout.
type Wire interface {
	Read(unit uint8, fn Function, base, length uint16) ([]byte, error)
	Write(unit uint8, fn Function, base, length uint16, payload []byte) error
	Close() error
}

// DialFunc opens one socket to endpoint. ONE attempt per call; the
// Connection owns retries.
type DialFunc func(endpoint string, timeout time.Duration) (Wire, error)

// exceptionError is implemented by device exception responses. Those leave
// the socket usable; any other execution error drops it.
type exceptionError interface {
	ExceptionCode() uint8
}
