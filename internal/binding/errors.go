// internal/binding/errors.go
package binding

import (
	"errors"
	"fmt"
)

// Validation errors. Returned synchronously, before anything is queued.
var (
	ErrMissingAddress       = errors.New("binding: address required")
	ErrUnknownKind          = errors.New("binding: unknown register kind")
	ErrUnknownFunction      = errors.New("binding: unknown function code")
	ErrFunctionKindMismatch = errors.New("binding: function does not match register kind")
	ErrReadOnlyKind         = errors.New("binding: register kind is read-only")
	ErrPayloadLength        = errors.New("binding: payload length does not match quantity")
	ErrRangeOverflow        = errors.New("binding: address range exceeds 65535")
	ErrInvalidInterval      = errors.New("binding: polling interval must be > 0")
	ErrMissingEndpoint      = errors.New("binding: endpoint required")
)

var (
	// ErrConnection matches every *ConnectionError via errors.Is.
	ErrConnection = errors.New("binding: connection failed")

	ErrClosed               = errors.New("binding: engine closed")
	ErrSubscriptionNotFound = errors.New("binding: subscription not found")
	ErrShortResponse        = errors.New("binding: response shorter than requested range")
)

// ConnectionError is delivered to every queued operation once the
// connect retry budget is spent.
type ConnectionError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("binding: connect %s failed after %d attempt(s): %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }
