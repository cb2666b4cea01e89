// internal/binding/request.go
package binding

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// DefaultPort is the registered Modbus/TCP port.
const DefaultPort = 502

// Endpoint identifies one physical device socket.
type Endpoint struct {
	Host string
	Port int
}

// ParseEndpoint accepts "host" or "host:port".
func ParseEndpoint(s string) (Endpoint, error) {
	if s == "" {
		return Endpoint{}, ErrMissingEndpoint
	}
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// no port given
		return Endpoint{Host: s, Port: DefaultPort}, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Endpoint{}, fmt.Errorf("binding: invalid port in %q", s)
	}
	return Endpoint{Host: host, Port: port}, nil
}

// String is the registry key.
func (e Endpoint) String() string {
	port := e.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(port))
}

// Request is an already parsed property access. Function may be left zero,
// in which case it is derived from Kind and the direction of the call.
type Request struct {
	Endpoint Endpoint
	UnitID   uint8
	Kind     RegisterKind
	Function Function
	Address  *uint16
	Quantity uint16

	// Timeout bounds how long Read/Write wait for completion. Zero leaves
	// the wait to the caller's context; each wire call is still bounded by
	// the connection's Timeout.
	Timeout time.Duration
}

// Addr is a convenience for building requests inline.
func Addr(a uint16) *uint16 { return &a }

// newOperation validates the request and builds the operation it describes.
// payload == nil means read.
func (r Request) newOperation(payload []byte, write bool) (*Operation, error) {
	if r.Endpoint.Host == "" {
		return nil, ErrMissingEndpoint
	}
	if r.Address == nil {
		return nil, ErrMissingAddress
	}

	kind := r.Kind
	if r.Function != FunctionUnknown {
		fk := r.Function.Kind()
		if fk == KindUnknown {
			return nil, fmt.Errorf("%w: %d", ErrUnknownFunction, uint8(r.Function))
		}
		if kind == KindUnknown {
			kind = fk
		} else if kind != fk {
			return nil, fmt.Errorf("%w: %s on %s", ErrFunctionKindMismatch, r.Function, kind)
		}
		if r.Function.IsWrite() != write {
			return nil, fmt.Errorf("%w: %s used for %s", ErrFunctionKindMismatch, r.Function, direction(write))
		}
	}
	if !kind.Valid() {
		return nil, ErrUnknownKind
	}

	qty := r.Quantity
	if qty == 0 {
		qty = 1
	}
	base := *r.Address
	if int(base)+int(qty) > 65536 {
		return nil, fmt.Errorf("%w: address=%d quantity=%d", ErrRangeOverflow, base, qty)
	}

	fn := r.Function
	if write {
		if !kind.Writable() {
			return nil, fmt.Errorf("%w: %s", ErrReadOnlyKind, kind)
		}
		if want := int(qty) * kind.Width(); len(payload) != want {
			return nil, fmt.Errorf("%w: got %d bytes, want %d (%d x %s)", ErrPayloadLength, len(payload), want, qty, kind)
		}
		if fn == FunctionUnknown {
			fn = kind.WriteFunction(qty)
		}
		if fn.single() && qty != 1 {
			return nil, fmt.Errorf("%w: %s with quantity %d", ErrFunctionKindMismatch, fn, qty)
		}
	} else if fn == FunctionUnknown {
		fn = kind.ReadFunction()
	}

	op := newOperation(r.UnitID, kind, fn, base, qty, nil)
	if write {
		op.payload = append([]byte(nil), payload...)
	}
	return op, nil
}

func direction(write bool) string {
	if write {
		return "write"
	}
	return "read"
}
