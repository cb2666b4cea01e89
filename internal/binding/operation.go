// internal/binding/operation.go
package binding

import "context"

// Operation is one logical read or write waiting for its transaction.
// It completes exactly once.
type Operation struct {
	unit     uint8
	kind     RegisterKind
	function Function
	base     uint16
	length   uint16
	payload  []byte // nil for reads

	done   chan struct{}
	result []byte
	err    error
}

func newOperation(unit uint8, kind RegisterKind, fn Function, base, length uint16, payload []byte) *Operation {
	return &Operation{
		unit:     unit,
		kind:     kind,
		function: fn,
		base:     base,
		length:   length,
		payload:  payload,
		done:     make(chan struct{}),
	}
}

func (op *Operation) isWrite() bool { return op.function.IsWrite() }

// Wait blocks until the operation completes or ctx ends. A ctx error does
// not cancel the underlying transaction.
func (op *Operation) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-op.done:
		return op.result, op.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (op *Operation) resolve(data []byte) {
	op.result = data
	close(op.done)
}

func (op *Operation) reject(err error) {
	op.err = err
	close(op.done)
}

// extract copies this operation's share out of a transaction response
// already verified to cover the whole range.
func (op *Operation) extract(txBase uint16, data []byte) []byte {
	w := op.kind.Width()
	start := int(op.base-txBase) * w
	out := make([]byte, int(op.length)*w)
	copy(out, data[start:])
	return out
}
