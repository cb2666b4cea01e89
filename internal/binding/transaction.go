// internal/binding/transaction.go
package binding

import "fmt"

// Transaction is one wire request/response covering one or more operations
// over a single contiguous range.
type Transaction struct {
	unit    uint8
	kind    RegisterKind
	write   bool
	single  bool // caller asked for a single-element write function
	base    uint16
	length  uint16
	payload []byte

	ops []*Operation
}

func newTransaction(op *Operation) *Transaction {
	t := &Transaction{
		unit:   op.unit,
		kind:   op.kind,
		write:  op.isWrite(),
		single: op.function.single(),
		base:   op.base,
		length: op.length,
		ops:    []*Operation{op},
	}
	if t.write {
		t.payload = append([]byte(nil), op.payload...)
	}
	return t
}

// Function is the function code actually sent on the wire. Merged writes
// always use the multiple-element form.
func (t *Transaction) Function() Function {
	if !t.write {
		return t.kind.ReadFunction()
	}
	if t.single && t.length == 1 {
		return t.kind.WriteFunction(1)
	}
	switch t.kind {
	case Coil:
		return WriteMultipleCoils
	default:
		return WriteMultipleRegisters
	}
}

func (t *Transaction) compatible(op *Operation) bool {
	return t.unit == op.unit && t.kind == op.kind && t.write == op.isWrite()
}

// merge links op into t when op is directly adjacent to t's range.
// maxSpan == 0 disables the size bound.
func (t *Transaction) merge(op *Operation, maxSpan uint16) bool {
	if !t.compatible(op) {
		return false
	}
	total := int(t.length) + int(op.length)
	if total > 0xFFFF || (maxSpan > 0 && total > int(maxSpan)) {
		return false
	}

	switch {
	case int(op.base) == int(t.base)+int(t.length):
		// append
		t.length += op.length
		if t.write {
			t.payload = append(t.payload, op.payload...)
		}
	case int(op.base)+int(op.length) == int(t.base):
		// prepend
		t.base -= op.length
		t.length += op.length
		if t.write {
			p := make([]byte, 0, len(op.payload)+len(t.payload))
			p = append(p, op.payload...)
			t.payload = append(p, t.payload...)
		}
	default:
		return false
	}

	t.single = false
	t.ops = append(t.ops, op)
	return true
}

// verify checks that a read response covers the whole range. Writes carry
// no data.
func (t *Transaction) verify(data []byte) error {
	if t.write {
		return nil
	}
	if want := int(t.length) * t.kind.Width(); len(data) != want {
		return fmt.Errorf("%w: need %d bytes, got %d", ErrShortResponse, want, len(data))
	}
	return nil
}

// complete distributes a successful response to every operation. A
// response that does not cover the range fails all of them.
func (t *Transaction) complete(data []byte) {
	if err := t.verify(data); err != nil {
		t.fail(err)
		return
	}
	for _, op := range t.ops {
		if t.write {
			op.resolve(nil)
			continue
		}
		op.resolve(op.extract(t.base, data))
	}
}

// fail rejects every operation with the same error.
func (t *Transaction) fail(err error) {
	for _, op := range t.ops {
		op.reject(err)
	}
}
