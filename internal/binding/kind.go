// internal/binding/kind.go
package binding

import (
	"fmt"
	"strings"
)

// RegisterKind is one of the four Modbus data tables.
type RegisterKind uint8

const (
	KindUnknown RegisterKind = iota
	Coil
	DiscreteInput
	HoldingRegister
	InputRegister
)

func (k RegisterKind) String() string {
	switch k {
	case Coil:
		return "coil"
	case DiscreteInput:
		return "discrete_input"
	case HoldingRegister:
		return "holding_register"
	case InputRegister:
		return "input_register"
	default:
		return "unknown"
	}
}

// Width is the number of bytes one element of the kind occupies in a
// transaction buffer. Bits are carried one per byte.
func (k RegisterKind) Width() int {
	switch k {
	case HoldingRegister, InputRegister:
		return 2
	case Coil, DiscreteInput:
		return 1
	default:
		return 0
	}
}

func (k RegisterKind) Writable() bool {
	return k == Coil || k == HoldingRegister
}

func (k RegisterKind) Valid() bool {
	return k >= Coil && k <= InputRegister
}

// ReadFunction returns the function code used to read the kind.
func (k RegisterKind) ReadFunction() Function {
	switch k {
	case Coil:
		return ReadCoils
	case DiscreteInput:
		return ReadDiscreteInputs
	case HoldingRegister:
		return ReadHoldingRegisters
	case InputRegister:
		return ReadInputRegisters
	default:
		return FunctionUnknown
	}
}

// WriteFunction returns the function code used to write quantity elements.
// Read-only kinds return FunctionUnknown.
func (k RegisterKind) WriteFunction(quantity uint16) Function {
	switch k {
	case Coil:
		if quantity == 1 {
			return WriteSingleCoil
		}
		return WriteMultipleCoils
	case HoldingRegister:
		if quantity == 1 {
			return WriteSingleRegister
		}
		return WriteMultipleRegisters
	default:
		return FunctionUnknown
	}
}

// ParseKind accepts the snake_case names returned by String and a few
// common spellings.
func ParseKind(s string) (RegisterKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "coil", "coils":
		return Coil, nil
	case "discrete_input", "discreteinput", "discrete_inputs":
		return DiscreteInput, nil
	case "holding_register", "holdingregister", "holding_registers":
		return HoldingRegister, nil
	case "input_register", "inputregister", "input_registers":
		return InputRegister, nil
	}
	return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Function is a Modbus function code the engine can issue.
type Function uint8

const (
	FunctionUnknown        Function = 0
	ReadCoils              Function = 1
	ReadDiscreteInputs     Function = 2
	ReadHoldingRegisters   Function = 3
	ReadInputRegisters     Function = 4
	WriteSingleCoil        Function = 5
	WriteSingleRegister    Function = 6
	WriteMultipleCoils     Function = 15
	WriteMultipleRegisters Function = 16
)

// ParseFunction resolves a raw function code.
func ParseFunction(code uint8) (Function, error) {
	f := Function(code)
	if f.Kind() == KindUnknown {
		return FunctionUnknown, fmt.Errorf("%w: %d", ErrUnknownFunction, code)
	}
	return f, nil
}

// Kind returns the data table the function operates on.
func (f Function) Kind() RegisterKind {
	switch f {
	case ReadCoils, WriteSingleCoil, WriteMultipleCoils:
		return Coil
	case ReadDiscreteInputs:
		return DiscreteInput
	case ReadHoldingRegisters, WriteSingleRegister, WriteMultipleRegisters:
		return HoldingRegister
	case ReadInputRegisters:
		return InputRegister
	default:
		return KindUnknown
	}
}

func (f Function) IsWrite() bool {
	switch f {
	case WriteSingleCoil, WriteSingleRegister, WriteMultipleCoils, WriteMultipleRegisters:
		return true
	}
	return false
}

func (f Function) single() bool {
	return f == WriteSingleCoil || f == WriteSingleRegister
}

func (f Function) String() string {
	switch f {
	case ReadCoils:
		return "read_coils"
	case ReadDiscreteInputs:
		return "read_discrete_inputs"
	case ReadHoldingRegisters:
		return "read_holding_registers"
	case ReadInputRegisters:
		return "read_input_registers"
	case WriteSingleCoil:
		return "write_single_coil"
	case WriteSingleRegister:
		return "write_single_register"
	case WriteMultipleCoils:
		return "write_multiple_coils"
	case WriteMultipleRegisters:
		return "write_multiple_registers"
	default:
		return fmt.Sprintf("fc(%d)", uint8(f))
	}
}
