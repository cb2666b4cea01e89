// internal/binding/modbus/errors.go
package modbus

import (
	"errors"
	"fmt"

	"github.com/goburrow/modbus"
)

// ExceptionError is a device exception response. The socket stays usable
// after one.
type ExceptionError struct {
	Function  uint8
	Exception uint8
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus exception: fc=%d code=%d (%s)", e.Function, e.Exception, exceptionName(e.Exception))
}

// ExceptionCode lets callers classify the error without importing this
// package.
func (e *ExceptionError) ExceptionCode() uint8 { return e.Exception }

func translate(err error) error {
	if err == nil {
		return nil
	}
	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return &ExceptionError{
			Function:  me.FunctionCode & 0x7F,
			Exception: me.ExceptionCode,
		}
	}
	return err
}

func exceptionName(code uint8) string {
	switch code {
	case modbus.ExceptionCodeIllegalFunction:
		return "illegal function"
	case modbus.ExceptionCodeIllegalDataAddress:
		return "illegal data address"
	case modbus.ExceptionCodeIllegalDataValue:
		return "illegal data value"
	case modbus.ExceptionCodeServerDeviceFailure:
		return "server device failure"
	case modbus.ExceptionCodeAcknowledge:
		return "acknowledge"
	case modbus.ExceptionCodeServerDeviceBusy:
		return "server device busy"
	case modbus.ExceptionCodeMemoryParityError:
		return "memory parity error"
	case modbus.ExceptionCodeGatewayPathUnavailable:
		return "gateway path unavailable"
	case modbus.ExceptionCodeGatewayTargetDeviceFailedToRespond:
		return "gateway target device failed to respond"
	default:
		return "unknown"
	}
}
