// internal/status/code.go
package status

import "errors"

// Code extracts a best-effort uint16 code from an error without assuming
// concrete types. If the error does not expose a code, returns CodeGeneric.
func Code(err error) uint16 {
	if err == nil {
		return 0
	}

	type coderA interface{ Code() uint16 }
	type coderB interface{ ExceptionCode() uint8 }

	var a coderA
	if errors.As(err, &a) {
		return a.Code()
	}
	var b coderB
	if errors.As(err, &b) {
		return uint16(b.ExceptionCode())
	}

	return CodeGeneric
}
