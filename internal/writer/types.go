// internal/writer/types.go
package writer

import "github.com/tamzrod/modbus-binding/internal/binding"

// Target is one writable property receiving mirrored values.
type Target struct {
	Name    string
	Request binding.Request
}

// Plan maps a source property to the targets its values are copied to.
type Plan struct {
	Source  string
	Targets []Target
}

// engineWriter is the exact contract the writer uses.
type engineWriter interface {
	Submit(req binding.Request, payload []byte, write bool) (*binding.Operation, error)
}
