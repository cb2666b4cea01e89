// internal/writer/writer.go
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/modbus-binding/internal/binding"
)

// Writer copies one observed value into every target of its plan.
// All targets are queued before any is awaited so adjacent targets on one
// endpoint coalesce into a single transaction.
type Writer struct {
	plan Plan
	eng  engineWriter
}

func New(plan Plan, eng engineWriter) *Writer {
	return &Writer{
		plan: plan,
		eng:  eng,
	}
}

// Write delivers data to every target. Failures are collected, never
// short-circuited: one bad target does not starve the others.
func (w *Writer) Write(ctx context.Context, data []byte) error {
	var errs []string

	type queued struct {
		tgt Target
		op  *binding.Operation
	}
	ops := make([]queued, 0, len(w.plan.Targets))

	for _, tgt := range w.plan.Targets {
		op, err := w.eng.Submit(tgt.Request, data, true)
		if err != nil {
			errs = append(errs, w.describe(tgt, err))
			continue
		}
		ops = append(ops, queued{tgt: tgt, op: op})
	}

	for _, q := range ops {
		if _, err := q.op.Wait(ctx); err != nil {
			errs = append(errs, w.describe(q.tgt, err))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}

func (w *Writer) describe(t Target, err error) string {
	var addr uint16
	if t.Request.Address != nil {
		addr = *t.Request.Address
	}
	return fmt.Sprintf(
		"writer: src=%s dst=%s unit=%d addr=%d err=%v",
		w.plan.Source, t.Name, t.Request.UnitID, addr, err,
	)
}
