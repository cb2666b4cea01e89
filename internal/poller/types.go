// internal/poller/types.go
package poller

import (
	"context"
	"time"
)

// ReadFunc performs one read. It must return once ctx is cancelled.
type ReadFunc func(ctx context.Context) ([]byte, error)

// Config is the minimal runtime config the poller needs.
type Config struct {
	Name     string
	Interval time.Duration
}

// ValueFunc receives every successful read.
type ValueFunc func(data []byte)

// ErrorFunc receives the first failed read. Polling has stopped by then.
type ErrorFunc func(err error)
