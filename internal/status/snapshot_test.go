// internal/status/snapshot_test.go
package status

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

type exErr struct{ code uint8 }

func (e exErr) Error() string        { return "exception" }
func (e exErr) ExceptionCode() uint8 { return e.code }

type codedErr struct{ code uint16 }

func (e codedErr) Error() string { return "coded" }
func (e codedErr) Code() uint16  { return e.code }

func TestCode(t *testing.T) {
	if got := Code(nil); got != 0 {
		t.Fatalf("Code(nil)=%d", got)
	}
	if got := Code(errors.New("x")); got != CodeGeneric {
		t.Fatalf("plain error code=%d, want %d", got, CodeGeneric)
	}
	if got := Code(fmt.Errorf("wrap: %w", exErr{code: 3})); got != 3 {
		t.Fatalf("exception code=%d, want 3", got)
	}
	if got := Code(codedErr{code: 0x0B00}); got != 0x0B00 {
		t.Fatalf("coded=%d", got)
	}
}

func TestObserveFailureThenSuccess(t *testing.T) {
	var s Snapshot

	if !s.Observe(exErr{code: 2}, time.Now()) {
		t.Fatalf("first failure should report a change")
	}
	if s.Observe(exErr{code: 2}, time.Now()) {
		t.Fatalf("same failure should not report a change")
	}
	if s.Health != HealthError || s.LastErrorCode != 2 || s.ConsecutiveFailures != 2 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}

	now := time.Now()
	if !s.Observe(nil, now) {
		t.Fatalf("recovery should report a change")
	}
	if s.Health != HealthOK || s.LastErrorCode != 0 || s.ConsecutiveFailures != 0 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if !s.LastSuccess.Equal(now) || s.LastError != "" {
		t.Fatalf("success not recorded: %+v", s)
	}
}

func TestOffline(t *testing.T) {
	var s Snapshot
	s.Offline(errors.New("refused"))
	if s.Health != HealthOffline || s.LastErrorCode != CodeGeneric {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if HealthName(s.Health) != "offline" {
		t.Fatalf("HealthName=%q", HealthName(s.Health))
	}
}

func TestFailureCounterDoesNotWrap(t *testing.T) {
	s := Snapshot{ConsecutiveFailures: CounterMax}
	s.Observe(errors.New("x"), time.Now())
	if s.ConsecutiveFailures != CounterMax {
		t.Fatalf("counter wrapped to %d", s.ConsecutiveFailures)
	}
}
