// internal/status/snapshot.go
package status

import "time"

// Snapshot is the health of one connection as seen by its transaction loop.
// It contains no logic beyond folding in the latest outcome.
type Snapshot struct {
	Health              uint16
	LastErrorCode       uint16
	ConsecutiveFailures uint16
	LastSuccess         time.Time
	LastError           string
}

// Observe folds one outcome into the snapshot and reports whether the
// health or error code changed.
func (s *Snapshot) Observe(err error, at time.Time) bool {
	if err == nil {
		changed := s.Health != HealthOK || s.LastErrorCode != 0

		s.Health = HealthOK
		s.LastErrorCode = 0
		s.ConsecutiveFailures = 0
		s.LastSuccess = at
		s.LastError = ""
		return changed
	}

	return s.fail(HealthError, err)
}

// Offline records an exhausted connect budget.
func (s *Snapshot) Offline(err error) bool {
	return s.fail(HealthOffline, err)
}

func (s *Snapshot) fail(health uint16, err error) bool {
	code := Code(err)
	changed := s.Health != health || s.LastErrorCode != code

	s.Health = health
	s.LastErrorCode = code
	s.LastError = err.Error()
	// HARD INVARIANT: failure counter MUST NOT wrap
	if s.ConsecutiveFailures < CounterMax {
		s.ConsecutiveFailures++
	}
	return changed
}

// HealthName renders a health code for logs.
func HealthName(h uint16) string {
	switch h {
	case HealthUnknown:
		return "unknown"
	case HealthOK:
		return "ok"
	case HealthError:
		return "error"
	case HealthOffline:
		return "offline"
	default:
		return "invalid"
	}
}
