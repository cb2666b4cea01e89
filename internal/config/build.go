// internal/config/build.go
package config

import (
	"fmt"
	"time"

	"github.com/tamzrod/modbus-binding/internal/binding"
)

// Connection converts the millisecond fields into a binding policy.
// Zero fields stay zero so the engine falls back to its defaults.
func (c ConnectionConfig) Connection() binding.ConnectionConfig {
	out := binding.ConnectionConfig{
		Timeout:     time.Duration(c.TimeoutMs) * time.Millisecond,
		IdleTimeout: time.Duration(c.IdleTimeoutMs) * time.Millisecond,
		MaxRetries:  c.MaxRetries,
		RetryDelay:  time.Duration(c.RetryDelayMs) * time.Millisecond,
	}
	if c.MaxSpan != nil {
		out.MaxSpan = *c.MaxSpan
	}
	return out
}

// Endpoint looks up an endpoint by id.
func (b BindingConfig) Endpoint(id string) (EndpointConfig, bool) {
	for _, ep := range b.Endpoints {
		if ep.ID == id {
			return ep, true
		}
	}
	return EndpointConfig{}, false
}

// Request builds the engine request for one property.
// Assumes config has already passed Validate and Normalize.
func (b BindingConfig) Request(p PropertyConfig) (binding.Request, error) {
	ep, ok := b.Endpoint(p.Endpoint)
	if !ok {
		return binding.Request{}, fmt.Errorf("property %q: unknown endpoint %q", p.Name, p.Endpoint)
	}
	addr, err := binding.ParseEndpoint(ep.Address)
	if err != nil {
		return binding.Request{}, fmt.Errorf("property %q: %w", p.Name, err)
	}
	kind, err := resolveKind(p)
	if err != nil {
		return binding.Request{}, fmt.Errorf("property %q: %w", p.Name, err)
	}

	req := binding.Request{
		Endpoint: addr,
		UnitID:   p.UnitID,
		Kind:     kind,
		Address:  p.Address,
		Quantity: p.Quantity,
		Timeout:  time.Duration(ep.TimeoutMs) * time.Millisecond,
	}
	// Function stays zero: the engine derives it per direction, so one
	// request serves both reads and writes of the property.
	return req, nil
}

// Interval is the poll interval of a property.
func (p PropertyConfig) Interval() time.Duration {
	return time.Duration(p.Poll.IntervalMs) * time.Millisecond
}
