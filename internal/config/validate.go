// internal/config/validate.go
package config

import (
	"errors"
	"fmt"

	"github.com/tamzrod/modbus-binding/internal/binding"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	b := cfg.Binding

	if err := validateConnection("defaults", b.Defaults); err != nil {
		return err
	}

	// ------------------------------------------------------------
	// ENDPOINTS
	// ------------------------------------------------------------

	endpoints := make(map[string]struct{}, len(b.Endpoints))
	for _, ep := range b.Endpoints {
		if ep.ID == "" {
			return fmt.Errorf("endpoint %q: id required", ep.Address)
		}
		if _, exists := endpoints[ep.ID]; exists {
			return fmt.Errorf("endpoint %q: duplicate id", ep.ID)
		}
		endpoints[ep.ID] = struct{}{}

		if _, err := binding.ParseEndpoint(ep.Address); err != nil {
			return fmt.Errorf("endpoint %q: %w", ep.ID, err)
		}
		if err := validateConnection("endpoint "+ep.ID, ep.ConnectionConfig); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------
	// PROPERTIES
	// ------------------------------------------------------------

	names := make(map[string]struct{}, len(b.Properties))
	for _, p := range b.Properties {
		if p.Name == "" {
			return errors.New("property: name required")
		}
		if _, exists := names[p.Name]; exists {
			return fmt.Errorf("property %q: duplicate name", p.Name)
		}
		names[p.Name] = struct{}{}

		if _, ok := endpoints[p.Endpoint]; !ok {
			return fmt.Errorf("property %q: unknown endpoint %q", p.Name, p.Endpoint)
		}
		if p.Address == nil {
			return fmt.Errorf("property %q: %w", p.Name, binding.ErrMissingAddress)
		}

		kind, err := resolveKind(p)
		if err != nil {
			return fmt.Errorf("property %q: %w", p.Name, err)
		}

		qty := quantity(p)
		if int(*p.Address)+int(qty) > 65536 {
			return fmt.Errorf("property %q: %w", p.Name, binding.ErrRangeOverflow)
		}

		if p.Write != nil {
			if !kind.Writable() {
				return fmt.Errorf("property %q: %w: %s", p.Name, binding.ErrReadOnlyKind, kind)
			}
			if want := int(qty) * kind.Width(); len(p.Write) != want {
				return fmt.Errorf("property %q: %w: got %d bytes, want %d", p.Name, binding.ErrPayloadLength, len(p.Write), want)
			}
		}

		if p.Poll.IntervalMs < 0 {
			return fmt.Errorf("property %q: poll.interval_ms must be >= 0", p.Name)
		}
		if p.Observe && p.Poll.IntervalMs == 0 {
			return fmt.Errorf("property %q: observe requires poll.interval_ms > 0", p.Name)
		}
	}

	// ------------------------------------------------------------
	// MIRROR TARGETS (second pass: all names known)
	// ------------------------------------------------------------

	byName := make(map[string]PropertyConfig, len(b.Properties))
	for _, p := range b.Properties {
		byName[p.Name] = p
	}
	for _, p := range b.Properties {
		if len(p.Mirror) == 0 {
			continue
		}
		if !p.Observe {
			return fmt.Errorf("property %q: mirror requires observe", p.Name)
		}
		srcKind, _ := resolveKind(p)
		srcBytes := int(quantity(p)) * srcKind.Width()

		for _, name := range p.Mirror {
			dst, ok := byName[name]
			if !ok {
				return fmt.Errorf("property %q: unknown mirror target %q", p.Name, name)
			}
			if name == p.Name {
				return fmt.Errorf("property %q: cannot mirror onto itself", p.Name)
			}
			dstKind, _ := resolveKind(dst)
			if !dstKind.Writable() {
				return fmt.Errorf("property %q: mirror target %q: %w", p.Name, name, binding.ErrReadOnlyKind)
			}
			if dstBytes := int(quantity(dst)) * dstKind.Width(); dstBytes != srcBytes {
				return fmt.Errorf(
					"property %q: mirror target %q holds %d bytes, source has %d",
					p.Name,
					name,
					dstBytes,
					srcBytes,
				)
			}
		}
	}

	return nil
}

func quantity(p PropertyConfig) uint16 {
	if p.Quantity == 0 {
		return 1
	}
	return p.Quantity
}

func validateConnection(where string, c ConnectionConfig) error {
	if c.TimeoutMs < 0 || c.IdleTimeoutMs < 0 || c.RetryDelayMs < 0 {
		return fmt.Errorf("%s: durations must be >= 0", where)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%s: max_retries must be >= 0", where)
	}
	return nil
}

// resolveKind derives the register kind from kind and/or fc.
// When both are given they must agree.
func resolveKind(p PropertyConfig) (binding.RegisterKind, error) {
	var kind binding.RegisterKind
	if p.Kind != "" {
		k, err := binding.ParseKind(p.Kind)
		if err != nil {
			return binding.KindUnknown, err
		}
		kind = k
	}
	if p.FC != 0 {
		fn, err := binding.ParseFunction(p.FC)
		if err != nil {
			return binding.KindUnknown, err
		}
		if kind != binding.KindUnknown && kind != fn.Kind() {
			return binding.KindUnknown, fmt.Errorf("%w: fc %d on %s", binding.ErrFunctionKindMismatch, p.FC, kind)
		}
		kind = fn.Kind()
	}
	if kind == binding.KindUnknown {
		return binding.KindUnknown, fmt.Errorf("%w: kind or fc required", binding.ErrUnknownKind)
	}
	return kind, nil
}
