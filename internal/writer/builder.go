// internal/writer/builder.go
package writer

import (
	"errors"

	cfg "github.com/tamzrod/modbus-binding/internal/config"
)

// BuildPlans converts mirror declarations into one Plan per source.
// Assumes config has already passed Validate and Normalize.
func BuildPlans(b cfg.BindingConfig) (map[string]Plan, error) {
	byName := make(map[string]cfg.PropertyConfig, len(b.Properties))
	for _, p := range b.Properties {
		byName[p.Name] = p
	}

	plans := make(map[string]Plan)
	for _, p := range b.Properties {
		if len(p.Mirror) == 0 {
			continue
		}
		if p.Name == "" {
			return nil, errors.New("writer: source name required")
		}

		plan := Plan{Source: p.Name}
		for _, name := range p.Mirror {
			dst, ok := byName[name]
			if !ok {
				return nil, errors.New("writer: unknown mirror target " + name)
			}
			req, err := b.Request(dst)
			if err != nil {
				return nil, err
			}
			plan.Targets = append(plan.Targets, Target{Name: name, Request: req})
		}
		plans[p.Name] = plan
	}

	return plans, nil
}
