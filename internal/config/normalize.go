// internal/config/normalize.go
package config

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	b := &cfg.Binding

	if b.LogLevel == "" {
		b.LogLevel = "info"
	}

	// ------------------------------------------------------------
	// ENDPOINT INHERITANCE (endpoint -> defaults)
	// ------------------------------------------------------------

	for i := range b.Endpoints {
		ep := &b.Endpoints[i]
		ep.ConnectionConfig = ep.ConnectionConfig.inherit(b.Defaults)
	}

	// ------------------------------------------------------------
	// PROPERTY GEOMETRY
	// ------------------------------------------------------------

	for i := range b.Properties {
		p := &b.Properties[i]

		if p.Quantity == 0 {
			p.Quantity = 1
		}
		// Kind is canonicalized so later stages never look at FC for it.
		if kind, err := resolveKind(*p); err == nil {
			p.Kind = kind.String()
		}
	}
}

func (c ConnectionConfig) inherit(def ConnectionConfig) ConnectionConfig {
	if c.TimeoutMs == 0 {
		c.TimeoutMs = def.TimeoutMs
	}
	if c.IdleTimeoutMs == 0 {
		c.IdleTimeoutMs = def.IdleTimeoutMs
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.RetryDelayMs == 0 {
		c.RetryDelayMs = def.RetryDelayMs
	}
	if c.MaxSpan == nil {
		c.MaxSpan = def.MaxSpan
	}
	return c
}
