// internal/config/config.go
package config

type Config struct {
	Binding BindingConfig `yaml:"binding"`
}

type BindingConfig struct {
	LogLevel   string           `yaml:"log_level"`
	LogFrames  bool             `yaml:"log_frames"`
	Defaults   ConnectionConfig `yaml:"defaults"`
	Endpoints  []EndpointConfig `yaml:"endpoints"`
	Properties []PropertyConfig `yaml:"properties"`
}

// ---- CONNECTION POLICY ----

// ConnectionConfig fields left at zero fall back to the next level:
// endpoint -> defaults -> built-in.
type ConnectionConfig struct {
	TimeoutMs     int     `yaml:"timeout_ms"`
	IdleTimeoutMs int     `yaml:"idle_timeout_ms"`
	MaxRetries    int     `yaml:"max_retries"`
	RetryDelayMs  int     `yaml:"retry_delay_ms"`
	MaxSpan       *uint16 `yaml:"max_span"` // nil => inherit, 0 => unbounded
}

// ---- ENDPOINT ----

type EndpointConfig struct {
	ID               string `yaml:"id"`
	Address          string `yaml:"address"` // host[:port]
	ConnectionConfig `yaml:",inline"`
}

// ---- PROPERTY ----

type PropertyConfig struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"` // EndpointConfig.ID
	UnitID   uint8  `yaml:"unit_id"`

	// Exactly one of Kind / FC is normally given; both must agree if set.
	Kind string `yaml:"kind"`
	FC   uint8  `yaml:"fc"`

	Address  *uint16 `yaml:"address"`
	Quantity uint16  `yaml:"quantity"`

	Observe bool       `yaml:"observe"`
	Poll    PollConfig `yaml:"poll"`

	// Write is applied once at startup when set.
	Write []byte `yaml:"write"`

	// Mirror names writable properties that receive every observed value.
	Mirror []string `yaml:"mirror"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}
