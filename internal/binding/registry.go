// internal/binding/registry.go
package binding

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Registry keeps one Connection per endpoint for the life of the process.
// There is no eviction; Shutdown closes everything it holds.
type Registry struct {
	dial     DialFunc
	defaults ConnectionConfig
	log      zerolog.Logger

	mu    sync.Mutex
	conns map[string]*Connection
}

// NewRegistry creates an empty registry. Zero fields of defaults fall back
// to DefaultConnectionConfig.
func NewRegistry(dial DialFunc, defaults ConnectionConfig, log zerolog.Logger) *Registry {
	return &Registry{
		dial:     dial,
		defaults: defaults.merge(DefaultConnectionConfig()),
		log:      log,
		conns:    make(map[string]*Connection),
	}
}

// GetOrCreate returns the Connection for ep, creating it with cfg (zero
// fields taken from the registry defaults) on first use. cfg is ignored for
// an existing connection.
func (r *Registry) GetOrCreate(ep Endpoint, cfg ConnectionConfig) *Connection {
	key := ep.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.conns[key]; ok {
		return c
	}
	c := newConnection(ep, cfg.merge(r.defaults), r.dial, r.log)
	r.conns[key] = c
	r.log.Debug().Str("endpoint", key).Msg("connection created")
	return c
}

// Len is the number of known endpoints.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Connections returns a snapshot sorted by endpoint key.
func (r *Registry) Connections() []*Connection {
	r.mu.Lock()
	out := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].endpoint.String() < out[j].endpoint.String()
	})
	return out
}

// Shutdown closes every connection. The first close error is returned.
func (r *Registry) Shutdown() error {
	var g errgroup.Group
	for _, c := range r.Connections() {
		c := c
		g.Go(c.Close)
	}
	return g.Wait()
}
