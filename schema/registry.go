package schema

import (
	"slices"
	"sync"

	"go.uber.org/zap"
)

// PoolID selects one of several independent pools held by a Registry.
type PoolID uint8

// DefaultPool is the pool used when callers do not pick one.
const DefaultPool PoolID = 0

// Options configures registry behavior.
type Options struct {
	Logger *zap.Logger
}

// DefaultOptions returns default registry configuration.
func DefaultOptions() Options {
	return Options{Logger: Logger()}
}

// Registry holds schema pools keyed by PoolID.
// Pools are created on first use and live until the registry is dropped;
// Reset and Clear empty them in place so outstanding *Pool values stay usable.
type Registry struct {
	pools  map[PoolID]*Pool
	logger *zap.Logger
	mu     sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = Logger()
	}
	return &Registry{
		pools:  make(map[PoolID]*Pool),
		logger: opts.Logger,
	}
}

// NewRegistryWithDefaults creates an empty registry with default options.
func NewRegistryWithDefaults() *Registry {
	return NewRegistry(DefaultOptions())
}

// Pool returns the pool for id, creating it if needed.
func (r *Registry) Pool(id PoolID) *Pool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pools[id]
	if !ok {
		p = newPool(id, r.logger)
		r.pools[id] = p
	}
	return p
}

// Reset drops every descriptor held by pool id.
func (r *Registry) Reset(id PoolID) {
	r.mu.Lock()
	p, ok := r.pools[id]
	r.mu.Unlock()

	if ok {
		p.reset()
		r.logger.Debug("schema pool reset", zap.Uint8("pool", uint8(id)))
	}
}

// Clear drops every descriptor in every pool.
func (r *Registry) Clear() {
	r.mu.Lock()
	pools := make([]*Pool, 0, len(r.pools))
	for _, p := range r.pools {
		pools = append(pools, p)
	}
	r.mu.Unlock()

	for _, p := range pools {
		p.reset()
	}
	r.logger.Debug("schema registry cleared", zap.Int("pools", len(pools)))
}

// Pools returns the ids of all created pools in ascending order.
func (r *Registry) Pools() []PoolID {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]PoolID, 0, len(r.pools))
	for id := range r.pools {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
