package execution

import (
	"context"
	"encoding/json"
	"sync"
)

// HandlerFunc executes a custom proposal's side effect. The payload is the
// opaque body the proposer supplied under parameters.payload.
type HandlerFunc func(ctx context.Context, proposalID uint64, payload json.RawMessage) error

// Registry maps custom handler names onto handlers. Registration usually
// happens at service start, but the registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// RegisterHandler installs fn under name, replacing any previous handler.
func (r *Registry) RegisterHandler(name string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

func (r *Registry) lookup(name string) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[name]
	return fn, ok
}
