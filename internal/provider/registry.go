package provider

import (
	"log/slog"
	"sync"
)

// Registry holds all registered provider adapters keyed by name.
type Registry struct {
	mu        sync.RWMutex
	providers map[ProviderName]Provider
	logger    *slog.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		providers: make(map[ProviderName]Provider),
		logger:    logger.With(slog.String("component", "registry")),
	}
}

// Register adds a provider to the registry. A provider registered without
// the credentials it needs stays listed but is never handed out by As.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
	if p.RequiresAuth() && !p.Configured() {
		r.logger.Info("provider not configured, skipping",
			slog.String("provider", string(p.Name())))
	}
}

// Get returns a provider by name, or nil if not registered.
func (r *Registry) Get(name ProviderName) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// All returns all registered providers in a stable order.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Provider
	for _, name := range AllProviderNames() {
		if p, ok := r.providers[name]; ok {
			result = append(result, p)
		}
	}
	return result
}

// As returns the named provider as capability T. It reports false when the
// provider is not registered, lacks the capability, or is not configured.
func As[T Provider](r *Registry, name ProviderName) (T, bool) {
	var zero T
	p := r.Get(name)
	if p == nil || !p.Configured() {
		return zero, false
	}
	t, ok := p.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
