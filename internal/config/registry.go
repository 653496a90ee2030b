package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/danif1973/tour-guide-mobile/pkg/provider/geosource"
	"github.com/danif1973/tour-guide-mobile/pkg/provider/summarizer"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory
// has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// provider type. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	geo        map[string]func(ProviderEntry) (geosource.Provider, error)
	summarizer map[string]func(ProviderEntry) (summarizer.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		geo:        make(map[string]func(ProviderEntry) (geosource.Provider, error)),
		summarizer: make(map[string]func(ProviderEntry) (summarizer.Provider, error)),
	}
}

// RegisterGeo registers a geodata provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterGeo(name string, factory func(ProviderEntry) (geosource.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.geo[name] = factory
}

// RegisterSummarizer registers a summarizer provider factory under name.
func (r *Registry) RegisterSummarizer(name string, factory func(ProviderEntry) (summarizer.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summarizer[name] = factory
}

// CreateGeo instantiates a geodata provider using the factory registered
// under entry.Name. Returns [ErrProviderNotRegistered] if no factory has
// been registered for that name.
func (r *Registry) CreateGeo(entry ProviderEntry) (geosource.Provider, error) {
	r.mu.RLock()
	factory, ok := r.geo[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: geo/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateSummarizer instantiates a summarizer provider using the factory
// registered under entry.Name.
func (r *Registry) CreateSummarizer(entry ProviderEntry) (summarizer.Provider, error) {
	r.mu.RLock()
	factory, ok := r.summarizer[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: summarizer/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}
