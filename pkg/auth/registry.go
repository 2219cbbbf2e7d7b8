package auth

import (
	"fmt"
	"log/slog"
	"maps"
	"sync"
)

// RegistryConfig lists the available schemes and the alias used when
// callers do not name one.
type RegistryConfig struct {
	Default        string
	Authenticators map[string]Factory

	Attempts AttemptLogger
	Clock    Clock
	Logger   *slog.Logger
}

// Registry builds authenticators by alias and caches one instance per
// alias. Authenticators hold per-request login state, so a Registry is
// meant to live for one request; use Scope to derive a fresh one.
type Registry struct {
	cfg RegistryConfig

	mu       sync.Mutex
	store    CredentialStore
	resolved map[string]Authenticator
}

// NewRegistry validates the configuration. The default alias must name a
// registered factory.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if _, ok := cfg.Authenticators[cfg.Default]; !ok || cfg.Default == "" {
		return nil, fmt.Errorf("%w: default %q", ErrUnknownHandler, cfg.Default)
	}
	cfg.Authenticators = maps.Clone(cfg.Authenticators)
	return &Registry{
		cfg:      cfg,
		resolved: make(map[string]Authenticator, len(cfg.Authenticators)),
	}, nil
}

// SetStore binds the credential store handed to every authenticator.
func (r *Registry) SetStore(store CredentialStore) *Registry {
	r.mu.Lock()
	r.store = store
	r.mu.Unlock()
	return r
}

// Store returns the bound credential store.
func (r *Registry) Store() CredentialStore {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store
}

// Default returns the alias used by Resolve("").
func (r *Registry) Default() string {
	return r.cfg.Default
}

// Resolve returns the cached authenticator for alias, building it on first
// use. An empty alias selects the default. Resolving before SetStore is a
// programming error and panics with ErrUnconfiguredProvider.
func (r *Registry) Resolve(alias string) (Authenticator, error) {
	if alias == "" {
		alias = r.cfg.Default
	}
	factory, ok := r.cfg.Authenticators[alias]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHandler, alias)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store == nil {
		panic(ErrUnconfiguredProvider)
	}
	if a, ok := r.resolved[alias]; ok {
		return a, nil
	}
	// Factories only assemble structs, no I/O happens here.
	a := factory(Dependencies{
		Store:    r.store,
		Attempts: r.cfg.Attempts,
		Clock:    r.cfg.Clock,
		Logger:   r.cfg.Logger,
	})
	r.resolved[alias] = a
	return a, nil
}

// Scope returns a registry with the same configuration and store but an
// empty instance cache.
func (r *Registry) Scope() *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Registry{
		cfg:      r.cfg,
		store:    r.store,
		resolved: make(map[string]Authenticator, len(r.cfg.Authenticators)),
	}
}

// Aliases returns the registered aliases.
func (r *Registry) Aliases() []string {
	out := make([]string, 0, len(r.cfg.Authenticators))
	for alias := range r.cfg.Authenticators {
		out = append(out, alias)
	}
	return out
}
