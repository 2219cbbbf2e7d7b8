package auth

import "context"

type userContextKey struct{}

// SetUserToContext stores the authenticated subject.
func SetUserToContext(ctx context.Context, subject Subject) context.Context {
	return context.WithValue(ctx, userContextKey{}, subject)
}

// GetUserFromContext returns the subject stored by SetUserToContext.
func GetUserFromContext(ctx context.Context) (Subject, bool) {
	s, ok := ctx.Value(userContextKey{}).(Subject)
	return s, ok && s != nil
}

type registryContextKey struct{}

// WithRegistry stores the request scoped registry.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	return context.WithValue(ctx, registryContextKey{}, r)
}

// RegistryFromContext returns the registry stored by WithRegistry.
func RegistryFromContext(ctx context.Context) (*Registry, bool) {
	r, ok := ctx.Value(registryContextKey{}).(*Registry)
	return r, ok && r != nil
}
