package auth

import "context"

// Identity is the verified identity extracted from an ID token. Subject is
// the stable identifier issued by the identity provider and is the durable
// dedup key for users.
type Identity struct {
	Subject string
	Name    string
}

type ctxIdentityKey struct{}

// ContextWithIdentity returns a context carrying the verified identity
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxIdentityKey{}, id)
}

// IdentityFromContext retrieves the verified identity from the context.
// Returns nil if the request was not authenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxIdentityKey{}).(*Identity)
	return id
}
