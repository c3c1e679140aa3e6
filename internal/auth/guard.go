package auth

import (
	"context"
	"errors"
)

// ErrForbidden means the caller is authenticated but does not own the resource.
var ErrForbidden = errors.New("forbidden")

// ErrUnauthenticated means no verified identity is attached to the context.
var ErrUnauthenticated = errors.New("unauthenticated")

type claimsKey struct{}

// WithClaims returns a context carrying the verified caller identity.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the caller identity set by the bearer middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// CallerID returns the authenticated user id or ErrUnauthenticated.
func CallerID(ctx context.Context) (int64, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return 0, ErrUnauthenticated
	}
	return claims.UserID, nil
}

// AuthorizeOwner allows access only when the caller owns the resource.
// A mismatch is ErrForbidden, never a silently empty result.
func AuthorizeOwner(callerID, ownerID int64) error {
	if callerID <= 0 || callerID != ownerID {
		return ErrForbidden
	}
	return nil
}
