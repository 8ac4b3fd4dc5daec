package cache

import (
	"context"
	"time"
)

const revokedTokenPrefix = "auth:revoked:"

// TokenRevoker tracks access tokens invalidated by logout
type TokenRevoker struct {
	store Store
	now   func() time.Time
}

// NewTokenRevoker creates a TokenRevoker backed by store
func NewTokenRevoker(store Store) *TokenRevoker {
	return &TokenRevoker{store: store, now: time.Now}
}

// Revoke marks tokenID as revoked until the token would have expired anyway
func (r *TokenRevoker) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.store.Set(ctx, revokedTokenPrefix+tokenID, []byte("1"), ttl)
}

// IsRevoked reports whether tokenID was revoked
func (r *TokenRevoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return r.store.Exists(ctx, revokedTokenPrefix+tokenID)
}
