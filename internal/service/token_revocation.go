package service

import (
	"context"
	"time"

	"github.com/noah-isme/counseling-api/pkg/cache"
)

type revocationStore interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// TokenRevocation marks every access token issued to a user up to a point in time as unusable.
// Markers live for the access token lifetime; after that the tokens have expired anyway.
type TokenRevocation struct {
	store revocationStore
	ttl   time.Duration
}

// NewTokenRevocation builds the revocation helper. A nil or disabled store makes every check pass.
func NewTokenRevocation(store revocationStore, accessTokenTTL time.Duration) *TokenRevocation {
	return &TokenRevocation{store: store, ttl: accessTokenTTL}
}

func revocationKey(userID string) string {
	return cache.Key("auth", "revoked", userID)
}

// Revoke invalidates tokens issued to the user at or before at.
func (r *TokenRevocation) Revoke(ctx context.Context, userID string, at time.Time) error {
	if r == nil || r.store == nil || !r.store.Enabled() {
		return nil
	}
	return r.store.Set(ctx, revocationKey(userID), at.Unix(), r.ttl)
}

// IsRevoked reports whether a token issued at issuedAt predates the user's revocation marker.
func (r *TokenRevocation) IsRevoked(ctx context.Context, userID string, issuedAt time.Time) (bool, error) {
	if r == nil || r.store == nil || !r.store.Enabled() {
		return false, nil
	}
	var revokedAt int64
	hit, err := r.store.Get(ctx, revocationKey(userID), &revokedAt)
	if err != nil || !hit {
		return false, err
	}
	return issuedAt.Unix() <= revokedAt, nil
}
