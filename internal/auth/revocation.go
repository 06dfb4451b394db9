package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList tracks revoked token IDs in Redis for the remaining
// lifetime of each token. The gate consults it after verifying a
// token's signature; the entries expire together with the tokens they
// shadow, so the list stays small.
type RevocationList struct {
	client *redis.Client
}

// NewRevocationList constructs the list.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client}
}

func revocationKey(tokenID string) string {
	return "revoked:" + tokenID
}

// Revoke marks the token ID as dead until it would have expired anyway.
func (l *RevocationList) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if l == nil || l.client == nil || tokenID == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return l.client.Set(ctx, revocationKey(tokenID), 1, ttl).Err()
}

// IsRevoked reports whether the token ID was revoked. Redis failures
// fail open: a dropped revocation check never locks the site out.
func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) bool {
	if l == nil || l.client == nil || tokenID == "" {
		return false
	}
	n, err := l.client.Exists(ctx, revocationKey(tokenID)).Result()
	if err != nil {
		return false
	}
	return n > 0
}
