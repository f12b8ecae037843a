// Package redis wraps the Redis access used by the service: a small
// string-value store for single-use password-reset tokens.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResetTokenTTL bounds how long an issued password-reset token stays
// redeemable, independent of the token's own expiry claim.
const ResetTokenTTL = 15 * time.Minute

const resetTokenPrefix = "reset-token:"

// TokenStore keeps issued password-reset tokens so each can be redeemed at
// most once.
type TokenStore struct {
	client *redis.Client
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

// SaveResetToken stores the reset token issued to a user, replacing any
// previously issued one.
func (s *TokenStore) SaveResetToken(ctx context.Context, userID, token string) error {
	return s.client.Set(ctx, resetTokenPrefix+userID, token, ResetTokenTTL).Err()
}

// ResetTokenMatches reports whether the given token is the one currently
// issued to the user. An absent key reports false.
func (s *TokenStore) ResetTokenMatches(ctx context.Context, userID, token string) (bool, error) {
	stored, err := s.client.Get(ctx, resetTokenPrefix+userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return stored == token, nil
}

// ConsumeResetToken removes the user's issued reset token so it cannot be
// redeemed again.
func (s *TokenStore) ConsumeResetToken(ctx context.Context, userID string) error {
	return s.client.Del(ctx, resetTokenPrefix+userID).Err()
}
