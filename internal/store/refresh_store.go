package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRefreshInvalid = errors.New("refresh invalid")

// RefreshStore keeps issued refresh token ids so each one can be used once.
// With a nil client every method is a no-op and Consume always succeeds:
// refresh tokens are then only bounded by their expiry.
type RefreshStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRefreshStore(rdb *redis.Client, ttl time.Duration) *RefreshStore {
	return &RefreshStore{rdb: rdb, ttl: ttl}
}

func (s *RefreshStore) Enabled() bool { return s != nil && s.rdb != nil }

func (s *RefreshStore) key(userID, jti string) string {
	return "refresh:" + userID + ":" + jti
}

func (s *RefreshStore) Put(ctx context.Context, userID, jti string) error {
	if !s.Enabled() {
		return nil
	}
	return s.rdb.Set(ctx, s.key(userID, jti), "1", s.ttl).Err()
}

func (s *RefreshStore) Consume(ctx context.Context, userID, jti string) error {
	if !s.Enabled() {
		return nil
	}
	n, err := s.rdb.Del(ctx, s.key(userID, jti)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRefreshInvalid
	}
	return nil
}

// RevokeAll drops every refresh token of a user, e.g. after a password change.
func (s *RefreshStore) RevokeAll(ctx context.Context, userID string) error {
	if !s.Enabled() {
		return nil
	}
	iter := s.rdb.Scan(ctx, 0, s.key(userID, "*"), 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
