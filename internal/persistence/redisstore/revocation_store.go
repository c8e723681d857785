// Package redisstore keeps signed-out session ids in Redis so every
// instance behind a load balancer sees a sign-out immediately.
package redisstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/example/elearning-platform/internal/persistence"
)

const revokedKeyPrefix = "elearning:revoked:"

// Connect opens a client for url, which is either a redis:// URL or host:port,
// and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	var opts *redis.Options
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("redisstore: parse url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: url}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redisstore: ping: %w", err)
	}
	return client, nil
}

// RevocationStore stores revoked-session flags that expire with the token.
type RevocationStore struct {
	client *redis.Client
	now    func() time.Time
}

var _ persistence.RevocationRepository = (*RevocationStore)(nil)

func NewRevocationStore(client *redis.Client, now func() time.Time) *RevocationStore {
	if now == nil {
		now = time.Now
	}
	return &RevocationStore{client: client, now: now}
}

// MarkRevoked flags sessionID until expiresAt. Already-expired tokens keep
// the flag for an hour to cover clock skew between instances.
func (s *RevocationStore) MarkRevoked(ctx context.Context, sessionID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := s.client.Set(ctx, revokedKeyPrefix+sessionID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: mark revoked: %w", err)
	}
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: is revoked: %w", err)
	}
	return n > 0, nil
}

// Ping reports whether Redis is reachable.
func (s *RevocationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
