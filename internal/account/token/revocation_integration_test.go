//go:build integration

package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"viewergate/pkg/testutil/containers"
)

type RedisRevocationsSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisRevocations
}

func TestRedisRevocationsSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	suite.Run(t, new(RedisRevocationsSuite))
}

func (s *RedisRevocationsSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = NewRedisRevocations(s.redis.Client)
}

func (s *RedisRevocationsSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisRevocationsSuite) TestRevokeExpiresWithToken() {
	ctx := context.Background()
	s.Require().NoError(s.store.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err := s.store.IsTokenRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)

	ttl, err := s.redis.Client.TTL(ctx, revocationKey("jti-1")).Result()
	s.Require().NoError(err)
	s.Greater(ttl, 59*time.Minute)
}

func (s *RedisRevocationsSuite) TestAlreadyExpiredTokenIsNotStored() {
	ctx := context.Background()
	s.Require().NoError(s.store.Revoke(ctx, "jti-2", time.Now().Add(-time.Minute)))
	revoked, err := s.store.IsTokenRevoked(ctx, "jti-2")
	s.Require().NoError(err)
	s.False(revoked)
}
