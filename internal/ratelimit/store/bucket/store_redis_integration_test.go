//go:build integration

package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"viewergate/pkg/testutil/containers"
)

type RedisBucketStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisBucketStore
}

func TestRedisBucketStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketStoreSuite))
}

func (s *RedisBucketStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisBucketStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.store = NewRedisBucketStore(s.redis.Client)
}

func (s *RedisBucketStoreSuite) TestLimitAndReset() {
	ctx := context.Background()

	for i := range testLimit {
		result, err := s.store.Allow(ctx, "auth:198.51.100.4", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit-i-1, result.Remaining)
	}

	result, err := s.store.Allow(ctx, "auth:198.51.100.4", testLimit, testWindow)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Positive(result.RetryAfter)

	s.Require().NoError(s.store.Reset(ctx, "auth:198.51.100.4"))
	result, err = s.store.Allow(ctx, "auth:198.51.100.4", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisBucketStoreSuite) TestWindowSlides() {
	ctx := context.Background()
	now := time.Now()
	s.store.now = func() time.Time { return now }

	for range testLimit {
		_, err := s.store.Allow(ctx, "auth:slide", testLimit, testWindow)
		s.Require().NoError(err)
	}

	now = now.Add(testWindow + time.Millisecond)
	result, err := s.store.Allow(ctx, "auth:slide", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisBucketStoreSuite) TestKeyExpires() {
	ctx := context.Background()
	_, err := s.store.Allow(ctx, "auth:ttl", testLimit, testWindow)
	s.Require().NoError(err)

	ttl, err := s.redis.Client.PTTL(ctx, keyPrefix+"auth:ttl").Result()
	s.Require().NoError(err)
	s.Positive(ttl)
	s.LessOrEqual(ttl, testWindow)
}
