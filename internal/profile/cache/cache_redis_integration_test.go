//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"viewergate/internal/biometric"
	"viewergate/internal/capture/capturetest"
	"viewergate/internal/profile/cache"
	"viewergate/internal/profile/models"
	id "viewergate/pkg/domain"
	"viewergate/pkg/platform/sentinel"
	"viewergate/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.cache = cache.NewRedis(s.redis.Client, time.Minute)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	acceptance := capturetest.Accept(s.T(), biometric.Result{Age: 33, Gender: biometric.GenderMale, Score: 0.66})
	p, err := models.NewProfile(id.NewAccountID(), models.Details{FullName: "Leo Díaz", Username: "leo", Email: "leo@example.com"}, &acceptance, time.Now())
	s.Require().NoError(err)

	s.Require().NoError(s.cache.Set(ctx, p))
	got, err := s.cache.Get(ctx, p.AccountID)
	s.Require().NoError(err)
	s.Equal(p.AccountID, got.AccountID)
	s.True(got.IsVerified)
	s.Equal(biometric.GenderMale, got.GenderDetected)
	s.Equal(33, *got.AgeDetected)

	ttl := s.redis.Client.TTL(ctx, "viewergate:profile:"+p.AccountID.String()).Val()
	s.Greater(ttl, time.Duration(0))

	s.Require().NoError(s.cache.Delete(ctx, p.AccountID))
	_, err = s.cache.Get(ctx, p.AccountID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
