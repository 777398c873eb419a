package cache_test

import (
	"context"
	"lavalink-music-bot/cache"
	"lavalink-music-bot/model"
	"os"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type SearchCacheTestSuite struct {
	suite.Suite
	cache *cache.SearchCache
}

// SetupSuite connects to the redis from the
// REDIS_ADDR environment variable.
func (s *SearchCacheTestSuite) SetupSuite() {
	addr := os.Getenv("REDIS_ADDR")
	if len(addr) == 0 {
		s.T().Skip("REDIS_ADDR not set")
	}
	s.cache = cache.NewSearchCache(&cache.Configuration{
		LogLevel:  log.WarnLevel,
		Address:   addr,
		KeyPrefix: "lavalink-music-bot-test",
	})
	s.Require().NoError(s.cache.Ping(context.Background()))
}

// TearDownSuite closes the redis connection
func (s *SearchCacheTestSuite) TearDownSuite() {
	if s.cache != nil {
		s.NoError(s.cache.Close())
	}
}

// TestIntegrationSetGetDelete stores tracks, fetches
// them back and deletes them.
func (s *SearchCacheTestSuite) TestIntegrationSetGetDelete() {
	ctx := context.Background()
	identifier := "ytsearch:cache test"
	s.NoError(s.cache.Delete(ctx, identifier))

	_, ok, err := s.cache.Get(ctx, identifier)
	s.NoError(err)
	s.False(ok)

	tracks := []*model.Track{
		{Encoded: "t1", Info: model.TrackInfo{Title: "one", Length: 1000}},
		{Track: "t2", Info: model.TrackInfo{Title: "two"}},
	}
	s.NoError(s.cache.Set(ctx, identifier, tracks, time.Minute))

	cached, ok, err := s.cache.Get(ctx, identifier)
	s.NoError(err)
	s.True(ok)
	s.Equal(tracks, cached)

	s.NoError(s.cache.Delete(ctx, identifier))
	_, ok, err = s.cache.Get(ctx, identifier)
	s.NoError(err)
	s.False(ok)
}

// TestSearchCacheTestSuite runs all tests under
// the SearchCacheTestSuite
func TestSearchCacheTestSuite(t *testing.T) {
	suite.Run(t, new(SearchCacheTestSuite))
}
