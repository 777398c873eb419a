package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"lavalink-music-bot/logging"
	"lavalink-music-bot/model"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type Configuration struct {
	LogLevel  log.Level `yaml:"LogLevel"`
	Address   string    `yaml:"Address"`
	Password  string    `yaml:"Password"`
	DB        int       `yaml:"DB" validate:"min=0"`
	KeyPrefix string    `yaml:"KeyPrefix"`
}

// Enabled returns true if a redis address has been configured
func (config *Configuration) Enabled() bool {
	return config != nil && len(config.Address) > 0
}

type SearchCache struct {
	*log.Logger
	client *redis.Client
	prefix string
}

// NewSearchCache constructs an object that stores
// normalized search results in redis.
func NewSearchCache(config *Configuration) *SearchCache {
	l := logging.New()
	l.SetLevel(config.LogLevel)

	prefix := config.KeyPrefix
	if len(prefix) == 0 {
		prefix = "lavalink-music-bot"
	}
	l.WithField("Address", config.Address).Debug("Search cache created")
	return &SearchCache{
		Logger: l,
		client: redis.NewClient(&redis.Options{
			Addr:     config.Address,
			Password: config.Password,
			DB:       config.DB,
		}),
		prefix: prefix,
	}
}

// Ping checks the redis connection
func (c *SearchCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Info("Redis connection established")
	return nil
}

// Get returns the cached tracks for the identifier,
// false if nothing is cached.
func (c *SearchCache) Get(ctx context.Context, identifier string) ([]*model.Track, bool, error) {
	val, err := c.client.Get(ctx, c.key(identifier)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	tracks := make([]*model.Track, 0)
	if err := json.Unmarshal([]byte(val), &tracks); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached tracks: %w", err)
	}
	c.WithField("Identifier", identifier).Trace("Search cache hit")
	return tracks, true, nil
}

// Set caches the tracks for the identifier for the ttl duration
func (c *SearchCache) Set(ctx context.Context, identifier string, tracks []*model.Track, ttl time.Duration) error {
	b, err := json.Marshal(tracks)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(identifier), b, ttl).Err()
}

// Delete removes the cached tracks for the identifier
func (c *SearchCache) Delete(ctx context.Context, identifier string) error {
	return c.client.Del(ctx, c.key(identifier)).Err()
}

func (c *SearchCache) Close() error {
	return c.client.Close()
}

func (c *SearchCache) key(identifier string) string {
	return fmt.Sprintf("%s:search:%s", c.prefix, identifier)
}
