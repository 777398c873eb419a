package search

import (
	"context"
	"encoding/json"
	"errors"
	"lavalink-music-bot/logging"
	"lavalink-music-bot/model"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultTimeout    = 25 * time.Second
	DefaultMaxResults = 15
	DefaultSource     = "ytsearch"
)

var (
	uriSchemeRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.\-]*://`)
	directiveRegex = regexp.MustCompile(`^(yt|ytm|sc|sp|am|dz)search:`)
)

// Loader resolves identifiers on the audio node
type Loader interface {
	LoadTracks(ctx context.Context, identifier string) (json.RawMessage, error)
}

// Cache stores normalized search results by identifier
type Cache interface {
	Get(ctx context.Context, identifier string) ([]*model.Track, bool, error)
	Set(ctx context.Context, identifier string, tracks []*model.Track, ttl time.Duration) error
}

type Configuration struct {
	LogLevel      log.Level     `yaml:"LogLevel"`
	Timeout       time.Duration `yaml:"Timeout"`
	MaxResults    int           `yaml:"MaxResults" validate:"min=0"`
	DefaultSource string        `yaml:"DefaultSource"`
	CacheTTL      time.Duration `yaml:"CacheTTL"`
}

type Gateway struct {
	*log.Logger
	config *Configuration
	loader Loader
	cache  Cache
}

type loadResponse struct {
	raw json.RawMessage
	err error
}

// NewGateway constructs an object that searches tracks on the
// audio node and normalizes its responses. cache may be nil.
func NewGateway(config *Configuration, loader Loader, cache Cache) *Gateway {
	l := logging.New()
	l.SetLevel(config.LogLevel)
	l.Debug("Search gateway created")

	return &Gateway{
		Logger: l,
		config: config,
		loader: loader,
		cache:  cache,
	}
}

// Identifier converts the user's query into the identifier sent
// to the node. Urls and explicit search directives are kept as they are,
// anything else is searched with the default source.
func (gateway *Gateway) Identifier(query string) string {
	query = strings.TrimSpace(query)
	if IsURL(query) || directiveRegex.MatchString(query) {
		return query
	}
	source := gateway.config.DefaultSource
	if len(source) == 0 {
		source = DefaultSource
	}
	return source + ":" + query
}

// IsURL returns true if the query begins with an uri scheme
func IsURL(query string) bool {
	return uriSchemeRegex.MatchString(strings.TrimSpace(query))
}

func (gateway *Gateway) IsURL(query string) bool {
	return IsURL(query)
}

// Search resolves the query on the node and returns at most MaxResults
// tracks. Failures are always one of ErrTimeout, ErrNoResults or
// *UpstreamError.
func (gateway *Gateway) Search(ctx context.Context, query string) ([]*model.Track, error) {
	if len(strings.TrimSpace(query)) == 0 {
		return nil, ErrNoResults
	}
	identifier := gateway.Identifier(query)
	t := time.Now()

	if tracks, ok := gateway.cached(ctx, identifier); ok {
		gateway.WithFields(log.Fields{
			"Identifier": identifier,
			"Results":    len(tracks),
		}).Debug("Search served from cache")
		return gateway.truncate(tracks), nil
	}

	raw, err := gateway.load(ctx, identifier)
	if err != nil {
		gateway.WithFields(log.Fields{
			"Identifier": identifier,
			"Latency":    time.Since(t),
		}).Warnf("Search failed: %v", err)
		return nil, err
	}

	result, err := ParseLoadResult(raw)
	if err != nil {
		return nil, &UpstreamError{Message: "malformed node response", Err: err}
	}
	gateway.WithFields(log.Fields{
		"Identifier": identifier,
		"LoadType":   result.Kind,
		"Results":    len(result.Tracks),
		"Latency":    time.Since(t),
	}).Debug("Search done")

	switch result.Kind {
	case KindEmpty, KindNull:
		return nil, ErrNoResults
	case KindError:
		gateway.WithField("Identifier", identifier).Warnf(
			"Node failed to load tracks: %s", result.Message,
		)
		return nil, ErrNoResults
	}
	if len(result.Tracks) == 0 {
		return nil, ErrNoResults
	}

	tracks := gateway.truncate(result.Tracks)
	gateway.store(ctx, identifier, tracks)
	return tracks, nil
}

// load races the node call against the configured timeout
func (gateway *Gateway) load(ctx context.Context, identifier string) (json.RawMessage, error) {
	timeout := gateway.config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan loadResponse, 1)
	go func() {
		raw, err := gateway.loader.LoadTracks(ctx, identifier)
		done <- loadResponse{raw, err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, &UpstreamError{Message: "search canceled", Err: ctx.Err()}
	case resp := <-done:
		if resp.err == nil {
			return resp.raw, nil
		}
		if errors.Is(resp.err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, &UpstreamError{Message: resp.err.Error(), Err: resp.err}
	}
}

func (gateway *Gateway) truncate(tracks []*model.Track) []*model.Track {
	max := gateway.config.MaxResults
	if max <= 0 {
		max = DefaultMaxResults
	}
	if len(tracks) > max {
		return tracks[:max]
	}
	return tracks
}

func (gateway *Gateway) cached(ctx context.Context, identifier string) ([]*model.Track, bool) {
	if gateway.cache == nil {
		return nil, false
	}
	tracks, ok, err := gateway.cache.Get(ctx, identifier)
	if err != nil {
		gateway.WithField("Identifier", identifier).Warnf("Search cache lookup failed: %v", err)
		return nil, false
	}
	if !ok || len(tracks) == 0 {
		return nil, false
	}
	return tracks, true
}

func (gateway *Gateway) store(ctx context.Context, identifier string, tracks []*model.Track) {
	if gateway.cache == nil || gateway.config.CacheTTL <= 0 {
		return
	}
	if err := gateway.cache.Set(ctx, identifier, tracks, gateway.config.CacheTTL); err != nil {
		gateway.WithField("Identifier", identifier).Warnf("Could not cache search results: %v", err)
	}
}
