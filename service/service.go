package service

import (
	"context"
	"errors"
	"lavalink-music-bot/bot/audioplayer"
	"lavalink-music-bot/logging"
	"lavalink-music-bot/model"
	"lavalink-music-bot/search"
	"time"

	log "github.com/sirupsen/logrus"
)

// Searcher resolves user queries into tracks.
type Searcher interface {
	Search(ctx context.Context, query string) ([]*model.Track, error)
	IsURL(query string) bool
}

// Player controls the guilds' playback.
type Player interface {
	Enqueue(guildID string, tracks ...*model.Track) int
	EnsurePlaying(ctx context.Context, guildID string, voiceChannelID string) error
	SetOutputChannel(guildID string, channelID string)
	Skip(ctx context.Context, guildID string) error
	Pause(ctx context.Context, guildID string) error
	Resume(ctx context.Context, guildID string) error
	ToggleRepeat(guildID string) bool
	Stop(ctx context.Context, guildID string) error
	SetVolume(ctx context.Context, guildID string, volume int) error
	Connect(ctx context.Context, guildID string, voiceChannelID string) error
	Disconnect(ctx context.Context, guildID string) error
	RefreshPanel(ctx context.Context, guildID string)
	Snapshot(guildID string) audioplayer.Snapshot
}

// Target identifies where a command was invoked from.
type Target struct {
	GuildID         string
	VoiceChannelID  string
	OutputChannelID string
}

type Service struct {
	*log.Logger
	searcher Searcher
	player   Player
}

// NewService constructs an object that holds the logic
// behind the bot's commands.
func NewService(logLevel log.Level, searcher Searcher, player Player) *Service {
	l := logging.New()
	l.SetLevel(logLevel)
	l.Debug("Created a new service")
	return &Service{
		Logger:   l,
		searcher: searcher,
		player:   player,
	}
}

// Search returns the tracks matching the query.
func (service *Service) Search(ctx context.Context, query string) ([]*model.Track, error) {
	t := time.Now()
	tracks, err := service.searcher.Search(ctx, query)
	service.WithFields(log.Fields{
		"Query":   query,
		"Results": len(tracks),
		"Latency": time.Since(t),
	}).Debug("Search done")
	return tracks, err
}

// IsURL reports whether the query is a direct link,
// which is enqueued without a selection.
func (service *Service) IsURL(query string) bool {
	return service.searcher.IsURL(query)
}

// Enqueue appends the tracks to the guild's queue and makes
// sure it is playing.
func (service *Service) Enqueue(ctx context.Context, target Target, tracks ...*model.Track) error {
	if len(tracks) == 0 {
		return search.ErrNoResults
	}
	if len(target.VoiceChannelID) == 0 {
		return audioplayer.ErrNotConnected
	}
	if len(target.OutputChannelID) > 0 {
		service.player.SetOutputChannel(target.GuildID, target.OutputChannelID)
	}
	n := service.player.Enqueue(target.GuildID, tracks...)
	service.WithFields(log.Fields{
		"GuildID": target.GuildID,
		"Pending": n,
	}).Debug("Tracks added")
	return service.player.EnsurePlaying(ctx, target.GuildID, target.VoiceChannelID)
}

// EnqueueAndPlay searches for the query and enqueues the
// first result.
func (service *Service) EnqueueAndPlay(ctx context.Context, target Target, query string) (*model.Track, error) {
	if len(target.VoiceChannelID) == 0 {
		return nil, audioplayer.ErrNotConnected
	}
	tracks, err := service.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := service.Enqueue(ctx, target, tracks[0]); err != nil {
		return tracks[0], err
	}
	return tracks[0], nil
}

func (service *Service) Skip(ctx context.Context, guildID string) error {
	return service.player.Skip(ctx, guildID)
}

func (service *Service) Pause(ctx context.Context, guildID string) error {
	return service.player.Pause(ctx, guildID)
}

func (service *Service) Resume(ctx context.Context, guildID string) error {
	return service.player.Resume(ctx, guildID)
}

// ToggleRepeat flips the guild's repeat flag, refreshes the
// panel and returns the new value.
func (service *Service) ToggleRepeat(ctx context.Context, guildID string) bool {
	repeat := service.player.ToggleRepeat(guildID)
	service.player.RefreshPanel(ctx, guildID)
	return repeat
}

func (service *Service) Stop(ctx context.Context, guildID string) error {
	return service.player.Stop(ctx, guildID)
}

func (service *Service) SetVolume(ctx context.Context, guildID string, volume int) error {
	return service.player.SetVolume(ctx, guildID, volume)
}

// Connect joins the target's voice channel.
func (service *Service) Connect(ctx context.Context, target Target) error {
	if len(target.VoiceChannelID) == 0 {
		return audioplayer.ErrNotConnected
	}
	if len(target.OutputChannelID) > 0 {
		service.player.SetOutputChannel(target.GuildID, target.OutputChannelID)
	}
	return service.player.Connect(ctx, target.GuildID, target.VoiceChannelID)
}

func (service *Service) Disconnect(ctx context.Context, guildID string) error {
	return service.player.Disconnect(ctx, guildID)
}

func (service *Service) Snapshot(guildID string) audioplayer.Snapshot {
	return service.player.Snapshot(guildID)
}

// FailureMessage maps the commands' errors to the
// message shown to the user.
func FailureMessage(err error) string {
	if err == nil {
		return ""
	}
	var upstream *search.UpstreamError
	var playback *audioplayer.PlaybackError
	switch {
	case errors.Is(err, search.ErrTimeout):
		return "The search took too long, please try again."
	case errors.Is(err, search.ErrNoResults):
		return "No results found."
	case errors.As(err, &upstream):
		return "Search failed: " + upstream.Message
	case errors.Is(err, audioplayer.ErrNotConnected):
		return "You need to be in a voice channel."
	case errors.Is(err, audioplayer.ErrQueueEmpty):
		return "Nothing is playing."
	case errors.Is(err, audioplayer.ErrInvalidVolume):
		return "Volume must be between 0 and 100."
	case errors.As(err, &playback):
		switch playback.Kind {
		case audioplayer.NoNode:
			return "The audio node is not available right now."
		case audioplayer.MissingPayload:
			return "That track can not be played."
		case audioplayer.ConnectFailed:
			return "Could not join the voice channel."
		case audioplayer.NodeRejected:
			return "The audio node rejected the request."
		}
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out."
	}
	return "Something went wrong."
}
