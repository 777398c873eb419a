package audioplayer

import (
	"context"
	"lavalink-music-bot/lavalink"
	"time"
)

// Connection is a live handle to the node's player for a single guild.
type Connection interface {
	Play(ctx context.Context, encoded string) error
	Stop(ctx context.Context) error
	SetPaused(ctx context.Context, paused bool) error
	SetVolume(ctx context.Context, volume int) error
	Position() time.Duration
	Disconnect(ctx context.Context) error
	// Listen registers the listener for the handle's events,
	// it returns false when a listener is already registered.
	Listen(l lavalink.Listener) bool
}

// Node joins voice channels and returns the
// handle used for controlling playback.
type Node interface {
	Connect(ctx context.Context, guildID string, channelID string) (Connection, error)
}

type SettingsStore interface {
	GetVolume(ctx context.Context, guildID string) (int, error)
	SetVolume(ctx context.Context, guildID string, volume int) error
}

// Renderer posts the status panels of the guilds.
// ShowPanel returns the id of the created panel.
type Renderer interface {
	ShowPanel(ctx context.Context, channelID string, snapshot Snapshot) (string, error)
	UpdatePanel(ctx context.Context, channelID string, panelID string, snapshot Snapshot) error
	RemovePanel(ctx context.Context, channelID string, panelID string) error
}
