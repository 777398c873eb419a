package bot

import (
	"context"
	"lavalink-music-bot/bot/audioplayer"
	"lavalink-music-bot/builder"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

const defaultPanelUpdateInterval = time.Second

// messenger is the part of the discord session used
// for managing the panel messages.
type messenger interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit) (*discordgo.Message, error)
	ChannelMessageDelete(channelID string, messageID string) error
}

// PanelRenderer posts the guilds' status panels as discord
// messages. Edits of a channel's panel are rate limited.
type PanelRenderer struct {
	messenger messenger
	builder   *builder.Builder
	interval  time.Duration
	mutex     sync.Mutex
	limiters  map[string]*rate.Limiter
}

// NewPanelRenderer constructs an object that renders the
// status panels with the builder and sends them to discord.
func NewPanelRenderer(m messenger, b *builder.Builder, interval time.Duration) *PanelRenderer {
	if interval <= 0 {
		interval = defaultPanelUpdateInterval
	}
	return &PanelRenderer{
		messenger: m,
		builder:   b,
		interval:  interval,
		limiters:  make(map[string]*rate.Limiter),
	}
}

func (r *PanelRenderer) ShowPanel(ctx context.Context, channelID string, snapshot audioplayer.Snapshot) (string, error) {
	msg, err := r.messenger.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{r.builder.PanelEmbed(snapshot)},
		Components: r.builder.PanelComponents(snapshot),
	})
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

// UpdatePanel edits the panel, waiting for the
// channel's rate limit if needed.
func (r *PanelRenderer) UpdatePanel(ctx context.Context, channelID string, panelID string, snapshot audioplayer.Snapshot) error {
	if err := r.limiter(channelID).Wait(ctx); err != nil {
		return err
	}
	embeds := []*discordgo.MessageEmbed{r.builder.PanelEmbed(snapshot)}
	components := r.builder.PanelComponents(snapshot)
	_, err := r.messenger.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         panelID,
		Channel:    channelID,
		Embeds:     embeds,
		Components: components,
	})
	return err
}

func (r *PanelRenderer) RemovePanel(ctx context.Context, channelID string, panelID string) error {
	return r.messenger.ChannelMessageDelete(channelID, panelID)
}

func (r *PanelRenderer) limiter(channelID string) *rate.Limiter {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	l, ok := r.limiters[channelID]
	if !ok {
		l = rate.NewLimiter(rate.Every(r.interval), 1)
		r.limiters[channelID] = l
	}
	return l
}
