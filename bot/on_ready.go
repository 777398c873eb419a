package bot

import (
	"context"
	"lavalink-music-bot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// onReady is a handler function called when the bot
// becomes ready. When an always connected channel is
// configured, it is joined once the audio node is ready.
func (bot *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	bot.WithFields(log.Fields{
		"Username": r.User.Username,
		"Guilds":   len(r.Guilds),
	}).Info("Bot ready")
	bot.ready.Store(true)

	if len(bot.config.AutoJoinChannelID) > 0 {
		go bot.autoJoin(s, bot.config.AutoJoinChannelID)
	}
}

func (bot *Bot) autoJoin(s *discordgo.Session, channelID string) {
	entry := bot.WithField("ChannelID", channelID)

	if err := bot.node.WaitReady(bot.ctx); err != nil {
		return
	}
	channel, err := s.Channel(channelID)
	if err != nil {
		entry.Warnf("Could not fetch the auto join channel: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(bot.ctx, interactionTimeout)
	defer cancel()
	if err := bot.service.Connect(ctx, service.Target{
		GuildID:        channel.GuildID,
		VoiceChannelID: channel.ID,
	}); err != nil {
		entry.Warnf("Could not join the auto join channel: %v", err)
		return
	}
	entry.Info("Joined the auto join channel")
}
