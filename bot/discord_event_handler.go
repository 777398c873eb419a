package bot

import (
	"github.com/bwmarrin/discordgo"
)

type DiscordEventHandler struct {
	*Bot
}

// setHandlers adds handlers for discord events to the
// session: ready, voice state and voice server updates,
// and interaction create events, for which it determines
// the type of the interaction and calls the appropriate function.
func (bot *DiscordEventHandler) setHandlers() {
	bot.session.AddHandler(
		func(s *discordgo.Session, r *discordgo.Ready) {
			bot.onReady(s, r)
		},
	)
	bot.session.AddHandler(
		func(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
			if len(v.GuildID) == 0 {
				return
			}
			if s.State.User != nil && v.UserID == s.State.User.ID {
				bot.voice.onVoiceStateUpdate(v.GuildID, v.ChannelID, v.SessionID)
				return
			}
			bot.recordVoiceActivity(s, v)
		},
	)
	bot.session.AddHandler(
		func(s *discordgo.Session, v *discordgo.VoiceServerUpdate) {
			bot.voice.onVoiceServerUpdate(bot.ctx, v.GuildID, v.Token, v.Endpoint)
		},
	)
	bot.session.AddHandler(
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			if len(i.GuildID) == 0 || !bot.ready.Load() || i.Member == nil {
				return
			}
			switch i.Type {
			case discordgo.InteractionApplicationCommand:
				bot.onApplicationCommand(s, i)
			case discordgo.InteractionMessageComponent:
				switch i.MessageComponentData().ComponentType {
				case discordgo.ButtonComponent:
					bot.onButtonClick(s, i)
				case discordgo.SelectMenuComponent:
					bot.onSelectMenu(s, i)
				}
			}
		},
	)
}
