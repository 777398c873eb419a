package bot

import "github.com/bwmarrin/discordgo"

type DiscordIntentsHandler struct {
	*Bot
}

// setIntents sets the intents for the session, required
// by the music bot
func (bot *DiscordIntentsHandler) setIntents() {
	// NOTE: guilds for interactions and channels in guilds,
	// voice states for the voice handshake and the voice log
	bot.session.Identify.Intents =
		discordgo.IntentsGuilds |
			discordgo.IntentsGuildVoiceStates
}
