package bot

import (
	"lavalink-music-bot/service"
	"time"

	"github.com/bwmarrin/discordgo"
)

const interactionTimeout = 30 * time.Second

// target resolves the guild, the invoking member's voice
// channel and the channel the interaction came from.
func (bot *Bot) target(s *discordgo.Session, i *discordgo.InteractionCreate) service.Target {
	target := service.Target{
		GuildID:         i.GuildID,
		OutputChannelID: i.ChannelID,
	}
	if vs, err := s.State.VoiceState(i.GuildID, userID(i)); err == nil {
		target.VoiceChannelID = vs.ChannelID
	}
	return target
}

func userID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// respond sends an ephemeral message in response to the interaction.
func (bot *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		bot.WithField("GuildID", i.GuildID).Debugf("Could not respond to interaction: %v", err)
	}
}

// deferResponse acknowledges the interaction, the response is
// sent later with editResponse.
func (bot *Bot) deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, responseType discordgo.InteractionResponseType) bool {
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: responseType,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	}); err != nil {
		bot.WithField("GuildID", i.GuildID).Debugf("Could not defer interaction: %v", err)
		return false
	}
	return true
}

func (bot *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string, components []discordgo.MessageComponent) {
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Components: &components,
	}); err != nil {
		bot.WithField("GuildID", i.GuildID).Debugf("Could not edit interaction response: %v", err)
	}
}

// respondResult responds with the success message, or with the
// failure message of the error.
func (bot *Bot) respondResult(s *discordgo.Session, i *discordgo.InteractionCreate, err error, success string) {
	if err != nil {
		bot.WithField("GuildID", i.GuildID).Debugf("Command failed: %v", err)
		bot.respond(s, i, service.FailureMessage(err))
		return
	}
	bot.respond(s, i, success)
}
