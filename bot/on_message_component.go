package bot

import (
	"context"
	"errors"
	"fmt"
	"lavalink-music-bot/builder"
	"lavalink-music-bot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// onButtonClick is a handler function called when a user
// clicks a button on one of the status panels.
func (bot *Bot) onButtonClick(s *discordgo.Session, i *discordgo.InteractionCreate) {
	label := bot.builder.ButtonLabel(i.MessageComponentData())
	buttons := bot.builder.ButtonsConfig()

	bot.WithFields(log.Fields{
		"GuildID": i.GuildID,
		"Button":  label,
	}).Trace("Button click")

	ctx, cancel := context.WithTimeout(bot.ctx, interactionTimeout)
	defer cancel()

	var err error
	switch label {
	case buttons.Skip:
		err = bot.service.Skip(ctx, i.GuildID)
	case buttons.Pause:
		err = bot.service.Pause(ctx, i.GuildID)
	case buttons.Resume:
		err = bot.service.Resume(ctx, i.GuildID)
	case buttons.Repeat:
		bot.service.ToggleRepeat(ctx, i.GuildID)
	case buttons.Stop:
		err = bot.service.Stop(ctx, i.GuildID)
	default:
		return
	}
	if err != nil {
		bot.respond(s, i, service.FailureMessage(err))
		return
	}
	// NOTE: the panel is updated by the session, the
	// interaction only needs to be acknowledged
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		bot.WithField("GuildID", i.GuildID).Debugf("Could not acknowledge button: %v", err)
	}
}

// onSelectMenu is a handler function called when a user
// picks one of the offered search results.
func (bot *Bot) onSelectMenu(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	if !isSelectionID(data.CustomID) {
		return
	}
	entry, err := bot.selections.Take(data.CustomID, userID(i))
	if errors.Is(err, ErrSelectionNotOwned) {
		bot.respond(s, i, "Only the user who searched can pick a track.")
		return
	}
	if err != nil {
		bot.respond(s, i, "This selection has expired, please search again.")
		return
	}
	idx, err := bot.builder.SelectedIndex(data, len(entry.tracks))
	if err != nil {
		bot.respond(s, i, "Invalid selection.")
		return
	}
	if !bot.deferResponse(s, i, discordgo.InteractionResponseDeferredMessageUpdate) {
		return
	}

	ctx, cancel := context.WithTimeout(bot.ctx, interactionTimeout)
	defer cancel()

	target := entry.target
	// NOTE: the user may have moved since searching
	if current := bot.target(s, i); len(current.VoiceChannelID) > 0 {
		target.VoiceChannelID = current.VoiceChannelID
	}
	t := entry.tracks[idx]
	if err := bot.service.Enqueue(ctx, target, t); err != nil {
		bot.editResponse(s, i, service.FailureMessage(err), nil)
		return
	}
	bot.editResponse(s, i, fmt.Sprintf(
		"Added **%s**.", builder.Truncate(t.Info.DisplayTitle(), 100),
	), nil)
}
