package bot

import (
	"context"
	"fmt"
	"lavalink-music-bot/bot/slash_command"
	"lavalink-music-bot/builder"
	"lavalink-music-bot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// onApplicationCommand is a handler function called when a user
// invokes one of the bot's slash commands.
func (bot *Bot) onApplicationCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	commands := bot.config.ApplicationCommands

	bot.WithFields(log.Fields{
		"GuildID": i.GuildID,
		"Command": data.Name,
	}).Trace("Application command")

	ctx, cancel := context.WithTimeout(bot.ctx, interactionTimeout)
	defer cancel()

	switch data.Name {
	case commands.Play.Name:
		bot.onPlayCommand(ctx, s, i, data)
	case commands.Skip.Name:
		bot.respondResult(s, i, bot.service.Skip(ctx, i.GuildID), "Skipped.")
	case commands.Pause.Name:
		bot.respondResult(s, i, bot.service.Pause(ctx, i.GuildID), "Paused.")
	case commands.Resume.Name:
		bot.respondResult(s, i, bot.service.Resume(ctx, i.GuildID), "Resumed.")
	case commands.Repeat.Name:
		if bot.service.ToggleRepeat(ctx, i.GuildID) {
			bot.respond(s, i, "Repeat enabled.")
		} else {
			bot.respond(s, i, "Repeat disabled.")
		}
	case commands.Stop.Name:
		bot.respondResult(s, i, bot.service.Stop(ctx, i.GuildID), "Stopped.")
	case commands.Volume.Name:
		bot.onVolumeCommand(ctx, s, i, data)
	case commands.Connect.Name:
		bot.onConnectCommand(ctx, s, i, data)
	case commands.Disconnect.Name:
		bot.respondResult(s, i, bot.service.Disconnect(ctx, i.GuildID), "Disconnected.")
	}
}

// onPlayCommand searches for the query. A url is enqueued
// directly, otherwise the results are offered in a select menu.
func (bot *Bot) onPlayCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	options := optionMap(data.Options)
	opt, ok := options[slash_command.QueryOption]
	if !ok {
		bot.respond(s, i, "Missing query.")
		return
	}
	query := opt.StringValue()
	target := bot.target(s, i)
	if len(target.VoiceChannelID) == 0 {
		bot.respond(s, i, "You need to be in a voice channel.")
		return
	}
	if !bot.deferResponse(s, i, discordgo.InteractionResponseDeferredChannelMessageWithSource) {
		return
	}

	tracks, err := bot.service.Search(ctx, query)
	if err != nil {
		bot.editResponse(s, i, service.FailureMessage(err), nil)
		return
	}
	if bot.service.IsURL(query) || len(tracks) == 1 {
		if err := bot.service.Enqueue(ctx, target, tracks[0]); err != nil {
			bot.editResponse(s, i, service.FailureMessage(err), nil)
			return
		}
		bot.editResponse(s, i, fmt.Sprintf(
			"Added **%s**.", builder.Truncate(tracks[0].Info.DisplayTitle(), 100),
		), nil)
		return
	}
	id := bot.selections.Add(userID(i), target, tracks)
	bot.editResponse(s, i, "Select a track:", bot.builder.SelectionComponents(id, tracks))
}

func (bot *Bot) onVolumeCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	opt, ok := optionMap(data.Options)[slash_command.LevelOption]
	if !ok {
		bot.respond(s, i, "Missing volume level.")
		return
	}
	volume := int(opt.IntValue())
	bot.respondResult(
		s, i,
		bot.service.SetVolume(ctx, i.GuildID, volume),
		fmt.Sprintf("Volume set to %d.", volume),
	)
}

func (bot *Bot) onConnectCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	target := bot.target(s, i)
	if opt, ok := optionMap(data.Options)[slash_command.ChannelOption]; ok {
		target.VoiceChannelID = opt.ChannelValue(nil).ID
	}
	if len(target.VoiceChannelID) == 0 {
		bot.respond(s, i, "You need to be in a voice channel or provide one.")
		return
	}
	if !bot.deferResponse(s, i, discordgo.InteractionResponseDeferredChannelMessageWithSource) {
		return
	}
	if err := bot.service.Connect(ctx, target); err != nil {
		bot.editResponse(s, i, service.FailureMessage(err), nil)
		return
	}
	bot.editResponse(s, i, "Connected.", nil)
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}
