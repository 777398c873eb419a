package slash_command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

type ChatCommandConfig struct {
	Name        string `yaml:"Name" validate:"required"`
	Description string `yaml:"Description" validate:"required"`
}

type SlashCommandsConfig struct {
	Play       *ChatCommandConfig `yaml:"Play" validate:"required"`
	Skip       *ChatCommandConfig `yaml:"Skip" validate:"required"`
	Pause      *ChatCommandConfig `yaml:"Pause" validate:"required"`
	Resume     *ChatCommandConfig `yaml:"Resume" validate:"required"`
	Repeat     *ChatCommandConfig `yaml:"Repeat" validate:"required"`
	Stop       *ChatCommandConfig `yaml:"Stop" validate:"required"`
	Volume     *ChatCommandConfig `yaml:"Volume" validate:"required"`
	Connect    *ChatCommandConfig `yaml:"Connect" validate:"required"`
	Disconnect *ChatCommandConfig `yaml:"Disconnect" validate:"required"`
}

// Names of the commands' options
const (
	QueryOption   = "query"
	LevelOption   = "level"
	ChannelOption = "channel"
)

// Client is the part of the discord session
// used for registering the commands.
type Client interface {
	ApplicationCommands(appID string, guildID string) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID string, guildID string, cmdID string) error
}

// Commands returns the global slash commands of the bot.
func Commands(config *SlashCommandsConfig) []*discordgo.ApplicationCommand {
	minVolume := float64(0)
	return []*discordgo.ApplicationCommand{
		{
			Name:        config.Play.Name,
			Description: config.Play.Description,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        QueryOption,
					Description: "Search query or url",
					Required:    true,
				},
			},
		},
		simple(config.Skip),
		simple(config.Pause),
		simple(config.Resume),
		simple(config.Repeat),
		simple(config.Stop),
		{
			Name:        config.Volume.Name,
			Description: config.Volume.Description,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        LevelOption,
					Description: "Volume between 0 and 100",
					Required:    true,
					MinValue:    &minVolume,
					MaxValue:    100,
				},
			},
		},
		{
			Name:        config.Connect.Name,
			Description: config.Connect.Description,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         ChannelOption,
					Description:  "Voice channel to join, defaults to yours",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice},
				},
			},
		},
		simple(config.Disconnect),
	}
}

// Register deletes the bot's registered global slash commands that
// differ from the desired ones, then registers the missing ones.
func Register(client Client, appID string, config *SlashCommandsConfig) error {
	// NOTE: guildID is an empty string, so the commands are
	// global
	guildID := ""

	registeredCommands, err := client.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("Could not fetch global application commands: %w", err)
	}
	toDelete, toAdd := Diff(registeredCommands, Commands(config))

	for _, v := range toDelete {
		if err := client.ApplicationCommandDelete(appID, guildID, v.ID); err != nil {
			return fmt.Errorf(
				"Could not delete global application command '%v': %w", v.Name, err,
			)
		}
	}
	for _, cmd := range toAdd {
		if _, err := client.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
			return fmt.Errorf(
				"Could not create global application command '%v': %w", cmd.Name, err,
			)
		}
	}
	return nil
}

// Diff returns the registered commands that are not desired
// and the desired commands that are not registered.
func Diff(registered []*discordgo.ApplicationCommand, desired []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, []*discordgo.ApplicationCommand) {
	toDelete := make([]*discordgo.ApplicationCommand, 0)
	toAdd := make([]*discordgo.ApplicationCommand, 0)

	for _, v := range registered {
		if !contains(desired, v) {
			toDelete = append(toDelete, v)
		}
	}
	for _, v := range desired {
		if !contains(registered, v) {
			toAdd = append(toAdd, v)
		}
	}
	return toDelete, toAdd
}

func contains(commands []*discordgo.ApplicationCommand, cmd *discordgo.ApplicationCommand) bool {
	for _, v := range commands {
		if equal(v, cmd) {
			return true
		}
	}
	return false
}

func equal(a *discordgo.ApplicationCommand, b *discordgo.ApplicationCommand) bool {
	if a.Name != b.Name || a.Description != b.Description || len(a.Options) != len(b.Options) {
		return false
	}
	for i := range a.Options {
		if a.Options[i].Name != b.Options[i].Name ||
			a.Options[i].Type != b.Options[i].Type ||
			a.Options[i].Required != b.Options[i].Required {
			return false
		}
	}
	return true
}

func simple(config *ChatCommandConfig) *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        config.Name,
		Description: config.Description,
	}
}
