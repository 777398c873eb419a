// Package builder maps the guilds' playback state
// to discord embeds and components.
package builder

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

type Configuration struct {
	Title       string         `yaml:"Title" validate:"required"`
	Description string         `yaml:"Description"`
	Footer      string         `yaml:"Footer"`
	Color       int            `yaml:"Color"`
	NextLimit   int            `yaml:"NextLimit" validate:"min=0,max=20"`
	BarWidth    int            `yaml:"BarWidth" validate:"min=0,max=40"`
	Buttons     *ButtonsConfig `yaml:"Buttons" validate:"required"`
}

type ButtonsConfig struct {
	Skip   string `yaml:"Skip" validate:"required"`
	Pause  string `yaml:"Pause" validate:"required"`
	Resume string `yaml:"Resume" validate:"required"`
	Repeat string `yaml:"Repeat" validate:"required"`
	Stop   string `yaml:"Stop" validate:"required"`
}

type Builder struct {
	config *Configuration
}

// NewBuilder constructs an object that handles building
// the panels' embeds, components and the search
// selection menus.
func NewBuilder(config *Configuration) *Builder {
	if config.NextLimit == 0 {
		config.NextLimit = 5
	}
	if config.BarWidth == 0 {
		config.BarWidth = 20
	}
	return &Builder{config: config}
}

// ButtonsConfig returns the builder's buttons config.
func (builder *Builder) ButtonsConfig() *ButtonsConfig {
	return builder.config.Buttons
}

// ButtonLabel returns the button's label from its customID
func (builder *Builder) ButtonLabel(data discordgo.MessageComponentInteractionData) string {
	return strings.Split(data.CustomID, "<split>")[0]
}

func (builder *Builder) newButton(label string, style discordgo.ButtonStyle, disabled bool) discordgo.Button {
	return discordgo.Button{
		CustomID: label + "<split>" + uuid.NewString(),
		Label:    label,
		Style:    style,
		Disabled: disabled,
	}
}
