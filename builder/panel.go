package builder

import (
	"fmt"
	"lavalink-music-bot/bot/audioplayer"
	"lavalink-music-bot/model"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// PanelEmbed maps the guild's snapshot to the status panel's embed.
// The current track is in the first field, with a progress bar,
// and the next pending tracks, limited by NextLimit, in the second.
func (builder *Builder) PanelEmbed(snapshot audioplayer.Snapshot) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       builder.config.Title,
		Description: builder.config.Description,
		Color:       builder.config.Color,
		Fields:      make([]*discordgo.MessageEmbedField, 0),
		Footer: &discordgo.MessageEmbedFooter{
			Text: builder.footer(snapshot),
		},
	}
	if t := snapshot.Current; t != nil {
		now := fmt.Sprintf("> [%s](%s)", Truncate(t.Info.DisplayTitle(), 80), t.Info.URI)
		if len(t.Info.URI) == 0 {
			now = "> " + Truncate(t.Info.DisplayTitle(), 80)
		}
		if len(t.Info.Author) > 0 {
			now += "\n> " + Truncate(t.Info.Author, 60)
		}
		now += "\n" + builder.progressLine(t, snapshot.Position, snapshot.Paused)
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Now",
			Value: now,
		})
		if len(t.Info.ArtworkURL) > 0 {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: t.Info.ArtworkURL}
		}
	}
	if len(snapshot.Pending) > 0 {
		lines := make([]string, 0, builder.config.NextLimit+1)
		for i, t := range snapshot.Pending {
			if i >= builder.config.NextLimit {
				lines = append(lines, fmt.Sprintf(
					"*... and %d more*", len(snapshot.Pending)-i,
				))
				break
			}
			lines = append(lines, fmt.Sprintf(
				"***%d***　%s `%s`",
				i+1,
				Truncate(t.Info.DisplayTitle(), 50),
				FormatTrackLength(t),
			))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Next (%d)", len(snapshot.Pending)),
			Value: strings.Join(lines, "\n"),
		})
	}
	return embed
}

// PanelComponents constructs the panel's buttons, they
// vary based on the snapshot's state.
func (builder *Builder) PanelComponents(snapshot audioplayer.Snapshot) []discordgo.MessageComponent {
	buttons := builder.config.Buttons
	playing := snapshot.Current != nil

	pause := builder.newButton(buttons.Pause, discordgo.SecondaryButton, !playing)
	if snapshot.Paused {
		pause = builder.newButton(buttons.Resume, discordgo.SuccessButton, !playing)
	}
	repeatStyle := discordgo.SecondaryButton
	if snapshot.Repeat {
		repeatStyle = discordgo.SuccessButton
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				pause,
				builder.newButton(buttons.Skip, discordgo.SecondaryButton, !playing || snapshot.Paused),
				builder.newButton(buttons.Repeat, repeatStyle, false),
				builder.newButton(buttons.Stop, discordgo.DangerButton, !playing),
			},
		},
	}
}

func (builder *Builder) footer(snapshot audioplayer.Snapshot) string {
	parts := make([]string, 0, 4)
	if len(builder.config.Footer) > 0 {
		parts = append(parts, builder.config.Footer)
	}
	parts = append(parts, fmt.Sprintf("Volume: %d", snapshot.Volume))
	if snapshot.Repeat {
		parts = append(parts, "Repeat")
	}
	if snapshot.Paused {
		parts = append(parts, "Paused")
	}
	return strings.Join(parts, " • ")
}

func (builder *Builder) progressLine(t *model.Track, position time.Duration, paused bool) string {
	icon := "▶"
	if paused {
		icon = "⏸"
	}
	if t.Info.IsStream {
		return fmt.Sprintf("%s `LIVE`", icon)
	}
	length := t.Info.Duration()
	return fmt.Sprintf(
		"%s `%s` %s `%s`",
		icon,
		FormatDuration(position),
		ProgressBar(position, length, builder.config.BarWidth),
		FormatDuration(length),
	)
}

// ProgressBar draws a bar of the given width with
// the marker placed at the position.
func ProgressBar(position time.Duration, length time.Duration, width int) string {
	if width <= 0 {
		return ""
	}
	idx := 0
	if length > 0 {
		if position > length {
			position = length
		}
		if position > 0 {
			idx = int(int64(position) * int64(width-1) / int64(length))
		}
	}
	return strings.Repeat("─", idx) + "●" + strings.Repeat("─", width-idx-1)
}

// FormatDuration formats the duration as m:ss,
// or h:mm:ss when it is longer than an hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	h, m, s := s/3600, (s%3600)/60, s%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatTrackLength returns the track's formatted
// length or LIVE for streams.
func FormatTrackLength(t *model.Track) string {
	if t.Info.IsStream {
		return "LIVE"
	}
	return FormatDuration(t.Info.Duration())
}

// Truncate shortens the text to at most max runes,
// ending it with an ellipsis when shortened.
func Truncate(text string, max int) string {
	text = strings.TrimSpace(text)
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
