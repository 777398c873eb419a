package builder

import (
	"fmt"
	"lavalink-music-bot/model"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// discord's select menus allow at most 25 options
const maxSelectOptions = 25

// SelectionComponents constructs the select menu offering the search
// results. The option values are the indexes of the tracks.
func (builder *Builder) SelectionComponents(customID string, tracks []*model.Track) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(tracks))
	for i, t := range tracks {
		if i >= maxSelectOptions {
			break
		}
		description := FormatTrackLength(t)
		if len(t.Info.Author) > 0 {
			description = fmt.Sprintf("%s • %s", Truncate(t.Info.Author, 80), description)
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       Truncate(fmt.Sprintf("%d. %s", i+1, t.Info.DisplayTitle()), 100),
			Value:       strconv.Itoa(i),
			Description: Truncate(description, 100),
		})
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    customID,
					Placeholder: "Select a track",
					Options:     options,
				},
			},
		},
	}
}

// SelectedIndex parses the selected option's value into the
// index of the track, checked against the number of tracks.
func (builder *Builder) SelectedIndex(data discordgo.MessageComponentInteractionData, count int) (int, error) {
	if len(data.Values) != 1 {
		return 0, fmt.Errorf("expected one selected value, got %d", len(data.Values))
	}
	idx, err := strconv.Atoi(data.Values[0])
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= count {
		return 0, fmt.Errorf("selected index %d out of range", idx)
	}
	return idx, nil
}
