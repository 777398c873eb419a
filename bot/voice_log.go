package bot

import (
	"context"
	"lavalink-music-bot/model"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type voiceLogStore interface {
	PersistVoiceLogs(ctx context.Context, entries ...*model.VoiceLog) error
}

// voiceLogEntries maps a member's voice state change to the log
// entries: leaving the previous channel and joining the new one.
// A change that keeps the channel (mute, deafen) produces none.
func voiceLogEntries(userID string, username string, guildID string, before string, after string, channelName func(string) string, now time.Time) []*model.VoiceLog {
	if before == after {
		return nil
	}
	entries := make([]*model.VoiceLog, 0, 2)
	if len(before) > 0 {
		entries = append(entries, &model.VoiceLog{
			UserID:      userID,
			Username:    username,
			GuildID:     guildID,
			ChannelID:   before,
			ChannelName: channelName(before),
			Action:      model.VoiceLeave,
			Timestamp:   now,
		})
	}
	if len(after) > 0 {
		entries = append(entries, &model.VoiceLog{
			UserID:      userID,
			Username:    username,
			GuildID:     guildID,
			ChannelID:   after,
			ChannelName: channelName(after),
			Action:      model.VoiceJoin,
			Timestamp:   now,
		})
	}
	return entries
}

// recordVoiceActivity persists the members' voice channel
// joins and leaves. Bots are ignored.
func (bot *Bot) recordVoiceActivity(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if bot.voiceLog == nil || v.Member == nil || v.Member.User == nil || v.Member.User.Bot {
		return
	}
	before := ""
	if v.BeforeUpdate != nil {
		before = v.BeforeUpdate.ChannelID
	}
	entries := voiceLogEntries(
		v.UserID,
		v.Member.User.Username,
		v.GuildID,
		before,
		v.ChannelID,
		func(channelID string) string {
			if c, err := s.State.Channel(channelID); err == nil {
				return c.Name
			}
			return channelID
		},
		time.Now(),
	)
	if len(entries) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(bot.ctx, 5*time.Second)
	defer cancel()
	if err := bot.voiceLog.PersistVoiceLogs(ctx, entries...); err != nil {
		bot.WithFields(log.Fields{
			"GuildID": v.GuildID,
			"UserID":  v.UserID,
		}).Warnf("Could not persist voice activity: %v", err)
	}
}
