package model

import "time"

// VoiceAction is the kind of change recorded in the voice log
type VoiceAction string

const (
	VoiceJoin  VoiceAction = "join"  // Member joined a voice channel
	VoiceLeave VoiceAction = "leave" // Member left a voice channel
)

type GuildSettings struct {
	GuildID string `json:"guild_id"`
	Volume  int    `json:"volume"`
}

type VoiceLog struct {
	ID          uint        `json:"id"`
	UserID      string      `json:"user_id"`
	Username    string      `json:"username"`
	GuildID     string      `json:"guild_id"`
	ChannelID   string      `json:"channel_id"`
	ChannelName string      `json:"channel_name"`
	Action      VoiceAction `json:"action"`
	Timestamp   time.Time   `json:"timestamp"`
}
