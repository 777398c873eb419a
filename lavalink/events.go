package lavalink

import "lavalink-music-bot/model"

type OpType string

const (
	OpReady        OpType = "ready"
	OpPlayerUpdate OpType = "playerUpdate"
	OpStats        OpType = "stats"
	OpEvent        OpType = "event"
)

type EventType string

const (
	TrackStartEvent     EventType = "TrackStartEvent"
	TrackEndEvent       EventType = "TrackEndEvent"
	TrackExceptionEvent EventType = "TrackExceptionEvent"
	TrackStuckEvent     EventType = "TrackStuckEvent"
	WebSocketClosed     EventType = "WebSocketClosedEvent"
)

// EndReason tells why the node stopped playing a track
type EndReason string

const (
	EndFinished   EndReason = "finished"   // Track played to the end
	EndLoadFailed EndReason = "loadFailed" // Track failed to start or was interrupted by an exception
	EndStopped    EndReason = "stopped"    // Track was stopped with a stop request
	EndReplaced   EndReason = "replaced"   // A new play request replaced the track
	EndCleanup    EndReason = "cleanup"    // Player was destroyed
)

// MayStartNext reports whether the queue may advance after the end.
// Unlike the node's own mayStartNext, stopped tracks advance too,
// since skipping is done with a stop request.
func (r EndReason) MayStartNext() bool {
	return r == EndFinished || r == EndLoadFailed || r == EndStopped
}

type Exception struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
	Cause    string `json:"cause"`
}

type message struct {
	Op        OpType       `json:"op"`
	Type      EventType    `json:"type"`
	GuildID   string       `json:"guildId"`
	SessionID string       `json:"sessionId"`
	Resumed   bool         `json:"resumed"`
	State     *PlayerState `json:"state"`
	Track     *model.Track `json:"track"`
	Reason    string       `json:"reason"`
	Exception *Exception   `json:"exception"`
	Threshold int64        `json:"thresholdMs"`
	Code      int          `json:"code"`
	ByRemote  bool         `json:"byRemote"`
}

type PlayerState struct {
	Time      int64 `json:"time"`
	Position  int64 `json:"position"` // Position of the current track in milliseconds
	Connected bool  `json:"connected"`
	Ping      int   `json:"ping"`
}

type TrackEnd struct {
	GuildID string
	Track   *model.Track
	Reason  EndReason
}

type TrackException struct {
	GuildID   string
	Track     *model.Track
	Exception Exception
}

type TrackStuck struct {
	GuildID   string
	Track     *model.Track
	Threshold int64
}

// CloseSessionLost is the code of the SocketClosed event sent by the
// client itself to the players lost with the node's websocket session.
const CloseSessionLost = -1

type SocketClosed struct {
	GuildID  string
	Code     int
	Reason   string
	ByRemote bool
}

// Listener receives the lifecycle events of a single player.
// Events are delivered one at a time, in the order the node emitted them.
type Listener interface {
	OnTrackEnd(e TrackEnd)
	OnTrackException(e TrackException)
	OnTrackStuck(e TrackStuck)
	OnSocketClosed(e SocketClosed)
}
