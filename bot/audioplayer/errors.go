package audioplayer

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected  = errors.New("not connected to a voice channel")
	ErrQueueEmpty    = errors.New("nothing is playing")
	ErrInvalidVolume = errors.New("volume must be between 0 and 100")
)

type PlaybackErrorKind int

const (
	NoNode PlaybackErrorKind = iota
	MissingPayload
	ConnectFailed
	NodeRejected
)

func (k PlaybackErrorKind) String() string {
	switch k {
	case NoNode:
		return "no node available"
	case MissingPayload:
		return "track has no playable payload"
	case ConnectFailed:
		return "could not connect"
	case NodeRejected:
		return "node rejected the request"
	}
	return "unknown playback error"
}

// PlaybackError is returned when the session could
// not start or control playback for a guild.
type PlaybackError struct {
	Kind    PlaybackErrorKind
	GuildID string
	Err     error
}

func (e *PlaybackError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("guild %s: %s", e.GuildID, e.Kind)
	}
	return fmt.Sprintf("guild %s: %s: %v", e.GuildID, e.Kind, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// IsPlaybackError reports whether err is a PlaybackError of the given kind.
func IsPlaybackError(err error, kind PlaybackErrorKind) bool {
	var pe *PlaybackError
	return errors.As(err, &pe) && pe.Kind == kind
}
