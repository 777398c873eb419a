package model

import "time"

type Track struct {
	Encoded string    `json:"encoded,omitempty"` // Playable payload (lavalink v4)
	Track   string    `json:"track,omitempty"`   // Playable payload (lavalink v3)
	Info    TrackInfo `json:"info"`
}

type TrackInfo struct {
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	Length     int64  `json:"length"` // Duration in milliseconds
	IsStream   bool   `json:"isStream"`
	IsSeekable bool   `json:"isSeekable"`
	URI        string `json:"uri"`
	ArtworkURL string `json:"artworkUrl"`
	SourceName string `json:"sourceName"`
}

// Payload returns the encoded track that may be sent to the node.
// The v4 field is preferred, the v3 field is used as a fallback.
// Returns false when neither is present.
func (t *Track) Payload() (string, bool) {
	if t == nil {
		return "", false
	}
	if len(t.Encoded) > 0 {
		return t.Encoded, true
	}
	if len(t.Track) > 0 {
		return t.Track, true
	}
	return "", false
}

// Duration returns the track's length as a time.Duration
func (info TrackInfo) Duration() time.Duration {
	return time.Duration(info.Length) * time.Millisecond
}

// DisplayTitle returns the track's title, or a placeholder
// when the node did not report one.
func (info TrackInfo) DisplayTitle() string {
	if len(info.Title) == 0 {
		return "Unknown"
	}
	return info.Title
}
