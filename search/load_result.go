package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"lavalink-music-bot/model"
)

// Kind discriminates the shapes of the node's load tracks response
type Kind int

const (
	KindNull     Kind = iota // null or empty body
	KindTrack                // a single track was loaded
	KindPlaylist             // a playlist was loaded
	KindSearch               // search results
	KindEmpty                // nothing matched
	KindError                // the node failed to load
	KindLegacy               // object without a discriminator, tracks at the top level
	KindArray                // flat array of tracks
)

func (k Kind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindPlaylist:
		return "playlist"
	case KindSearch:
		return "search"
	case KindEmpty:
		return "empty"
	case KindError:
		return "error"
	case KindLegacy:
		return "legacy"
	case KindArray:
		return "array"
	}
	return "null"
}

// LoadResult is the normalized load tracks response
type LoadResult struct {
	Kind     Kind
	Tracks   []*model.Track
	Playlist string // Name of the loaded playlist, if any
	Message  string // Failure message, for KindError
}

type envelope struct {
	LoadType     string          `json:"loadType"`
	Data         json.RawMessage `json:"data"`
	Tracks       json.RawMessage `json:"tracks"`
	PlaylistInfo *playlistInfo   `json:"playlistInfo"`
	Exception    *loadException  `json:"exception"`
}

type playlistInfo struct {
	Name string `json:"name"`
}

type loadException struct {
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// data is the union of the shapes the "data" field may take
type data struct {
	Info      *playlistInfo   `json:"info"`
	Tracks    json.RawMessage `json:"tracks"`
	Encoded   string          `json:"encoded"`
	Track     string          `json:"track"`
	Message   string          `json:"message"`
	Exception *loadException  `json:"exception"`
}

var loadTypes = map[string]Kind{
	"track":           KindTrack,
	"playlist":        KindPlaylist,
	"search":          KindSearch,
	"empty":           KindEmpty,
	"error":           KindError,
	"TRACK_LOADED":    KindTrack,
	"PLAYLIST_LOADED": KindPlaylist,
	"SEARCH_RESULT":   KindSearch,
	"NO_MATCHES":      KindEmpty,
	"LOAD_FAILED":     KindError,
}

type normalizer func(e *envelope, result *LoadResult) error

var normalizers = map[Kind]normalizer{
	KindTrack:    normalizeLoaded,
	KindPlaylist: normalizePlaylist,
	KindSearch:   normalizeLoaded,
	KindEmpty:    func(*envelope, *LoadResult) error { return nil },
	KindError:    normalizeError,
	KindLegacy:   normalizeLegacy,
}

// ParseLoadResult decodes the node's raw load tracks response
// into a LoadResult, whichever node version produced it.
func ParseLoadResult(raw []byte) (*LoadResult, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return &LoadResult{Kind: KindNull}, nil
	}
	if raw[0] == '[' {
		tracks, err := decodeTracks(raw)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Kind: KindArray, Tracks: tracks}, nil
	}

	e := &envelope{}
	if err := json.Unmarshal(raw, e); err != nil {
		return nil, err
	}
	kind, ok := loadTypes[e.LoadType]
	if !ok {
		if len(e.LoadType) > 0 {
			return nil, fmt.Errorf("unknown load type '%s'", e.LoadType)
		}
		if len(e.Tracks) == 0 {
			return &LoadResult{Kind: KindNull}, nil
		}
		kind = KindLegacy
	}
	result := &LoadResult{Kind: kind}
	if err := normalizers[kind](e, result); err != nil {
		return nil, err
	}
	return result, nil
}

// normalizeLoaded handles track and search results. Their data
// is an array, an object with tracks, or a single track.
// Responses of older nodes carry the tracks at the top level.
func normalizeLoaded(e *envelope, result *LoadResult) error {
	if isEmptyJSON(e.Data) {
		return normalizeLegacy(e, result)
	}
	tracks, name, err := decodeData(e.Data)
	if err != nil {
		return err
	}
	result.Tracks = tracks
	result.Playlist = name
	return nil
}

func normalizePlaylist(e *envelope, result *LoadResult) error {
	if err := normalizeLoaded(e, result); err != nil {
		return err
	}
	if len(result.Playlist) == 0 && e.PlaylistInfo != nil {
		result.Playlist = e.PlaylistInfo.Name
	}
	return nil
}

func normalizeError(e *envelope, result *LoadResult) error {
	if e.Exception != nil {
		result.Message = e.Exception.Message
		return nil
	}
	if isEmptyJSON(e.Data) {
		return nil
	}
	d := &data{}
	if err := json.Unmarshal(e.Data, d); err != nil {
		return nil
	}
	result.Message = d.Message
	return nil
}

func normalizeLegacy(e *envelope, result *LoadResult) error {
	if isEmptyJSON(e.Tracks) {
		return nil
	}
	tracks, err := decodeTracks(e.Tracks)
	if err != nil {
		return err
	}
	result.Tracks = tracks
	if e.PlaylistInfo != nil {
		result.Playlist = e.PlaylistInfo.Name
	}
	return nil
}

func decodeData(raw json.RawMessage) ([]*model.Track, string, error) {
	if raw[0] == '[' {
		tracks, err := decodeTracks(raw)
		return tracks, "", err
	}
	d := &data{}
	if err := json.Unmarshal(raw, d); err != nil {
		return nil, "", err
	}
	name := ""
	if d.Info != nil {
		name = d.Info.Name
	}
	if !isEmptyJSON(d.Tracks) {
		tracks, err := decodeTracks(d.Tracks)
		return tracks, name, err
	}
	if len(d.Encoded) > 0 || len(d.Track) > 0 {
		track := &model.Track{}
		if err := json.Unmarshal(raw, track); err != nil {
			return nil, "", err
		}
		return []*model.Track{track}, name, nil
	}
	return nil, name, nil
}

func decodeTracks(raw json.RawMessage) ([]*model.Track, error) {
	tracks := make([]*model.Track, 0)
	if err := json.Unmarshal(raw, &tracks); err != nil {
		return nil, err
	}
	// NOTE: drop nulls, so callers never see a nil track
	filtered := tracks[:0]
	for _, t := range tracks {
		if t != nil {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
