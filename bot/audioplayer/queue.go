package audioplayer

import (
	"lavalink-music-bot/model"
	"sync"
	"sync/atomic"
	"time"
)

type State int

const (
	StateIdle State = iota
	StateConnecting
	StatePlaying
	StateAdvancing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StatePlaying:
		return "playing"
	case StateAdvancing:
		return "advancing"
	}
	return "unknown"
}

// stateValue is readable without the queue's mutex,
// so a connect in progress can be observed.
type stateValue struct {
	v atomic.Int32
}

func (s *stateValue) load() State {
	return State(s.v.Load())
}

func (s *stateValue) store(state State) {
	s.v.Store(int32(state))
}

// GuildQueue holds the playback state of a single guild.
// All fields but the state are guarded by the mutex, which is
// held by the session for the whole of every transition.
type GuildQueue struct {
	mutex           sync.Mutex
	guildID         string
	state           stateValue
	pending         []*model.Track
	current         *model.Track
	repeat          bool
	skipRequested   bool
	paused          bool
	volume          int
	conn            Connection
	voiceChannelID  string
	outputChannelID string
	panelID         string
	progress        *progress
	// failed is the payload of the track dropped after
	// an exception, its loadFailed end event is ignored
	failed string
}

// Snapshot is a read only copy of the guild's playback state.
type Snapshot struct {
	GuildID         string
	State           State
	Current         *model.Track
	Pending         []*model.Track
	Repeat          bool
	Paused          bool
	Position        time.Duration
	Volume          int
	Connected       bool
	VoiceChannelID  string
	OutputChannelID string
}

func newGuildQueue(guildID string) *GuildQueue {
	return &GuildQueue{
		guildID: guildID,
		pending: make([]*model.Track, 0),
	}
}

func (q *GuildQueue) GuildID() string {
	return q.guildID
}

func (q *GuildQueue) push(tracks ...*model.Track) {
	for _, t := range tracks {
		if t != nil {
			q.pending = append(q.pending, t)
		}
	}
}

func (q *GuildQueue) pushFront(t *model.Track) {
	q.pending = append([]*model.Track{t}, q.pending...)
}

func (q *GuildQueue) pop() *model.Track {
	if len(q.pending) == 0 {
		return nil
	}
	t := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return t
}

func (q *GuildQueue) snapshot() Snapshot {
	s := Snapshot{
		GuildID:         q.guildID,
		State:           q.state.load(),
		Current:         q.current,
		Pending:         append([]*model.Track(nil), q.pending...),
		Repeat:          q.repeat,
		Paused:          q.paused,
		Volume:          q.volume,
		Connected:       q.conn != nil,
		VoiceChannelID:  q.voiceChannelID,
		OutputChannelID: q.outputChannelID,
	}
	if q.conn != nil && q.current != nil {
		s.Position = q.conn.Position()
	}
	return s
}
