package audioplayer

import (
	"context"
	"errors"
	"lavalink-music-bot/datastore"
	"lavalink-music-bot/lavalink"
	"lavalink-music-bot/logging"
	"lavalink-music-bot/model"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultVolume           = 100
	DefaultProgressInterval = 5 * time.Second
	// closeCodeDisconnected is sent by discord when the bot
	// was kicked from the channel or the channel was deleted
	closeCodeDisconnected = 4014
)

type Configuration struct {
	LogLevel         log.Level     `yaml:"LogLevel" validate:"required"`
	ProgressInterval time.Duration `yaml:"ProgressInterval"`
	ConnectDelay     time.Duration `yaml:"ConnectDelay"`
	// DefaultVolume is used when the guild has no saved
	// volume, 100 when not set
	DefaultVolume *int `yaml:"DefaultVolume" validate:"omitempty,min=0,max=100"`
}

// Session drives the playback of every guild's queue. Each
// guild's transitions are serialized by its queue's mutex, held
// for the whole transition, node requests included.
type Session struct {
	*log.Logger
	ctx           context.Context
	config        *Configuration
	defaultVolume int
	node          Node
	settings      SettingsStore
	renderer      Renderer
	queues        *Registry
}

// NewSession constructs an object that handles playing the guilds'
// queues on the node. The provided context bounds the work started
// by the node's events and the panel refreshers.
func NewSession(ctx context.Context, config *Configuration, node Node, settings SettingsStore, renderer Renderer) *Session {
	l := logging.New()
	l.SetLevel(config.LogLevel)
	if config.ProgressInterval == 0 {
		config.ProgressInterval = DefaultProgressInterval
	}
	defaultVolume := DefaultVolume
	if config.DefaultVolume != nil {
		defaultVolume = *config.DefaultVolume
	}
	l.Debug("Session created")
	return &Session{
		Logger:        l,
		ctx:           ctx,
		config:        config,
		defaultVolume: defaultVolume,
		node:          node,
		settings:      settings,
		renderer:      renderer,
		queues:        NewRegistry(),
	}
}

func (session *Session) Queues() *Registry {
	return session.queues
}

// Snapshot returns a copy of the guild's playback state.
func (session *Session) Snapshot(guildID string) Snapshot {
	q := session.queues.GetOrCreate(guildID)
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.snapshot()
}

// State returns the guild's playback state without waiting
// for the transition in progress, if any.
func (session *Session) State(guildID string) State {
	return session.queues.GetOrCreate(guildID).state.load()
}

// SetOutputChannel sets the channel where the guild's
// status panels are posted.
func (session *Session) SetOutputChannel(guildID string, channelID string) {
	q := session.queues.GetOrCreate(guildID)
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.outputChannelID = channelID
}

// Enqueue appends the tracks to the guild's pending tracks
// and returns the number of pending tracks. It does not start playing.
func (session *Session) Enqueue(guildID string, tracks ...*model.Track) int {
	q := session.queues.GetOrCreate(guildID)
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.push(tracks...)
	session.WithFields(log.Fields{
		"GuildID": guildID,
		"Added":   len(tracks),
		"Pending": len(q.pending),
	}).Debug("Tracks enqueued")
	return len(q.pending)
}

// EnsurePlaying starts playing the guild's next pending track,
// connecting to the voice channel first if needed. It does nothing
// while a track is playing and idles when nothing is pending.
func (session *Session) EnsurePlaying(ctx context.Context, guildID string, voiceChannelID string) error {
	q := session.queues.GetOrCreate(guildID)
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return session.ensurePlaying(ctx, q, voiceChannelID)
}

// Skip stops the current track. The queue advances once the node
// reports the end of the track; the skipped track is not repeated.
func (session *Session) Skip(ctx context.Context, guildID string) error {
	q := session.queues.GetOrCreate(guildID)
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.conn == nil {
		return ErrNotConnected
	}
	if q.current == nil {
		return ErrQueueEmpty
	}
	q.skipRequested = true
	session.stopProgress(q)
	if err := q.conn.Stop(ctx); err != nil {
		return &PlaybackError{Kind: NodeRejected, GuildID: guildID, Err: err}
	}
	session.WithField("GuildID", guildID).Debug("Track skipped")
	return nil
}

func (session *Session) Pause(ctx context.Context, guildID string) error {
	return session.setPaused(ctx, guildID, true)
}

func (session *Session) Resume(ctx context.Context, guildID string) error {
	return session.setPaused(ctx, guildID, false)
}

// ToggleRepeat flips the guild's repeat flag and returns the new value.
func (session *Session) ToggleRepeat(guildID string) bool {
	q := session.queues.GetOrCreate(guildID)
	q.mutex.Lock()
	defer q.mutex.Unlock()

	q.repeat = !q.repeat
	return q.repeat
}

// Stop clears the pending tracks and stops the current one,
// the connection is kept.
func (session *Session) Stop(ctx context.Context, guildID string) error {
	q := session.queues.GetOrCreate(guildID)
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.conn == nil {
		return ErrNotConnected
	}
	q.pending = make([]*model.Track, 0)
	if q.current == nil {
		session.idle(ctx, q)
		return nil
	}
	q.skipRequested = true
	session.stopProgress(q)
	if err := q.conn.Stop(ctx); err != nil {
		return &PlaybackError{Kind: NodeRejected, GuildID: guildID, Err: err}
	}
	return nil
}

// SetVolume saves the guild's volume and applies
// it to the live connection, if any.
func (session *Session) SetVolume(ctx context.Context, guildID string, volume int) error {
	if volume < 0 || volume > 100 {
		return ErrInvalidVolume
	}
	q := session.queues.GetOrCreate(guildID)
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if session.settings != nil {
		if err := session.settings.SetVolume(ctx, guildID, volume); err != nil {
			return err
		}
	}
	q.volume = volume
	if q.conn == nil {
		return nil
	}
	if err := q.conn.SetVolume(ctx, volume); err != nil {
		return &PlaybackError{Kind: NodeRejected, GuildID: guildID, Err: err}
	}
	session.refreshPanel(ctx, q)
	return nil
}

// Connect joins the voice channel without starting playback. Joining
// another channel replaces the existing connection and the current
// track is played again from the start in the new channel. When the
// new channel can not be joined the existing connection is kept.
func (session *Session) Connect(ctx context.Context, guildID string, voiceChannelID string) error {
	q := session.queues.GetOrCreate(guildID)
	q.mutex.Lock()
	defer q.mutex.Unlock()

	previous, current := q.conn, q.current
	if previous != nil && q.voiceChannelID == voiceChannelID {
		return nil
	}
	err := session.connect(ctx, q, voiceChannelID)
	if previous != nil && q.conn != previous {
		session.release(ctx, q, previous, current)
	}
	if err != nil {
		return err
	}
	return session.ensurePlaying(ctx, q, voiceChannelID)
}

// release drops the connection replaced by a move to another
// channel, the track it was playing goes back to the head.
func (session *Session) release(ctx context.Context, q *GuildQueue, previous Connection, current *model.Track) {
	session.stopProgress(q)
	session.removePanel(ctx, q)
	if current != nil {
		q.pushFront(current)
	}
	q.current = nil
	q.skipRequested = false
	q.paused = false
	q.failed = ""
	// NOTE: the node already replaced the previous player,
	// so this only releases the handle
	if err := previous.Disconnect(ctx); err != nil {
		session.WithField("GuildID", q.guildID).Debugf("Release previous connection: %v", err)
	}
}

// Disconnect leaves the voice channel and clears the guild's
// tracks. The guild's queue is kept in the registry.
func (session *Session) Disconnect(ctx context.Context, guildID string) error {
	q := session.queues.GetOrCreate(guildID)
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.conn == nil {
		return ErrNotConnected
	}
	q.pending = make([]*model.Track, 0)
	q.current = nil
	return session.teardown(ctx, q)
}

// RefreshPanel re-renders the guild's status panel.
func (session *Session) RefreshPanel(ctx context.Context, guildID string) {
	q := session.queues.GetOrCreate(guildID)
	q.mutex.Lock()
	defer q.mutex.Unlock()

	session.refreshPanel(ctx, q)
}

// ensurePlaying is EnsurePlaying with the queue's mutex held.
func (session *Session) ensurePlaying(ctx context.Context, q *GuildQueue, voiceChannelID string) error {
	if q.current != nil {
		return nil
	}
	if len(q.pending) == 0 {
		session.idle(ctx, q)
		return nil
	}
	if q.conn == nil {
		if len(voiceChannelID) == 0 {
			voiceChannelID = q.voiceChannelID
		}
		if len(voiceChannelID) == 0 {
			return ErrNotConnected
		}
		if err := session.connect(ctx, q, voiceChannelID); err != nil {
			return err
		}
	}

	var missing error
	for len(q.pending) > 0 {
		t := q.pending[0]
		payload, ok := t.Payload()
		if !ok {
			q.pop()
			session.WithFields(log.Fields{
				"GuildID": q.guildID,
				"Title":   t.Info.DisplayTitle(),
			}).Warn("Track has no payload, dropping it")
			missing = &PlaybackError{Kind: MissingPayload, GuildID: q.guildID}
			continue
		}
		q.state.store(StateAdvancing)
		if err := q.conn.Play(ctx, payload); err != nil {
			q.pop()
			q.state.store(StateIdle)
			session.WithField("GuildID", q.guildID).Warnf("Play request failed: %v", err)
			return &PlaybackError{Kind: NodeRejected, GuildID: q.guildID, Err: err}
		}
		q.pop()
		q.current = t
		q.paused = false
		q.skipRequested = false
		q.state.store(StatePlaying)
		session.WithFields(log.Fields{
			"GuildID": q.guildID,
			"Title":   t.Info.DisplayTitle(),
			"Pending": len(q.pending),
		}).Info("Track started")
		session.showPanel(ctx, q)
		return nil
	}
	session.idle(ctx, q)
	return missing
}

// connect creates the guild's connection handle. On failure
// the queue is left as it was before the call.
func (session *Session) connect(ctx context.Context, q *GuildQueue, voiceChannelID string) error {
	t := time.Now()
	previous := q.state.load()
	q.state.store(StateConnecting)

	conn, err := session.node.Connect(ctx, q.guildID, voiceChannelID)
	if err != nil {
		q.state.store(previous)
		kind := ConnectFailed
		if errors.Is(err, lavalink.ErrNodeUnavailable) {
			kind = NoNode
		}
		return &PlaybackError{Kind: kind, GuildID: q.guildID, Err: err}
	}
	if !conn.Listen(&guildListener{session: session, queue: q, conn: conn}) {
		conn.Disconnect(ctx)
		q.state.store(previous)
		return &PlaybackError{
			Kind:    ConnectFailed,
			GuildID: q.guildID,
			Err:     errors.New("connection already has a listener"),
		}
	}
	q.conn = conn
	q.voiceChannelID = voiceChannelID
	q.state.store(StateIdle)

	volume := session.savedVolume(ctx, q.guildID)
	if err := conn.SetVolume(ctx, volume); err != nil {
		session.WithField("GuildID", q.guildID).Warnf("Could not apply volume: %v", err)
	}
	q.volume = volume

	session.WithFields(log.Fields{
		"GuildID":   q.guildID,
		"ChannelID": voiceChannelID,
		"Latency":   time.Since(t),
	}).Info("Connected")

	if session.config.ConnectDelay > 0 {
		// NOTE: give the node time to establish the voice
		// connection before the first play request
		timer := time.NewTimer(session.config.ConnectDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

func (session *Session) savedVolume(ctx context.Context, guildID string) int {
	if session.settings == nil {
		return session.defaultVolume
	}
	volume, err := session.settings.GetVolume(ctx, guildID)
	if err != nil {
		if !errors.Is(err, datastore.ErrNotFound) {
			session.WithField("GuildID", guildID).Warnf("Could not fetch volume: %v", err)
		}
		return session.defaultVolume
	}
	return volume
}

func (session *Session) setPaused(ctx context.Context, guildID string, paused bool) error {
	q := session.queues.GetOrCreate(guildID)
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.conn == nil {
		return ErrNotConnected
	}
	if err := q.conn.SetPaused(ctx, paused); err != nil {
		return &PlaybackError{Kind: NodeRejected, GuildID: guildID, Err: err}
	}
	q.paused = paused
	session.refreshPanel(ctx, q)
	return nil
}

// teardown disconnects the handle and clears the live state.
// Pending tracks are left to the caller.
func (session *Session) teardown(ctx context.Context, q *GuildQueue) error {
	session.stopProgress(q)
	session.removePanel(ctx, q)

	conn := q.conn
	q.conn = nil
	q.current = nil
	q.skipRequested = false
	q.paused = false
	q.failed = ""
	q.state.store(StateIdle)
	if conn == nil {
		return nil
	}
	err := conn.Disconnect(ctx)
	session.WithField("GuildID", q.guildID).Info("Disconnected")
	return err
}

// idle stops the panel of a queue with nothing left to
// play, the connection is kept.
func (session *Session) idle(ctx context.Context, q *GuildQueue) {
	session.stopProgress(q)
	session.removePanel(ctx, q)
	q.state.store(StateIdle)
}

func (session *Session) showPanel(ctx context.Context, q *GuildQueue) {
	session.stopProgress(q)
	session.removePanel(ctx, q)
	if session.renderer == nil || len(q.outputChannelID) == 0 {
		return
	}
	panelID, err := session.renderer.ShowPanel(ctx, q.outputChannelID, q.snapshot())
	if err != nil {
		session.WithField("GuildID", q.guildID).Warnf("Could not show panel: %v", err)
		return
	}
	q.panelID = panelID
	session.startProgress(q)
}

func (session *Session) refreshPanel(ctx context.Context, q *GuildQueue) {
	if session.renderer == nil || len(q.panelID) == 0 {
		return
	}
	if err := session.renderer.UpdatePanel(
		ctx, q.outputChannelID, q.panelID, q.snapshot(),
	); err != nil {
		session.WithField("GuildID", q.guildID).Warnf("Could not update panel: %v", err)
	}
}

func (session *Session) removePanel(ctx context.Context, q *GuildQueue) {
	if len(q.panelID) == 0 {
		return
	}
	panelID := q.panelID
	q.panelID = ""
	if session.renderer == nil {
		return
	}
	if err := session.renderer.RemovePanel(ctx, q.outputChannelID, panelID); err != nil {
		session.WithField("GuildID", q.guildID).Debugf("Could not remove panel: %v", err)
	}
}
