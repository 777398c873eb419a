package audioplayer

import (
	"lavalink-music-bot/lavalink"
	"lavalink-music-bot/model"

	log "github.com/sirupsen/logrus"
)

// guildListener receives the node's events for a single
// connection handle of a guild.
type guildListener struct {
	session *Session
	queue   *GuildQueue
	conn    Connection
}

func (l *guildListener) OnTrackEnd(e lavalink.TrackEnd) {
	l.session.onTrackEnd(l.queue, l.conn, e)
}

func (l *guildListener) OnTrackException(e lavalink.TrackException) {
	l.session.onTrackException(l.queue, l.conn, e)
}

func (l *guildListener) OnTrackStuck(e lavalink.TrackStuck) {
	l.session.onTrackStuck(l.queue, l.conn, e)
}

func (l *guildListener) OnSocketClosed(e lavalink.SocketClosed) {
	l.session.onSocketClosed(l.queue, l.conn, e)
}

func (session *Session) onTrackEnd(q *GuildQueue, conn Connection, e lavalink.TrackEnd) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	entry := session.WithFields(log.Fields{
		"GuildID": q.guildID,
		"Reason":  e.Reason,
	})
	if e.Reason == lavalink.EndLoadFailed && len(q.failed) > 0 && payloadOf(e.Track) == q.failed {
		// NOTE: the track was already dropped by its exception
		q.failed = ""
		entry.Trace("Ignoring end of a failed track")
		return
	}
	if e.Reason == lavalink.EndReplaced {
		entry.Trace("Ignoring end of a replaced track")
		return
	}
	if q.conn != conn || !isCurrent(q.current, e.Track) {
		entry.Debug("Ignoring stale track end")
		return
	}

	session.stopProgress(q)
	if q.repeat && !q.skipRequested && e.Reason != lavalink.EndLoadFailed {
		q.pushFront(q.current)
	}
	q.skipRequested = false
	q.current = nil
	q.paused = false
	entry.Debug("Track ended")

	if !e.Reason.MayStartNext() {
		session.idle(session.ctx, q)
		return
	}
	session.advance(q)
}

func (session *Session) onTrackException(q *GuildQueue, conn Connection, e lavalink.TrackException) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.conn != conn || !isCurrent(q.current, e.Track) {
		return
	}
	session.WithFields(log.Fields{
		"GuildID":  q.guildID,
		"Title":    q.current.Info.DisplayTitle(),
		"Severity": e.Exception.Severity,
	}).Warnf("Track exception: %s", e.Exception.Message)

	session.stopProgress(q)
	q.failed, _ = q.current.Payload()
	q.current = nil
	q.skipRequested = false
	q.paused = false
	session.advance(q)
}

// onTrackStuck stops the stuck track, the queue then
// advances through the track's end event.
func (session *Session) onTrackStuck(q *GuildQueue, conn Connection, e lavalink.TrackStuck) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.conn != conn || !isCurrent(q.current, e.Track) {
		return
	}
	session.WithFields(log.Fields{
		"GuildID":   q.guildID,
		"Threshold": e.Threshold,
	}).Warn("Track stuck, skipping it")

	q.skipRequested = true
	session.stopProgress(q)
	if err := conn.Stop(session.ctx); err != nil {
		session.WithField("GuildID", q.guildID).Warnf("Could not stop stuck track: %v", err)
	}
}

func (session *Session) onSocketClosed(q *GuildQueue, conn Connection, e lavalink.SocketClosed) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	entry := session.WithFields(log.Fields{
		"GuildID":  q.guildID,
		"Code":     e.Code,
		"ByRemote": e.ByRemote,
	})
	if q.conn != conn {
		return
	}
	switch e.Code {
	case closeCodeDisconnected:
		entry.Info("Removed from the voice channel, releasing the session")
		q.pending = make([]*model.Track, 0)
		q.current = nil
	case lavalink.CloseSessionLost:
		// NOTE: the node dropped the player, the interrupted
		// track is played again on the next connection
		entry.Warn("Node session lost, releasing the session")
		if q.current != nil {
			q.pushFront(q.current)
			q.current = nil
		}
	default:
		entry.Debugf("Voice socket closed: %s", e.Reason)
		return
	}
	if err := session.teardown(session.ctx, q); err != nil {
		entry.Debugf("Teardown: %v", err)
	}
}

// advance starts the next track after the current one
// terminated. The caller must hold the queue's mutex.
func (session *Session) advance(q *GuildQueue) {
	q.state.store(StateAdvancing)
	if err := session.ensurePlaying(session.ctx, q, ""); err != nil {
		session.WithField("GuildID", q.guildID).Warnf("Could not advance: %v", err)
		if q.current == nil {
			session.idle(session.ctx, q)
		}
	}
}

// isCurrent reports whether the event's track is the current one.
// Events without a track are attributed to the current one.
func isCurrent(current *model.Track, t *model.Track) bool {
	if current == nil {
		return false
	}
	if t == nil {
		return true
	}
	a, b := payloadOf(current), payloadOf(t)
	if len(a) > 0 && len(b) > 0 {
		return a == b
	}
	return current.Info.Identifier == t.Info.Identifier
}

func payloadOf(t *model.Track) string {
	payload, _ := t.Payload()
	return payload
}
