package audioplayer

import (
	"context"
	"time"
)

// progress is the in-flight panel refresher of a guild.
type progress struct {
	cancel context.CancelFunc
}

// startProgress starts refreshing the guild's panel every
// ProgressInterval. The caller must hold the queue's mutex.
func (session *Session) startProgress(q *GuildQueue) {
	session.stopProgress(q)
	if q.panelID == "" || session.config.ProgressInterval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(session.ctx)
	p := &progress{cancel: cancel}
	q.progress = p
	go session.runProgress(ctx, q, p)
}

// stopProgress cancels the guild's refresher. Ticks check the
// cancellation under the queue's mutex, so no tick renders after this
// returns. The caller must hold the queue's mutex.
func (session *Session) stopProgress(q *GuildQueue) {
	if q.progress == nil {
		return
	}
	q.progress.cancel()
	q.progress = nil
}

func (session *Session) runProgress(ctx context.Context, q *GuildQueue, p *progress) {
	ticker := time.NewTicker(session.config.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !session.tickProgress(ctx, q, p) {
				return
			}
		}
	}
}

func (session *Session) tickProgress(ctx context.Context, q *GuildQueue, p *progress) bool {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if ctx.Err() != nil || q.progress != p {
		return false
	}
	if q.current == nil || q.panelID == "" {
		session.stopProgress(q)
		return false
	}
	if err := session.renderer.UpdatePanel(
		ctx, q.outputChannelID, q.panelID, q.snapshot(),
	); err != nil {
		session.WithField("GuildID", q.guildID).Warnf(
			"Panel refresh failed, stopping progress: %v", err,
		)
		session.stopProgress(q)
		return false
	}
	return true
}
