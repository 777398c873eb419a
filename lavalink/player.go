package lavalink

import (
	"context"
	"time"
)

const playerEventsBuffer = 64

// Player is the node's per guild player, a live
// connection handle for a single guild.
type Player struct {
	node         *Node
	guildID      string
	sub          *subscription
	onDisconnect func(context.Context) error
	state        PlayerState
	stateAt      time.Time
	paused       bool
	// replaced is set when a newer player of the
	// guild took this one's place on the node
	replaced bool
}

func newPlayer(node *Node, guildID string, onDisconnect func(context.Context) error) *Player {
	return &Player{
		node:         node,
		guildID:      guildID,
		sub:          newSubscription(playerEventsBuffer),
		onDisconnect: onDisconnect,
	}
}

func (p *Player) GuildID() string {
	return p.guildID
}

// Listen registers the listener for the player's events.
// Only the first registration succeeds, further calls return false.
func (p *Player) Listen(l Listener) bool {
	return p.sub.Subscribe(l)
}

// Play starts playing the provided encoded track,
// replacing the currently playing track, if any.
func (p *Player) Play(ctx context.Context, encoded string) error {
	paused := false
	if err := p.node.updatePlayer(ctx, p.guildID, &playerUpdate{
		Track:  &trackUpdate{Encoded: &encoded},
		Paused: &paused,
	}); err != nil {
		return err
	}
	p.node.mutex.Lock()
	p.paused = false
	p.state = PlayerState{}
	p.stateAt = time.Now()
	p.node.mutex.Unlock()
	return nil
}

// Stop stops the current track. The node then emits
// a track end event with the stopped reason.
func (p *Player) Stop(ctx context.Context) error {
	return p.node.updatePlayer(ctx, p.guildID, &playerUpdate{
		Track: &trackUpdate{Encoded: nil},
	})
}

func (p *Player) SetPaused(ctx context.Context, paused bool) error {
	if err := p.node.updatePlayer(ctx, p.guildID, &playerUpdate{Paused: &paused}); err != nil {
		return err
	}
	p.node.mutex.Lock()
	defer p.node.mutex.Unlock()
	// NOTE: fold the elapsed time into the position, so
	// it stays frozen while paused
	if paused && !p.paused {
		p.state.Position += time.Since(p.stateAt).Milliseconds()
	}
	p.paused = paused
	p.stateAt = time.Now()
	return nil
}

func (p *Player) SetVolume(ctx context.Context, volume int) error {
	return p.node.updatePlayer(ctx, p.guildID, &playerUpdate{Volume: &volume})
}

// Position returns the playback position of the current track,
// extrapolated from the node's latest player update.
func (p *Player) Position() time.Duration {
	p.node.mutex.RLock()
	defer p.node.mutex.RUnlock()

	pos := time.Duration(p.state.Position) * time.Millisecond
	if !p.paused && !p.stateAt.IsZero() {
		pos += time.Since(p.stateAt)
	}
	return pos
}

// Disconnect destroys the player on the node and leaves the
// voice channel. The player must not be used afterwards.
// A replaced player is only released.
func (p *Player) Disconnect(ctx context.Context) error {
	p.close()
	p.node.mutex.RLock()
	replaced := p.replaced
	p.node.mutex.RUnlock()
	if replaced {
		return nil
	}
	err := p.node.destroyPlayer(ctx, p)
	if p.onDisconnect != nil {
		if err2 := p.onDisconnect(ctx); err == nil {
			err = err2
		}
	}
	return err
}

func (p *Player) setState(state PlayerState) {
	p.node.mutex.Lock()
	defer p.node.mutex.Unlock()
	p.state = state
	p.stateAt = time.Now()
}

func (p *Player) close() {
	p.sub.Close()
}
