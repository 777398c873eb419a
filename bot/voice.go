package bot

import (
	"context"
	"errors"
	"fmt"
	"lavalink-music-bot/bot/audioplayer"
	"lavalink-music-bot/lavalink"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultVoiceJoinTimeout = 10 * time.Second

var ErrVoiceJoinTimeout = errors.New("timed out waiting for the voice server")

// voiceGateway sends the voice state updates to discord.
type voiceGateway interface {
	ChannelVoiceJoinManual(guildID string, channelID string, mute bool, deaf bool) error
}

// voiceNode creates the node's players.
type voiceNode interface {
	CreatePlayer(ctx context.Context, guildID string, voice lavalink.VoiceState, onDisconnect func(context.Context) error) (*lavalink.Player, error)
	UpdateVoice(ctx context.Context, guildID string, voice lavalink.VoiceState) error
}

// voiceJoin collects the voice state and voice server
// updates discord sends after a join request.
type voiceJoin struct {
	channelID string
	voice     lavalink.VoiceState
	done      chan struct{}
	closed    bool
}

func (join *voiceJoin) complete() {
	if !join.closed && len(join.voice.SessionID) > 0 && len(join.voice.Token) > 0 {
		join.closed = true
		close(join.done)
	}
}

// voiceBridge joins the voice channels through the discord
// gateway and hands the voice credentials over to the node.
type voiceBridge struct {
	log     *log.Logger
	gateway voiceGateway
	node    voiceNode
	timeout time.Duration
	mutex   sync.Mutex
	pending map[string]*voiceJoin
	// sessions holds the voice session ids of the connected guilds
	sessions map[string]string
	// channels holds the voice channels of the connected guilds
	channels map[string]string
}

func newVoiceBridge(log *log.Logger, gateway voiceGateway, node voiceNode, timeout time.Duration) *voiceBridge {
	if timeout <= 0 {
		timeout = defaultVoiceJoinTimeout
	}
	return &voiceBridge{
		log:      log,
		gateway:  gateway,
		node:     node,
		timeout:  timeout,
		pending:  make(map[string]*voiceJoin),
		sessions: make(map[string]string),
		channels: make(map[string]string),
	}
}

// Connect joins the voice channel and creates the node's
// player for the guild once discord sent the voice credentials.
func (bridge *voiceBridge) Connect(ctx context.Context, guildID string, channelID string) (audioplayer.Connection, error) {
	join := &voiceJoin{channelID: channelID, done: make(chan struct{})}
	bridge.mutex.Lock()
	bridge.pending[guildID] = join
	previous := bridge.channels[guildID]
	bridge.mutex.Unlock()

	if err := bridge.gateway.ChannelVoiceJoinManual(guildID, channelID, false, true); err != nil {
		bridge.done(guildID, join)
		return nil, fmt.Errorf("join voice channel: %w", err)
	}

	timer := time.NewTimer(bridge.timeout)
	defer timer.Stop()
	select {
	case <-join.done:
	case <-timer.C:
		bridge.done(guildID, join)
		bridge.abort(guildID, previous)
		return nil, ErrVoiceJoinTimeout
	case <-ctx.Done():
		bridge.done(guildID, join)
		bridge.abort(guildID, previous)
		return nil, ctx.Err()
	}
	bridge.done(guildID, join)

	player, err := bridge.node.CreatePlayer(ctx, guildID, join.voice, func(ctx context.Context) error {
		return bridge.leave(guildID)
	})
	if err != nil {
		bridge.abort(guildID, previous)
		return nil, err
	}
	bridge.mutex.Lock()
	bridge.sessions[guildID] = join.voice.SessionID
	bridge.channels[guildID] = channelID
	bridge.mutex.Unlock()
	bridge.log.WithFields(log.Fields{
		"GuildID":   guildID,
		"ChannelID": channelID,
	}).Debug("Voice connection handed over to the node")
	return player, nil
}

// onVoiceStateUpdate records the bot's own voice session.
func (bridge *voiceBridge) onVoiceStateUpdate(guildID string, channelID string, sessionID string) {
	bridge.mutex.Lock()
	defer bridge.mutex.Unlock()

	if join, ok := bridge.pending[guildID]; ok && channelID == join.channelID {
		join.voice.SessionID = sessionID
		join.complete()
		return
	}
	if len(channelID) == 0 {
		delete(bridge.sessions, guildID)
		delete(bridge.channels, guildID)
		return
	}
	if _, ok := bridge.sessions[guildID]; ok {
		bridge.sessions[guildID] = sessionID
		bridge.channels[guildID] = channelID
	}
}

// onVoiceServerUpdate completes a pending join, or forwards
// the new voice server of a connected guild to the node.
func (bridge *voiceBridge) onVoiceServerUpdate(ctx context.Context, guildID string, token string, endpoint string) {
	bridge.mutex.Lock()
	if join, ok := bridge.pending[guildID]; ok {
		join.voice.Token = token
		join.voice.Endpoint = endpoint
		join.complete()
		bridge.mutex.Unlock()
		return
	}
	sessionID, ok := bridge.sessions[guildID]
	bridge.mutex.Unlock()
	if !ok {
		return
	}
	if err := bridge.node.UpdateVoice(ctx, guildID, lavalink.VoiceState{
		Token:     token,
		Endpoint:  endpoint,
		SessionID: sessionID,
	}); err != nil {
		bridge.log.WithField("GuildID", guildID).Warnf("Could not update the voice server: %v", err)
	}
}

// done removes the guild's pending join, so the following
// voice updates go to the connected player, if any.
func (bridge *voiceBridge) done(guildID string, join *voiceJoin) {
	bridge.mutex.Lock()
	defer bridge.mutex.Unlock()
	if bridge.pending[guildID] == join {
		delete(bridge.pending, guildID)
	}
}

// abort undoes a failed join: a guild that was connected to
// another channel goes back to it, otherwise it leaves the voice.
func (bridge *voiceBridge) abort(guildID string, previous string) error {
	bridge.mutex.Lock()
	_, connected := bridge.sessions[guildID]
	bridge.mutex.Unlock()
	if !connected || len(previous) == 0 {
		return bridge.leave(guildID)
	}
	bridge.log.WithFields(log.Fields{
		"GuildID":   guildID,
		"ChannelID": previous,
	}).Debug("Join failed, returning to the previous voice channel")
	return bridge.gateway.ChannelVoiceJoinManual(guildID, previous, false, true)
}

func (bridge *voiceBridge) leave(guildID string) error {
	bridge.mutex.Lock()
	delete(bridge.sessions, guildID)
	delete(bridge.channels, guildID)
	bridge.mutex.Unlock()
	// NOTE: an empty channel id leaves the voice channel
	return bridge.gateway.ChannelVoiceJoinManual(guildID, "", false, false)
}
