package lavalink

import (
	"context"
	"encoding/json"
	"fmt"
	"lavalink-music-bot/logging"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type Node struct {
	*log.Logger
	config    *Configuration
	rest      *restClient
	dialer    *websocket.Dialer
	mutex     sync.RWMutex
	sessionID string
	ready     chan struct{}
	players   map[string]*Player
}

type VoiceState struct {
	Token     string `json:"token"`
	Endpoint  string `json:"endpoint"`
	SessionID string `json:"sessionId"`
}

type playerUpdate struct {
	Track  *trackUpdate `json:"track,omitempty"`
	Paused *bool        `json:"paused,omitempty"`
	Volume *int         `json:"volume,omitempty"`
	Voice  *VoiceState  `json:"voice,omitempty"`
}

type trackUpdate struct {
	Encoded *string `json:"encoded"`
}

// NewNode constructs an object that handles the connection
// to a single lavalink node: its event websocket and its http api.
func NewNode(config *Configuration) *Node {
	l := logging.New()
	l.SetLevel(config.LogLevel)
	l.Debug("Lavalink node created")

	return &Node{
		Logger:  l,
		config:  config,
		rest:    newRestClient(config.restUrl(), config.Password),
		dialer:  websocket.DefaultDialer,
		ready:   make(chan struct{}),
		players: make(map[string]*Player),
	}
}

// Run is a long lived worker that keeps the node's websocket
// connected while the context is alive. When the connection is lost
// it is reestablished every ReconnectInterval, at most ReconnectTries
// times in a row.
func (node *Node) Run(ctx context.Context, userID string) error {
	tries := 0
	for {
		established, err := node.runSession(ctx, userID)
		if ctx.Err() != nil {
			return nil
		}
		if established {
			tries = 0
		}
		tries++
		if tries > node.config.ReconnectTries {
			node.releasePlayers()
			return fmt.Errorf(
				"lavalink: giving up after %d reconnect attempts: %w",
				tries-1, err,
			)
		}
		node.WithFields(log.Fields{
			"Attempt": tries,
			"Error":   err,
		}).Warn("Lavalink connection lost, reconnecting ...")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(node.config.reconnectInterval()):
		}
	}
}

// Available returns true while the node has an active websocket session
func (node *Node) Available() bool {
	node.mutex.RLock()
	defer node.mutex.RUnlock()
	return len(node.sessionID) > 0
}

// WaitReady blocks until the node's websocket session is
// established or the context is done.
func (node *Node) WaitReady(ctx context.Context) error {
	node.mutex.RLock()
	ready := node.ready
	node.mutex.RUnlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LoadTracks resolves the provided identifier (an url or a
// search directive such as "ytsearch:...") and returns the node's
// raw response. The response shape differs between node versions.
func (node *Node) LoadTracks(ctx context.Context, identifier string) (json.RawMessage, error) {
	req, err := node.rest.NewRequest(ctx, http.MethodGet, loadTracksEndpoint)
	if err != nil {
		return nil, err
	}
	req.AddQueryParam("identifier", identifier)

	t := time.Now()
	body, err := req.DoAndRead()
	if err != nil {
		return nil, err
	}
	node.WithFields(log.Fields{
		"Identifier": identifier,
		"Latency":    time.Since(t),
	}).Trace("Tracks loaded")
	return json.RawMessage(body), nil
}

// CreatePlayer creates the guild's player on the node and hands it the
// discord voice credentials. onDisconnect is called when the player
// is disconnected, after it has been destroyed on the node.
func (node *Node) CreatePlayer(ctx context.Context, guildID string, voice VoiceState, onDisconnect func(context.Context) error) (*Player, error) {
	if !node.Available() {
		return nil, ErrNodeUnavailable
	}
	if err := node.updatePlayer(ctx, guildID, &playerUpdate{Voice: &voice}); err != nil {
		return nil, err
	}
	player := newPlayer(node, guildID, onDisconnect)

	node.mutex.Lock()
	previous, ok := node.players[guildID]
	if ok {
		previous.replaced = true
	}
	node.players[guildID] = player
	node.mutex.Unlock()

	if ok {
		previous.close()
	}
	node.WithField("GuildID", guildID).Debug("Player created")
	return player, nil
}

// UpdateVoice forwards new voice credentials to an existing player,
// for example after discord moved the guild to another voice server.
func (node *Node) UpdateVoice(ctx context.Context, guildID string, voice VoiceState) error {
	if _, ok := node.Player(guildID); !ok {
		return nil
	}
	return node.updatePlayer(ctx, guildID, &playerUpdate{Voice: &voice})
}

// Player returns the guild's player, if one exists
func (node *Node) Player(guildID string) (*Player, bool) {
	node.mutex.RLock()
	defer node.mutex.RUnlock()
	p, ok := node.players[guildID]
	return p, ok
}

func (node *Node) updatePlayer(ctx context.Context, guildID string, update *playerUpdate) error {
	sessionID := node.currentSessionID()
	if len(sessionID) == 0 {
		return ErrNodeUnavailable
	}
	req, err := node.rest.NewRequest(
		ctx,
		http.MethodPatch,
		playerEndpoint,
		PathParam{"sessionId", sessionID},
		PathParam{"guildId", guildID},
	)
	if err != nil {
		return err
	}
	if err := req.AddBody(update); err != nil {
		return err
	}
	return req.DoAndUnmarshall(nil)
}

func (node *Node) destroyPlayer(ctx context.Context, player *Player) error {
	node.mutex.Lock()
	p, registered := node.players[player.guildID]
	registered = registered && p == player
	if registered {
		delete(node.players, player.guildID)
	}
	node.mutex.Unlock()

	sessionID := node.currentSessionID()
	if !registered || len(sessionID) == 0 {
		// NOTE: the node lost its session, so it
		// no longer knows about the player anyway
		return nil
	}
	req, err := node.rest.NewRequest(
		ctx,
		http.MethodDelete,
		playerEndpoint,
		PathParam{"sessionId", sessionID},
		PathParam{"guildId", player.guildID},
	)
	if err != nil {
		return err
	}
	return req.DoAndUnmarshall(nil)
}

func (node *Node) currentSessionID() string {
	node.mutex.RLock()
	defer node.mutex.RUnlock()
	return node.sessionID
}

// runSession dials the websocket and reads from it until the
// connection is closed. Returns true if the node sent its ready op.
func (node *Node) runSession(ctx context.Context, userID string) (bool, error) {
	header := http.Header{}
	header.Set("Authorization", node.config.Password)
	header.Set("User-Id", userID)
	header.Set("Client-Name", node.config.clientName())

	node.WithField("Url", node.config.websocketUrl()).Debug("Dialing lavalink websocket ...")
	conn, _, err := node.dialer.DialContext(ctx, node.config.websocketUrl(), header)
	if err != nil {
		return false, err
	}
	defer node.markUnavailable()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		conn.Close()
	}()

	established := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return established, err
		}
		if node.handleMessage(data) {
			established = true
		}
	}
}

// handleMessage processes a single websocket message,
// returns true if it was the ready op.
func (node *Node) handleMessage(data []byte) bool {
	msg := &message{}
	if err := json.Unmarshal(data, msg); err != nil {
		node.WithField("Error", err).Warn("Could not decode lavalink message")
		return false
	}

	switch msg.Op {
	case OpReady:
		node.mutex.Lock()
		node.sessionID = msg.SessionID
		select {
		case <-node.ready:
		default:
			close(node.ready)
		}
		node.mutex.Unlock()
		node.WithFields(log.Fields{
			"SessionID": msg.SessionID,
			"Resumed":   msg.Resumed,
		}).Info("Lavalink node ready")
		if !msg.Resumed {
			// NOTE: a new session does not know the
			// players created in the previous one
			node.releasePlayers()
		}
		return true
	case OpPlayerUpdate:
		if p, ok := node.Player(msg.GuildID); ok && msg.State != nil {
			p.setState(*msg.State)
		}
	case OpStats:
		node.Trace("Lavalink stats received")
	case OpEvent:
		node.dispatchEvent(msg)
	}
	return false
}

func (node *Node) dispatchEvent(msg *message) {
	p, ok := node.Player(msg.GuildID)
	if !ok {
		node.WithFields(log.Fields{
			"GuildID": msg.GuildID,
			"Type":    msg.Type,
		}).Debug("Event for unknown player ignored")
		return
	}
	node.WithFields(log.Fields{
		"GuildID": msg.GuildID,
		"Type":    msg.Type,
		"Reason":  msg.Reason,
	}).Trace("Lavalink event")

	var emitted bool
	switch msg.Type {
	case TrackStartEvent:
		return
	case TrackEndEvent:
		e := TrackEnd{GuildID: msg.GuildID, Track: msg.Track, Reason: EndReason(msg.Reason)}
		emitted = p.sub.Emit(func(l Listener) { l.OnTrackEnd(e) })
	case TrackExceptionEvent:
		e := TrackException{GuildID: msg.GuildID, Track: msg.Track}
		if msg.Exception != nil {
			e.Exception = *msg.Exception
		}
		emitted = p.sub.Emit(func(l Listener) { l.OnTrackException(e) })
	case TrackStuckEvent:
		e := TrackStuck{GuildID: msg.GuildID, Track: msg.Track, Threshold: msg.Threshold}
		emitted = p.sub.Emit(func(l Listener) { l.OnTrackStuck(e) })
	case WebSocketClosed:
		e := SocketClosed{
			GuildID:  msg.GuildID,
			Code:     msg.Code,
			Reason:   msg.Reason,
			ByRemote: msg.ByRemote,
		}
		emitted = p.sub.Emit(func(l Listener) { l.OnSocketClosed(e) })
	default:
		return
	}
	if !emitted {
		node.WithFields(log.Fields{
			"GuildID": msg.GuildID,
			"Type":    msg.Type,
		}).Warn("Player event dropped")
	}
}

// releasePlayers forgets all the players and notifies their
// listeners with a CloseSessionLost socket closed event.
func (node *Node) releasePlayers() {
	node.mutex.Lock()
	players := node.players
	node.players = make(map[string]*Player)
	node.mutex.Unlock()

	for guildID, p := range players {
		e := SocketClosed{
			GuildID:  guildID,
			Code:     CloseSessionLost,
			Reason:   "lavalink session lost",
			ByRemote: true,
		}
		if !p.sub.Emit(func(l Listener) { l.OnSocketClosed(e) }) {
			p.close()
		}
		node.WithField("GuildID", guildID).Warn("Player lost with the lavalink session")
	}
}

func (node *Node) markUnavailable() {
	node.mutex.Lock()
	defer node.mutex.Unlock()
	node.sessionID = ""
	select {
	case <-node.ready:
		node.ready = make(chan struct{})
	default:
	}
}
