package audioplayer

import (
	"context"
	"fmt"
	"lavalink-music-bot/datastore"
	"lavalink-music-bot/lavalink"
	"lavalink-music-bot/model"
	"sync"
	"time"
)

func track(id string) *model.Track {
	return &model.Track{
		Encoded: "enc-" + id,
		Info:    model.TrackInfo{Identifier: id, Title: id, Length: 180000},
	}
}

type fakeConn struct {
	mutex        sync.Mutex
	plays        []string
	stops        int
	paused       bool
	volumes      []int
	disconnected bool
	listener     lavalink.Listener
	playErr      error
}

func (c *fakeConn) Play(ctx context.Context, encoded string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.playErr != nil {
		return c.playErr
	}
	c.plays = append(c.plays, encoded)
	return nil
}

func (c *fakeConn) Stop(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.stops++
	return nil
}

func (c *fakeConn) SetPaused(ctx context.Context, paused bool) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.paused = paused
	return nil
}

func (c *fakeConn) SetVolume(ctx context.Context, volume int) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.volumes = append(c.volumes, volume)
	return nil
}

func (c *fakeConn) Position() time.Duration {
	return 42 * time.Second
}

func (c *fakeConn) Disconnect(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.disconnected = true
	return nil
}

func (c *fakeConn) Listen(l lavalink.Listener) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.listener != nil {
		return false
	}
	c.listener = l
	return true
}

func (c *fakeConn) Plays() []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return append([]string(nil), c.plays...)
}

func (c *fakeConn) Stops() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.stops
}

func (c *fakeConn) end(t *model.Track, reason lavalink.EndReason) {
	c.listener.OnTrackEnd(lavalink.TrackEnd{Track: t, Reason: reason})
}

type fakeNode struct {
	mutex    sync.Mutex
	conns    []*fakeConn
	channels []string
	err      error
	playErr  error
	// entered and gate, when set, hold Connect until the gate is closed
	entered chan struct{}
	gate    chan struct{}
}

func (n *fakeNode) Connect(ctx context.Context, guildID string, channelID string) (Connection, error) {
	n.mutex.Lock()
	entered, gate := n.entered, n.gate
	n.mutex.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

	n.mutex.Lock()
	defer n.mutex.Unlock()
	if n.err != nil {
		return nil, n.err
	}
	c := &fakeConn{playErr: n.playErr}
	n.conns = append(n.conns, c)
	n.channels = append(n.channels, channelID)
	return c, nil
}

func (n *fakeNode) Connects() int {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return len(n.conns)
}

func (n *fakeNode) Last() *fakeConn {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	if len(n.conns) == 0 {
		return nil
	}
	return n.conns[len(n.conns)-1]
}

type fakeSettings struct {
	mutex   sync.Mutex
	volumes map[string]int
	getErr  error
}

func (f *fakeSettings) GetVolume(ctx context.Context, guildID string) (int, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.getErr != nil {
		return 0, f.getErr
	}
	v, ok := f.volumes[guildID]
	if !ok {
		return 0, datastore.ErrNotFound
	}
	return v, nil
}

func (f *fakeSettings) SetVolume(ctx context.Context, guildID string, volume int) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.volumes == nil {
		f.volumes = make(map[string]int)
	}
	f.volumes[guildID] = volume
	return nil
}

type fakeRenderer struct {
	mutex     sync.Mutex
	shown     int
	updates   int
	removed   []string
	updateErr error
}

func (r *fakeRenderer) ShowPanel(ctx context.Context, channelID string, snapshot Snapshot) (string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.shown++
	return fmt.Sprintf("panel-%d", r.shown), nil
}

func (r *fakeRenderer) UpdatePanel(ctx context.Context, channelID string, panelID string, snapshot Snapshot) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.updates++
	return r.updateErr
}

func (r *fakeRenderer) RemovePanel(ctx context.Context, channelID string, panelID string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.removed = append(r.removed, panelID)
	return nil
}

func (r *fakeRenderer) Updates() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.updates
}

func (r *fakeRenderer) Removed() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]string(nil), r.removed...)
}
