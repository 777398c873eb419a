package audioplayer

import (
	"context"
	"errors"
	"fmt"
	"lavalink-music-bot/lavalink"
	"lavalink-music-bot/model"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

const guildID = "guild"

type SessionTestSuite struct {
	suite.Suite
	ctx      context.Context
	cancel   context.CancelFunc
	node     *fakeNode
	settings *fakeSettings
	renderer *fakeRenderer
	session  *Session
}

func (s *SessionTestSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.node = &fakeNode{}
	s.settings = &fakeSettings{}
	s.renderer = &fakeRenderer{}
	s.session = s.newSession(time.Hour)
}

func (s *SessionTestSuite) TearDownTest() {
	s.cancel()
}

func (s *SessionTestSuite) newSession(interval time.Duration) *Session {
	return NewSession(
		s.ctx,
		&Configuration{LogLevel: log.PanicLevel, ProgressInterval: interval},
		s.node,
		s.settings,
		s.renderer,
	)
}

// play enqueues the tracks and starts playing the first one
func (s *SessionTestSuite) play(tracks ...*model.Track) *fakeConn {
	s.session.Enqueue(guildID, tracks...)
	s.Require().NoError(s.session.EnsurePlaying(s.ctx, guildID, "voice"))
	conn := s.node.Last()
	s.Require().NotNil(conn)
	return conn
}

func (s *SessionTestSuite) pendingIDs() []string {
	ids := make([]string, 0)
	for _, t := range s.session.Snapshot(guildID).Pending {
		ids = append(ids, t.Info.Identifier)
	}
	return ids
}

func (s *SessionTestSuite) currentID() string {
	current := s.session.Snapshot(guildID).Current
	if current == nil {
		return ""
	}
	return current.Info.Identifier
}

func (s *SessionTestSuite) TestUnitPlayFromIdle() {
	s.Equal(StateIdle, s.session.Snapshot(guildID).State)

	a := track("a")
	conn := s.play(a)

	snapshot := s.session.Snapshot(guildID)
	s.Equal(StatePlaying, snapshot.State)
	s.Equal(a, snapshot.Current)
	s.Empty(snapshot.Pending)
	s.True(snapshot.Connected)
	s.Equal("voice", snapshot.VoiceChannelID)
	s.Equal([]string{"enc-a"}, conn.Plays())
	s.Equal([]int{DefaultVolume}, conn.volumes, "Default volume should be applied on connect")
}

func (s *SessionTestSuite) TestUnitEnsurePlayingIsSingleFlight() {
	s.session.Enqueue(guildID, track("a"))

	wg := sync.WaitGroup{}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.session.Enqueue(guildID, track(fmt.Sprintf("t%d", i)))
			s.session.EnsurePlaying(s.ctx, guildID, "voice")
		}(i)
	}
	wg.Wait()

	s.Equal(1, s.node.Connects(), "Only one connection should be created")
	s.Len(s.node.Last().Plays(), 1, "Only one play request should be issued")
	s.Equal("a", s.currentID())
	s.Len(s.session.Snapshot(guildID).Pending, 20)
}

func (s *SessionTestSuite) TestUnitEnsurePlayingWithoutPending() {
	s.NoError(s.session.EnsurePlaying(s.ctx, guildID, "voice"))
	s.Equal(0, s.node.Connects(), "Nothing pending should not connect")
	s.Equal(StateIdle, s.session.Snapshot(guildID).State)
}

func (s *SessionTestSuite) TestUnitToggleRepeat() {
	s.True(s.session.ToggleRepeat(guildID))
	s.False(s.session.ToggleRepeat(guildID), "Toggling twice should restore the value")
	s.Equal(0, s.node.Connects(), "Repeat should not touch the node")
}

func (s *SessionTestSuite) TestUnitAdvanceOnTrackEnd() {
	a, b, c := track("a"), track("b"), track("c")
	conn := s.play(a, b, c)
	s.Equal([]string{"b", "c"}, s.pendingIDs())

	conn.end(a, lavalink.EndFinished)

	s.Equal("b", s.currentID())
	s.Equal([]string{"c"}, s.pendingIDs())
	s.Equal([]string{"enc-a", "enc-b"}, conn.Plays())
}

func (s *SessionTestSuite) TestUnitRepeatReplaysAtHead() {
	a, b := track("a"), track("b")
	conn := s.play(a, b)
	s.session.ToggleRepeat(guildID)

	conn.end(a, lavalink.EndFinished)

	s.Equal("a", s.currentID(), "Repeated track should play again immediately")
	s.Equal([]string{"b"}, s.pendingIDs(), "Repeated track should be inserted once")
	s.Equal([]string{"enc-a", "enc-a"}, conn.Plays())
}

func (s *SessionTestSuite) TestUnitSkipSuppressesRepeat() {
	a, b := track("a"), track("b")
	conn := s.play(a, b)
	s.session.ToggleRepeat(guildID)

	s.NoError(s.session.Skip(s.ctx, guildID))
	s.Equal(1, conn.Stops())
	s.Equal("a", s.currentID(), "Skip should not advance by itself")

	conn.end(a, lavalink.EndFinished)

	s.Equal("b", s.currentID())
	s.Empty(s.pendingIDs(), "Skipped track should not be repeated")
	s.True(s.session.Snapshot(guildID).Repeat)

	conn.end(b, lavalink.EndFinished)
	s.Equal("b", s.currentID(), "Skip flag should be cleared after the end")
}

func (s *SessionTestSuite) TestUnitLastTrackEndKeepsConnection() {
	a := track("a")
	conn := s.play(a)

	conn.end(a, lavalink.EndFinished)

	snapshot := s.session.Snapshot(guildID)
	s.Nil(snapshot.Current)
	s.Equal(StateIdle, snapshot.State)
	s.True(snapshot.Connected)
	s.False(conn.disconnected)
}

func (s *SessionTestSuite) TestUnitIgnoresReplacedAndStaleEnds() {
	a, b := track("a"), track("b")
	conn := s.play(a, b)

	conn.end(a, lavalink.EndReplaced)
	s.Equal("a", s.currentID(), "Replaced end should be ignored")

	conn.end(track("other"), lavalink.EndFinished)
	s.Equal("a", s.currentID(), "End of another track should be ignored")

	conn.end(a, lavalink.EndFinished)
	conn.end(a, lavalink.EndFinished)
	s.Equal("b", s.currentID(), "Duplicate end should be ignored")
	s.Len(conn.Plays(), 2)
}

func (s *SessionTestSuite) TestUnitIgnoresEventsOfOldConnection() {
	a := track("a")
	old := s.play(a)
	s.NoError(s.session.Disconnect(s.ctx, guildID))

	s.session.Enqueue(guildID, track("b"))
	s.NoError(s.session.EnsurePlaying(s.ctx, guildID, "voice"))
	s.NotSame(old, s.node.Last())

	old.end(a, lavalink.EndFinished)
	old.listener.OnTrackException(lavalink.TrackException{})
	s.Equal("b", s.currentID())
}

func (s *SessionTestSuite) TestUnitExceptionDropsTrack() {
	a, b := track("a"), track("b")
	conn := s.play(a, b)
	s.session.ToggleRepeat(guildID)

	conn.listener.OnTrackException(lavalink.TrackException{
		Track:     a,
		Exception: lavalink.Exception{Message: "boom", Severity: "fault"},
	})
	s.Equal("b", s.currentID())
	s.Empty(s.pendingIDs(), "Failed track should never be repeated")

	conn.end(a, lavalink.EndLoadFailed)
	s.Equal("b", s.currentID(), "End of the failed track should not advance again")
}

func (s *SessionTestSuite) TestUnitExceptionThenEndOfSamePayload() {
	a := track("a")
	again := track("a")
	conn := s.play(a, again)

	conn.listener.OnTrackException(lavalink.TrackException{Track: a})
	s.Same(again, s.session.Snapshot(guildID).Current)

	conn.end(a, lavalink.EndLoadFailed)
	s.Same(again, s.session.Snapshot(guildID).Current, "Failed end should only drop the failed track")
	s.Len(conn.Plays(), 2)
}

func (s *SessionTestSuite) TestUnitLoadFailedIsNotRepeated() {
	a, b := track("a"), track("b")
	conn := s.play(a, b)
	s.session.ToggleRepeat(guildID)

	conn.end(a, lavalink.EndLoadFailed)
	s.Equal("b", s.currentID())
	s.Empty(s.pendingIDs())
}

func (s *SessionTestSuite) TestUnitMissingPayload() {
	broken := &model.Track{Info: model.TrackInfo{Identifier: "broken"}}
	b := track("b")
	conn := s.play(broken, b)
	s.Equal("b", s.currentID(), "Track without payload should be skipped")
	s.Equal([]string{"enc-b"}, conn.Plays())

	conn.end(b, lavalink.EndFinished)
	s.session.Enqueue(guildID, &model.Track{Info: model.TrackInfo{Identifier: "broken"}})
	err := s.session.EnsurePlaying(s.ctx, guildID, "voice")
	s.True(IsPlaybackError(err, MissingPayload))
	s.Nil(s.session.Snapshot(guildID).Current)
	s.Empty(s.session.Snapshot(guildID).Pending)
}

func (s *SessionTestSuite) TestUnitLegacyPayload() {
	legacy := &model.Track{Track: "legacy-a", Info: model.TrackInfo{Identifier: "a"}}
	conn := s.play(legacy)
	s.Equal([]string{"legacy-a"}, conn.Plays())
}

func (s *SessionTestSuite) TestUnitConnectFailureLeavesQueue() {
	s.node.err = fmt.Errorf("create player: %w", lavalink.ErrNodeUnavailable)
	s.session.Enqueue(guildID, track("a"), track("b"))

	err := s.session.EnsurePlaying(s.ctx, guildID, "voice")
	s.True(IsPlaybackError(err, NoNode))
	s.ErrorIs(err, lavalink.ErrNodeUnavailable)

	snapshot := s.session.Snapshot(guildID)
	s.False(snapshot.Connected)
	s.Nil(snapshot.Current)
	s.Equal(StateIdle, snapshot.State)
	s.Equal([]string{"a", "b"}, s.pendingIDs())

	s.node.err = errors.New("voice timeout")
	err = s.session.EnsurePlaying(s.ctx, guildID, "voice")
	s.True(IsPlaybackError(err, ConnectFailed))

	s.node.err = nil
	s.NoError(s.session.EnsurePlaying(s.ctx, guildID, "voice"))
	s.Equal("a", s.currentID())
}

func (s *SessionTestSuite) TestUnitEnsurePlayingWithoutChannel() {
	s.session.Enqueue(guildID, track("a"))
	s.ErrorIs(s.session.EnsurePlaying(s.ctx, guildID, ""), ErrNotConnected)
}

func (s *SessionTestSuite) TestUnitPlayRejected() {
	s.node.playErr = errors.New("bad request")
	s.session.Enqueue(guildID, track("a"), track("b"))

	err := s.session.EnsurePlaying(s.ctx, guildID, "voice")
	s.True(IsPlaybackError(err, NodeRejected))
	s.Nil(s.session.Snapshot(guildID).Current)
	s.Equal([]string{"b"}, s.pendingIDs())
	s.True(s.session.Snapshot(guildID).Connected)
}

func (s *SessionTestSuite) TestUnitSavedVolumeAppliedOncePerConnection() {
	s.settings.volumes = map[string]int{guildID: 40}
	a := track("a")
	conn := s.play(a)
	s.session.Enqueue(guildID, track("b"))
	s.NoError(s.session.EnsurePlaying(s.ctx, guildID, "voice"))
	conn.end(a, lavalink.EndFinished)

	s.Equal([]int{40}, conn.volumes)
	s.Equal(40, s.session.Snapshot(guildID).Volume)
}

func (s *SessionTestSuite) TestUnitVolumeFallsBackOnError() {
	s.settings.getErr = errors.New("database down")
	conn := s.play(track("a"))
	s.Equal([]int{DefaultVolume}, conn.volumes)
}

func (s *SessionTestSuite) TestUnitConfiguredDefaultVolume() {
	muted := 0
	s.session = NewSession(
		s.ctx,
		&Configuration{LogLevel: log.PanicLevel, ProgressInterval: time.Hour, DefaultVolume: &muted},
		s.node,
		s.settings,
		s.renderer,
	)
	conn := s.play(track("a"))
	s.Equal([]int{0}, conn.volumes)
	s.Equal(0, s.session.Snapshot(guildID).Volume)
}

func (s *SessionTestSuite) TestUnitSetVolume() {
	s.ErrorIs(s.session.SetVolume(s.ctx, guildID, 101), ErrInvalidVolume)
	s.ErrorIs(s.session.SetVolume(s.ctx, guildID, -1), ErrInvalidVolume)

	s.NoError(s.session.SetVolume(s.ctx, guildID, 30))
	s.Equal(30, s.settings.volumes[guildID])

	conn := s.play(track("a"))
	s.Equal([]int{30}, conn.volumes, "Saved volume should be applied on connect")

	s.NoError(s.session.SetVolume(s.ctx, guildID, 70))
	s.Equal([]int{30, 70}, conn.volumes)
}

func (s *SessionTestSuite) TestUnitPauseResume() {
	s.ErrorIs(s.session.Pause(s.ctx, guildID), ErrNotConnected)
	s.ErrorIs(s.session.Resume(s.ctx, guildID), ErrNotConnected)

	conn := s.play(track("a"))
	s.NoError(s.session.Pause(s.ctx, guildID))
	s.True(conn.paused)
	s.True(s.session.Snapshot(guildID).Paused)

	s.NoError(s.session.Resume(s.ctx, guildID))
	s.False(conn.paused)
	s.False(s.session.Snapshot(guildID).Paused)
}

func (s *SessionTestSuite) TestUnitSkipErrors() {
	s.ErrorIs(s.session.Skip(s.ctx, guildID), ErrNotConnected)

	a := track("a")
	conn := s.play(a)
	conn.end(a, lavalink.EndFinished)
	s.ErrorIs(s.session.Skip(s.ctx, guildID), ErrQueueEmpty)
}

func (s *SessionTestSuite) TestUnitStop() {
	a := track("a")
	conn := s.play(a, track("b"), track("c"))
	s.session.ToggleRepeat(guildID)

	s.NoError(s.session.Stop(s.ctx, guildID))
	s.Empty(s.pendingIDs())
	s.Equal(1, conn.Stops())

	conn.end(a, lavalink.EndStopped)
	snapshot := s.session.Snapshot(guildID)
	s.Nil(snapshot.Current)
	s.Empty(snapshot.Pending)
	s.True(snapshot.Connected)
}

func (s *SessionTestSuite) TestUnitDisconnect() {
	s.ErrorIs(s.session.Disconnect(s.ctx, guildID), ErrNotConnected)

	conn := s.play(track("a"), track("b"))
	s.session.ToggleRepeat(guildID)

	s.NoError(s.session.Disconnect(s.ctx, guildID))
	s.True(conn.disconnected)

	snapshot := s.session.Snapshot(guildID)
	s.False(snapshot.Connected)
	s.Nil(snapshot.Current)
	s.Empty(snapshot.Pending)
	s.True(snapshot.Repeat, "Repeat should survive a disconnect")
	_, ok := s.session.Queues().Get(guildID)
	s.True(ok, "Queue should stay in the registry")
}

func (s *SessionTestSuite) TestUnitConnectToAnotherChannel() {
	a, b := track("a"), track("b")
	first := s.play(a, b)

	s.NoError(s.session.Connect(s.ctx, guildID, "voice"))
	s.Equal(1, s.node.Connects(), "Same channel should keep the connection")

	s.NoError(s.session.Connect(s.ctx, guildID, "other"))
	s.True(first.disconnected)
	second := s.node.Last()
	s.NotSame(first, second)
	s.Equal([]string{"enc-a"}, second.Plays(), "Current track should restart in the new channel")
	s.Equal("other", s.session.Snapshot(guildID).VoiceChannelID)
	s.Equal([]string{"b"}, s.pendingIDs())
}

func (s *SessionTestSuite) TestUnitFailedMoveKeepsConnection() {
	a, b := track("a"), track("b")
	first := s.play(a, b)

	s.node.err = errors.New("voice timeout")
	err := s.session.Connect(s.ctx, guildID, "other")
	s.True(IsPlaybackError(err, ConnectFailed))

	snapshot := s.session.Snapshot(guildID)
	s.True(snapshot.Connected)
	s.Equal("voice", snapshot.VoiceChannelID)
	s.Equal(StatePlaying, snapshot.State)
	s.Equal("a", s.currentID())
	s.Equal([]string{"b"}, s.pendingIDs())
	s.False(first.disconnected)
	s.Equal(1, s.node.Connects())

	first.end(a, lavalink.EndFinished)
	s.Equal("b", s.currentID(), "Kept connection should still advance the queue")
}

func (s *SessionTestSuite) TestUnitConnectDelayCanceled() {
	s.session = NewSession(
		s.ctx,
		&Configuration{LogLevel: log.PanicLevel, ProgressInterval: time.Hour, ConnectDelay: time.Hour},
		s.node,
		s.settings,
		s.renderer,
	)
	s.session.Enqueue(guildID, track("a"))
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	err := s.session.EnsurePlaying(ctx, guildID, "voice")
	s.ErrorIs(err, context.Canceled)
	s.Empty(s.node.Last().Plays())
	s.Nil(s.session.Snapshot(guildID).Current)
	s.Equal([]string{"a"}, s.pendingIDs(), "Head track should not be dropped")
}

func (s *SessionTestSuite) TestUnitStateWhileConnecting() {
	s.node.entered = make(chan struct{})
	s.node.gate = make(chan struct{})
	s.session.Enqueue(guildID, track("a"))

	done := make(chan error, 1)
	go func() {
		done <- s.session.EnsurePlaying(s.ctx, guildID, "voice")
	}()
	select {
	case <-s.node.entered:
	case <-time.After(2 * time.Second):
		s.FailNow("connect not started")
	}
	s.Equal(StateConnecting, s.session.State(guildID))

	close(s.node.gate)
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(2 * time.Second):
		s.FailNow("connect not finished")
	}
	s.Equal(StatePlaying, s.session.State(guildID))
	s.Equal(StatePlaying, s.session.Snapshot(guildID).State)
}

func (s *SessionTestSuite) TestUnitConnectWithoutTracks() {
	s.NoError(s.session.Connect(s.ctx, guildID, "voice"))
	snapshot := s.session.Snapshot(guildID)
	s.True(snapshot.Connected)
	s.Equal(StateIdle, snapshot.State)
	s.Empty(s.node.Last().Plays())
}

func (s *SessionTestSuite) TestUnitTrackStuck() {
	a, b := track("a"), track("b")
	conn := s.play(a, b)
	s.session.ToggleRepeat(guildID)

	conn.listener.OnTrackStuck(lavalink.TrackStuck{Track: a, Threshold: 10000})
	s.Equal(1, conn.Stops())

	conn.end(a, lavalink.EndStopped)
	s.Equal("b", s.currentID())
	s.Empty(s.pendingIDs(), "Stuck track should not be repeated")
}

func (s *SessionTestSuite) TestUnitSocketClosed() {
	conn := s.play(track("a"), track("b"))

	conn.listener.OnSocketClosed(lavalink.SocketClosed{Code: 4006})
	s.True(s.session.Snapshot(guildID).Connected, "Other close codes should be ignored")

	conn.listener.OnSocketClosed(lavalink.SocketClosed{Code: 4014, ByRemote: true})
	snapshot := s.session.Snapshot(guildID)
	s.False(snapshot.Connected)
	s.Nil(snapshot.Current)
	s.Empty(snapshot.Pending)
	s.True(conn.disconnected)
}

func (s *SessionTestSuite) TestUnitNodeSessionLost() {
	a, b := track("a"), track("b")
	conn := s.play(a, b)

	conn.listener.OnSocketClosed(lavalink.SocketClosed{Code: lavalink.CloseSessionLost, ByRemote: true})
	snapshot := s.session.Snapshot(guildID)
	s.False(snapshot.Connected)
	s.Nil(snapshot.Current)
	s.True(conn.disconnected)
	s.Equal([]string{"a", "b"}, s.pendingIDs(), "Interrupted track should go back to the head")

	s.NoError(s.session.EnsurePlaying(s.ctx, guildID, ""))
	s.Equal(2, s.node.Connects())
	s.Equal("a", s.currentID())
	s.Equal([]string{"enc-a"}, s.node.Last().Plays())
}

func (s *SessionTestSuite) TestUnitPanelLifecycle() {
	s.session.SetOutputChannel(guildID, "text")
	a, b := track("a"), track("b")
	conn := s.play(a, b)
	s.Equal(1, s.renderer.shown)

	conn.end(a, lavalink.EndFinished)
	s.Equal(2, s.renderer.shown)
	s.Equal([]string{"panel-1"}, s.renderer.Removed(), "Previous panel should be removed")

	conn.end(b, lavalink.EndFinished)
	s.Equal([]string{"panel-1", "panel-2"}, s.renderer.Removed(), "Idle should remove the panel")
}

func (s *SessionTestSuite) TestUnitProgressReporter() {
	s.session = s.newSession(10 * time.Millisecond)
	s.session.SetOutputChannel(guildID, "text")
	a := track("a")
	conn := s.play(a)

	s.Eventually(func() bool {
		return s.renderer.Updates() >= 2
	}, time.Second, 5*time.Millisecond, "Panel should be refreshed periodically")

	conn.end(a, lavalink.EndFinished)
	updates := s.renderer.Updates()
	time.Sleep(50 * time.Millisecond)
	s.Equal(updates, s.renderer.Updates(), "No refresh should happen after the track ended")
}

func (s *SessionTestSuite) TestUnitProgressStopsOnRenderError() {
	s.renderer.updateErr = errors.New("unknown message")
	s.session = s.newSession(10 * time.Millisecond)
	s.session.SetOutputChannel(guildID, "text")
	s.play(track("a"))

	s.Eventually(func() bool {
		return s.renderer.Updates() >= 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	s.Equal(1, s.renderer.Updates(), "Render error should stop the reporter")
	s.Equal("a", s.currentID(), "Render error should not affect playback")
}

// TestSessionTestSuite runs all tests under
// the SessionTestSuite
func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}
