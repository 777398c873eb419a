package search_test

import (
	"lavalink-music-bot/search"
	"testing"

	"github.com/stretchr/testify/suite"
)

type LoadResultTestSuite struct {
	suite.Suite
}

// TestUnitSearchArrayData checks the v4 search shape
func (s *LoadResultTestSuite) TestUnitSearchArrayData() {
	r, err := search.ParseLoadResult([]byte(`{
		"loadType": "search",
		"data": [
			{"encoded": "t1", "info": {"title": "one", "length": 1000}},
			{"encoded": "t2", "info": {"title": "two"}},
			{"encoded": "t3", "info": {"title": "three"}}
		]
	}`))
	s.Require().NoError(err)
	s.Equal(search.KindSearch, r.Kind)
	s.Require().Len(r.Tracks, 3)
	s.Equal("t1", r.Tracks[0].Encoded)
	s.Equal("one", r.Tracks[0].Info.Title)
	s.Equal(int64(1000), r.Tracks[0].Info.Length)
	s.Equal("t3", r.Tracks[2].Encoded)
}

// TestUnitSingleTrackData checks the v4 track shape
func (s *LoadResultTestSuite) TestUnitSingleTrackData() {
	r, err := search.ParseLoadResult([]byte(`{
		"loadType": "track",
		"data": {"encoded": "t1", "info": {"title": "one"}, "pluginInfo": {}}
	}`))
	s.Require().NoError(err)
	s.Equal(search.KindTrack, r.Kind)
	s.Require().Len(r.Tracks, 1)
	s.Equal("t1", r.Tracks[0].Encoded)
}

// TestUnitPlaylistData checks the v4 playlist shape
func (s *LoadResultTestSuite) TestUnitPlaylistData() {
	r, err := search.ParseLoadResult([]byte(`{
		"loadType": "playlist",
		"data": {
			"info": {"name": "mix", "selectedTrack": -1},
			"tracks": [{"encoded": "t1"}, {"encoded": "t2"}]
		}
	}`))
	s.Require().NoError(err)
	s.Equal(search.KindPlaylist, r.Kind)
	s.Equal("mix", r.Playlist)
	s.Len(r.Tracks, 2)
}

// TestUnitEmptyAndError checks the discriminators without tracks
func (s *LoadResultTestSuite) TestUnitEmptyAndError() {
	r, err := search.ParseLoadResult([]byte(`{"loadType": "empty", "data": {}}`))
	s.Require().NoError(err)
	s.Equal(search.KindEmpty, r.Kind)
	s.Empty(r.Tracks)

	r, err = search.ParseLoadResult([]byte(`{"loadType": "empty"}`))
	s.Require().NoError(err)
	s.Equal(search.KindEmpty, r.Kind)

	r, err = search.ParseLoadResult([]byte(`{
		"loadType": "error",
		"data": {"message": "unavailable", "severity": "common"}
	}`))
	s.Require().NoError(err)
	s.Equal(search.KindError, r.Kind)
	s.Equal("unavailable", r.Message)
}

// TestUnitLegacyShapes checks the responses of older nodes
func (s *LoadResultTestSuite) TestUnitLegacyShapes() {
	r, err := search.ParseLoadResult([]byte(`[{"track": "t1", "info": {"title": "one"}}]`))
	s.Require().NoError(err)
	s.Equal(search.KindArray, r.Kind)
	s.Require().Len(r.Tracks, 1)
	s.Equal("t1", r.Tracks[0].Track)

	r, err = search.ParseLoadResult([]byte(`{
		"loadType": "SEARCH_RESULT",
		"playlistInfo": {},
		"tracks": [{"track": "t1"}, {"track": "t2"}]
	}`))
	s.Require().NoError(err)
	s.Equal(search.KindSearch, r.Kind)
	s.Len(r.Tracks, 2)

	r, err = search.ParseLoadResult([]byte(`{"tracks": [{"track": "t1"}]}`))
	s.Require().NoError(err)
	s.Equal(search.KindLegacy, r.Kind)
	s.Len(r.Tracks, 1)

	r, err = search.ParseLoadResult([]byte(`{
		"loadType": "LOAD_FAILED",
		"exception": {"message": "blocked", "severity": "common"}
	}`))
	s.Require().NoError(err)
	s.Equal(search.KindError, r.Kind)
	s.Equal("blocked", r.Message)
}

// TestUnitNullAndMalformed checks null, empty and invalid bodies
func (s *LoadResultTestSuite) TestUnitNullAndMalformed() {
	for _, raw := range []string{"", "null", "  ", "{}"} {
		r, err := search.ParseLoadResult([]byte(raw))
		s.Require().NoError(err)
		s.Equal(search.KindNull, r.Kind, raw)
	}
	_, err := search.ParseLoadResult([]byte(`{"loadType": "mystery"}`))
	s.Error(err)
	_, err = search.ParseLoadResult([]byte(`{"loadType": `))
	s.Error(err)
}

// TestLoadResultTestSuite runs all tests under
// the LoadResultTestSuite
func TestLoadResultTestSuite(t *testing.T) {
	suite.Run(t, new(LoadResultTestSuite))
}
