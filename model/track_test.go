package model_test

import (
	"lavalink-music-bot/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUnitTrackPayload(t *testing.T) {
	v4 := &model.Track{Encoded: "QAAA-v4", Track: "QAAA-v3"}
	p, ok := v4.Payload()
	assert.True(t, ok)
	assert.Equal(t, "QAAA-v4", p)

	v3 := &model.Track{Track: "QAAA-v3"}
	p, ok = v3.Payload()
	assert.True(t, ok)
	assert.Equal(t, "QAAA-v3", p)

	_, ok = (&model.Track{}).Payload()
	assert.False(t, ok)

	var missing *model.Track
	_, ok = missing.Payload()
	assert.False(t, ok)
}

func TestUnitTrackInfoDuration(t *testing.T) {
	info := model.TrackInfo{Length: 61500}
	assert.Equal(t, 61*time.Second+500*time.Millisecond, info.Duration())
	assert.Equal(t, "Unknown", info.DisplayTitle())
}
