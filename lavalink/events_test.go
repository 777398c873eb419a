package lavalink_test

import (
	"lavalink-music-bot/lavalink"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitMayStartNext(t *testing.T) {
	assert.True(t, lavalink.EndFinished.MayStartNext())
	assert.True(t, lavalink.EndLoadFailed.MayStartNext())
	assert.True(t, lavalink.EndStopped.MayStartNext(), "Skipped tracks are stopped and should advance")
	assert.False(t, lavalink.EndReplaced.MayStartNext())
	assert.False(t, lavalink.EndCleanup.MayStartNext())
}
