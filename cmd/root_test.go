package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitSplitList(t *testing.T) {
	assert.Equal(t, []string{"a.yaml", "b.yaml"}, splitList(" a.yaml, ,b.yaml "))
	assert.Empty(t, splitList(""))
}

func TestUnitLoadExampleConfig(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("LAVALINK_HOST", "localhost")
	t.Setenv("LAVALINK_PASSWORD", "youshallnotpass")
	configFiles = filepath.Join("..", "config.example.yaml")
	envFiles = filepath.Join(t.TempDir(), "missing.env")

	configuration, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "token", configuration.DiscordToken)
	assert.Equal(t, "youshallnotpass", configuration.Lavalink.Password)
	assert.Equal(t, 15, configuration.Search.MaxResults)
	assert.Equal(t, "play", configuration.ApplicationCommands.Play.Name)
}
