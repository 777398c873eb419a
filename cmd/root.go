package cmd

import (
	"fmt"
	"lavalink-music-bot/bot"
	"lavalink-music-bot/config"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type MusicBot struct {
	Config *bot.Configuration `yaml:"MusicBot" validate:"required"`
}

var (
	configFiles string
	envFiles    string
)

var rootCmd = &cobra.Command{
	Use:   "lavalink-music-bot",
	Short: "Discord music bot playing through a Lavalink node.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot()
	},
	SilenceUsage: true,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configFiles, "config", "config.yaml",
		"Comma separated configuration files, later files override the earlier ones",
	)
	rootCmd.PersistentFlags().StringVar(
		&envFiles, "env", ".env",
		"Comma separated dotenv files loaded before the configuration",
	)
}

// loadConfig loads the environment and the configuration
// from the files provided with the flags.
func loadConfig() (*bot.Configuration, error) {
	if err := config.LoadEnv(splitList(envFiles)...); err != nil {
		return nil, err
	}
	var musicBot MusicBot
	if err := config.LoadAndValidateConfiguration(
		splitList(configFiles), &musicBot,
	); err != nil {
		return nil, err
	}
	return musicBot.Config, nil
}

func splitList(s string) []string {
	l := make([]string, 0)
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); len(v) > 0 {
			l = append(l, v)
		}
	}
	return l
}
