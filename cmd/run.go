package cmd

import (
	"context"
	"lavalink-music-bot/bot"
	"lavalink-music-bot/logging"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot() error {
	configuration, err := loadConfig()
	if err != nil {
		return err
	}
	logging.Configure(configuration.LogFile)
	defer logging.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownSignal := make(chan os.Signal, 2)
	signal.Notify(shutdownSignal, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		// graceful shutdown
		<-shutdownSignal
		log.Warn("Shutdown requested ...")
		cancel()
		<-time.After(10 * time.Second)
		log.Fatal("Forced shutdown")
	}()

	musicBot := bot.NewBot(ctx, configuration)
	if err := musicBot.Init(); err != nil {
		return err
	}
	defer musicBot.Close()

	if err := musicBot.Run(); err != nil {
		return err
	}
	log.Info("Clean Shutdown")
	return nil
}
