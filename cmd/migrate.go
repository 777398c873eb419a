package cmd

import (
	"context"
	"lavalink-music-bot/datastore"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dropTables bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the datastore's tables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration, err := loadConfig()
		if err != nil {
			return err
		}
		store := datastore.NewDatastore(configuration.Datastore)
		if err := store.Connect(); err != nil {
			return err
		}
		defer store.Close()

		if dropTables {
			log.Warn("Dropping the datastore's tables ...")
			if err := store.Destroy(); err != nil {
				return err
			}
		}
		if err := store.Init(context.Background()); err != nil {
			return err
		}
		log.Info("Datastore migrated")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&dropTables, "drop", false, "Drop the existing tables first")
	rootCmd.AddCommand(migrateCmd)
}
