package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"lavalink-music-bot/datastore/settings"
	"lavalink-music-bot/datastore/voicelog"
	"lavalink-music-bot/logging"
	"lavalink-music-bot/model"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

// ErrNotFound is returned when a requested record
// does not exist in the database
var ErrNotFound = settings.ErrNotFound

type Datastore struct {
	*log.Logger
	*sql.DB
	config   *Configuration
	settings *settings.SettingsStore
	voiceLog *voicelog.VoiceLogStore
}

type Configuration struct {
	LogLevel log.Level `yaml:"LogLevel" validate:"required"`
	// VoiceLogLimit is the max number of entries
	// returned when fetching a guild's voice log
	VoiceLogLimit int `yaml:"VoiceLogLimit" validate:"min=0"`
}

// NewDatastore constructs an object that handles persisting
// the guild settings and the voice activity to the postgres
// database and receiving them from it.
// It does not implement any of the bot's logics.
func NewDatastore(config *Configuration) *Datastore {
	l := logging.New()
	l.SetLevel(config.LogLevel)
	l.Debug("Datastore created")
	return &Datastore{Logger: l, config: config}
}

// Connect opens a new postgres connection based on the
// POSTGRES_* environment variables
func (datastore *Datastore) Connect() error {
	datastore.Info("Opening postgres connection ...")

	dsn, err := dataSourceName()
	if err != nil {
		return err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	// NOTE: ping the database so we make sure there is a valid connection
	if err := db.Ping(); err != nil {
		db.Close()
		return err
	}
	datastore.DB = db
	datastore.settings = settings.NewSettingsStore(db, datastore.Logger)
	datastore.voiceLog = voicelog.NewVoiceLogStore(db, datastore.Logger)

	datastore.Info("Postgres connection established")
	return nil
}

// Init creates all the tables required by the datastore.
func (datastore *Datastore) Init(ctx context.Context) error {
	datastore.Debug("Initializing datastore ...")

	if datastore.DB == nil {
		return errors.New("Datastore is not connected")
	}
	if err := datastore.settings.Init(); err != nil {
		return err
	}
	if err := datastore.voiceLog.Init(); err != nil {
		return err
	}

	datastore.Info("Datastore initialized")
	return nil
}

// Destroy drops all the tables created by the datastore.
func (datastore *Datastore) Destroy() error {
	if datastore.DB == nil {
		return errors.New("Datastore is not connected")
	}
	if err := datastore.voiceLog.Destroy(); err != nil {
		return err
	}
	return datastore.settings.Destroy()
}

// GetVolume returns the saved volume of the guild,
// or ErrNotFound when none has been saved.
func (datastore *Datastore) GetVolume(ctx context.Context, guildID string) (int, error) {
	return datastore.settings.GetVolume(ctx, guildID)
}

// SetVolume saves the guild's volume.
func (datastore *Datastore) SetVolume(ctx context.Context, guildID string, volume int) error {
	return datastore.settings.SetVolume(ctx, guildID, volume)
}

// PersistVoiceLogs saves the provided voice activity entries.
func (datastore *Datastore) PersistVoiceLogs(ctx context.Context, entries ...*model.VoiceLog) error {
	return datastore.voiceLog.PersistVoiceLogs(ctx, entries...)
}

// GetVoiceLogs returns the guild's latest voice activity, newest first.
func (datastore *Datastore) GetVoiceLogs(ctx context.Context, guildID string) ([]*model.VoiceLog, error) {
	limit := datastore.config.VoiceLogLimit
	if limit <= 0 {
		limit = 50
	}
	return datastore.voiceLog.GetVoiceLogs(ctx, guildID, limit)
}

func dataSourceName() (string, error) {
	values := make(map[string]string)
	for _, key := range []string{
		"POSTGRES_HOST",
		"POSTGRES_PORT",
		"POSTGRES_USER",
		"POSTGRES_PASSWORD",
		"POSTGRES_DB",
	} {
		v := os.Getenv(key)
		if len(v) == 0 {
			return "", fmt.Errorf("Missing environment variable '%s'", key)
		}
		values[key] = v
	}
	port, err := strconv.Atoi(values["POSTGRES_PORT"])
	if err != nil || port <= 0 || port > 65535 {
		return "", errors.New("'POSTGRES_PORT' is not a valid port number")
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		values["POSTGRES_HOST"],
		port,
		values["POSTGRES_USER"],
		values["POSTGRES_PASSWORD"],
		values["POSTGRES_DB"],
	), nil
}
