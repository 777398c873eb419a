package settings

import (
	"context"
	"database/sql"
	"errors"
	"lavalink-music-bot/model"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrNotFound is returned when the guild has no saved settings
var ErrNotFound = errors.New("guild settings not found")

type SettingsStore struct {
	log *log.Logger
	db  *sql.DB
	idx uint32
}

// NewSettingsStore creates an object that handles
// persisting and fetching per guild settings in postgres database.
func NewSettingsStore(db *sql.DB, log *log.Logger) *SettingsStore {
	return &SettingsStore{
		db:  db,
		log: log,
	}
}

// Init creates the required tables for the settings store.
func (store *SettingsStore) Init() error {
	return store.createGuildSettingsTable()
}

// Destroy drops the created tables for the settings store.
func (store *SettingsStore) Destroy() error {
	return store.dropGuildSettingsTable()
}

// GetVolume returns the saved volume of the guild.
// Returns ErrNotFound if no volume has been saved.
func (store *SettingsStore) GetVolume(ctx context.Context, guildID string) (int, error) {
	i, t := store.nextIdx(), time.Now()

	store.log.WithField("GuildID", guildID).Tracef("[S%d]Start: Fetch volume", i)

	settings := &model.GuildSettings{}
	err := store.db.QueryRowContext(
		ctx,
		`
        SELECT guild_id, volume FROM "guild_settings"
        WHERE "guild_settings".guild_id = $1;
        `,
		guildID,
	).Scan(&settings.GuildID, &settings.Volume)
	if errors.Is(err, sql.ErrNoRows) {
		store.log.Tracef("[S%d]Done : no volume saved", i)
		return 0, ErrNotFound
	}
	if err != nil {
		store.log.Tracef("[S%d]Error: %v", i, err)
		return 0, err
	}
	store.log.WithField(
		"Latency", time.Since(t),
	).Tracef("[S%d]Done : volume fetched", i)
	return settings.Volume, nil
}

// SetVolume saves the guild's volume, replacing
// the previously saved one.
func (store *SettingsStore) SetVolume(ctx context.Context, guildID string, volume int) error {
	i, t := store.nextIdx(), time.Now()

	store.log.WithFields(log.Fields{
		"GuildID": guildID,
		"Volume":  volume,
	}).Tracef("[S%d]Start: Persist volume", i)

	if _, err := store.db.ExecContext(
		ctx,
		`
        INSERT INTO "guild_settings" (guild_id, volume)
        VALUES ($1, $2)
        ON CONFLICT (guild_id)
        DO UPDATE SET volume = EXCLUDED.volume;
        `,
		guildID,
		volume,
	); err != nil {
		store.log.Tracef("[S%d]Error: %v", i, err)
		return err
	}
	store.log.WithField(
		"Latency", time.Since(t),
	).Tracef("[S%d]Done : volume persisted", i)
	return nil
}

// createGuildSettingsTable creates the "guild_settings"
// table if it does not already exist
func (store *SettingsStore) createGuildSettingsTable() error {
	i, t := store.nextIdx(), time.Now()

	store.log.WithField("TableName", "guild_settings").Tracef(
		"[S%d]Start: Create psql table (if not exists)", i,
	)

	if _, err := store.db.Exec(
		`
        CREATE TABLE IF NOT EXISTS "guild_settings" (
            guild_id VARCHAR(255) PRIMARY KEY,
            volume INTEGER NOT NULL DEFAULT 100
                CHECK (volume >= 0 AND volume <= 100)
        );
        `,
	); err != nil {
		store.log.Tracef("[S%d]Error: %v", i, err)
		return err
	}
	store.log.WithField("Latency", time.Since(t)).Tracef(
		"[S%d]Done : psql table created", i,
	)
	return nil
}

// dropGuildSettingsTable drops the "guild_settings" table
func (store *SettingsStore) dropGuildSettingsTable() error {
	i, t := store.nextIdx(), time.Now()

	store.log.WithField("TableName", "guild_settings").Tracef(
		"[S%d]Start: Drop psql table (if exists)", i,
	)

	if _, err := store.db.Exec(
		`DROP TABLE IF EXISTS "guild_settings" CASCADE`,
	); err != nil {
		store.log.Tracef("[S%d]Error: %v", i, err)
		return err
	}
	store.log.WithField(
		"Latency", time.Since(t),
	).Tracef("[S%d]Done : psql table dropped", i)
	return nil
}

func (store *SettingsStore) nextIdx() uint32 {
	return atomic.AddUint32(&store.idx, 1) % 100000
}
