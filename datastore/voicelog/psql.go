package voicelog

import (
	"context"
	"database/sql"
	"lavalink-music-bot/model"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

type VoiceLogStore struct {
	log *log.Logger
	db  *sql.DB
	idx uint32
}

// NewVoiceLogStore creates an object that handles persisting
// the members' voice channel activity in postgres database.
func NewVoiceLogStore(db *sql.DB, log *log.Logger) *VoiceLogStore {
	return &VoiceLogStore{
		db:  db,
		log: log,
	}
}

// Init creates the required tables for the voice log store.
func (store *VoiceLogStore) Init() error {
	return store.createVoiceLogTable()
}

// Destroy drops the created tables for the voice log store.
func (store *VoiceLogStore) Destroy() error {
	return store.dropVoiceLogTable()
}

// PersistVoiceLogs inserts the provided entries in a single
// transaction. Entries with a zero timestamp are stamped with
// the current time.
func (store *VoiceLogStore) PersistVoiceLogs(ctx context.Context, entries ...*model.VoiceLog) error {
	if len(entries) == 0 {
		return nil
	}
	i, t := store.nextIdx(), time.Now()

	store.log.WithField("GuildID", entries[0].GuildID).Tracef(
		"[V%d]Start: Persist %d voice logs", i, len(entries),
	)

	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		store.log.Tracef("[V%d]Error: %v", i, err)
		return err
	}
	for _, e := range entries {
		if e.Timestamp.IsZero() {
			e.Timestamp = time.Now()
		}
		if err := tx.QueryRowContext(
			ctx,
			`
            INSERT INTO "voice_log" (
                user_id, username, guild_id, channel_id, channel_name, action, timestamp
            ) VALUES
                ($1, $2, $3, $4, $5, $6, $7)
            RETURNING id;
            `,
			e.UserID,
			e.Username,
			e.GuildID,
			e.ChannelID,
			e.ChannelName,
			string(e.Action),
			e.Timestamp,
		).Scan(&e.ID); err != nil {
			tx.Rollback()
			store.log.Tracef("[V%d]Error: %v", i, err)
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		store.log.Tracef("[V%d]Error: %v", i, err)
		return err
	}

	store.log.WithField(
		"Latency", time.Since(t),
	).Tracef("[V%d]Done : %d voice logs persisted", i, len(entries))
	return nil
}

// GetVoiceLogs returns the latest voice log entries
// of the guild, newest first.
func (store *VoiceLogStore) GetVoiceLogs(ctx context.Context, guildID string, limit int) ([]*model.VoiceLog, error) {
	i, t := store.nextIdx(), time.Now()

	store.log.WithField("GuildID", guildID).Tracef("[V%d]Start: Fetch voice logs", i)

	rows, err := store.db.QueryContext(
		ctx,
		`
        SELECT id, user_id, username, guild_id, channel_id, channel_name, action, timestamp
        FROM "voice_log"
        WHERE "voice_log".guild_id = $1
        ORDER BY "voice_log".timestamp DESC, "voice_log".id DESC
        LIMIT $2;
        `,
		guildID,
		limit,
	)
	if err != nil {
		store.log.Tracef("[V%d]Error: %v", i, err)
		return nil, err
	}
	defer rows.Close()

	entries := make([]*model.VoiceLog, 0)
	for rows.Next() {
		e := &model.VoiceLog{}
		var action string
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Username, &e.GuildID,
			&e.ChannelID, &e.ChannelName, &action, &e.Timestamp,
		); err != nil {
			store.log.Tracef("[V%d]Error: %v", i, err)
			return nil, err
		}
		e.Action = model.VoiceAction(action)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	store.log.WithField(
		"Latency", time.Since(t),
	).Tracef("[V%d]Done : %d voice logs fetched", i, len(entries))
	return entries, nil
}

// createVoiceLogTable creates the "voice_log" table
// and its index if they do not already exist
func (store *VoiceLogStore) createVoiceLogTable() error {
	i, t := store.nextIdx(), time.Now()

	store.log.WithField("TableName", "voice_log").Tracef(
		"[V%d]Start: Create psql table (if not exists)", i,
	)

	if _, err := store.db.Exec(
		`
        CREATE TABLE IF NOT EXISTS "voice_log" (
            id SERIAL PRIMARY KEY,
            user_id VARCHAR NOT NULL,
            username VARCHAR NOT NULL,
            guild_id VARCHAR NOT NULL,
            channel_id VARCHAR NOT NULL,
            channel_name VARCHAR NOT NULL,
            action VARCHAR NOT NULL CHECK (action IN ('join', 'leave')),
            timestamp TIMESTAMP NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS "voice_log_guild_timestamp_idx"
            ON "voice_log" (guild_id, timestamp DESC);
        `,
	); err != nil {
		store.log.Tracef("[V%d]Error: %v", i, err)
		return err
	}
	store.log.WithField("Latency", time.Since(t)).Tracef(
		"[V%d]Done : psql table created", i,
	)
	return nil
}

// dropVoiceLogTable drops the "voice_log" table
func (store *VoiceLogStore) dropVoiceLogTable() error {
	i, t := store.nextIdx(), time.Now()

	store.log.WithField("TableName", "voice_log").Tracef(
		"[V%d]Start: Drop psql table (if exists)", i,
	)

	if _, err := store.db.Exec(
		`DROP TABLE IF EXISTS "voice_log" CASCADE`,
	); err != nil {
		store.log.Tracef("[V%d]Error: %v", i, err)
		return err
	}
	store.log.WithField(
		"Latency", time.Since(t),
	).Tracef("[V%d]Done : psql table dropped", i)
	return nil
}

func (store *VoiceLogStore) nextIdx() uint32 {
	return atomic.AddUint32(&store.idx, 1) % 100000
}
