package bot

import (
	"context"
	"errors"
	"lavalink-music-bot/bot/audioplayer"
	"lavalink-music-bot/bot/slash_command"
	"lavalink-music-bot/builder"
	"lavalink-music-bot/cache"
	"lavalink-music-bot/datastore"
	"lavalink-music-bot/lavalink"
	"lavalink-music-bot/logging"
	"lavalink-music-bot/search"
	"lavalink-music-bot/service"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

type Bot struct {
	*log.Logger
	ctx        context.Context
	ready      atomic.Bool
	config     *Configuration
	session    *discordgo.Session
	node       *lavalink.Node
	datastore  *datastore.Datastore
	cache      *cache.SearchCache
	builder    *builder.Builder
	selections *Selections
	voice      *voiceBridge
	player     *audioplayer.Session
	service    *service.Service
	voiceLog   voiceLogStore
}

type Configuration struct {
	LogLevel            log.Level                          `yaml:"LogLevel" validate:"required"`
	LogFile             *logging.Configuration             `yaml:"LogFile"`
	DiscordToken        string                             `yaml:"DiscordToken" validate:"required"`
	AutoJoinChannelID   string                             `yaml:"AutoJoinChannelID"`
	VoiceJoinTimeout    time.Duration                      `yaml:"VoiceJoinTimeout"`
	SelectionTimeout    time.Duration                      `yaml:"SelectionTimeout"`
	PanelUpdateInterval time.Duration                      `yaml:"PanelUpdateInterval"`
	Lavalink            *lavalink.Configuration            `yaml:"Lavalink" validate:"required"`
	Search              *search.Configuration              `yaml:"Search" validate:"required"`
	Redis               *cache.Configuration               `yaml:"Redis"`
	Player              *audioplayer.Configuration         `yaml:"Player" validate:"required"`
	Datastore           *datastore.Configuration           `yaml:"Datastore" validate:"required"`
	Panel               *builder.Configuration             `yaml:"Panel" validate:"required"`
	ApplicationCommands *slash_command.SlashCommandsConfig `yaml:"ApplicationCommands" validate:"required"`
}

// NewBot constructs an object that connects the playback
// session and the command service with the discord api,
// the audio node and the datastore.
func NewBot(ctx context.Context, config *Configuration) *Bot {
	l := logging.New()
	l.SetLevel(config.LogLevel)
	l.Debug("Creating Discord music bot ...")

	bot := &Bot{
		Logger:     l,
		ctx:        ctx,
		config:     config,
		node:       lavalink.NewNode(config.Lavalink),
		datastore:  datastore.NewDatastore(config.Datastore),
		builder:    builder.NewBuilder(config.Panel),
		selections: NewSelections(config.SelectionTimeout),
	}
	if config.Redis != nil && config.Redis.Enabled() {
		bot.cache = cache.NewSearchCache(config.Redis)
	}
	l.Info("Discord music bot created")
	return bot
}

// Init connects to the postgres database and creates the
// required tables, then checks the search cache, which is
// disabled when it can not be reached.
func (bot *Bot) Init() error {
	bot.Debug("Initializing the bot ...")

	if err := bot.datastore.Connect(); err != nil {
		return err
	}
	if err := bot.datastore.Init(bot.ctx); err != nil {
		return err
	}
	bot.voiceLog = bot.datastore

	if bot.cache != nil {
		ctx, cancel := context.WithTimeout(bot.ctx, 5*time.Second)
		defer cancel()
		if err := bot.cache.Ping(ctx); err != nil {
			bot.Warnf("Search cache unavailable, continuing without it: %v", err)
			bot.cache.Close()
			bot.cache = nil
		}
	}
	bot.Info("Bot initialized")
	return nil
}

// Run is a long lived worker that creates a new discord session,
// adds the required intents and event handlers, registers the
// application commands and runs the audio node's client while
// the context is alive.
func (bot *Bot) Run() error {
	bot.Info("Creating new Discord session...")
	session, err := discordgo.New("Bot " + bot.config.DiscordToken)
	if err != nil {
		return err
	}
	bot.session = session

	var searchCache search.Cache
	if bot.cache != nil {
		searchCache = bot.cache
	}
	var settings audioplayer.SettingsStore
	if bot.datastore.DB != nil {
		settings = bot.datastore
	}
	bot.voice = newVoiceBridge(bot.Logger, session, bot.node, bot.config.VoiceJoinTimeout)
	bot.player = audioplayer.NewSession(
		bot.ctx,
		bot.config.Player,
		bot.voice,
		settings,
		NewPanelRenderer(session, bot.builder, bot.config.PanelUpdateInterval),
	)
	bot.service = service.NewService(
		bot.config.LogLevel,
		search.NewGateway(bot.config.Search, bot.node, searchCache),
		bot.player,
	)

	intentsHandler := &DiscordIntentsHandler{bot}
	intentsHandler.setIntents()

	eventHandler := &DiscordEventHandler{bot}
	eventHandler.setHandlers()

	if err := session.Open(); err != nil {
		return err
	}
	defer bot.shutdown()

	bot.Debug("Registering global application commands ...")
	if err := slash_command.Register(
		session,
		session.State.User.ID,
		bot.config.ApplicationCommands,
	); err != nil {
		bot.Warn(err)
	}

	nodeDone := make(chan error, 1)
	go func() {
		nodeDone <- bot.node.Run(bot.ctx, session.State.User.ID)
	}()

	select {
	case <-bot.ctx.Done():
		return nil
	case err := <-nodeDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}

// Close releases the datastore and cache connections.
func (bot *Bot) Close() {
	if bot.cache != nil {
		bot.cache.Close()
	}
	if bot.datastore.DB != nil {
		bot.datastore.Close()
	}
}

// shutdown leaves all the voice channels and
// closes the discord session.
func (bot *Bot) shutdown() {
	bot.ready.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, guildID := range bot.player.Queues().Keys() {
		if err := bot.player.Disconnect(ctx, guildID); err != nil &&
			!errors.Is(err, audioplayer.ErrNotConnected) {
			bot.WithField("GuildID", guildID).Debugf("Disconnect on shutdown: %v", err)
		}
	}
	bot.Info("Closing discord session ... ")
	bot.session.Close()
}
