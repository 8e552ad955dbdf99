package bot

import (
	"context"
	"time"

	"guildconf/internal/audit"
	"guildconf/internal/command"
	"guildconf/internal/config"
	"guildconf/internal/interact"
	"guildconf/internal/mention"
	"guildconf/internal/reactionrole"
	"guildconf/internal/storage"
	"guildconf/internal/streams"

	"github.com/bwmarrin/discordgo"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Bot struct {
	cfg           config.Config
	logger        *zap.Logger
	store         *storage.Store
	session       *discordgo.Session
	directory     *Directory
	responder     *Responder
	waiter        *interact.Waiter
	router        *command.Router
	reactionRoles *reactionrole.Handler
	limiters      *cache.Cache
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, auditLogger *audit.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsMessageContent

	directory := NewDirectory(session)
	responder := NewResponder(session, cfg.EmbedColors)
	waiter := interact.NewWaiter()
	timeout := cfg.InteractionTimeout()

	youtube, err := streams.NewYouTube(context.Background(), streams.YouTubeConfig{
		APIKey:  cfg.YouTube.APIKey,
		APIBase: cfg.YouTube.APIBase,
	}, logger)
	if err != nil {
		return nil, err
	}

	handlers := command.NewHandlers(command.Deps{
		Store:     store,
		Parser:    mention.NewParser(directory),
		Collector: interact.NewCollector(responder, waiter, timeout, logger),
		Gate:      interact.NewGate(responder, waiter, timeout, logger),
		Responder: responder,
		Audit:     auditLogger,
		Twitch: streams.NewTwitch(streams.TwitchConfig{
			ClientID:     cfg.Twitch.ClientID,
			ClientSecret: cfg.Twitch.ClientSecret,
			APIBase:      cfg.Twitch.APIBase,
			TokenURL:     cfg.Twitch.TokenURL,
		}, logger),
		YouTube: youtube,
		Logger:  logger,
	})

	return &Bot{
		cfg:           cfg,
		logger:        logger,
		store:         store,
		session:       session,
		directory:     directory,
		responder:     responder,
		waiter:        waiter,
		router:        command.NewRouter(handlers.Tree(), responder, logger),
		reactionRoles: reactionrole.NewHandler(store, directory, logger),
		limiters:      cache.New(10*time.Minute, 20*time.Minute),
	}, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onMessageReactionAdd)
	b.session.AddHandler(b.onMessageReactionRemove)

	return b.session.Open()
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready",
		zap.String("user", session.State.User.Username),
		zap.Int("guilds", len(event.Guilds)),
	)
}

// limiter returns the guild's command bucket. A zero rate disables limiting.
func (b *Bot) limiter(guildID string) *rate.Limiter {
	if cached, ok := b.limiters.Get(guildID); ok {
		return cached.(*rate.Limiter)
	}
	limit := rate.Inf
	if b.cfg.RateLimit.PerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(b.cfg.RateLimit.PerMinute))
	}
	l := rate.NewLimiter(limit, b.cfg.RateLimit.Burst)
	if err := b.limiters.Add(guildID, l, cache.DefaultExpiration); err != nil {
		if cached, ok := b.limiters.Get(guildID); ok {
			return cached.(*rate.Limiter)
		}
	}
	return l
}
