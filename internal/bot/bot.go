package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/ai"
	"github.com/MyelinBots/resellboost-go/internal/discord"
	"github.com/MyelinBots/resellboost-go/internal/healthcheck"
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// NewSession creates a discordgo session. It is not connected until Open is called.
func NewSession(cfg config.DiscordConfig) (*discordgo.Session, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord token not configured")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildInvites |
		discordgo.IntentsMessageContent
	return session, nil
}

// StartBot connects to Discord and runs until SIGINT or SIGTERM.
func StartBot(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting bot",
		zap.String("app", cfg.AppConfig.APPName),
		zap.String("version", cfg.AppConfig.Version),
		zap.String("store", cfg.StoreConfig.Backend))
	healthcheck.StartHealthcheck(ctx, cfg.AppConfig, log.Named("healthcheck"))

	s, closeStore, err := OpenStore(ctx, cfg, log.Named("store"))
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("closing store backend", zap.Error(err))
		}
	}()

	session, err := NewSession(cfg.DiscordConfig)
	if err != nil {
		return err
	}

	var gen ai.Generator
	gemini, err := NewGenerator(ctx, cfg.AIConfig, log.Named("ai"))
	if err != nil {
		return err
	}
	if gemini != nil {
		defer gemini.Close()
		gen = gemini
	}

	app := NewApp(cfg, s, discord.NewAdapter(session, cfg.DiscordConfig.GuildID), gen, log)
	app.Queue.Start()

	router := &discord.Router{
		Prefix:      cfg.DiscordConfig.Prefix,
		Queue:       app.Queue,
		Controller:  app.Controller,
		Progression: app.Progression,
		Assistant:   app.Assistant,
		Moderation:  app.Moderation,
		Log:         log.Named("router"),
	}
	session.AddHandler(router.OnMessageCreate)

	invites := &discord.InviteTracker{
		GuildID: cfg.DiscordConfig.GuildID,
		Queue:   app.Queue,
		Binder:  app.Commission,
		Log:     log.Named("invites"),
	}
	session.AddHandler(invites.OnReady)
	session.AddHandler(invites.OnInviteCreate)
	session.AddHandler(invites.OnGuildMemberAdd)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info("connected to discord", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	})

	if err := session.Open(); err != nil {
		app.Queue.Stop()
		return fmt.Errorf("discord connect: %w", err)
	}

	timers := app.StartSchedules(ctx)
	<-ctx.Done()
	log.Info("shutting down")

	for _, t := range timers {
		t.Stop()
	}
	if err := session.Close(); err != nil {
		log.Warn("closing discord session", zap.Error(err))
	}
	app.Queue.Stop()

	saveCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.SaveAll(saveCtx); err != nil {
		log.Error("final save failed", zap.Error(err))
		return err
	}
	return nil
}
