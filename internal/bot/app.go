package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/ai"
	"github.com/MyelinBots/resellboost-go/internal/db"
	"github.com/MyelinBots/resellboost-go/internal/db/repositories/documents"
	"github.com/MyelinBots/resellboost-go/internal/services/achievements"
	"github.com/MyelinBots/resellboost-go/internal/services/assistant"
	"github.com/MyelinBots/resellboost-go/internal/services/bonus"
	"github.com/MyelinBots/resellboost-go/internal/services/commands"
	"github.com/MyelinBots/resellboost-go/internal/services/commission"
	"github.com/MyelinBots/resellboost-go/internal/services/giveaways"
	"github.com/MyelinBots/resellboost-go/internal/services/guilds"
	"github.com/MyelinBots/resellboost-go/internal/services/ledger"
	"github.com/MyelinBots/resellboost-go/internal/services/missions"
	"github.com/MyelinBots/resellboost-go/internal/services/moderation"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/MyelinBots/resellboost-go/internal/services/progression"
	"github.com/MyelinBots/resellboost-go/internal/services/serial"
	"github.com/MyelinBots/resellboost-go/internal/services/subscription"
	"github.com/MyelinBots/resellboost-go/internal/store"
	"go.uber.org/zap"
)

const queueBuffer = 64

// App holds every engine service wired against one store and one platform.
type App struct {
	Config       config.Config
	Log          *zap.Logger
	Store        *store.Store
	Queue        *serial.Queue
	Notifier     *platform.Notifier
	Progression  *progression.Engine
	Commission   *commission.Engine
	Subscription *subscription.Monitor
	Guilds       *guilds.Service
	Missions     *missions.Service
	Giveaways    *giveaways.Service
	Assistant    *assistant.Service
	Moderation   *moderation.Service
	Controller   *commands.CommandControllerImpl
}

// OpenBackend connects the document backend named in the store config. The postgres
// backend is migrated before use. The returned func releases the backend.
func OpenBackend(cfg config.Config) (store.Backend, func() error, error) {
	switch cfg.StoreConfig.Backend {
	case "", "file":
		fb, err := store.NewFileBackend(cfg.StoreConfig.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return fb, func() error { return nil }, nil
	case "postgres":
		database, err := db.NewDatabase(cfg.DBConfig)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(); err != nil {
			_ = database.Close()
			return nil, nil, err
		}
		return documents.NewDocumentRepository(database), database.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreConfig.Backend)
	}
}

// OpenStore opens the configured backend and loads every document.
// The returned func releases the backend.
func OpenStore(ctx context.Context, cfg config.Config, log *zap.Logger) (*store.Store, func() error, error) {
	backend, closer, err := OpenBackend(cfg)
	if err != nil {
		return nil, nil, err
	}
	s := store.New(backend, log)
	if err := s.Load(ctx); err != nil {
		_ = closer()
		return nil, nil, fmt.Errorf("load store: %w", err)
	}
	return s, closer, nil
}

// NewApp builds the services. gen may be nil, which disables the assistant and moderation.
func NewApp(cfg config.Config, s *store.Store, p platform.Platform, gen ai.Generator, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	game := cfg.GamificationConfig
	channels := cfg.DiscordConfig.Channels
	roles := cfg.DiscordConfig.Roles

	n := platform.NewNotifier(p, log.Named("notify"))
	l := ledger.New(s, game.TransactionLogMax)
	b := bonus.New(game)
	tracker := achievements.NewTracker(n, log.Named("achievements"))

	a := &App{
		Config:   cfg,
		Log:      log,
		Store:    s,
		Queue:    serial.NewQueue(queueBuffer),
		Notifier: n,
	}
	a.Progression = progression.New(game, channels.LevelUp, s, l, b, n, tracker, log.Named("progression"))
	a.Commission = commission.New(game, channels.CashoutApproval, s, l, b, a.Progression, n, tracker, log.Named("commission"))
	a.Subscription = subscription.New(game, roles, s, l, b, n, log.Named("subscription"))
	a.Guilds = guilds.New(game.Guild, channels, roles, s, l, n, tracker, log.Named("guilds"))
	a.Missions = missions.New(game.Missions, s, a.Progression, n, log.Named("missions"))
	a.Giveaways = giveaways.New(channels.Giveaways, s, n, log.Named("giveaways"))

	a.Progression.OnMessage(a.Missions.OnMessage)
	a.Commission.OnSale(a.Missions.OnSale)
	a.Commission.OnReferral(a.Missions.OnReferral)

	if gen != nil {
		a.Assistant = assistant.New(cfg.AssistantConfig, channels.AssistantMonitored, gen, n, log.Named("assistant"))
		a.Moderation = moderation.New(cfg.ModerationConfig, channels, roles, gen, s, l, n, log.Named("moderation"))
	}

	a.Controller = commands.NewCommandController(commands.Deps{
		Prefix:       cfg.DiscordConfig.Prefix,
		StaffRoles:   roles.Staff,
		Repo:         s,
		Queue:        a.Queue,
		Notifier:     n,
		Bonus:        b,
		Progression:  a.Progression,
		Commission:   a.Commission,
		Subscription: a.Subscription,
		Guilds:       a.Guilds,
		Giveaways:    a.Giveaways,
		Assistant:    a.Assistant,
		Log:          log.Named("commands"),
	})
	a.Controller.Register()
	return a
}

// NewGenerator returns nil without error when no AI key is configured.
func NewGenerator(ctx context.Context, cfg config.AIConfig, log *zap.Logger) (*ai.Gemini, error) {
	g, err := ai.NewGemini(ctx, cfg, log)
	if errors.Is(err, ai.ErrNotConfigured) {
		log.Warn("no ai key configured, assistant and moderation disabled")
		return nil, nil
	}
	return g, err
}
