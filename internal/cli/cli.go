package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/MyelinBots/resellboost-go/config"
	"github.com/MyelinBots/resellboost-go/internal/bot"
	"github.com/MyelinBots/resellboost-go/internal/db"
	"github.com/MyelinBots/resellboost-go/internal/discord"
	"github.com/MyelinBots/resellboost-go/internal/logger"
	"github.com/MyelinBots/resellboost-go/internal/services/leaderboard"
	"github.com/MyelinBots/resellboost-go/internal/services/platform"
	"github.com/MyelinBots/resellboost-go/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runtime struct {
	configPath string
	cfg        config.Config
	log        *zap.Logger
}

// NewRootCommand builds the resellboost command tree.
func NewRootCommand() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:           "resellboost",
		Short:         "Discord economy and gamification bot for reseller communities",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&rt.configPath, "config", "c", "", "config file (defaults to $CONFIG_FILE or "+config.DefaultPath+")")

	root.AddCommand(
		serveCommand(rt),
		sweepCommand(rt),
		migrateCommand(rt),
		statusCommand(rt),
		leaderboardCommand(rt),
	)
	return root
}

func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// load reads the config. A path given with --config must exist; the env and default paths
// may be absent so env-only deployments still start.
func (rt *runtime) load() error {
	path := rt.configPath
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
	}
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	rt.cfg = cfg
	rt.log = logger.New(cfg.LogConfig)
	logger.SetGlobal(rt.log)
	return nil
}

func serveCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and run the bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return bot.StartBot(rt.cfg, rt.log)
		},
	}
}

func sweepCommand(rt *runtime) *cobra.Command {
	var rollover, missions bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire lapsed subscriptions and boosters once, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, closeStore, err := bot.OpenStore(ctx, rt.cfg, rt.log.Named("store"))
			if err != nil {
				return err
			}
			defer closeStore()

			var p platform.Platform = platform.Offline{}
			if rt.cfg.DiscordConfig.Token != "" {
				session, err := bot.NewSession(rt.cfg.DiscordConfig)
				if err != nil {
					return err
				}
				p = discord.NewAdapter(session, rt.cfg.DiscordConfig.GuildID)
			}

			app := bot.NewApp(rt.cfg, s, p, nil, rt.log)
			app.Queue.Start()
			defer app.Queue.Stop()

			if err := app.RunSweep(ctx); err != nil {
				return err
			}
			if rollover {
				if err := app.RunRollover(ctx); err != nil {
					return err
				}
			}
			if missions {
				if err := app.RunMissionAssignment(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&rollover, "rollover", false, "also run the weekly leaderboard rollover")
	cmd.Flags().BoolVar(&missions, "missions", false, "also assign missions")
	return cmd
}

func migrateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply postgres migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := db.NewDatabase(rt.cfg.DBConfig)
			if err != nil {
				return err
			}
			defer database.Close()
			if err := database.Migrate(); err != nil {
				return err
			}
			rt.log.Info("migrations applied", zap.String("database", rt.cfg.DBConfig.DataBase))
			return nil
		},
	}
}

func statusCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List the documents held by the configured store backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, closeBackend, err := bot.OpenBackend(rt.cfg)
			if err != nil {
				return err
			}
			defer closeBackend()

			lister, ok := backend.(store.Lister)
			if !ok {
				return fmt.Errorf("store backend %q cannot list documents", rt.cfg.StoreConfig.Backend)
			}
			names, err := lister.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list documents: %w", err)
			}
			writeStatus(cmd.OutOrStdout(), names)
			return nil
		},
	}
}

// writeStatus prints one line per managed document, then any document the store does
// not manage.
func writeStatus(w io.Writer, names []string) {
	stored := make(map[string]bool, len(names))
	for _, n := range names {
		stored[n] = true
	}
	for _, doc := range store.Documents {
		state := "missing"
		if stored[doc] {
			state = "stored"
		}
		fmt.Fprintf(w, "%-20s %s\n", doc, state)
		delete(stored, doc)
	}
	for _, n := range names {
		if stored[n] {
			fmt.Fprintf(w, "%-20s %s\n", n, "unmanaged")
		}
	}
}

func leaderboardCommand(rt *runtime) *cobra.Command {
	var (
		board string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print a leaderboard from the stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, ok := leaderboard.Boards[strings.ToLower(board)]
			if !ok {
				return fmt.Errorf("unknown board %q (want one of %s)", board, strings.Join(boardNames(), ", "))
			}
			s, closeStore, err := bot.OpenStore(cmd.Context(), rt.cfg, rt.log.Named("store"))
			if err != nil {
				return err
			}
			defer closeStore()

			fmt.Fprintln(cmd.OutOrStdout(), b.Render(s.Users(), limit, func(id string) string { return id }))
			return nil
		},
	}
	cmd.Flags().StringVarP(&board, "board", "b", "xp", "board to print: "+strings.Join(boardNames(), ", "))
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of entries")
	return cmd
}

func boardNames() []string {
	names := make([]string, 0, len(leaderboard.Boards))
	for name := range leaderboard.Boards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
