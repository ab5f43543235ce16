package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/UkralStul/pulse-social/internal/api"
	"github.com/UkralStul/pulse-social/internal/config"
	"github.com/UkralStul/pulse-social/internal/logger"
	"github.com/UkralStul/pulse-social/internal/metrics"
	"github.com/UkralStul/pulse-social/internal/notify"
	"github.com/UkralStul/pulse-social/internal/prefs"
	"github.com/UkralStul/pulse-social/internal/seed"
	"github.com/UkralStul/pulse-social/internal/social"
	"github.com/UkralStul/pulse-social/internal/storage"
	"github.com/UkralStul/pulse-social/internal/storage/inmemory"
	"github.com/UkralStul/pulse-social/internal/storage/postgres"
)

var (
	v          = config.New()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Pulse social aggregation server",
	Long: `Pulse serves feeds, trending lists, relationships, comments, messages
and notifications over JSON and websockets.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the configured storage with fake data and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := build(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()
		return app.seed(cmd.Context())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "YAML config file")
	flags.String("port", "8080", "HTTP port")
	flags.String("storage", config.StorageInMemory, "Storage type (in-memory or postgres)")
	flags.String("prefs", config.PrefsMemory, "Preference store (memory or redis)")
	flags.String("log-level", "info", "Log level")
	flags.Int("seed-users", 0, "Fake users to create at startup")
	flags.Int("seed-posts", 0, "Fake posts to create at startup")

	for key, flag := range map[string]string{
		"server.port":    "port",
		"storage.driver": "storage",
		"prefs.driver":   "prefs",
		"log.level":      "log-level",
		"seed.users":     "seed-users",
		"seed.posts":     "seed-posts",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(seedCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// application - собранный граф зависимостей.
type application struct {
	cfg      *config.Config
	store    storage.Storage
	registry *prometheus.Registry
	service  *social.Service
	inbox    *notify.Inbox
	hub      *notify.Hub
	closers  []io.Closer
}

func build(ctx context.Context) (*application, error) {
	cfg, err := config.Load(v, configFile)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(cfg.Log.Level, cfg.Log.File); err != nil {
		return nil, err
	}

	app := &application{cfg: cfg, registry: prometheus.NewRegistry()}
	app.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	logger.Log.Info("Starting server", zap.String("storage", cfg.Storage.Driver), zap.String("prefs", cfg.Prefs.Driver))
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pg, err := postgres.New(cfg.Storage.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		app.store = pg
		app.closers = append(app.closers, pg)
	default:
		app.store = inmemory.New()
	}

	var kv prefs.KV
	switch cfg.Prefs.Driver {
	case config.PrefsRedis:
		redisKV, err := prefs.NewRedisKV(ctx, prefs.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			app.Close()
			return nil, err
		}
		kv = redisKV
		app.closers = append(app.closers, redisKV)
	default:
		kv = prefs.NewMemoryKV()
	}
	preferences := prefs.NewStore(kv)

	m := metrics.New(app.registry)
	app.inbox = notify.NewInbox(cfg.Notify.InboxSize)
	app.hub = notify.NewHub()
	dispatcher := notify.NewDispatcher(preferences, logger.Log, m, app.inbox, app.hub)
	app.service = social.NewService(app.store, preferences, dispatcher, logger.Log, m)
	return app, nil
}

func (a *application) seed(ctx context.Context) error {
	if a.cfg.Seed.Users <= 0 {
		return nil
	}
	_, err := seed.NewSeeder(a.service, uint64(a.cfg.Seed.Seed), logger.Log).Run(ctx, a.cfg.Seed.Users, a.cfg.Seed.Posts)
	return err
}

func (a *application) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logger.Log.Warn("close failed", zap.Error(err))
		}
	}
	_ = logger.Close()
}

func serve(ctx context.Context) error {
	app, err := build(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.seed(ctx); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	router := api.NewRouter(&api.Handler{
		Service:  app.service,
		Storage:  app.store,
		Inbox:    app.inbox,
		Hub:      app.hub,
		Gatherer: app.registry,
		Log:      logger.Log.Named("http"),
	})

	srv := &http.Server{
		Addr:              ":" + app.cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("listening", zap.String("addr", "http://localhost:"+app.cfg.Server.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
