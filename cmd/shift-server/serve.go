package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MRamiBalles/ShiftEngine/server/internal/engine"
	"github.com/MRamiBalles/ShiftEngine/server/internal/infra/cache"
	"github.com/MRamiBalles/ShiftEngine/server/internal/infra/storage"
	"github.com/MRamiBalles/ShiftEngine/server/internal/network"
	"github.com/MRamiBalles/ShiftEngine/server/internal/platform/config"
	"github.com/MRamiBalles/ShiftEngine/server/internal/platform/logger"
	"github.com/MRamiBalles/ShiftEngine/server/internal/platform/metrics"
	"github.com/MRamiBalles/ShiftEngine/server/internal/rulepack"
	"github.com/MRamiBalles/ShiftEngine/server/internal/session"
)

const (
	feedPollInterval = 50 * time.Millisecond
	shutdownTimeout  = 5 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.String("server.addr", ":8080", "listen address")
	f.String("server.profile", "default", "tuning profile: default, stress or low")
	f.String("storage.driver", config.DriverSQLite, "snapshot store: memory, sqlite or mysql")
	f.String("storage.dsn", "shift.db", "sqlite file or mysql DSN")
	f.String("rules.dir", "rules", "rule pack directory")
	f.String("rules.default_pack", "classic", "rule pack for new rooms")
	f.Bool("rules.watch", false, "reload rule packs when files change")
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewLogger()
	log.SetDebug(cfg.Debug)
	return cfg, log, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tuning := cfg.Tuning()
	m := metrics.Get()

	log.Infof("Opening %s snapshot store", cfg.Storage.Driver)
	repo, err := storage.Open(cfg.Storage.Driver, cfg.Storage.DSN, storage.PoolSize{
		MaxOpen: tuning.DBMaxOpenConns,
		MaxIdle: tuning.DBMaxIdleConns,
	})
	if err != nil {
		return err
	}
	snapshots, err := cache.NewSnapshotCache(repo, cfg.Cache.Size, m)
	if err != nil {
		repo.Close()
		return err
	}
	defer snapshots.Close()

	packs, err := rulepack.Open(cfg.Rules.Dir, log)
	if err != nil {
		return err
	}
	if _, ok := packs.Pack(cfg.Rules.DefaultPack); !ok {
		log.Warnf("Default rule pack %q is not loaded", cfg.Rules.DefaultPack)
	}

	registry := session.NewRegistry(session.Options{
		BoardLength: cfg.Game.BoardLength,
		MaxPlayers:  cfg.Game.MaxPlayers,
		DefaultPack: cfg.Rules.DefaultPack,
		SaveTimeout: cfg.Storage.Timeout,
		Resolver: engine.NewResolver(
			engine.WithMaxChainIterations(cfg.Game.MaxChainIterations),
			engine.WithLogger(log),
		),
		Store:   snapshots,
		Rules:   packs,
		Metrics: m,
		Logger:  log,
	})
	hub := network.NewHub(registry, network.HubOptions{
		BroadcastBuffer:      tuning.BroadcastBuffer,
		ClientSendBuffer:     tuning.ClientSendBuffer,
		MaxMessagesPerSecond: tuning.MaxMessagesPerSecond,
		Logger:               log,
		Metrics:              m,
	})
	api := &network.API{Hub: hub, Registry: registry, Snapshots: snapshots, Packs: packs, Metrics: m}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return hub.Run(ctx) })
	g.Go(func() error { return hub.Poll(ctx, registry.Feed(), feedPollInterval) })
	if cfg.Rules.Watch {
		g.Go(func() error { return packs.Watch(ctx) })
	}
	g.Go(func() error {
		log.Infof("HTTP API & WS server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
