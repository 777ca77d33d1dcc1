// Command genremap-server serves a precomputed genre map: the index page,
// the points and edges artifacts, genre lookups by id, health and metrics.
// SIGHUP reloads the artifacts without a restart.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-genremap/pkg/api"
	"github.com/dd0wney/cluso-genremap/pkg/catalog"
	"github.com/dd0wney/cluso-genremap/pkg/config"
	"github.com/dd0wney/cluso-genremap/pkg/health"
	"github.com/dd0wney/cluso-genremap/pkg/logging"
	"github.com/dd0wney/cluso-genremap/pkg/metrics"
)

const (
	shutdownTimeout = 30 * time.Second
	maxHeapBytes    = 1 << 30
)

func main() {
	configPath := flag.String("config", "config.yml", "Path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logging.NewConsoleLogger(os.Stderr, logging.InfoLevel)
		boot.Error("load config", logging.Path(*configPath), logging.Error(err))
		boot.Sync()
		os.Exit(2)
	}

	logger := logging.New(cfg.LogFormat, os.Stderr, logging.ParseLevel(cfg.LogLevel))
	logging.SetDefaultLogger(logger)

	if err := serve(cfg, logger); err != nil {
		logger.Error("server exited", logging.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Info("server exited")
	logger.Sync()
}

func serve(cfg *config.Config, logger logging.Logger) error {
	reg := metrics.DefaultRegistry()

	store := catalog.NewStore(catalog.Sources{
		PointsPath:  cfg.PointsPath(),
		EdgesPath:   cfg.EdgesPath(),
		CatalogPath: cfg.CatalogPath,
	}, logger, reg)
	if err := store.Load(); err != nil {
		return err
	}

	srv := api.NewServer(store, api.Config{
		Addr:    cfg.Addr(),
		Health:  newHealthChecker(cfg, store),
		Metrics: reg,
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-hup:
				if err := store.Reload(); err != nil {
					logger.Warn("reload failed, keeping previous snapshot", logging.Error(err))
				}
			}
		}
	})
	return g.Wait()
}

func newHealthChecker(cfg *config.Config, store *catalog.Store) *health.HealthChecker {
	state := func() health.SnapshotState {
		snap := store.Snapshot()
		if snap == nil {
			return health.SnapshotState{}
		}
		return health.SnapshotState{
			Genres:   len(snap.Points),
			Edges:    len(snap.Edges),
			LoadedAt: snap.LoadedAt,
			Loaded:   true,
		}
	}
	loadedAt := func() time.Time { return state().LoadedAt }

	hc := health.NewHealthChecker()
	hc.RegisterCheck("snapshot", health.SnapshotCheck(state))
	hc.RegisterCheck("points_artifact", health.ArtifactCheck("points_artifact", cfg.PointsPath(), loadedAt))
	hc.RegisterCheck("edges_artifact", health.ArtifactCheck("edges_artifact", cfg.EdgesPath(), loadedAt))
	hc.RegisterCheck("memory", health.MemoryCheck(maxHeapBytes))
	hc.RegisterReadinessCheck("snapshot", health.SnapshotCheck(state))
	return hc
}
