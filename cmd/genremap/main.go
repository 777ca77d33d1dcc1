// Command genremap runs the offline genre map pipeline: it embeds the genre
// catalog, projects it to 2D, colors every genre against the anchor set,
// connects the points with a minimum spanning tree and writes points.json
// and edges.json to the configured output directory.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/dd0wney/cluso-genremap/pkg/config"
	"github.com/dd0wney/cluso-genremap/pkg/genre"
	"github.com/dd0wney/cluso-genremap/pkg/logging"
	"github.com/dd0wney/cluso-genremap/pkg/metrics"
	"github.com/dd0wney/cluso-genremap/pkg/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yml", "Path to the YAML config file")
	flag.Parse()

	os.Exit(run(*configPath))
}

func run(configPath string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		boot := logging.NewConsoleLogger(os.Stderr, logging.InfoLevel)
		boot.Error("load config", logging.Path(configPath), logging.Error(err))
		boot.Sync()
		return 2
	}

	logger := logging.New(cfg.LogFormat, os.Stderr, logging.ParseLevel(cfg.LogLevel))
	defer logger.Sync()
	logging.SetDefaultLogger(logger)

	reg := metrics.DefaultRegistry()
	p, err := pipeline.New(cfg, logger, reg)
	if err != nil {
		logger.Error("build pipeline", logging.Error(err))
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = p.Execute(ctx, cfg)

	if cfg.MetricsTextfile != "" {
		if werr := reg.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			logger.Warn("write metrics textfile", logging.Path(cfg.MetricsTextfile), logging.Error(werr))
		}
	}

	if err != nil {
		fields := []logging.Field{logging.String("kind", genre.KindName(err)), logging.Error(err)}
		var stageErr *genre.StageError
		if errors.As(err, &stageErr) {
			fields = append(fields, logging.Stage(stageErr.Stage))
		}
		logger.Error("pipeline failed", fields...)
		return 1
	}
	return 0
}
