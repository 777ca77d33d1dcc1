// Package pipeline drives a genre-map run: load the catalog, embed it,
// project it to 2D, color it, connect it with a spanning tree and persist
// the two artifacts.
package pipeline

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-genremap/pkg/colorize"
	"github.com/dd0wney/cluso-genremap/pkg/config"
	"github.com/dd0wney/cluso-genremap/pkg/embedding"
	"github.com/dd0wney/cluso-genremap/pkg/genre"
	"github.com/dd0wney/cluso-genremap/pkg/logging"
	"github.com/dd0wney/cluso-genremap/pkg/metrics"
	"github.com/dd0wney/cluso-genremap/pkg/reduction"
	"github.com/dd0wney/cluso-genremap/pkg/visualization"
)

// Pipeline holds the collaborators of a run. Encoder and Projector are
// required; the rest default when nil.
type Pipeline struct {
	Encoder   embedding.Encoder
	Projector reduction.Projector
	Edges     *visualization.EdgeBuilder
	Rand      *rand.Rand
	Logger    logging.Logger
	Metrics   *metrics.Registry
}

// Result is the output of a successful run.
type Result struct {
	RunID  string
	Points []genre.ColoredPoint
	Edges  []genre.Edge
}

func (p *Pipeline) logger() logging.Logger {
	if p.Logger == nil {
		return logging.NewNopLogger()
	}
	return p.Logger
}

func (p *Pipeline) registry() *metrics.Registry {
	if p.Metrics == nil {
		return metrics.DefaultRegistry()
	}
	return p.Metrics
}

// Run executes every stage up to, but not including, persistence. The
// first failing stage aborts the run with a *genre.StageError.
func (p *Pipeline) Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	r := &run{
		id:  uuid.NewString(),
		reg: p.registry(),
	}
	r.log = p.logger().With(logging.Component("pipeline"), logging.RunID(r.id))
	r.log.Info("pipeline run started",
		logging.Path(cfg.CatalogPath),
		logging.Float64("perplexity", cfg.TSNEPerplexity),
		logging.Float64("smoothing", cfg.ClustererSmoothing),
		logging.Count(len(cfg.TopGenres)),
	)

	var records []genre.Record
	err := r.stage(genre.StageLoad, func() (err error) {
		records, err = genre.LoadCatalog(cfg.CatalogPath)
		return err
	}, func() []logging.Field { return []logging.Field{logging.Count(len(records))} })
	if err != nil {
		return nil, err
	}

	var embedded *embedding.Result
	err = r.stage(genre.StageEmbed, func() (err error) {
		embedded, err = embedding.Embed(ctx, p.Encoder, records)
		return err
	}, func() []logging.Field {
		return []logging.Field{logging.String("model", p.Encoder.Model()), logging.Int("dimensions", len(embedded.Vectors[0]))}
	})
	if err != nil {
		return nil, err
	}

	var points []genre.Point
	err = r.stage(genre.StageReduce, func() (err error) {
		points, err = reduction.Reduce(ctx, p.Projector, embedded.Names, embedded.Vectors, embedded.IDs, cfg.TSNEPerplexity)
		return err
	}, func() []logging.Field { return []logging.Field{logging.Count(len(points))} })
	if err != nil {
		return nil, err
	}

	var colored []genre.ColoredPoint
	err = r.stage(genre.StageColorize, func() (err error) {
		colored, err = colorize.AssignColors(points, cfg.TopGenres, colorize.Options{
			Smoothing: cfg.ClustererSmoothing,
			Rand:      p.Rand,
		})
		return err
	}, func() []logging.Field { return []logging.Field{logging.Int("anchors", len(cfg.TopGenres))} })
	if err != nil {
		return nil, err
	}

	builder := p.Edges
	if builder == nil {
		builder = visualization.NewEdgeBuilder(nil)
	}
	var (
		edges      []genre.Edge
		treeLength float64
	)
	err = r.stage(genre.StageEdges, func() (err error) {
		edges, treeLength, err = builder.BuildTree(colored)
		return err
	}, func() []logging.Field {
		return []logging.Field{logging.Count(len(edges)), logging.Float64("tree_length", treeLength)}
	})
	if err != nil {
		return nil, err
	}

	return &Result{RunID: r.id, Points: colored, Edges: edges}, nil
}

// Execute runs the pipeline and persists its artifacts to cfg.OutputDir.
// Nothing is written unless every stage succeeds.
func (p *Pipeline) Execute(ctx context.Context, cfg *config.Config) (*Result, error) {
	start := time.Now()
	res, err := p.Run(ctx, cfg)
	if err != nil {
		return nil, err
	}

	r := &run{id: res.RunID, reg: p.registry()}
	r.log = p.logger().With(logging.Component("pipeline"), logging.RunID(r.id))
	err = r.stage(genre.StagePersist, func() error {
		return Persist(cfg.OutputDir, res)
	}, func() []logging.Field { return []logging.Field{logging.Path(cfg.OutputDir)} })
	if err != nil {
		return nil, err
	}

	r.reg.RecordRunSuccess(len(res.Points), len(cfg.TopGenres), len(res.Edges))
	r.log.Info("pipeline run finished",
		logging.Count(len(res.Points)),
		logging.Int("edges", len(res.Edges)),
		logging.Latency(time.Since(start)),
	)
	return res, nil
}

// run carries per-run logging and metrics state.
type run struct {
	id  string
	log logging.Logger
	reg *metrics.Registry
}

// stage times fn, logs the outcome and wraps a failure in a StageError.
// summary is only called after fn succeeds.
func (r *run) stage(name string, fn func() error, summary func() []logging.Field) error {
	timer := logging.StartTimer(r.log, "stage "+name, logging.Stage(name))
	if err := fn(); err != nil {
		timer.EndError(err)
		r.reg.RecordRunFailure(name, genre.KindName(err))
		return &genre.StageError{Stage: name, Err: err}
	}
	r.reg.RecordStage(name, timer.End(summary()...))
	return nil
}
