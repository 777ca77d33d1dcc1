// Package catalog holds the genre map served to clients as an immutable,
// atomically swapped snapshot.
package catalog

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dd0wney/cluso-genremap/pkg/genre"
	"github.com/dd0wney/cluso-genremap/pkg/logging"
	"github.com/dd0wney/cluso-genremap/pkg/metrics"
)

// Genre is a served point joined with its catalog description.
type Genre struct {
	genre.ColoredPoint
	Description string `json:"description,omitempty"`
}

// Sources names the files a snapshot is built from. CatalogPath is
// optional and only contributes descriptions.
type Sources struct {
	PointsPath  string
	EdgesPath   string
	CatalogPath string
}

// Snapshot is one immutable view of the map. It must not be modified after
// publication.
type Snapshot struct {
	Points   []genre.ColoredPoint
	Edges    []genre.Edge
	LoadedAt time.Time

	byID         map[int]int
	descriptions map[int]string
}

// Lookup returns the genre with the given id.
func (s *Snapshot) Lookup(id int) (Genre, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return Genre{}, false
	}
	return Genre{ColoredPoint: s.Points[idx], Description: s.descriptions[id]}, true
}

// Store serves the current Snapshot. Readers never block on reloads.
type Store struct {
	src     Sources
	current atomic.Pointer[Snapshot]
	reload  sync.Mutex
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewStore creates an empty store. Call Load before serving.
func NewStore(src Sources, logger logging.Logger, reg *metrics.Registry) *Store {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if reg == nil {
		reg = metrics.DefaultRegistry()
	}
	return &Store{
		src:     src,
		logger:  logger.With(logging.Component("catalog")),
		metrics: reg,
	}
}

// Load builds the first snapshot.
func (s *Store) Load() error {
	return s.Reload()
}

// Reload rebuilds the snapshot from disk and swaps it in. On failure the
// previous snapshot keeps serving.
func (s *Store) Reload() error {
	s.reload.Lock()
	defer s.reload.Unlock()

	timer := logging.StartTimer(s.logger, "snapshot load", logging.Path(s.src.PointsPath))
	snap, err := build(s.src)
	s.metrics.RecordCatalogLoad(len(snapPoints(snap)), len(snapEdges(snap)), err)
	if err != nil {
		timer.EndError(err)
		return err
	}

	s.current.Store(snap)
	timer.End(logging.Count(len(snap.Points)), logging.Int("edges", len(snap.Edges)))
	return nil
}

// Snapshot returns the current snapshot, or nil before the first Load.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Lookup returns the genre with the given id from the current snapshot.
func (s *Store) Lookup(id int) (Genre, error) {
	snap := s.current.Load()
	if snap == nil {
		s.metrics.RecordLookup(false)
		return Genre{}, fmt.Errorf("%w: no snapshot loaded", genre.ErrNotFound)
	}
	g, ok := snap.Lookup(id)
	s.metrics.RecordLookup(ok)
	if !ok {
		return Genre{}, fmt.Errorf("%w: id %d", genre.ErrNotFound, id)
	}
	return g, nil
}

func build(src Sources) (*Snapshot, error) {
	points, err := genre.LoadPoints(src.PointsPath)
	if err != nil {
		return nil, err
	}
	edges, err := genre.LoadEdges(src.EdgesPath)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Points:       points,
		Edges:        edges,
		LoadedAt:     time.Now(),
		byID:         make(map[int]int, len(points)),
		descriptions: make(map[int]string),
	}
	for i, p := range points {
		if _, dup := snap.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate id %d", genre.ErrDataLoad, src.PointsPath, p.ID)
		}
		snap.byID[p.ID] = i
	}

	if src.CatalogPath != "" {
		records, err := genre.LoadCatalog(src.CatalogPath)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			snap.descriptions[r.ID] = r.Description
		}
	}
	return snap, nil
}

func snapPoints(s *Snapshot) []genre.ColoredPoint {
	if s == nil {
		return nil
	}
	return s.Points
}

func snapEdges(s *Snapshot) []genre.Edge {
	if s == nil {
		return nil
	}
	return s.Edges
}
